// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs.
type Config struct {
	Addr    string // listen address
	DBPath  string // SQLite path, ":memory:" supported
	ActorID string // advisory-lock stamp for this process
	Debug   bool
}

// Load reads configuration. A missing .env file is not an error; real
// environment variables win over file values either way.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:    getEnv("LISTEN_ADDR", ":8080"),
		DBPath:  getEnv("DB_PATH", "claims.db"),
		ActorID: getEnv("ACTOR_ID", "system"),
		Debug:   getEnvBool("DEBUG", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
