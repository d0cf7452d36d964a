/*
main.go - Compensation engine server entry point

STARTUP SEQUENCE:
  1. Load configuration (.env / environment)
  2. Open SQLite record store
  3. Build resolver, review machine, and HTTP handler
  4. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  in-flight requests, close the store, exit.
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/compensation-engine/api"
	"github.com/warp/compensation-engine/claims"
	"github.com/warp/compensation-engine/config"
	"github.com/warp/compensation-engine/logger"
	"github.com/warp/compensation-engine/review"
	"github.com/warp/compensation-engine/store/sqlite"
)

func main() {
	cfg := config.Load()
	logger.WithDebug(cfg.Debug)

	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	resolver := claims.NewResolver(st)
	machine := review.NewMachine(st, review.NewMemoryLock(), review.StaticActor(cfg.ActorID))
	handler := api.NewHandler(resolver, machine)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}
