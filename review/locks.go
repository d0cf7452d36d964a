/*
Package review drives the Draft -> Review -> Accept lifecycle for a claim.

THIS FILE (locks.go):
  The actor-identity and advisory-lock collaborators are external process
  state in the portal. The engine consumes them as injected capabilities:
  it stamps locks with the current actor id and releases the lock on
  finalize, but never implements authentication or store-side locking
  itself. MemoryLock exists for the server shell and tests.
*/
package review

import (
	"context"
	"sync"
)

// ActorIdentity supplies the current actor id, used only to stamp advisory
// locks. Empty string means no authenticated actor.
type ActorIdentity interface {
	CurrentActorID() string
}

// StaticActor is a fixed-identity ActorIdentity.
type StaticActor string

func (a StaticActor) CurrentActorID() string { return string(a) }

// AdvisoryLock is the external per-record lock. Callers acquire it before
// mutating operations on a claim and release on completion or abandonment.
type AdvisoryLock interface {
	Acquire(ctx context.Context, claimID, actorID string) error
	Release(ctx context.Context, claimID string) error
	Holder(ctx context.Context, claimID string) (string, error)
}

// =============================================================================
// MEMORY LOCK - In-process implementation (for the shell and tests)
// =============================================================================

type MemoryLock struct {
	mu      sync.Mutex
	holders map[string]string
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{holders: make(map[string]string)}
}

func (l *MemoryLock) Acquire(_ context.Context, claimID, actorID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if holder, held := l.holders[claimID]; held && holder != actorID {
		return &LockHeldError{ClaimID: claimID, Holder: holder}
	}
	l.holders[claimID] = actorID
	return nil
}

func (l *MemoryLock) Release(_ context.Context, claimID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.holders, claimID)
	return nil
}

func (l *MemoryLock) Holder(_ context.Context, claimID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.holders[claimID], nil
}

// LockHeldError reports a claim already locked by another actor.
type LockHeldError struct {
	ClaimID string
	Holder  string
}

func (e *LockHeldError) Error() string {
	return "claim " + e.ClaimID + " locked by " + e.Holder
}
