/*
errors.go - Centralized error types for the claims engine

PURPOSE:
  All sentinel errors in one place. Packages downstream wrap these with
  additional context via fmt.Errorf("...: %w", err).

ERROR CATEGORIES:
  1. Context errors - claim/worker missing; fatal for the current operation
  2. Reference-data errors - non-fatal when a cached copy exists
  3. Review errors - state-machine guards

Validation failures (empty findings, missing mandatory documents, no
checked criteria) are NOT errors: the review package reports them as
reason rows so multiple failures surface at once.
*/
package claims

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrClaimNotFound is returned when no claim record exists for an IRN.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrWorkerNotFound is returned when a claim references a missing worker.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrReferenceData is returned when reference data cannot be loaded and
	// no cached copy from a prior load is available. Calculation stays
	// disabled until a retry succeeds.
	ErrReferenceData = errors.New("reference data unavailable")

	// ErrMissingIRN is returned when a save is attempted without a claim
	// identifier.
	ErrMissingIRN = errors.New("claim identifier required")

	// ErrFinalizeInFlight is returned when a finalize is attempted while a
	// prior finalize for the same claim is still outstanding.
	ErrFinalizeInFlight = errors.New("finalize already in flight for claim")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotFoundError carries the identifier that failed to resolve.
type NotFoundError struct {
	Kind string // "claim" or "worker"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	if e.Kind == "worker" {
		return ErrWorkerNotFound
	}
	return ErrClaimNotFound
}

// IsNotFound reports whether err is a missing-context error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClaimNotFound) || errors.Is(err, ErrWorkerNotFound)
}
