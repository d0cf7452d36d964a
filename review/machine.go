/*
machine.go - Claim review state machine

STATES:
  Loaded -> (optionally) DraftSaved -> AcceptPreview -> AcceptFinalized

  Loaded is entered on every fetch and may be re-entered freely. DraftSaved
  persists clerk state with no validation beyond "an identifier is
  present" and no status change. AcceptPreview is a pure validation gate;
  a failing check leaves the state where it was and surfaces every failing
  reason at once. AcceptFinalize is terminal for this engine.

FINALIZE GUARD:
  Storage-layer writes are idempotent (upsert by claim identifier, death
  dependant rows delete-then-reinsert), but a second finalize must not
  start while a first is in flight. The guard is a local per-claim flag on
  the machine, not a store-side lock.
*/
package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warp/compensation-engine/calc"
	"github.com/warp/compensation-engine/claims"
	"github.com/warp/compensation-engine/store"
)

// =============================================================================
// VALIDATION REASONS
// =============================================================================
// Validation failures are reported as reason rows, not errors, so multiple
// failures surface simultaneously.

type ReasonCode string

const (
	ReasonFindingsRequired        ReasonCode = "findings_required"
	ReasonRecommendationsRequired ReasonCode = "recommendations_required"
	ReasonMandatoryDocsMissing    ReasonCode = "mandatory_documents_missing"
	ReasonNoCompensableCriteria   ReasonCode = "no_compensable_criteria"
)

type Reason struct {
	Code    ReasonCode
	Message string
}

// ValidationFailedError wraps the reason list when a caller insists on an
// error value (the finalize path).
type ValidationFailedError struct {
	Reasons []Reason
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("accept blocked by %d validation failure(s)", len(e.Reasons))
}

// =============================================================================
// MACHINE
// =============================================================================

// Machine drives review transitions for claims at one review stage.
type Machine struct {
	Adapter *Adapter
	Locks   AdvisoryLock
	Actor   ActorIdentity
	Stage   claims.ReviewStage

	// Clock is overridable in tests; defaults to time.Now.
	Clock func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewMachine(st store.RecordStore, locks AdvisoryLock, actor ActorIdentity) *Machine {
	return &Machine{
		Adapter:  &Adapter{Store: st},
		Locks:    locks,
		Actor:    actor,
		Stage:    claims.StageCPO,
		Clock:    time.Now,
		inFlight: make(map[string]bool),
	}
}

// SaveDraft persists the clerk's working state. The only precondition is a
// present claim identifier; the external review status is untouched.
func (m *Machine) SaveDraft(ctx context.Context, c *claims.ClaimContext) error {
	if c.Claim.IRN == "" {
		return claims.ErrMissingIRN
	}
	if err := m.Adapter.SaveDraft(ctx, c); err != nil {
		return err
	}
	c.State = claims.StateDraftSaved
	return nil
}

// PreviewAccept runs the accept validation gate without side effects. An
// empty reason list means the claim may proceed to finalize; the context
// moves to AcceptPreview. Any failure leaves the state unchanged.
func (m *Machine) PreviewAccept(c *claims.ClaimContext, result calc.Result) []Reason {
	var reasons []Reason

	if c.Findings == "" {
		reasons = append(reasons, Reason{
			Code:    ReasonFindingsRequired,
			Message: "findings must be recorded before accepting",
		})
	}
	if c.Recommendations == "" {
		reasons = append(reasons, Reason{
			Code:    ReasonRecommendationsRequired,
			Message: "recommendations must be recorded before accepting",
		})
	}
	if c.Documents.AcceptBlocked() {
		reasons = append(reasons, Reason{
			Code: ReasonMandatoryDocsMissing,
			Message: fmt.Sprintf("mandatory documents missing: %v",
				c.Documents.MissingHardMandatory),
		})
	}
	if c.Claim.IncidentType == claims.IncidentInjury && !hasCompensableRow(result.Checklist) {
		reasons = append(reasons, Reason{
			Code:    ReasonNoCompensableCriteria,
			Message: "at least one checked criterion with compensation is required",
		})
	}

	if len(reasons) == 0 {
		c.State = claims.StateAcceptPreview
	}
	return reasons
}

func hasCompensableRow(rows []claims.ChecklistRow) bool {
	for _, row := range rows {
		if row.Checked && row.Compensation.IsPositive() {
			return true
		}
	}
	return false
}

// FinalizeAccept validates, persists the accepted calculation, marks the
// current stage complete, queues the next stage at Pending, and releases
// the advisory lock held by the current actor.
func (m *Machine) FinalizeAccept(ctx context.Context, c *claims.ClaimContext, result calc.Result) error {
	if c.Claim.IRN == "" {
		return claims.ErrMissingIRN
	}
	if reasons := m.PreviewAccept(c, result); len(reasons) > 0 {
		return &ValidationFailedError{Reasons: reasons}
	}

	irn := c.Claim.IRN
	m.mu.Lock()
	if m.inFlight[irn] {
		m.mu.Unlock()
		return claims.ErrFinalizeInFlight
	}
	m.inFlight[irn] = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.inFlight, irn)
		m.mu.Unlock()
	}()

	submittedAt := m.Clock().UTC().Format(time.RFC3339)
	if err := m.Adapter.Finalize(ctx, c, result, m.Stage, submittedAt); err != nil {
		return err
	}

	if m.Locks != nil {
		if err := m.Locks.Release(ctx, irn); err != nil {
			return fmt.Errorf("finalize persisted but lock release failed: %w", err)
		}
	}

	c.State = claims.StateAcceptFinalize
	return nil
}
