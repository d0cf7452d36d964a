package review_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compensation-engine/calc"
	"github.com/warp/compensation-engine/claims"
	"github.com/warp/compensation-engine/review"
	"github.com/warp/compensation-engine/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func newMachine(st store.RecordStore) (*review.Machine, *review.MemoryLock) {
	locks := review.NewMemoryLock()
	m := review.NewMachine(st, locks, review.StaticActor("clerk-1"))
	m.Clock = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return m, locks
}

func params() *claims.RefData {
	return &claims.RefData{Params: claims.NewSystemParameters(map[string]string{
		"MinCompensationAmountDeath":      "40000",
		"MaxCompensationAmountDeath":      "300000",
		"WeeklyCompensationPerChildDeath": "25",
	})}
}

// injuryContext is ready to accept: findings, recommendations, documents,
// and one compensated row.
func injuryContext() *claims.ClaimContext {
	cc := &claims.ClaimContext{
		Claim: claims.Claim{
			IRN:          "irn-1",
			WorkerID:     "w-1",
			IncidentType: claims.IncidentInjury,
			IncidentDate: claims.NewDate(2024, time.March, 10),
		},
		Worker:     claims.Worker{ID: "w-1", Name: "Kila Aua"},
		Employment: claims.EmploymentDetails{WorkerID: "w-1", AverageWeeklyWage: dec(625)},
		Ref:        params(),
		Checklist: []claims.ChecklistRow{
			{Criterion: "Loss of hand", Factor: dec(5)},
		},
		Findings:        "left hand crushed",
		Recommendations: "approve compensation",
		State:           claims.StateLoaded,
	}
	cc.Documents = claims.EvaluateDocuments(claims.IncidentInjury, []string{
		claims.DocSupervisorStatement, claims.DocFinalMedicalReport,
	})
	calc.SetDoctorPercentage(&cc.Checklist[0], cc.AnnualWage(), dec(10))
	return cc
}

func deathContext() *claims.ClaimContext {
	cc := &claims.ClaimContext{
		Claim: claims.Claim{
			IRN:          "irn-2",
			WorkerID:     "w-1",
			IncidentType: claims.IncidentDeath,
			IncidentDate: claims.NewDate(2024, time.March, 10),
		},
		Worker: claims.Worker{
			ID: "w-1", Name: "Kila Aua",
			Spouse: &claims.Spouse{Name: "Maria Aua"},
		},
		Dependants: []claims.Dependant{
			{ID: "d-1", WorkerID: "w-1", Name: "Peni Aua", Type: "Child",
				DateOfBirth: claims.NewDate(2015, time.May, 1)},
			{ID: "d-2", WorkerID: "w-1", Name: "Abo Aua", Type: "Parent"},
		},
		Employment:      claims.EmploymentDetails{WorkerID: "w-1", AverageWeeklyWage: dec(625)},
		Ref:             params(),
		Findings:        "fatal workplace accident",
		Recommendations: "approve full benefit",
		State:           claims.StateLoaded,
	}
	cc.Documents = claims.EvaluateDocuments(claims.IncidentDeath, []string{
		claims.DocSupervisorStatement, claims.DocDeathCertificate,
	})
	return cc
}

func seedClaimRecord(t *testing.T, st store.RecordStore, cc *claims.ClaimContext) {
	t.Helper()
	err := st.UpsertByKey(context.Background(), "claims", cc.Claim.IRN, store.Record{
		"irn": cc.Claim.IRN, "worker_id": cc.Claim.WorkerID,
		"incident_type": string(cc.Claim.IncidentType),
	})
	require.NoError(t, err)
}

// =============================================================================
// DRAFT SAVE
// =============================================================================

func TestSaveDraft_RequiresOnlyAnIdentifier(t *testing.T) {
	// GIVEN: a context with no findings, documents, or checked rows
	// WHEN: saving a draft
	// THEN: the save succeeds; draft save does no accept validation

	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	cc.Findings = ""
	cc.Recommendations = ""

	require.NoError(t, m.SaveDraft(context.Background(), cc))
	assert.Equal(t, claims.StateDraftSaved, cc.State)
}

func TestSaveDraft_MissingIRNRefused(t *testing.T) {
	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	cc.Claim.IRN = ""

	assert.ErrorIs(t, m.SaveDraft(context.Background(), cc), claims.ErrMissingIRN)
}

func TestSaveDraft_DoesNotTouchReviewStatus(t *testing.T) {
	// GIVEN: a claim with no review records
	// WHEN: saving a draft
	// THEN: the reviews table stays empty and the claim status is unchanged

	ctx := context.Background()
	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	seedClaimRecord(t, st, cc)

	require.NoError(t, m.SaveDraft(ctx, cc))

	reviews, err := st.Find(ctx, "reviews", store.Filter{"claim_id": "irn-1"})
	require.NoError(t, err)
	assert.Empty(t, reviews)

	claimRecs, err := st.Find(ctx, "claims", store.Filter{"irn": "irn-1"})
	require.NoError(t, err)
	require.Len(t, claimRecs, 1)
	assert.Empty(t, claimRecs[0]["status"])
}

// =============================================================================
// ACCEPT PREVIEW - each refusal independently
// =============================================================================

func TestPreviewAccept_EmptyFindingsRefused(t *testing.T) {
	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	cc.Findings = ""

	reasons := m.PreviewAccept(cc, calc.ForContext(cc))

	require.Len(t, reasons, 1)
	assert.Equal(t, review.ReasonFindingsRequired, reasons[0].Code)
	assert.Equal(t, claims.StateLoaded, cc.State, "no transition on refusal")
}

func TestPreviewAccept_EmptyRecommendationsRefused(t *testing.T) {
	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	cc.Recommendations = ""

	reasons := m.PreviewAccept(cc, calc.ForContext(cc))

	require.Len(t, reasons, 1)
	assert.Equal(t, review.ReasonRecommendationsRequired, reasons[0].Code)
}

func TestPreviewAccept_MissingMandatoryDocumentRefused(t *testing.T) {
	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	cc.Documents = claims.EvaluateDocuments(claims.IncidentInjury, []string{
		claims.DocSupervisorStatement, // final medical report absent
	})

	reasons := m.PreviewAccept(cc, calc.ForContext(cc))

	require.Len(t, reasons, 1)
	assert.Equal(t, review.ReasonMandatoryDocsMissing, reasons[0].Code)
}

func TestPreviewAccept_InjuryWithoutCompensableRowRefused(t *testing.T) {
	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	cc.Checklist[0].Uncheck()

	reasons := m.PreviewAccept(cc, calc.ForContext(cc))

	require.Len(t, reasons, 1)
	assert.Equal(t, review.ReasonNoCompensableCriteria, reasons[0].Code)
}

func TestPreviewAccept_DeathClaimNeedsNoCheckedRow(t *testing.T) {
	// GIVEN: a valid death claim with no checklist at all
	// WHEN: previewing accept
	// THEN: the injury-only rule does not apply

	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := deathContext()

	reasons := m.PreviewAccept(cc, calc.ForContext(cc))
	assert.Empty(t, reasons)
	assert.Equal(t, claims.StateAcceptPreview, cc.State)
}

func TestPreviewAccept_MultipleReasonsSurfaceTogether(t *testing.T) {
	// GIVEN: a claim failing every check at once
	// WHEN: previewing accept
	// THEN: every reason is reported, not just the first

	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	cc.Findings = ""
	cc.Recommendations = ""
	cc.Documents = claims.EvaluateDocuments(claims.IncidentInjury, nil)
	cc.Checklist[0].Uncheck()

	reasons := m.PreviewAccept(cc, calc.ForContext(cc))
	assert.Len(t, reasons, 4)
}

// =============================================================================
// FINALIZE
// =============================================================================

func TestFinalizeAccept_InjuryPersistsChecklistAndPropagatesStatus(t *testing.T) {
	// GIVEN: an accept-ready injury claim
	// WHEN: finalizing
	// THEN: checklist rows and summary are persisted, the CPO stage is
	//       CompensationCalculated, the CPM stage is Pending with a
	//       submission timestamp, and the claim status is propagated

	ctx := context.Background()
	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	seedClaimRecord(t, st, cc)

	require.NoError(t, m.FinalizeAccept(ctx, cc, calc.ForContext(cc)))
	assert.Equal(t, claims.StateAcceptFinalize, cc.State)

	rows, err := st.Find(ctx, "checklist", store.Filter{"claim_id": "irn-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "true", rows[0]["checked"])

	reviews, err := st.Find(ctx, "reviews", store.Filter{"claim_id": "irn-1"})
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	byStage := map[string]store.Record{}
	for _, r := range reviews {
		byStage[r["stage"]] = r
	}
	assert.Equal(t, string(claims.StatusCompensationCalculated), byStage[string(claims.StageCPO)]["status"])
	assert.Equal(t, string(claims.StatusPending), byStage[string(claims.StageCPM)]["status"])
	assert.Equal(t, "2024-03-15T12:00:00Z", byStage[string(claims.StageCPM)]["submitted_at"])

	claimRecs, err := st.Find(ctx, "claims", store.Filter{"irn": "irn-1"})
	require.NoError(t, err)
	assert.Equal(t, string(claims.StatusCompensationCalculated), claimRecs[0]["status"])
}

func TestFinalizeAccept_ValidationFailureBlocksPersistence(t *testing.T) {
	// GIVEN: an injury claim with empty findings
	// WHEN: finalizing
	// THEN: a ValidationFailedError carries the reasons and nothing persists

	ctx := context.Background()
	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := injuryContext()
	cc.Findings = ""
	seedClaimRecord(t, st, cc)

	err := m.FinalizeAccept(ctx, cc, calc.ForContext(cc))

	var vErr *review.ValidationFailedError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Reasons, 1)

	reviews, findErr := st.Find(ctx, "reviews", store.Filter{"claim_id": "irn-1"})
	require.NoError(t, findErr)
	assert.Empty(t, reviews)
}

func TestFinalizeAccept_DeathRewritesDependantRowsIdempotently(t *testing.T) {
	// GIVEN: a finalized death claim
	// WHEN: finalizing again with unchanged inputs
	// THEN: the dependant-compensation table holds the same row set, not
	//       duplicates - delete-then-reinsert converges on retry

	ctx := context.Background()
	st := store.NewMemory()
	m, _ := newMachine(st)
	cc := deathContext()
	seedClaimRecord(t, st, cc)
	result := calc.ForContext(cc)

	require.NoError(t, m.FinalizeAccept(ctx, cc, result))
	first, err := st.Find(ctx, "dependant_compensation", store.Filter{"claim_id": "irn-2"})
	require.NoError(t, err)
	require.Len(t, first, 3, "spouse + child + additional")

	require.NoError(t, m.FinalizeAccept(ctx, cc, result))
	second, err := st.Find(ctx, "dependant_compensation", store.Filter{"claim_id": "irn-2"})
	require.NoError(t, err)
	require.Len(t, second, 3, "rerun must not duplicate rows")

	for _, rec := range second {
		if rec["relation"] == string(calc.RelationChild) {
			assert.NotEmpty(t, rec["benefit_amount"], "child row carries weekly benefit")
		}
	}
}

// stallingStore parks the first compensation-summary write until released,
// holding a finalize open mid-persist.
type stallingStore struct {
	store.RecordStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *stallingStore) UpsertByKey(ctx context.Context, table, key string, rec store.Record) error {
	if table == "compensation" {
		s.once.Do(func() { close(s.entered) })
		<-s.release
	}
	return s.RecordStore.UpsertByKey(ctx, table, key, rec)
}

func TestFinalizeAccept_SecondCallWhileFirstInFlightRefused(t *testing.T) {
	// GIVEN: a finalize parked inside a storage write for the claim
	// WHEN: a second finalize for the same claim arrives
	// THEN: it is refused immediately with ErrFinalizeInFlight, the parked
	//       call completes once storage returns, and the claim can be
	//       finalized again afterwards

	ctx := context.Background()
	st := &stallingStore{
		RecordStore: store.NewMemory(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	m, _ := newMachine(st)
	cc := injuryContext()
	seedClaimRecord(t, st, cc)

	firstDone := make(chan error, 1)
	go func() { firstDone <- m.FinalizeAccept(ctx, cc, calc.ForContext(cc)) }()
	<-st.entered

	second := injuryContext()
	err := m.FinalizeAccept(ctx, second, calc.ForContext(second))
	assert.ErrorIs(t, err, claims.ErrFinalizeInFlight)
	assert.Equal(t, claims.StateAcceptPreview, second.State, "refused call must not finalize")

	close(st.release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, claims.StateAcceptFinalize, cc.State)

	// The guard clears once the first call returns.
	require.NoError(t, m.FinalizeAccept(ctx, second, calc.ForContext(second)))
}

func TestFinalizeAccept_ReleasesAdvisoryLock(t *testing.T) {
	// GIVEN: the clerk holds the advisory lock for the claim
	// WHEN: finalize succeeds
	// THEN: the lock is released

	ctx := context.Background()
	st := store.NewMemory()
	m, locks := newMachine(st)
	cc := injuryContext()
	seedClaimRecord(t, st, cc)

	require.NoError(t, locks.Acquire(ctx, "irn-1", "clerk-1"))
	require.NoError(t, m.FinalizeAccept(ctx, cc, calc.ForContext(cc)))

	holder, err := locks.Holder(ctx, "irn-1")
	require.NoError(t, err)
	assert.Empty(t, holder)
}

// =============================================================================
// ADVISORY LOCK
// =============================================================================

func TestMemoryLock_SecondActorBlocked(t *testing.T) {
	ctx := context.Background()
	locks := review.NewMemoryLock()

	require.NoError(t, locks.Acquire(ctx, "irn-1", "clerk-1"))

	err := locks.Acquire(ctx, "irn-1", "clerk-2")
	var held *review.LockHeldError
	require.ErrorAs(t, err, &held)
	assert.Equal(t, "clerk-1", held.Holder)

	// Re-acquire by the same actor is fine.
	assert.NoError(t, locks.Acquire(ctx, "irn-1", "clerk-1"))
}
