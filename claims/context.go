/*
context.go - Claim context resolver

PURPOSE:
  Loads everything one claim needs for calculation into a ClaimContext:
  the claim and worker records, the dependant roster, the employment wage,
  reference data, prior persisted checklist rows (merged back into the
  fresh criteria list), the prior draft's expenses and findings, and the
  submitted-document set from the attachment registry.

LIFECYCLE:
  A ClaimContext is derived fresh on every load and discarded on close.
  Nothing in it writes back implicitly; persistence happens only through
  the review package on explicit Save-Draft or Accept-Finalize.
*/
package claims

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/store"
)

// =============================================================================
// CLAIM CONTEXT - All in-memory state for one loaded claim
// =============================================================================

type ClaimContext struct {
	Claim      Claim
	Worker     Worker
	Dependants []Dependant
	Employment EmploymentDetails

	Ref       *RefData
	Checklist []ChecklistRow
	Documents DocumentStatus

	// Clerk-entered review fields, restored from the prior draft.
	Findings        string
	Recommendations string
	MedicalExpenses decimal.Decimal
	MiscExpenses    decimal.Decimal
	Deductions      decimal.Decimal

	State ReviewState
}

// AnnualWage is the claim's statutory annual wage.
func (c *ClaimContext) AnnualWage() decimal.Decimal {
	return c.Employment.AnnualWage()
}

// Row returns the checklist row for the criterion label, or nil.
func (c *ClaimContext) Row(criterion string) *ChecklistRow {
	for i := range c.Checklist {
		if c.Checklist[i].Criterion == criterion {
			return &c.Checklist[i]
		}
	}
	return nil
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver assembles ClaimContexts from the record store.
type Resolver struct {
	Store store.RecordStore
	Ref   *Loader
}

func NewResolver(st store.RecordStore) *Resolver {
	return &Resolver{Store: st, Ref: NewLoader(st)}
}

// Load fetches the full context for an IRN. Missing claim or worker
// records are fatal for the operation and surfaced verbatim.
func (r *Resolver) Load(ctx context.Context, irn string) (*ClaimContext, error) {
	claimRec, err := r.findOne(ctx, "claims", store.Filter{"irn": irn})
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if claimRec == nil {
		return nil, &NotFoundError{Kind: "claim", ID: irn}
	}
	claim := claimFromRecord(claimRec)

	workerRec, err := r.findOne(ctx, "workers", store.Filter{"id": claim.WorkerID})
	if err != nil {
		return nil, fmt.Errorf("load worker: %w", err)
	}
	if workerRec == nil {
		return nil, &NotFoundError{Kind: "worker", ID: claim.WorkerID}
	}

	ref, err := r.Ref.Load(ctx)
	if err != nil {
		return nil, err
	}

	cc := &ClaimContext{
		Claim:  claim,
		Worker: workerFromRecord(workerRec),
		Ref:    ref,
		State:  StateLoaded,
	}

	depRecs, err := r.Store.Find(ctx, "dependants", store.Filter{"worker_id": claim.WorkerID})
	if err != nil {
		return nil, fmt.Errorf("load dependants: %w", err)
	}
	for _, rec := range depRecs {
		cc.Dependants = append(cc.Dependants, dependantFromRecord(rec))
	}

	empRec, err := r.findOne(ctx, "employment", store.Filter{"worker_id": claim.WorkerID})
	if err != nil {
		return nil, fmt.Errorf("load employment: %w", err)
	}
	cc.Employment = EmploymentDetails{WorkerID: claim.WorkerID}
	if empRec != nil {
		cc.Employment.AverageWeeklyWage = ParseAmount(empRec["weekly_wage"])
	}

	// The criteria checklist only belongs to injury claims; a death claim
	// carries none.
	if claim.IncidentType == IncidentInjury {
		priorRows, err := r.Store.Find(ctx, "checklist", store.Filter{"claim_id": irn})
		if err != nil {
			return nil, fmt.Errorf("load checklist: %w", err)
		}
		persisted := make([]ChecklistRow, 0, len(priorRows))
		for _, rec := range priorRows {
			persisted = append(persisted, checklistRowFromRecord(rec))
		}
		cc.Checklist = MergeChecklist(ref.Criteria, persisted)
	}

	if draft, err := r.findOne(ctx, "compensation", store.Filter{"claim_id": irn}); err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	} else if draft != nil {
		cc.Findings = draft["findings"]
		cc.Recommendations = draft["recommendations"]
		cc.MedicalExpenses = ParseAmount(draft["medical_expenses"])
		cc.MiscExpenses = ParseAmount(draft["misc_expenses"])
		cc.Deductions = ParseAmount(draft["deductions"])
	}

	attachRecs, err := r.Store.Find(ctx, "attachments", store.Filter{"claim_id": irn})
	if err != nil {
		return nil, fmt.Errorf("load attachments: %w", err)
	}
	var submitted []string
	for _, rec := range attachRecs {
		submitted = append(submitted, rec["document_type"])
	}
	cc.Documents = EvaluateDocuments(claim.IncidentType, submitted)

	return cc, nil
}

func (r *Resolver) findOne(ctx context.Context, table string, filter store.Filter) (store.Record, error) {
	recs, err := r.Store.Find(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// =============================================================================
// RECORD MAPPING
// =============================================================================
// Dates follow the same rule as amounts: a malformed stored value maps to the
// zero Date rather than failing the load. Downstream code already treats a
// zero Date as "unknown" (child benefits skip it, age checks never pass).

func claimFromRecord(rec store.Record) Claim {
	incidentDate, _ := ParseDate(rec["incident_date"])
	t := IncidentType(rec["incident_type"])
	if t != IncidentDeath {
		t = IncidentInjury
	}
	return Claim{
		IRN:          rec["irn"],
		DisplayIRN:   rec["display_irn"],
		WorkerID:     rec["worker_id"],
		IncidentType: t,
		IncidentDate: incidentDate,
	}
}

func workerFromRecord(rec store.Record) Worker {
	dob, _ := ParseDate(rec["dob"])
	w := Worker{
		ID:            rec["id"],
		Name:          rec["name"],
		DateOfBirth:   dob,
		MaritalStatus: rec["marital_status"],
	}
	if rec["spouse_name"] != "" {
		spouseDOB, _ := ParseDate(rec["spouse_dob"])
		w.Spouse = &Spouse{Name: rec["spouse_name"], DateOfBirth: spouseDOB}
	}
	return w
}

func dependantFromRecord(rec store.Record) Dependant {
	dob, _ := ParseDate(rec["dob"])
	return Dependant{
		ID:                 rec["id"],
		WorkerID:           rec["worker_id"],
		Name:               rec["name"],
		Type:               rec["type"],
		DateOfBirth:        dob,
		DegreeOfDependence: ParseAmount(rec["degree"]),
	}
}

func checklistRowFromRecord(rec store.Record) ChecklistRow {
	return ChecklistRow{
		Criterion:        rec["criterion"],
		Factor:           ParseAmount(rec["factor"]),
		Checked:          rec["checked"] == "true",
		DoctorPercentage: ParseAmount(rec["doctor_percentage"]),
		Calculation:      rec["calculation"],
		Compensation:     ParseAmount(rec["compensation"]),
	}
}
