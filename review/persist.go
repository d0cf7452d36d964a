/*
persist.go - Persistence adapter

PURPOSE:
  Translates calculator output into record-store commands. The adapter is
  the only place engine state crosses back over the store boundary.

IDEMPOTENCY:
  Claim-keyed rows (summary, checklist, reviews) are upserts, so a retried
  finalize rewrites rather than duplicates. The death dependant rows are
  the exception: a changed split can produce a different row set, so the
  adapter deletes every dependant-compensation row for the claim and
  reinserts the full current set. Stale rows from a prior, different split
  can never survive a retry.
*/
package review

import (
	"context"
	"fmt"
	"strconv"

	"github.com/warp/compensation-engine/calc"
	"github.com/warp/compensation-engine/claims"
	"github.com/warp/compensation-engine/store"
)

// Adapter writes draft and finalize state to the record store.
type Adapter struct {
	Store store.RecordStore
}

// SaveDraft persists the clerk's current checklist, expense, and finding
// state without touching any review status.
func (a *Adapter) SaveDraft(ctx context.Context, c *claims.ClaimContext) error {
	if err := a.upsertSummary(ctx, c, nil); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	if c.Claim.IncidentType == claims.IncidentInjury {
		if err := a.upsertChecklist(ctx, c); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}
	}
	return nil
}

// Finalize persists the accepted calculation: the summary with its final
// total, the checklist rows (Injury) or the rewritten dependant rows
// (Death), the current stage marked CompensationCalculated, and the next
// stage at Pending with the submission timestamp.
func (a *Adapter) Finalize(ctx context.Context, c *claims.ClaimContext, result calc.Result, stage claims.ReviewStage, submittedAt string) error {
	if err := a.upsertSummary(ctx, c, &result); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}

	switch c.Claim.IncidentType {
	case claims.IncidentInjury:
		if err := a.upsertChecklist(ctx, c); err != nil {
			return fmt.Errorf("finalize: %w", err)
		}
	case claims.IncidentDeath:
		if err := a.rewriteDependantRows(ctx, c.Claim.IRN, result); err != nil {
			return fmt.Errorf("finalize: %w", err)
		}
	}

	irn := c.Claim.IRN
	current := store.Record{
		"claim_id": irn,
		"stage":    string(stage),
		"status":   string(claims.StatusCompensationCalculated),
	}
	if err := a.Store.UpsertByKey(ctx, "reviews", reviewKey(irn, stage), current); err != nil {
		return fmt.Errorf("finalize: current stage: %w", err)
	}

	next := claims.NextStage(stage)
	pending := store.Record{
		"claim_id":     irn,
		"stage":        string(next),
		"status":       string(claims.StatusPending),
		"submitted_at": submittedAt,
	}
	if err := a.Store.UpsertByKey(ctx, "reviews", reviewKey(irn, next), pending); err != nil {
		return fmt.Errorf("finalize: next stage: %w", err)
	}

	return a.propagateClaimStatus(ctx, irn)
}

func reviewKey(irn string, stage claims.ReviewStage) string {
	return irn + "|" + string(stage)
}

// propagateClaimStatus mirrors the review status onto the claim record's
// status field, the one field of the claim this engine owns.
func (a *Adapter) propagateClaimStatus(ctx context.Context, irn string) error {
	recs, err := a.Store.Find(ctx, "claims", store.Filter{"irn": irn})
	if err != nil || len(recs) == 0 {
		return err
	}
	rec := recs[0]
	rec["status"] = string(claims.StatusCompensationCalculated)
	return a.Store.UpsertByKey(ctx, "claims", irn, rec)
}

func (a *Adapter) upsertSummary(ctx context.Context, c *claims.ClaimContext, result *calc.Result) error {
	rec := store.Record{
		"claim_id":         c.Claim.IRN,
		"worker_id":        c.Worker.ID,
		"worker_name":      c.Worker.Name,
		"incident_type":    string(c.Claim.IncidentType),
		"annual_wage":      c.AnnualWage().String(),
		"findings":         c.Findings,
		"recommendations":  c.Recommendations,
		"medical_expenses": c.MedicalExpenses.String(),
		"misc_expenses":    c.MiscExpenses.String(),
		"deductions":       c.Deductions.String(),
	}
	if result != nil {
		rec["final_total"] = result.FinalTotal.String()
		if c.Claim.IncidentType == claims.IncidentDeath {
			rec["base_amount"] = result.BaseAmount.String()
		} else {
			rec["criteria_total"] = result.CriteriaTotal.String()
		}
	}
	return a.Store.UpsertByKey(ctx, "compensation", c.Claim.IRN, rec)
}

func (a *Adapter) upsertChecklist(ctx context.Context, c *claims.ClaimContext) error {
	for _, row := range c.Checklist {
		rec := store.Record{
			"claim_id":          c.Claim.IRN,
			"criterion":         row.Criterion,
			"factor":            row.Factor.String(),
			"checked":           strconv.FormatBool(row.Checked),
			"doctor_percentage": row.DoctorPercentage.String(),
			"calculation":       row.Calculation,
			"compensation":      row.Compensation.String(),
		}
		key := c.Claim.IRN + "|" + row.Criterion
		if err := a.Store.UpsertByKey(ctx, "checklist", key, rec); err != nil {
			return err
		}
	}
	return nil
}

// rewriteDependantRows is the delete-then-reinsert pattern: every
// dependant-compensation row for the claim is removed before the current
// set is inserted, so a retried finalize converges on the same row set.
func (a *Adapter) rewriteDependantRows(ctx context.Context, irn string, result calc.Result) error {
	existing, err := a.Store.Find(ctx, "dependant_compensation", store.Filter{"claim_id": irn})
	if err != nil {
		return err
	}
	for _, rec := range existing {
		if err := a.Store.DeleteByKey(ctx, "dependant_compensation", rec[store.KeyField]); err != nil {
			return err
		}
	}

	benefitByDependant := make(map[string]calc.ChildBenefit, len(result.ChildBenefits))
	for _, b := range result.ChildBenefits {
		benefitByDependant[b.DependantID] = b
	}

	for _, share := range result.Shares {
		rec := store.Record{
			"claim_id":       irn,
			"dependant_id":   share.DependantID,
			"name":           share.Name,
			"relation":       string(share.Relation),
			"share_original": share.Original.String(),
			"share_final":    share.Final.String(),
		}
		if b, ok := benefitByDependant[share.DependantID]; ok && share.Relation == calc.RelationChild {
			rec["benefit_weeks"] = b.Weeks.String()
			rec["benefit_amount"] = b.Benefit.String()
		}
		if _, err := a.Store.Insert(ctx, "dependant_compensation", rec); err != nil {
			return err
		}
	}
	return nil
}
