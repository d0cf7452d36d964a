/*
result.go - Claim-level totals and the combined calculation result

The adjustment step is shared by both incident types:

    total = max(0, round(subtotal + medical + misc - deductions, 2))

where subtotal is the checked-row sum (Injury) or the base amount (Death).
*/
package calc

import (
	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/claims"
)

// Result is the full calculator output for one claim.
type Result struct {
	IncidentType claims.IncidentType
	AnnualWage   decimal.Decimal

	// Injury
	Checklist     []claims.ChecklistRow
	CriteriaTotal decimal.Decimal

	// Death
	BaseAmount    decimal.Decimal
	Shares        []Share
	ChildBenefits []ChildBenefit

	// Post-adjustment total for either incident type.
	FinalTotal decimal.Decimal
}

// AdjustedTotal applies the medical/misc/deductions adjustment, rounded to
// 2 decimals and floored at zero.
func AdjustedTotal(subtotal, medical, misc, deductions decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(medical).Add(misc).Sub(deductions).Round(2)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ForContext recomputes the full result from current in-memory state. Pure
// and idempotent: safe to call after every field edit.
func ForContext(c *claims.ClaimContext) Result {
	result := Result{
		IncidentType: c.Claim.IncidentType,
		AnnualWage:   c.AnnualWage(),
	}

	if c.Claim.IncidentType == claims.IncidentDeath {
		result.BaseAmount = BaseAmount(
			result.AnnualWage,
			c.Ref.Params.MinDeathCompensation(),
			c.Ref.Params.MaxDeathCompensation(),
		)
		result.FinalTotal = AdjustedTotal(result.BaseAmount, c.MedicalExpenses, c.MiscExpenses, c.Deductions)
		result.Shares = SplitBase(result.BaseAmount, c.Worker, c.Dependants)
		RescaleShares(result.Shares, result.BaseAmount, result.FinalTotal)
		result.ChildBenefits = ChildBenefits(
			c.Dependants,
			c.Claim.IncidentDate,
			c.Ref.Params.WeeklyChildRate(),
			c.Ref.Params.MaxChildAge(),
		)
		return result
	}

	result.Checklist = c.Checklist
	result.CriteriaTotal = InjuryCriteriaTotal(c.Checklist)
	result.FinalTotal = AdjustedTotal(result.CriteriaTotal, c.MedicalExpenses, c.MiscExpenses, c.Deductions)
	return result
}
