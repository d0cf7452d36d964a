/*
Package calc implements the compensation formulas.

PURPOSE:
  Pure functions from a loaded ClaimContext to money. Recomputation is
  synchronous, idempotent, and side-effect free beyond the checklist row
  fields it is asked to update, so callers may recompute after every edit.

THIS FILE (injury.go):
  The per-criterion injury formula:

      compensation = ceil((annualWage × 8 × doctorPct × factor) / 100 / 100)

  The two divisions by 100 are performed as written, in sequence, with the
  ceiling applied once at the end. Rounding is UP, not to nearest: the
  statutory bias over-compensates the claimant and must be preserved
  exactly.

SEE ALSO:
  - death.go: base amount, dependant split, child benefit schedule
  - result.go: claim-level totals and the combined CalculationResult
*/
package calc

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/claims"
)

var (
	eight   = decimal.NewFromInt(8)
	hundred = decimal.NewFromInt(100)
)

// RowCompensation applies the per-criterion formula. Inputs outside the
// contract (negative wage or percentage) floor the result at zero.
func RowCompensation(annualWage, doctorPct, factor decimal.Decimal) decimal.Decimal {
	amount := annualWage.Mul(eight).Mul(doctorPct).Mul(factor)
	amount = amount.Div(hundred)
	amount = amount.Div(hundred)
	amount = amount.Ceil()
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// calculationString is the literal substituted formula, kept on the row
// for audit traceability.
func calculationString(annualWage, doctorPct, factor, compensation decimal.Decimal) string {
	return fmt.Sprintf("(%s * 8 * %s * %s) / 100 / 100 = %s",
		annualWage.String(), doctorPct.String(), factor.String(), compensation.String())
}

// SetDoctorPercentage records a doctor-assessed percentage on the row and
// recomputes its compensation. A positive percentage implicitly checks the
// row; zero or negative clears it entirely.
func SetDoctorPercentage(row *claims.ChecklistRow, annualWage, doctorPct decimal.Decimal) {
	if !doctorPct.IsPositive() {
		row.Uncheck()
		return
	}
	if doctorPct.GreaterThan(hundred) {
		doctorPct = hundred
	}
	row.Checked = true
	row.DoctorPercentage = doctorPct
	row.Compensation = RowCompensation(annualWage, doctorPct, row.Factor)
	row.Calculation = calculationString(annualWage, doctorPct, row.Factor, row.Compensation)
}

// OverrideCompensation replaces the row's formula result with a manual
// amount, clamped at >= 0. The override forces the row checked but does
// not recompute the calculation string; the row keeps whatever the last
// percentage-driven computation produced.
func OverrideCompensation(row *claims.ChecklistRow, amount decimal.Decimal) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	row.Checked = true
	row.Compensation = amount
}

// InjuryCriteriaTotal sums compensation over the checked rows.
func InjuryCriteriaTotal(rows []claims.ChecklistRow) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		if row.Checked {
			total = total.Add(row.Compensation)
		}
	}
	return total
}
