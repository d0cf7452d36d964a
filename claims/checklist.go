/*
checklist.go - Injury checklist rows and the merge-on-load join

PURPOSE:
  Injury claims carry one checklist row per injury criterion. Rows are
  rebuilt fresh from the criteria list on every claim load; previously
  persisted rows for the claim are merged back in by criterion label so the
  clerk's doctor percentages, overrides, and checked flags survive reload.

INVARIANT:
  After any merge or edit, Checked is true whenever Compensation > 0 or
  DoctorPercentage > 0. Unchecking a row zeroes its percentage,
  calculation string, and compensation, including manually overridden
  amounts.
*/
package claims

import (
	"github.com/shopspring/decimal"
)

// ChecklistRow is one criterion line in the injury checklist.
type ChecklistRow struct {
	Criterion        string
	Factor           decimal.Decimal
	Checked          bool
	DoctorPercentage decimal.Decimal // 0-100
	Calculation      string          // substituted formula, for audit traceability
	Compensation     decimal.Decimal
}

// BuildChecklist creates pristine rows from the criteria list.
func BuildChecklist(criteria []InjuryCriterion) []ChecklistRow {
	rows := make([]ChecklistRow, len(criteria))
	for i, c := range criteria {
		rows[i] = ChecklistRow{Criterion: c.Criterion, Factor: c.Factor}
	}
	return rows
}

// MergeChecklist is the keyed left-join of the static criteria list against
// persisted per-claim rows. The criteria list drives the output: every
// criterion yields exactly one row, persisted rows restore clerk state by
// criterion label, and persisted rows for retired criteria are dropped.
func MergeChecklist(criteria []InjuryCriterion, persisted []ChecklistRow) []ChecklistRow {
	byLabel := make(map[string]ChecklistRow, len(persisted))
	for _, row := range persisted {
		byLabel[row.Criterion] = row
	}

	rows := BuildChecklist(criteria)
	for i := range rows {
		prior, ok := byLabel[rows[i].Criterion]
		if !ok {
			continue
		}
		rows[i].DoctorPercentage = prior.DoctorPercentage
		rows[i].Compensation = prior.Compensation
		rows[i].Calculation = prior.Calculation
		rows[i].Checked = prior.Checked ||
			prior.Compensation.IsPositive() ||
			prior.DoctorPercentage.IsPositive()
	}
	return rows
}

// Uncheck clears the row back to its pristine state. This discards manual
// overrides too.
func (r *ChecklistRow) Uncheck() {
	r.Checked = false
	r.DoctorPercentage = decimal.Zero
	r.Calculation = ""
	r.Compensation = decimal.Zero
}
