/*
death.go - Death compensation: base amount, dependant split, child benefits

BASE AMOUNT:
  annualEarnings = averageWeeklyWage × 52
  base = 8 × annualEarnings          when annualEarnings <  MinCompensationAmountDeath
       = MaxCompensationAmountDeath  otherwise (strict <, not <=)

DEPENDANT SPLIT:
  The statutory apportionment dispatches on the tag
  (spousePresent, hasChildren, hasAdditional) - eight mutually exclusive
  cases, enumerated explicitly so each is testable in isolation. Per
  recipient: original = round(portion × base / groupCount, 2). Final
  amounts rescale originals against the post-adjustment total; each final
  is rounded independently, so the sum may drift from the final total by a
  few cents across many dependants. That drift is observed statutory
  behavior and is not reconciled.

WEEKLY CHILD BENEFIT:
  Supplemental schedule for child dependants still under the maximum child
  age at the incident date. Informational only - never added into the
  compensation total.
*/
package calc

import (
	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/claims"
)

var (
	seven = decimal.NewFromInt(7)
	half  = decimal.NewFromFloat(0.5)
	one   = decimal.NewFromInt(1)
	qtr   = decimal.NewFromFloat(0.25)
)

// BaseAmount applies the statutory death base formula. The boundary is
// strict: annual earnings exactly at the minimum take the maximum amount.
func BaseAmount(annualEarnings, minAmount, maxAmount decimal.Decimal) decimal.Decimal {
	if annualEarnings.LessThan(minAmount) {
		return eight.Mul(annualEarnings)
	}
	return maxAmount
}

// =============================================================================
// DEPENDANT SPLIT - 8-case decision table
// =============================================================================

type Relation string

const (
	RelationSpouse     Relation = "spouse"
	RelationChild      Relation = "child"
	RelationAdditional Relation = "additional"
)

// Share is one recipient's apportionment. Original is the base-proportional
// amount; Final is the same ownership percentage applied to the
// post-adjustment total.
type Share struct {
	DependantID string // empty for the spouse, who is not a dependant record
	Name        string
	Relation    Relation
	Original    decimal.Decimal
	Final       decimal.Decimal
}

// splitCase tags the decision table on presence of each claimant group.
type splitCase struct {
	Spouse     bool
	Children   bool
	Additional bool
}

// portions returns the fraction of base owned by each group. A zero
// portion means the group receives nothing under that case.
func (c splitCase) portions() (spouse, children, additional decimal.Decimal) {
	switch c {
	case splitCase{false, false, false}:
		return decimal.Zero, decimal.Zero, decimal.Zero // no distribution
	case splitCase{true, false, false}:
		return one, decimal.Zero, decimal.Zero
	case splitCase{true, false, true}:
		return half, decimal.Zero, half
	case splitCase{true, true, false}:
		return half, half, decimal.Zero
	case splitCase{true, true, true}:
		return half, qtr, qtr
	case splitCase{false, true, false}:
		return decimal.Zero, one, decimal.Zero
	case splitCase{false, true, true}:
		return decimal.Zero, half, half
	case splitCase{false, false, true}:
		return decimal.Zero, decimal.Zero, decimal.Zero // no recognized claimants
	}
	return decimal.Zero, decimal.Zero, decimal.Zero
}

// SplitBase apportions the base amount among the worker's spouse and
// dependants. Dependants classify as child or additional by their
// free-text type; each group shares its portion equally, rounded to 2
// decimals per recipient.
func SplitBase(base decimal.Decimal, worker claims.Worker, dependants []claims.Dependant) []Share {
	var children, additional []claims.Dependant
	for _, d := range dependants {
		if d.IsChildType() {
			children = append(children, d)
		} else {
			additional = append(additional, d)
		}
	}

	tag := splitCase{
		Spouse:     worker.Spouse != nil,
		Children:   len(children) > 0,
		Additional: len(additional) > 0,
	}
	spousePortion, childPortion, additionalPortion := tag.portions()

	var shares []Share
	if tag.Spouse && spousePortion.IsPositive() {
		shares = append(shares, Share{
			Name:     worker.Spouse.Name,
			Relation: RelationSpouse,
			Original: spousePortion.Mul(base).Round(2),
		})
	}
	shares = append(shares, groupShares(base, childPortion, RelationChild, children)...)
	shares = append(shares, groupShares(base, additionalPortion, RelationAdditional, additional)...)
	return shares
}

func groupShares(base, portion decimal.Decimal, rel Relation, group []claims.Dependant) []Share {
	if !portion.IsPositive() || len(group) == 0 {
		return nil
	}
	count := decimal.NewFromInt(int64(len(group)))
	each := portion.Mul(base).Div(count).Round(2)
	shares := make([]Share, len(group))
	for i, d := range group {
		shares[i] = Share{DependantID: d.ID, Name: d.Name, Relation: rel, Original: each}
	}
	return shares
}

// RescaleShares fills each share's Final amount against the
// post-adjustment total: final = round(finalTotal × original/base, 2).
// Ownership percentages never change; only the distributable total does.
func RescaleShares(shares []Share, base, finalTotal decimal.Decimal) {
	for i := range shares {
		if base.IsZero() {
			shares[i].Final = decimal.Zero
			continue
		}
		shares[i].Final = finalTotal.Mul(shares[i].Original).Div(base).Round(2)
	}
}

// =============================================================================
// WEEKLY CHILD BENEFIT SCHEDULE
// =============================================================================

// ChildBenefit is one child's supplemental weekly-benefit row.
type ChildBenefit struct {
	DependantID string
	Name        string
	Days        int
	Weeks       decimal.Decimal // days/7, 3 decimals
	Benefit     decimal.Decimal // weeklyRate × weeks, 2 decimals
}

// ChildBenefits computes the schedule for child-type dependants whose
// maxAge-th birthday falls strictly after the incident date. A child
// already past that birthday at the incident yields no row, even though
// they may still hold a split share.
func ChildBenefits(dependants []claims.Dependant, incident claims.Date, weeklyRate decimal.Decimal, maxAge int) []ChildBenefit {
	var rows []ChildBenefit
	for _, d := range dependants {
		if !d.IsChildType() || d.DateOfBirth.IsZero() {
			continue
		}
		birthday := d.DateOfBirth.AddYears(maxAge)
		if !birthday.After(incident) {
			continue
		}
		days := claims.DaysBetween(incident, birthday)
		if days < 0 {
			days = 0
		}
		weeks := decimal.NewFromInt(int64(days)).Div(seven).Round(3)
		rows = append(rows, ChildBenefit{
			DependantID: d.ID,
			Name:        d.Name,
			Days:        days,
			Weeks:       weeks,
			Benefit:     weeklyRate.Mul(weeks).Round(2),
		})
	}
	return rows
}
