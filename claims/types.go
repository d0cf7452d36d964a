/*
Package claims provides the core domain model for the compensation
calculation engine.

PURPOSE:
  This package contains the types and pure functions shared by the injury
  and death calculators: the claim/worker/dependant model, reference data
  (injury criteria factors and system parameters), the clerk's checklist,
  and the document completeness gate.

KEY CONCEPTS IN THIS FILE (types.go):
  - Claim: the unit of work, identified by its IRN
  - Worker: the injured or deceased worker, with optional spouse
  - Dependant: a person claiming a share, classified child vs additional
  - EmploymentDetails: wage history, source of the annual wage

DESIGN PRINCIPLES:
  1. Precision: all money and percentages are decimal.Decimal, never float
  2. Read-only inputs: the engine never creates or mutates workers or
     dependants; it only derives compensation from them
  3. Derived state is rebuilt fresh on every claim load and discarded on
     close; only explicit Save-Draft / Accept-Finalize writes back

SEE ALSO:
  - refdata.go: injury criteria and system parameters
  - checklist.go: checklist rows and the merge-on-load join
  - context.go: loading a full ClaimContext from the record store
*/
package claims

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INCIDENT TYPE AND STATUS LABELS
// =============================================================================

type IncidentType string

const (
	IncidentInjury IncidentType = "Injury"
	IncidentDeath  IncidentType = "Death"
)

// ReviewStatus labels travel across the record-store boundary as-is.
type ReviewStatus string

const (
	StatusPending                ReviewStatus = "Pending"
	StatusAccepted               ReviewStatus = "Accepted"
	StatusRejected               ReviewStatus = "Rejected"
	StatusCompensationCalculated ReviewStatus = "CompensationCalculated"
)

// Review stages downstream of this engine. The engine operates at the CPO
// stage; finalize hands the claim to the next stage.
type ReviewStage string

const (
	StageCPO          ReviewStage = "CPOReview"
	StageCPM          ReviewStage = "CPMReview"
	StageCommissioner ReviewStage = "CommissionerReview"
)

// NextStage returns the stage a finalized claim moves to.
func NextStage(s ReviewStage) ReviewStage {
	switch s {
	case StageCPO:
		return StageCPM
	case StageCPM:
		return StageCommissioner
	default:
		return StageCommissioner
	}
}

// ReviewState tracks where a loaded claim sits in the review lifecycle.
// Loaded is entered on every fetch and may be re-entered freely.
type ReviewState string

const (
	StateLoaded         ReviewState = "loaded"
	StateDraftSaved     ReviewState = "draft_saved"
	StateAcceptPreview  ReviewState = "accept_preview"
	StateAcceptFinalize ReviewState = "accept_finalized"
)

// =============================================================================
// CLAIM - Immutable once created by intake; this engine only updates status
// =============================================================================

type Claim struct {
	IRN          string
	DisplayIRN   string
	WorkerID     string
	IncidentType IncidentType
	IncidentDate Date
}

// =============================================================================
// WORKER AND DEPENDANTS - Read-only inputs
// =============================================================================

type Spouse struct {
	Name        string
	DateOfBirth Date
}

type Worker struct {
	ID            string
	Name          string
	DateOfBirth   Date
	MaritalStatus string
	Spouse        *Spouse
}

type Dependant struct {
	ID                 string
	WorkerID           string
	Name               string
	Type               string // free-text category from intake
	DateOfBirth        Date
	DegreeOfDependence decimal.Decimal // percentage
}

// childTypes enumerates the category labels treated as "child" for both the
// dependant split and the weekly benefit schedule. Matching is
// case-insensitive on the trimmed label; everything else is "additional".
var childTypes = map[string]bool{
	"child":           true,
	"children":        true,
	"son":             true,
	"daughter":        true,
	"step-child":      true,
	"stepchild":       true,
	"dependent child": true,
	"grandchild":      true,
}

// IsChildType reports whether the dependant is in the child category.
func (d Dependant) IsChildType() bool {
	return childTypes[strings.ToLower(strings.TrimSpace(d.Type))]
}

// =============================================================================
// EMPLOYMENT - Wage history at time of claim
// =============================================================================

type EmploymentDetails struct {
	WorkerID          string
	AverageWeeklyWage decimal.Decimal
}

var weeksPerYear = decimal.NewFromInt(52)

// AnnualWage is the fixed weekly-wage × 52 conversion. The multiplier is
// statutory and not configurable.
func (e EmploymentDetails) AnnualWage() decimal.Decimal {
	return e.AverageWeeklyWage.Mul(weeksPerYear)
}
