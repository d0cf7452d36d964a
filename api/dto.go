/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP facade. These decouple the engine's decimal
  domain model from the wire: money crosses as float64 for display, the
  engine keeps decimals internally.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

VALIDATION:
  DTOs are pure data carriers; validation happens in handlers and in the
  review state machine.
*/
package api

// ClaimDTO summarizes the loaded claim.
type ClaimDTO struct {
	IRN          string `json:"irn"`
	DisplayIRN   string `json:"display_irn"`
	WorkerID     string `json:"worker_id"`
	WorkerName   string `json:"worker_name"`
	IncidentType string `json:"incident_type"`
	IncidentDate string `json:"incident_date"`
	State        string `json:"state"`
}

type DependantDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	DateOfBirth string  `json:"date_of_birth"`
	Degree      float64 `json:"degree_of_dependence"`
	Child       bool    `json:"child"`
}

type ChecklistRowDTO struct {
	Criterion        string  `json:"criterion"`
	Factor           float64 `json:"factor"`
	Checked          bool    `json:"checked"`
	DoctorPercentage float64 `json:"doctor_percentage"`
	Calculation      string  `json:"calculation,omitempty"`
	Compensation     float64 `json:"compensation"`
}

type ShareDTO struct {
	DependantID string  `json:"dependant_id,omitempty"`
	Name        string  `json:"name"`
	Relation    string  `json:"relation"`
	Original    float64 `json:"original"`
	Final       float64 `json:"final"`
}

type ChildBenefitDTO struct {
	DependantID string  `json:"dependant_id"`
	Name        string  `json:"name"`
	Days        int     `json:"days"`
	Weeks       float64 `json:"weeks"`
	Benefit     float64 `json:"benefit"`
}

type DocumentStatusDTO struct {
	Required             []string `json:"required"`
	Submitted            []string `json:"submitted"`
	Missing              []string `json:"missing"`
	HardMandatory        []string `json:"hard_mandatory"`
	MissingHardMandatory []string `json:"missing_hard_mandatory"`
}

type ResultDTO struct {
	IncidentType  string            `json:"incident_type"`
	AnnualWage    float64           `json:"annual_wage"`
	CriteriaTotal float64           `json:"criteria_total,omitempty"`
	BaseAmount    float64           `json:"base_amount,omitempty"`
	FinalTotal    float64           `json:"final_total"`
	Checklist     []ChecklistRowDTO `json:"checklist,omitempty"`
	Shares        []ShareDTO        `json:"shares,omitempty"`
	ChildBenefits []ChildBenefitDTO `json:"child_benefits,omitempty"`
}

// ClaimResponse is the full payload for load/recompute/draft/accept calls.
type ClaimResponse struct {
	Claim           ClaimDTO          `json:"claim"`
	Dependants      []DependantDTO    `json:"dependants,omitempty"`
	Documents       DocumentStatusDTO `json:"documents"`
	Result          ResultDTO         `json:"result"`
	Findings        string            `json:"findings"`
	Recommendations string            `json:"recommendations"`
	MedicalExpenses float64           `json:"medical_expenses"`
	MiscExpenses    float64           `json:"misc_expenses"`
	Deductions      float64           `json:"deductions"`
	Reasons         []ReasonDTO       `json:"reasons,omitempty"`
}

type ReasonDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChecklistEditRequest edits one checklist row. Checked=false clears the
// row; CompensationOverride wins over DoctorPercentage when both are set.
type ChecklistEditRequest struct {
	Criterion            string   `json:"criterion"`
	Checked              bool     `json:"checked"`
	DoctorPercentage     *float64 `json:"doctor_percentage,omitempty"`
	CompensationOverride *float64 `json:"compensation_override,omitempty"`
}

// ClaimEditRequest carries the clerk's working state. Nil pointers leave
// the loaded value untouched.
type ClaimEditRequest struct {
	Findings        *string                `json:"findings,omitempty"`
	Recommendations *string                `json:"recommendations,omitempty"`
	MedicalExpenses *float64               `json:"medical_expenses,omitempty"`
	MiscExpenses    *float64               `json:"misc_expenses,omitempty"`
	Deductions      *float64               `json:"deductions,omitempty"`
	Checklist       []ChecklistEditRequest `json:"checklist,omitempty"`
}

type ReferenceDTO struct {
	Criteria        []CriterionDTO `json:"criteria"`
	MinDeath        float64        `json:"min_compensation_amount_death"`
	MaxDeath        float64        `json:"max_compensation_amount_death"`
	WeeklyChildRate float64        `json:"weekly_compensation_per_child_death"`
	MaxChildAge     int            `json:"max_child_age"`
}

type CriterionDTO struct {
	Criterion string  `json:"criterion"`
	Factor    float64 `json:"factor"`
}

type ErrorResponse struct {
	Error   string      `json:"error"`
	Reasons []ReasonDTO `json:"reasons,omitempty"`
}
