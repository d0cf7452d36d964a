/*
documents.go - Document completeness gate

PURPOSE:
  Each incident type has a fixed statutory document checklist. Submission
  is matched by case-insensitive, trimmed label equality against the
  attachment registry's known-submitted set. Two documents per incident
  type are hard-mandatory: their absence blocks Accept outright. Every
  other missing document is advisory, surfaced but non-blocking.
*/
package claims

import "strings"

// =============================================================================
// STATUTORY DOCUMENT LISTS
// =============================================================================

const (
	DocEmployerAccidentReport = "Employer Accident Report"
	DocSupervisorStatement    = "Supervisor Statement"
	DocWitnessStatement       = "Witness Statement"
	DocInitialMedicalReport   = "Initial Medical Report"
	DocFinalMedicalReport     = "Final Medical Report"
	DocMedicalExpenseReceipts = "Medical Expense Receipts"
	DocPoliceAccidentReport   = "Police Accident Report"
	DocDeathCertificate       = "Death Certificate"
	DocPostMortemReport       = "Post Mortem Report"
	DocPoliceReport           = "Police Report"
	DocDependencyDeclaration  = "Dependency Declaration"
	DocFuneralExpenseReceipts = "Funeral Expense Receipts"
)

var injuryDocuments = []string{
	DocEmployerAccidentReport,
	DocSupervisorStatement,
	DocWitnessStatement,
	DocInitialMedicalReport,
	DocFinalMedicalReport,
	DocMedicalExpenseReceipts,
	DocPoliceAccidentReport,
}

var deathDocuments = []string{
	DocEmployerAccidentReport,
	DocSupervisorStatement,
	DocDeathCertificate,
	DocPostMortemReport,
	DocPoliceReport,
	DocDependencyDeclaration,
	DocFuneralExpenseReceipts,
}

var injuryHardMandatory = []string{DocSupervisorStatement, DocFinalMedicalReport}
var deathHardMandatory = []string{DocSupervisorStatement, DocDeathCertificate}

// RequiredDocuments returns the full statutory list and the hard-mandatory
// subset for the incident type.
func RequiredDocuments(t IncidentType) (all, hardMandatory []string) {
	if t == IncidentDeath {
		return append([]string(nil), deathDocuments...), append([]string(nil), deathHardMandatory...)
	}
	return append([]string(nil), injuryDocuments...), append([]string(nil), injuryHardMandatory...)
}

// =============================================================================
// DOCUMENT STATUS
// =============================================================================

// DocumentStatus is the gate's output. Only MissingHardMandatory blocks
// Accept.
type DocumentStatus struct {
	Required             []string
	Submitted            []string
	Missing              []string
	HardMandatory        []string
	MissingHardMandatory []string
}

// AcceptBlocked reports whether any hard-mandatory document is missing.
func (s DocumentStatus) AcceptBlocked() bool {
	return len(s.MissingHardMandatory) > 0
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EvaluateDocuments matches the statutory list for the incident type
// against the submitted labels from the attachment registry.
func EvaluateDocuments(t IncidentType, submitted []string) DocumentStatus {
	have := make(map[string]bool, len(submitted))
	for _, label := range submitted {
		have[normalizeLabel(label)] = true
	}

	required, hard := RequiredDocuments(t)
	status := DocumentStatus{Required: required, HardMandatory: hard}

	for _, doc := range required {
		if have[normalizeLabel(doc)] {
			status.Submitted = append(status.Submitted, doc)
		} else {
			status.Missing = append(status.Missing, doc)
		}
	}
	for _, doc := range hard {
		if !have[normalizeLabel(doc)] {
			status.MissingHardMandatory = append(status.MissingHardMandatory, doc)
		}
	}
	return status
}
