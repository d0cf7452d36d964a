/*
handlers.go - HTTP handlers for the compensation engine

ENDPOINTS:
  GET  /api/reference                    Reference data (criteria, parameters)
  GET  /api/claims/{irn}                 Load claim context + computed result
  POST /api/claims/{irn}/recompute       Apply edits, recompute, no persist
  POST /api/claims/{irn}/draft           Apply edits and save draft
  POST /api/claims/{irn}/accept/preview  Validation gate, no persist
  POST /api/claims/{irn}/accept          Finalize accept

REQUEST FLOW:
  Every claim endpoint loads a fresh ClaimContext, applies the body's
  edits in memory, recomputes, and only then decides whether to persist.
  Mutating endpoints acquire the advisory lock for the current actor
  first; finalize releases it, draft releases it on completion.

ERROR HANDLING:
  - 404: claim or worker not found
  - 409: advisory lock held elsewhere, finalize already in flight
  - 422: accept validation failures (reason list in body)
  - 503: reference data unavailable
  - 500: everything else
*/
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/warp/compensation-engine/calc"
	"github.com/warp/compensation-engine/claims"
	"github.com/warp/compensation-engine/logger"
	"github.com/warp/compensation-engine/review"
)

// Handler holds the engine dependencies for all endpoints.
type Handler struct {
	Resolver *claims.Resolver
	Machine  *review.Machine
	Locks    review.AdvisoryLock
	Actor    review.ActorIdentity
}

func NewHandler(resolver *claims.Resolver, machine *review.Machine) *Handler {
	return &Handler{
		Resolver: resolver,
		Machine:  machine,
		Locks:    machine.Locks,
		Actor:    machine.Actor,
	}
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func (h *Handler) GetReference(w http.ResponseWriter, r *http.Request) {
	ref, err := h.Resolver.Ref.Load(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	dto := ReferenceDTO{
		MinDeath:        toFloat(ref.Params.MinDeathCompensation()),
		MaxDeath:        toFloat(ref.Params.MaxDeathCompensation()),
		WeeklyChildRate: toFloat(ref.Params.WeeklyChildRate()),
		MaxChildAge:     ref.Params.MaxChildAge(),
	}
	for _, c := range ref.Criteria {
		dto.Criteria = append(dto.Criteria, CriterionDTO{Criterion: c.Criterion, Factor: toFloat(c.Factor)})
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// CLAIM OPERATIONS
// =============================================================================

func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	cc, err := h.loadClaim(r, false)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, claimResponse(cc, calc.ForContext(cc), nil))
}

func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	cc, err := h.loadClaim(r, true)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, claimResponse(cc, calc.ForContext(cc), nil))
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	cc, err := h.loadClaim(r, true)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx := r.Context()
	irn := cc.Claim.IRN
	if err := h.Locks.Acquire(ctx, irn, h.Actor.CurrentActorID()); err != nil {
		h.writeError(w, err)
		return
	}
	defer h.Locks.Release(ctx, irn)

	if err := h.Machine.SaveDraft(ctx, cc); err != nil {
		h.writeError(w, err)
		return
	}
	logger.Info("draft saved", "irn", irn)
	h.writeJSON(w, http.StatusOK, claimResponse(cc, calc.ForContext(cc), nil))
}

func (h *Handler) PreviewAccept(w http.ResponseWriter, r *http.Request) {
	cc, err := h.loadClaim(r, true)
	if err != nil {
		h.writeError(w, err)
		return
	}
	result := calc.ForContext(cc)
	reasons := h.Machine.PreviewAccept(cc, result)
	h.writeJSON(w, http.StatusOK, claimResponse(cc, result, reasons))
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	cc, err := h.loadClaim(r, true)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx := r.Context()
	irn := cc.Claim.IRN
	if err := h.Locks.Acquire(ctx, irn, h.Actor.CurrentActorID()); err != nil {
		h.writeError(w, err)
		return
	}

	result := calc.ForContext(cc)
	if err := h.Machine.FinalizeAccept(ctx, cc, result); err != nil {
		// Finalize releases the lock itself only on success.
		h.Locks.Release(ctx, irn)
		h.writeError(w, err)
		return
	}
	logger.Info("claim accepted", "irn", irn, "final_total", result.FinalTotal.String())
	h.writeJSON(w, http.StatusOK, claimResponse(cc, result, nil))
}

// =============================================================================
// CONTEXT LOADING AND EDIT APPLICATION
// =============================================================================

func (h *Handler) loadClaim(r *http.Request, withBody bool) (*claims.ClaimContext, error) {
	irn := chi.URLParam(r, "irn")
	cc, err := h.Resolver.Load(r.Context(), irn)
	if err != nil {
		return nil, err
	}
	if !withBody || r.Body == nil {
		return cc, nil
	}

	var edit ClaimEditRequest
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil && !errors.Is(err, io.EOF) {
		return nil, &badRequestError{err}
	}
	applyEdit(cc, edit)
	return cc, nil
}

func applyEdit(cc *claims.ClaimContext, edit ClaimEditRequest) {
	if edit.Findings != nil {
		cc.Findings = *edit.Findings
	}
	if edit.Recommendations != nil {
		cc.Recommendations = *edit.Recommendations
	}
	if edit.MedicalExpenses != nil {
		cc.MedicalExpenses = decimal.NewFromFloat(*edit.MedicalExpenses)
	}
	if edit.MiscExpenses != nil {
		cc.MiscExpenses = decimal.NewFromFloat(*edit.MiscExpenses)
	}
	if edit.Deductions != nil {
		cc.Deductions = decimal.NewFromFloat(*edit.Deductions)
	}

	annualWage := cc.AnnualWage()
	for _, rowEdit := range edit.Checklist {
		row := cc.Row(rowEdit.Criterion)
		if row == nil {
			continue
		}
		switch {
		case !rowEdit.Checked:
			row.Uncheck()
		case rowEdit.CompensationOverride != nil:
			calc.OverrideCompensation(row, decimal.NewFromFloat(*rowEdit.CompensationOverride))
		case rowEdit.DoctorPercentage != nil:
			calc.SetDoctorPercentage(row, annualWage, decimal.NewFromFloat(*rowEdit.DoctorPercentage))
		default:
			row.Checked = true
		}
	}
}

// =============================================================================
// RESPONSE SHAPING
// =============================================================================

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func claimResponse(cc *claims.ClaimContext, result calc.Result, reasons []review.Reason) ClaimResponse {
	resp := ClaimResponse{
		Claim: ClaimDTO{
			IRN:          cc.Claim.IRN,
			DisplayIRN:   cc.Claim.DisplayIRN,
			WorkerID:     cc.Worker.ID,
			WorkerName:   cc.Worker.Name,
			IncidentType: string(cc.Claim.IncidentType),
			IncidentDate: cc.Claim.IncidentDate.String(),
			State:        string(cc.State),
		},
		Documents: DocumentStatusDTO{
			Required:             cc.Documents.Required,
			Submitted:            cc.Documents.Submitted,
			Missing:              cc.Documents.Missing,
			HardMandatory:        cc.Documents.HardMandatory,
			MissingHardMandatory: cc.Documents.MissingHardMandatory,
		},
		Result:          resultDTO(result),
		Findings:        cc.Findings,
		Recommendations: cc.Recommendations,
		MedicalExpenses: toFloat(cc.MedicalExpenses),
		MiscExpenses:    toFloat(cc.MiscExpenses),
		Deductions:      toFloat(cc.Deductions),
	}
	for _, d := range cc.Dependants {
		resp.Dependants = append(resp.Dependants, DependantDTO{
			ID:          d.ID,
			Name:        d.Name,
			Type:        d.Type,
			DateOfBirth: d.DateOfBirth.String(),
			Degree:      toFloat(d.DegreeOfDependence),
			Child:       d.IsChildType(),
		})
	}
	for _, reason := range reasons {
		resp.Reasons = append(resp.Reasons, ReasonDTO{Code: string(reason.Code), Message: reason.Message})
	}
	return resp
}

func resultDTO(result calc.Result) ResultDTO {
	dto := ResultDTO{
		IncidentType:  string(result.IncidentType),
		AnnualWage:    toFloat(result.AnnualWage),
		CriteriaTotal: toFloat(result.CriteriaTotal),
		BaseAmount:    toFloat(result.BaseAmount),
		FinalTotal:    toFloat(result.FinalTotal),
	}
	for _, row := range result.Checklist {
		dto.Checklist = append(dto.Checklist, ChecklistRowDTO{
			Criterion:        row.Criterion,
			Factor:           toFloat(row.Factor),
			Checked:          row.Checked,
			DoctorPercentage: toFloat(row.DoctorPercentage),
			Calculation:      row.Calculation,
			Compensation:     toFloat(row.Compensation),
		})
	}
	for _, share := range result.Shares {
		dto.Shares = append(dto.Shares, ShareDTO{
			DependantID: share.DependantID,
			Name:        share.Name,
			Relation:    string(share.Relation),
			Original:    toFloat(share.Original),
			Final:       toFloat(share.Final),
		})
	}
	for _, b := range result.ChildBenefits {
		dto.ChildBenefits = append(dto.ChildBenefits, ChildBenefitDTO{
			DependantID: b.DependantID,
			Name:        b.Name,
			Days:        b.Days,
			Weeks:       toFloat(b.Weeks),
			Benefit:     toFloat(b.Benefit),
		})
	}
	return dto
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return "bad request: " + e.err.Error() }

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var badReq *badRequestError
	var lockHeld *review.LockHeldError
	var validation *review.ValidationFailedError

	switch {
	case errors.As(err, &badReq):
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case claims.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.As(err, &lockHeld), errors.Is(err, claims.ErrFinalizeInFlight):
		h.writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.As(err, &validation):
		resp := ErrorResponse{Error: err.Error()}
		for _, reason := range validation.Reasons {
			resp.Reasons = append(resp.Reasons, ReasonDTO{Code: string(reason.Code), Message: reason.Message})
		}
		h.writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, claims.ErrReferenceData):
		h.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		logger.Error("internal error", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
