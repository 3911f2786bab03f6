// Service plan endpoints.
package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hidrobill/hidrobill/internal/billing"
)

// POST /v1/plans
func (s *Server) postPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := r.Context().Value(ctxKeyPostPlan).(billing.ServicePlan)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "missing validated payload", "internal")
		return
	}
	saved, err := s.plans.Create(r.Context(), p)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toPlanResponse(saved))
}

// GET /v1/clients/{id}/plan
func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIDParam(w, r)
	if !ok {
		return
	}
	p, err := s.plans.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toPlanResponse(p))
}

// PATCH /v1/clients/{id}/plan/rate
// Rate changes apply to future charges only; recorded entries never change.
func (s *Server) updatePlanRate(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIDParam(w, r)
	if !ok {
		return
	}
	var req patchRateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		badRequest(w, "rate: not a valid decimal")
		return
	}
	p, err := s.plans.UpdateRate(r.Context(), id, rate)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toPlanResponse(p))
}
