// Charge, payment, balance and ledger endpoints. Amounts travel as minor
// units; the currency is always the client plan's currency.
package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
)

// POST /v1/charges
func (s *Server) postCharge(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostCharge).(postChargeRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "missing validated payload", "internal")
		return
	}
	amount, ok := s.planAmount(w, r, req.ClientID, req.AmountMinor)
	if !ok {
		return
	}
	e, err := s.ledger.RecordCharge(r.Context(), req.ClientID, amount, derefDate(req.Date), req.Memo)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(e))
}

// POST /v1/payments
func (s *Server) postPayment(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostPayment).(postPaymentRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "missing validated payload", "internal")
		return
	}
	amount, ok := s.planAmount(w, r, req.ClientID, req.AmountMinor)
	if !ok {
		return
	}
	e, err := s.ledger.RecordPayment(r.Context(), req.ClientID, amount, derefDate(req.Date), req.Method, req.Periods)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(e))
}

// GET /v1/clients/{id}/balance
func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIDParam(w, r)
	if !ok {
		return
	}
	st, err := s.ledger.Statement(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	minor, _ := st.Balance.MinorUnits()
	toJSON(w, http.StatusOK, balanceResponse{
		ClientID:     id,
		Currency:     st.Balance.Curr().Code(),
		BalanceMinor: minor,
		Balance:      st.Balance.String(),
		Status:       st.Status,
	})
}

// GET /v1/clients/{id}/ledger
func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIDParam(w, r)
	if !ok {
		return
	}
	st, err := s.ledger.Statement(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	entries := make([]entryResponse, 0, len(st.Entries))
	for _, e := range st.Entries {
		entries = append(entries, toEntryResponse(e))
	}
	minor, _ := st.Balance.MinorUnits()
	toJSON(w, http.StatusOK, ledgerViewResponse{
		ClientID:     id,
		Entries:      entries,
		BalanceMinor: minor,
		Balance:      st.Balance.String(),
		Status:       st.Status,
	})
}

// planAmount builds a money amount in the client plan's currency.
func (s *Server) planAmount(w http.ResponseWriter, r *http.Request, clientID uuid.UUID, minor int64) (money.Amount, bool) {
	var zero money.Amount
	p, err := s.repo.PlanByClient(r.Context(), clientID)
	if err != nil {
		writeDomainErr(w, err)
		return zero, false
	}
	amount, err := money.NewAmountFromMinorUnits(p.Currency, minor)
	if err != nil {
		unprocessable(w, "invalid amount for currency "+p.Currency, "invalid_amount")
		return zero, false
	}
	return amount, true
}

func derefDate(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
