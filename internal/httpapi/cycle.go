// Billing cycle endpoint. Re-running a cycle for the same month is safe; the
// store refuses duplicate cycle charges per client and month.
package httpapi

import (
	"net/http"
	"time"
)

// POST /v1/cycles/run
func (s *Server) runCycle(w http.ResponseWriter, r *http.Request) {
	asOf := time.Time{}
	if r.ContentLength > 0 {
		var req runCycleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.AsOf != nil {
			asOf = req.AsOf.UTC()
		}
	}
	res, err := s.cycles.GenerateMonthlyCharges(r.Context(), asOf)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	created := make([]entryResponse, 0, len(res.Created))
	for _, e := range res.Created {
		created = append(created, toEntryResponse(e))
	}
	errsOut := make([]cycleItemError, 0, len(res.Errors))
	for _, ie := range res.Errors {
		errsOut = append(errsOut, cycleItemError{ClientID: ie.ClientID, Code: ie.Code, Error: ie.Err.Error()})
	}
	toJSON(w, http.StatusOK, runCycleResponse{
		Cycle:   res.CycleKey,
		Created: created,
		Skipped: res.Skipped,
		Errors:  errsOut,
	})
}
