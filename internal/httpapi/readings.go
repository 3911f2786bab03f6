// Meter reading endpoints.
package httpapi

import (
	"net/http"
)

// POST /v1/readings
func (s *Server) postReading(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostReading).(postReadingRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "missing validated payload", "internal")
		return
	}
	res, err := s.meters.RecordReading(r.Context(), req.ClientID, req.Current, derefDate(req.Date))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := readingResultResponse{
		Reading:     toReadingResponse(res.Reading),
		Consumption: res.Consumption,
	}
	if res.Entry != nil {
		e := toEntryResponse(*res.Entry)
		out.Entry = &e
	}
	toJSON(w, http.StatusCreated, out)
}

// GET /v1/clients/{id}/readings
func (s *Server) listReadings(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIDParam(w, r)
	if !ok {
		return
	}
	list, err := s.meters.History(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]readingResponse, 0, len(list))
	for _, rd := range list {
		out = append(out, toReadingResponse(rd))
	}
	toJSON(w, http.StatusOK, out)
}
