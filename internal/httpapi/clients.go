// Client registration and lifecycle endpoints.
package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hidrobill/hidrobill/internal/billing"
)

// POST /v1/clients
func (s *Server) postClient(w http.ResponseWriter, r *http.Request) {
	c, ok := r.Context().Value(ctxKeyPostClient).(billing.Client)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "missing validated payload", "internal")
		return
	}
	saved, err := s.clients.Register(r.Context(), c)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toClientResponse(saved))
}

// GET /v1/clients
func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	list, err := s.clients.List(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]clientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toClientResponse(c))
	}
	toJSON(w, http.StatusOK, out)
}

// GET /v1/clients/{id}
func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIDParam(w, r)
	if !ok {
		return
	}
	c, err := s.clients.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toClientResponse(c))
}

// PATCH /v1/clients/{id}
// Only contact and address fields are editable. Number and state changes are
// rejected by the service layer.
func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIDParam(w, r)
	if !ok {
		return
	}
	var req patchClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.clients.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Street != nil {
		c.Street = *req.Street
	}
	if req.Lot != nil {
		c.Lot = *req.Lot
	}
	if req.Block != nil {
		c.Block = *req.Block
	}
	saved, err := s.clients.Update(r.Context(), c)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toClientResponse(saved))
}

// POST /v1/clients/{id}/suspend
func (s *Server) suspendClient(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIDParam(w, r)
	if !ok {
		return
	}
	c, err := s.clients.Suspend(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toClientResponse(c))
}

// POST /v1/clients/{id}/reactivate
func (s *Server) reactivateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIDParam(w, r)
	if !ok {
		return
	}
	c, err := s.clients.Reactivate(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toClientResponse(c))
}

func clientIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid client id")
		return uuid.Nil, false
	}
	return id, true
}
