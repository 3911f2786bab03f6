package httpapi

import (
	"errors"
	"net/http"

	"github.com/hidrobill/hidrobill/internal/errs"
	clientsvc "github.com/hidrobill/hidrobill/internal/service/client"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func conflict(w http.ResponseWriter, msg string)   { writeErr(w, http.StatusConflict, msg, "conflict") }
func unprocessable(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// writeDomainErr maps service-layer errors onto HTTP statuses and codes.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, clientsvc.ErrNumberExists):
		conflict(w, err.Error())
	case errors.Is(err, errs.ErrConflict):
		conflict(w, err.Error())
	case errors.Is(err, errs.ErrInvalidAmount):
		unprocessable(w, err.Error(), "invalid_amount")
	case errors.Is(err, errs.ErrInvalidReading):
		unprocessable(w, err.Error(), "invalid_reading")
	case errors.Is(err, errs.ErrInvalidPeriod):
		unprocessable(w, err.Error(), "invalid_period")
	case errors.Is(err, errs.ErrImmutable):
		unprocessable(w, err.Error(), "immutable_field")
	case errors.Is(err, errs.ErrInvalid):
		badRequest(w, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "internal")
	}
}
