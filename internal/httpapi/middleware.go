package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hidrobill/hidrobill/internal/billing"
)

type ctxKey string

const (
	ctxKeyPostClient  ctxKey = "validatedPostClient"
	ctxKeyPostPlan    ctxKey = "validatedPostPlan"
	ctxKeyPostCharge  ctxKey = "validatedPostCharge"
	ctxKeyPostPayment ctxKey = "validatedPostPayment"
	ctxKeyPostReading ctxKey = "validatedPostReading"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !requireJSON(w, r) {
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// validatePostClient checks the registration payload via the service layer and
// stores the domain client in the request context for the handler to use.
func (s *Server) validatePostClient() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postClientRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			c := billing.Client{
				Number: req.Number,
				Name:   req.Name,
				Phone:  req.Phone,
				Email:  req.Email,
				Street: req.Street,
				Lot:    req.Lot,
				Block:  req.Block,
			}
			if err := s.clients.ValidateRegister(c); err != nil {
				badRequest(w, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostClient, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostPlan parses the rate strings and checks mode consistency before
// the handler runs.
func (s *Server) validatePostPlan() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postPlanRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.ClientID == uuid.Nil {
				badRequest(w, "client_id is required")
				return
			}
			p := billing.ServicePlan{
				ClientID:    req.ClientID,
				Name:        req.Name,
				Mode:        req.Mode,
				Currency:    req.Currency,
				LastReading: req.LastReading,
			}
			if p.Currency == "" {
				p.Currency = s.opts.DefaultCurrency
			}
			var err error
			if req.MonthlyRate != "" {
				if p.MonthlyRate, err = decimal.NewFromString(req.MonthlyRate); err != nil {
					badRequest(w, "monthly_rate: not a valid decimal")
					return
				}
			}
			if req.UnitPrice != "" {
				if p.UnitPrice, err = decimal.NewFromString(req.UnitPrice); err != nil {
					badRequest(w, "unit_price: not a valid decimal")
					return
				}
			}
			if err := s.plans.ValidateCreate(p); err != nil {
				writeDomainErr(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostPlan, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) validatePostCharge() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postChargeRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.ClientID == uuid.Nil {
				badRequest(w, "client_id is required")
				return
			}
			if req.AmountMinor <= 0 {
				unprocessable(w, "amount_minor must be > 0", "invalid_amount")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostCharge, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) validatePostPayment() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postPaymentRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.ClientID == uuid.Nil {
				badRequest(w, "client_id is required")
				return
			}
			if req.AmountMinor <= 0 {
				unprocessable(w, "amount_minor must be > 0", "invalid_amount")
				return
			}
			if req.Periods < 0 {
				unprocessable(w, "periods must be >= 0", "invalid_period")
				return
			}
			if req.Method == "" {
				req.Method = billing.MethodCash
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostPayment, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) validatePostReading() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postReadingRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.ClientID == uuid.Nil {
				badRequest(w, "client_id is required")
				return
			}
			if req.Current < 0 {
				unprocessable(w, "current must be >= 0", "invalid_reading")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostReading, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
