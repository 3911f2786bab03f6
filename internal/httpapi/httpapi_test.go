package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type errResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func setup(t *testing.T) (*memory.Store, http.Handler) {
	t.Helper()
	store := memory.New()
	h := New(store, store, Options{Logger: testLogger(), DefaultCurrency: "MXN"}).Handler()
	return store, h
}

func seedFlatClient(t *testing.T, store *memory.Store) billing.Client {
	t.Helper()
	c := billing.Client{ID: uuid.New(), Number: "C-0001", Name: "Maria Lopez", Street: "Av. Juarez 12", State: billing.ServiceStateActive}
	store.SeedClient(c)
	store.SeedPlan(billing.ServicePlan{
		ID:          uuid.New(),
		ClientID:    c.ID,
		Mode:        billing.ModeFlat,
		Currency:    "MXN",
		MonthlyRate: decimal.NewFromInt(200),
	})
	return c
}

func seedMeteredClient(t *testing.T, store *memory.Store) billing.Client {
	t.Helper()
	c := billing.Client{ID: uuid.New(), Number: "C-0002", Name: "Jose Ortiz", Street: "Calle 5", State: billing.ServiceStateActive}
	store.SeedClient(c)
	store.SeedPlan(billing.ServicePlan{
		ID:          uuid.New(),
		ClientID:    c.ID,
		Mode:        billing.ModeMetered,
		Currency:    "MXN",
		UnitPrice:   decimal.RequireFromString("12.50"),
		LastReading: 1500,
	})
	return c
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostClient_ValidAndInvalid(t *testing.T) {
	_, h := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/clients", map[string]any{
		"number": "C-0100",
		"name":   "Maria Lopez",
		"street": "Av. Juarez 12",
		"phone":  "555-0101",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var cr clientResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cr.ID == uuid.Nil || cr.State != billing.ServiceStateActive {
		t.Fatalf("unexpected response: %+v", cr)
	}

	// duplicate number
	rec = doJSON(t, h, http.MethodPost, "/v1/clients", map[string]any{
		"number": "c-0100",
		"name":   "Someone Else",
		"street": "Calle 5",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// missing street
	rec = doJSON(t, h, http.MethodPost, "/v1/clients", map[string]any{
		"number": "C-0101",
		"name":   "No Street",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	// wrong content type
	req := httptest.NewRequest(http.MethodPost, "/v1/clients", bytes.NewReader([]byte("number=1")))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
}

func TestSuspendReactivateClient(t *testing.T) {
	store, h := setup(t)
	c := seedFlatClient(t, store)

	rec := doJSON(t, h, http.MethodPost, "/v1/clients/"+c.ID.String()+"/suspend", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cr clientResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &cr)
	if cr.State != billing.ServiceStateSuspended {
		t.Fatalf("expected suspended, got %s", cr.State)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/clients/"+c.ID.String()+"/reactivate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/clients/"+uuid.New().String()+"/suspend", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPostPlan(t *testing.T) {
	store, h := setup(t)
	c := billing.Client{ID: uuid.New(), Number: "C-0001", Name: "Maria Lopez", Street: "Av. Juarez", State: billing.ServiceStateActive}
	store.SeedClient(c)

	rec := doJSON(t, h, http.MethodPost, "/v1/plans", map[string]any{
		"client_id":    c.ID.String(),
		"mode":         "flat",
		"monthly_rate": "200",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var pr planResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &pr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pr.Currency != "MXN" {
		t.Fatalf("expected default currency MXN, got %s", pr.Currency)
	}

	// one plan per client
	rec = doJSON(t, h, http.MethodPost, "/v1/plans", map[string]any{
		"client_id":    c.ID.String(),
		"mode":         "flat",
		"monthly_rate": "100",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// flat plan without a rate
	rec = doJSON(t, h, http.MethodPost, "/v1/plans", map[string]any{
		"client_id": uuid.New().String(),
		"mode":      "flat",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChargePaymentBalanceFlow(t *testing.T) {
	store, h := setup(t)
	c := seedFlatClient(t, store)

	rec := doJSON(t, h, http.MethodPost, "/v1/charges", map[string]any{
		"client_id":    c.ID.String(),
		"amount_minor": 20000,
		"memo":         "monthly service charge",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("charge: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/clients/"+c.ID.String()+"/balance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance: expected 200, got %d", rec.Code)
	}
	var br balanceResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &br)
	if br.BalanceMinor != 20000 || br.Status != billing.StatusOverdue {
		t.Fatalf("unexpected balance: %+v", br)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/payments", map[string]any{
		"client_id":    c.ID.String(),
		"amount_minor": 20000,
		"method":       "cash",
		"periods":      1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/clients/"+c.ID.String()+"/balance", nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &br)
	if br.BalanceMinor != 0 || br.Status != billing.StatusCurrent {
		t.Fatalf("unexpected balance after payment: %+v", br)
	}

	// ledger view lists both entries
	rec = doJSON(t, h, http.MethodGet, "/v1/clients/"+c.ID.String()+"/ledger", nil)
	var lv ledgerViewResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &lv)
	if len(lv.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lv.Entries))
	}

	// flat payment without periods
	rec = doJSON(t, h, http.MethodPost, "/v1/payments", map[string]any{
		"client_id":    c.ID.String(),
		"amount_minor": 5000,
		"method":       "cash",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	// zero amount rejected before the service runs
	rec = doJSON(t, h, http.MethodPost, "/v1/charges", map[string]any{
		"client_id":    c.ID.String(),
		"amount_minor": 0,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var er errResp
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Code != "invalid_amount" {
		t.Fatalf("expected invalid_amount, got %q", er.Code)
	}
}

func TestPostReading(t *testing.T) {
	store, h := setup(t)
	c := seedMeteredClient(t, store)

	rec := doJSON(t, h, http.MethodPost, "/v1/readings", map[string]any{
		"client_id": c.ID.String(),
		"current":   1523,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var rr readingResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &rr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Consumption != 23 {
		t.Fatalf("expected consumption 23, got %d", rr.Consumption)
	}
	if rr.Entry == nil || rr.Entry.AmountMinor != 28750 {
		t.Fatalf("unexpected entry: %+v", rr.Entry)
	}

	// rollback rejected
	rec = doJSON(t, h, http.MethodPost, "/v1/readings", map[string]any{
		"client_id": c.ID.String(),
		"current":   1500,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	// zero consumption records the reading but no entry
	rec = doJSON(t, h, http.MethodPost, "/v1/readings", map[string]any{
		"client_id": c.ID.String(),
		"current":   1523,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rr = readingResultResponse{}
	_ = json.Unmarshal(rec.Body.Bytes(), &rr)
	if rr.Entry != nil {
		t.Fatalf("expected no entry for zero consumption")
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/clients/"+c.ID.String()+"/readings", nil)
	var list []readingResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(list))
	}
}

func TestRunCycle_Idempotent(t *testing.T) {
	store, h := setup(t)
	seedFlatClient(t, store)

	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	body := map[string]any{"as_of": asOf.Format(time.RFC3339)}

	rec := doJSON(t, h, http.MethodPost, "/v1/cycles/run", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res runCycleResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if len(res.Created) != 1 || res.Skipped != 0 {
		t.Fatalf("unexpected first run: %+v", res)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/cycles/run", body)
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if len(res.Created) != 0 || res.Skipped != 1 {
		t.Fatalf("expected re-run to skip, got %+v", res)
	}
}

func TestAuthGate(t *testing.T) {
	store := memory.New()
	h := New(store, store, Options{Logger: testLogger(), JWTSecret: "topsecret"}).Handler()

	rec := doJSON(t, h, http.MethodGet, "/v1/clients", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// health stays open
	rec = doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	_, h := setup(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, h, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
