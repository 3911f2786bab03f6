package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/hidrobill/hidrobill/internal/billing"
)

type postClientRequest struct {
	Number string `json:"number"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
	Street string `json:"street"`
	Lot    string `json:"lot,omitempty"`
	Block  string `json:"block,omitempty"`
}

type patchClientRequest struct {
	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Email  *string `json:"email,omitempty"`
	Street *string `json:"street,omitempty"`
	Lot    *string `json:"lot,omitempty"`
	Block  *string `json:"block,omitempty"`
}

type clientResponse struct {
	ID     uuid.UUID            `json:"id"`
	Number string               `json:"number"`
	Name   string               `json:"name"`
	Phone  string               `json:"phone,omitempty"`
	Email  string               `json:"email,omitempty"`
	Street string               `json:"street"`
	Lot    string               `json:"lot,omitempty"`
	Block  string               `json:"block,omitempty"`
	State  billing.ServiceState `json:"state"`
}

// Rates travel as decimal strings to avoid float drift in clients.
type postPlanRequest struct {
	ClientID    uuid.UUID           `json:"client_id"`
	Name        string              `json:"name,omitempty"`
	Mode        billing.BillingMode `json:"mode"`
	Currency    string              `json:"currency,omitempty"`
	MonthlyRate string              `json:"monthly_rate,omitempty"`
	UnitPrice   string              `json:"unit_price,omitempty"`
	LastReading int64               `json:"last_reading,omitempty"`
}

type patchRateRequest struct {
	Rate string `json:"rate"`
}

type planResponse struct {
	ID          uuid.UUID           `json:"id"`
	ClientID    uuid.UUID           `json:"client_id"`
	Name        string              `json:"name,omitempty"`
	Mode        billing.BillingMode `json:"mode"`
	Currency    string              `json:"currency"`
	MonthlyRate string              `json:"monthly_rate"`
	UnitPrice   string              `json:"unit_price"`
	LastReading int64               `json:"last_reading"`
	LastPaidAt  *time.Time          `json:"last_paid_at,omitempty"`
	NextDueAt   *time.Time          `json:"next_due_at,omitempty"`
}

type postChargeRequest struct {
	ClientID    uuid.UUID  `json:"client_id"`
	AmountMinor int64      `json:"amount_minor"`
	Date        *time.Time `json:"date,omitempty"`
	Memo        string     `json:"memo,omitempty"`
}

type postPaymentRequest struct {
	ClientID    uuid.UUID             `json:"client_id"`
	AmountMinor int64                 `json:"amount_minor"`
	Date        *time.Time            `json:"date,omitempty"`
	Method      billing.PaymentMethod `json:"method,omitempty"`
	// Periods is the number of months being paid; required (>= 1) for flat plans.
	Periods int `json:"periods,omitempty"`
}

type postReadingRequest struct {
	ClientID uuid.UUID  `json:"client_id"`
	Current  int64      `json:"current"`
	Date     *time.Time `json:"date,omitempty"`
}

type entryResponse struct {
	ID          uuid.UUID             `json:"id"`
	ClientID    uuid.UUID             `json:"client_id"`
	Date        time.Time             `json:"date"`
	Kind        billing.EntryKind     `json:"kind"`
	AmountMinor int64                 `json:"amount_minor"`
	Amount      string                `json:"amount"`
	ReadingID   *uuid.UUID            `json:"reading_id,omitempty"`
	Method      billing.PaymentMethod `json:"method,omitempty"`
	Memo        string                `json:"memo,omitempty"`
}

type readingResponse struct {
	ID          uuid.UUID `json:"id"`
	PlanID      uuid.UUID `json:"plan_id"`
	Previous    int64     `json:"previous"`
	Current     int64     `json:"current"`
	Consumption int64     `json:"consumption"`
	Date        time.Time `json:"date"`
}

type readingResultResponse struct {
	Reading     readingResponse `json:"reading"`
	Consumption int64           `json:"consumption"`
	Entry       *entryResponse  `json:"entry,omitempty"`
}

type balanceResponse struct {
	ClientID     uuid.UUID             `json:"client_id"`
	Currency     string                `json:"currency"`
	BalanceMinor int64                 `json:"balance_minor"`
	Balance      string                `json:"balance"`
	Status       billing.AccountStatus `json:"status"`
}

type ledgerViewResponse struct {
	ClientID     uuid.UUID             `json:"client_id"`
	Entries      []entryResponse       `json:"entries"`
	BalanceMinor int64                 `json:"balance_minor"`
	Balance      string                `json:"balance"`
	Status       billing.AccountStatus `json:"status"`
}

type runCycleRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

type cycleItemError struct {
	ClientID uuid.UUID `json:"client_id"`
	Code     string    `json:"code"`
	Error    string    `json:"error"`
}

type runCycleResponse struct {
	Cycle   string           `json:"cycle"`
	Created []entryResponse  `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []cycleItemError `json:"errors"`
}

func toClientResponse(c billing.Client) clientResponse {
	return clientResponse{
		ID: c.ID, Number: c.Number, Name: c.Name, Phone: c.Phone, Email: c.Email,
		Street: c.Street, Lot: c.Lot, Block: c.Block, State: c.State,
	}
}

func toPlanResponse(p billing.ServicePlan) planResponse {
	return planResponse{
		ID: p.ID, ClientID: p.ClientID, Name: p.Name, Mode: p.Mode, Currency: p.Currency,
		MonthlyRate: p.MonthlyRate.String(), UnitPrice: p.UnitPrice.String(),
		LastReading: p.LastReading, LastPaidAt: p.LastPaidAt, NextDueAt: p.NextDueAt,
	}
}

func toEntryResponse(e billing.LedgerEntry) entryResponse {
	minor, _ := e.Amount.MinorUnits()
	return entryResponse{
		ID: e.ID, ClientID: e.ClientID, Date: e.Date, Kind: e.Kind,
		AmountMinor: minor, Amount: e.Amount.String(),
		ReadingID: e.ReadingID, Method: e.Method, Memo: e.Memo,
	}
}

func toReadingResponse(r billing.MeterReading) readingResponse {
	return readingResponse{
		ID: r.ID, PlanID: r.PlanID, Previous: r.Previous, Current: r.Current,
		Consumption: r.Consumption(), Date: r.Date,
	}
}
