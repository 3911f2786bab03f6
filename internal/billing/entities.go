package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/shopspring/decimal"
)

// ServiceState tracks whether service delivery for a client is switched on.
type ServiceState string

const (
	// ServiceStateActive means the client receives service and accrues charges.
	ServiceStateActive ServiceState = "active"
	// ServiceStateSuspended means service is cut; suspension dominates any balance-derived status.
	ServiceStateSuspended ServiceState = "suspended"
)

// BillingMode selects how charges are derived for a plan.
type BillingMode string

const (
	// ModeFlat bills a fixed monthly rate regardless of usage.
	ModeFlat BillingMode = "flat"
	// ModeMetered bills per unit of consumption between successive meter readings.
	ModeMetered BillingMode = "metered"
)

// AccountStatus is the display status derived from service state and balance.
type AccountStatus string

const (
	StatusCurrent   AccountStatus = "current"
	StatusOverdue   AccountStatus = "overdue"
	StatusSuspended AccountStatus = "suspended"
	StatusCredit    AccountStatus = "credit"
)

// EntryKind marks a ledger entry as a charge against the client or a payment by the client.
type EntryKind string

const (
	EntryCharge  EntryKind = "charge"
	EntryPayment EntryKind = "payment"
)

// PaymentMethod tags how a payment was made. Free-form values are accepted;
// these cover the ones the dashboard offers.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
	MethodCard     PaymentMethod = "card"
)

// Client is a registered customer of the utility. Clients are never deleted;
// suspension flips State and leaves the record and its history intact.
type Client struct {
	ID uuid.UUID
	// Number is the human-facing client number, unique across the registry.
	Number string
	Name   string
	Phone  string
	Email  string
	// Street/Lot/Block form the service address.
	Street string
	Lot    string
	Block  string
	State  ServiceState
}

// ServicePlan describes how one client is billed. Exactly one plan exists per
// client; Mode decides which rate fields apply.
type ServicePlan struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	Name     string
	Mode     BillingMode
	Currency string
	// MonthlyRate is the fixed per-cycle amount for flat plans.
	MonthlyRate decimal.Decimal
	// UnitPrice is the per-unit price for metered plans.
	UnitPrice decimal.Decimal
	// LastReading is the meter position the plan was last billed up to.
	LastReading int64
	LastPaidAt  *time.Time
	NextDueAt   *time.Time
}

// LedgerEntry is an immutable charge or payment against a client. Entries are
// append-only; the client balance is always the fold of its entry history
// (charges minus payments, positive = owed) and is never stored or
// hand-adjusted anywhere.
type LedgerEntry struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	Date     time.Time
	Kind     EntryKind
	// Amount is strictly positive; Kind carries the direction.
	Amount money.Amount
	// ReadingID links a charge to the meter reading that produced it.
	ReadingID *uuid.UUID
	// Method is set on payments only.
	Method PaymentMethod
	Memo   string
}

// MeterReading records one visit to a metered plan's meter.
// Current is never below Previous.
type MeterReading struct {
	ID       uuid.UUID
	PlanID   uuid.UUID
	Previous int64
	Current  int64
	Date     time.Time
}

// Consumption returns the units consumed since the previous reading.
func (r MeterReading) Consumption() int64 { return r.Current - r.Previous }
