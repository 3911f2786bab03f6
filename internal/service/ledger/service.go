// Package ledger implements charge and payment recording and balance
// derivation. Entries are append-only; the balance is always the fold of the
// client's entry history (charges minus payments, positive = owed) and is
// never stored, so recomputation cannot drift from the history.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetClient(ctx context.Context, clientID uuid.UUID) (billing.Client, error)
	PlanByClient(ctx context.Context, clientID uuid.UUID) (billing.ServicePlan, error)
	EntriesByClient(ctx context.Context, clientID uuid.UUID) ([]billing.LedgerEntry, error)
}

// Writer defines write operations needed by the service. ApplyPayment
// persists the entry together with the plan's advanced due date; the Postgres
// store runs it as one transaction so a failed write leaves the ledger
// unchanged.
type Writer interface {
	CreateLedgerEntry(ctx context.Context, e billing.LedgerEntry) (billing.LedgerEntry, error)
	ApplyPayment(ctx context.Context, e billing.LedgerEntry, p billing.ServicePlan) (billing.LedgerEntry, error)
}

// Statement bundles a client's entry history with the derived balance and status.
type Statement struct {
	Client  billing.Client
	Plan    billing.ServicePlan
	Entries []billing.LedgerEntry
	Balance money.Amount
	Status  billing.AccountStatus
}

// Service exposes ledger mutations and balance reads.
type Service interface {
	RecordCharge(ctx context.Context, clientID uuid.UUID, amount money.Amount, date time.Time, memo string) (billing.LedgerEntry, error)
	RecordPayment(ctx context.Context, clientID uuid.UUID, amount money.Amount, date time.Time, method billing.PaymentMethod, periods int) (billing.LedgerEntry, error)
	Balance(ctx context.Context, clientID uuid.UUID) (money.Amount, error)
	Statement(ctx context.Context, clientID uuid.UUID) (Statement, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// RecordCharge appends a charge entry. The amount must be strictly positive.
func (s *service) RecordCharge(ctx context.Context, clientID uuid.UUID, amount money.Amount, date time.Time, memo string) (billing.LedgerEntry, error) {
	if clientID == uuid.Nil {
		return billing.LedgerEntry{}, errs.ErrInvalid
	}
	if minor, _ := amount.MinorUnits(); minor <= 0 {
		return billing.LedgerEntry{}, errs.ErrInvalidAmount
	}
	if _, err := s.repo.GetClient(ctx, clientID); err != nil {
		return billing.LedgerEntry{}, err
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	e := billing.LedgerEntry{
		ID:       uuid.New(),
		ClientID: clientID,
		Date:     date,
		Kind:     billing.EntryCharge,
		Amount:   amount,
		Memo:     memo,
	}
	return s.writer.CreateLedgerEntry(ctx, e)
}

// RecordPayment appends a payment entry. For flat plans the paid period count
// (>= 1) advances the plan's next-due date by that many months, clamped to
// month end; the entry and the plan change persist together. For metered
// plans periods is ignored and only the last-paid date advances.
func (s *service) RecordPayment(ctx context.Context, clientID uuid.UUID, amount money.Amount, date time.Time, method billing.PaymentMethod, periods int) (billing.LedgerEntry, error) {
	if clientID == uuid.Nil {
		return billing.LedgerEntry{}, errs.ErrInvalid
	}
	if minor, _ := amount.MinorUnits(); minor <= 0 {
		return billing.LedgerEntry{}, errs.ErrInvalidAmount
	}
	if periods < 0 {
		return billing.LedgerEntry{}, errs.ErrInvalidPeriod
	}
	if _, err := s.repo.GetClient(ctx, clientID); err != nil {
		return billing.LedgerEntry{}, err
	}
	p, err := s.repo.PlanByClient(ctx, clientID)
	if err != nil {
		return billing.LedgerEntry{}, err
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	if p.Mode == billing.ModeFlat {
		if periods < 1 {
			return billing.LedgerEntry{}, errs.ErrInvalidPeriod
		}
		base := date
		if p.NextDueAt != nil {
			base = *p.NextDueAt
		}
		next := billing.NextDueDate(base, periods)
		p.NextDueAt = &next
	}
	paidAt := date
	p.LastPaidAt = &paidAt
	e := billing.LedgerEntry{
		ID:       uuid.New(),
		ClientID: clientID,
		Date:     date,
		Kind:     billing.EntryPayment,
		Amount:   amount,
		Method:   method,
	}
	return s.writer.ApplyPayment(ctx, e, p)
}

// Balance folds the client's entry history into the owed amount.
func (s *service) Balance(ctx context.Context, clientID uuid.UUID) (money.Amount, error) {
	var zero money.Amount
	if clientID == uuid.Nil {
		return zero, errs.ErrInvalid
	}
	p, err := s.repo.PlanByClient(ctx, clientID)
	if err != nil {
		return zero, err
	}
	entries, err := s.repo.EntriesByClient(ctx, clientID)
	if err != nil {
		return zero, err
	}
	return fold(p.Currency, entries)
}

// Statement returns the full picture the dashboard renders for one client.
func (s *service) Statement(ctx context.Context, clientID uuid.UUID) (Statement, error) {
	if clientID == uuid.Nil {
		return Statement{}, errs.ErrInvalid
	}
	c, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return Statement{}, err
	}
	p, err := s.repo.PlanByClient(ctx, clientID)
	if err != nil {
		return Statement{}, err
	}
	entries, err := s.repo.EntriesByClient(ctx, clientID)
	if err != nil {
		return Statement{}, err
	}
	bal, err := fold(p.Currency, entries)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Client:  c,
		Plan:    p,
		Entries: entries,
		Balance: bal,
		Status:  billing.ResolveStatus(c.State, bal),
	}, nil
}

// fold sums charges minus payments. Positive = owed.
func fold(currency string, entries []billing.LedgerEntry) (money.Amount, error) {
	bal, err := billing.ZeroAmount(currency)
	if err != nil {
		return bal, err
	}
	for _, e := range entries {
		switch e.Kind {
		case billing.EntryCharge:
			if bal, err = bal.Add(e.Amount); err != nil {
				return bal, err
			}
		case billing.EntryPayment:
			if bal, err = bal.Sub(e.Amount); err != nil {
				return bal, err
			}
		}
	}
	return bal, nil
}
