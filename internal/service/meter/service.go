// Package meter implements meter-reading capture for metered plans: validate
// the new reading against the plan's last one, derive the consumption charge,
// then persist reading, charge entry and last-reading advance as one store
// operation. A rejected reading leaves every record untouched.
package meter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
)

type Repo interface {
	GetClient(ctx context.Context, clientID uuid.UUID) (billing.Client, error)
	PlanByClient(ctx context.Context, clientID uuid.UUID) (billing.ServicePlan, error)
	ReadingsByPlan(ctx context.Context, planID uuid.UUID) ([]billing.MeterReading, error)
}

type Writer interface {
	ApplyReading(ctx context.Context, r billing.MeterReading, e *billing.LedgerEntry, p billing.ServicePlan) error
}

// Result is what the dashboard renders after a reading is captured.
type Result struct {
	Reading     billing.MeterReading
	Consumption int64
	// Entry is nil when consumption was zero: the reading is recorded but no
	// charge is due, and zero-amount entries never enter the ledger.
	Entry *billing.LedgerEntry
}

type Service interface {
	RecordReading(ctx context.Context, clientID uuid.UUID, current int64, date time.Time) (Result, error)
	History(ctx context.Context, clientID uuid.UUID) ([]billing.MeterReading, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// RecordReading validates current against the plan's last reading, computes
// the consumption charge at the plan's unit price, and persists everything
// atomically.
func (s *service) RecordReading(ctx context.Context, clientID uuid.UUID, current int64, date time.Time) (Result, error) {
	if clientID == uuid.Nil {
		return Result{}, errs.ErrInvalid
	}
	if _, err := s.repo.GetClient(ctx, clientID); err != nil {
		return Result{}, err
	}
	p, err := s.repo.PlanByClient(ctx, clientID)
	if err != nil {
		return Result{}, err
	}
	if p.Mode != billing.ModeMetered {
		return Result{}, errs.ErrInvalid
	}
	consumption, charge, err := billing.ComputeMeteredCharge(p.LastReading, current, p.UnitPrice)
	if err != nil {
		return Result{}, err
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	r := billing.MeterReading{
		ID:       uuid.New(),
		PlanID:   p.ID,
		Previous: p.LastReading,
		Current:  current,
		Date:     date,
	}
	var entry *billing.LedgerEntry
	if consumption > 0 {
		amount, err := billing.AmountFromDecimal(p.Currency, charge)
		if err != nil {
			return Result{}, err
		}
		rid := r.ID
		entry = &billing.LedgerEntry{
			ID:        uuid.New(),
			ClientID:  clientID,
			Date:      date,
			Kind:      billing.EntryCharge,
			Amount:    amount,
			ReadingID: &rid,
			Memo:      "consumption charge",
		}
	}
	p.LastReading = current
	if err := s.writer.ApplyReading(ctx, r, entry, p); err != nil {
		return Result{}, err
	}
	return Result{Reading: r, Consumption: consumption, Entry: entry}, nil
}

// History returns the client's readings in capture order.
func (s *service) History(ctx context.Context, clientID uuid.UUID) ([]billing.MeterReading, error) {
	if clientID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	p, err := s.repo.PlanByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.repo.ReadingsByPlan(ctx, p.ID)
}
