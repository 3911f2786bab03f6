// Package cycle implements the monthly billing run for flat-rate plans: one
// charge per active client per calendar month. Idempotency is enforced by the
// store (a persisted cycle key per client and month), not by in-memory
// bookkeeping, so re-runs and concurrent runs cannot double-charge. Per-client
// failures are collected and never abort the batch.
package cycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hidrobill/hidrobill/internal/billing"
)

type Repo interface {
	GetClient(ctx context.Context, clientID uuid.UUID) (billing.Client, error)
	ListPlans(ctx context.Context, mode *billing.BillingMode) ([]billing.ServicePlan, error)
	HasCycleCharge(ctx context.Context, clientID uuid.UUID, key string) (bool, error)
}

type Writer interface {
	ApplyCycleCharge(ctx context.Context, e billing.LedgerEntry, key string) (bool, error)
}

// ItemError represents a per-client failure in a billing run.
type ItemError struct {
	ClientID uuid.UUID
	Code     string
	Err      error
}

// Result summarizes one billing run.
type Result struct {
	CycleKey string
	Created  []billing.LedgerEntry
	Skipped  int
	Errors   []ItemError
}

type Service interface {
	GenerateMonthlyCharges(ctx context.Context, asOf time.Time) (Result, error)
}

type service struct {
	repo   Repo
	writer Writer
	log    *slog.Logger
}

func New(repo Repo, writer Writer, logger *slog.Logger) Service {
	return &service{repo: repo, writer: writer, log: logger}
}

// GenerateMonthlyCharges creates one monthly-rate charge for every active
// flat-rate client that has not been charged for asOf's calendar month yet.
func (s *service) GenerateMonthlyCharges(ctx context.Context, asOf time.Time) (Result, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	key := billing.CycleKey(asOf)
	res := Result{CycleKey: key}

	mode := billing.ModeFlat
	plans, err := s.repo.ListPlans(ctx, &mode)
	if err != nil {
		return res, err
	}
	s.log.Info("billing run started", "cycle", key, "flat_plans", len(plans))

	for _, p := range plans {
		c, err := s.repo.GetClient(ctx, p.ClientID)
		if err != nil {
			res.Errors = append(res.Errors, ItemError{ClientID: p.ClientID, Code: "client_lookup", Err: err})
			continue
		}
		if c.State != billing.ServiceStateActive {
			res.Skipped++
			continue
		}
		charged, err := s.repo.HasCycleCharge(ctx, c.ID, key)
		if err != nil {
			res.Errors = append(res.Errors, ItemError{ClientID: c.ID, Code: "cycle_lookup", Err: err})
			continue
		}
		if charged {
			res.Skipped++
			continue
		}
		charge, err := billing.ComputeFlatCharge(p.MonthlyRate, 1)
		if err != nil {
			res.Errors = append(res.Errors, ItemError{ClientID: c.ID, Code: "invalid_rate", Err: err})
			s.log.Warn("billing run: plan has no usable rate", "cycle", key, "client_id", c.ID)
			continue
		}
		amount, err := billing.AmountFromDecimal(p.Currency, charge)
		if err != nil {
			res.Errors = append(res.Errors, ItemError{ClientID: c.ID, Code: "invalid_rate", Err: err})
			continue
		}
		e := billing.LedgerEntry{
			ID:       uuid.New(),
			ClientID: c.ID,
			Date:     asOf,
			Kind:     billing.EntryCharge,
			Amount:   amount,
			Memo:     "monthly service charge " + key,
		}
		created, err := s.writer.ApplyCycleCharge(ctx, e, key)
		if err != nil {
			res.Errors = append(res.Errors, ItemError{ClientID: c.ID, Code: "storage", Err: err})
			continue
		}
		if !created {
			// Lost the race against a concurrent run for this client.
			res.Skipped++
			continue
		}
		res.Created = append(res.Created, e)
	}

	s.log.Info("billing run complete",
		"cycle", key,
		"created", len(res.Created),
		"skipped", res.Skipped,
		"errors", len(res.Errors),
	)
	return res, nil
}
