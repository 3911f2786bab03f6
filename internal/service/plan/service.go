// Package plan implements service-plan rules: exactly one plan per client,
// mode-consistent rate fields, and rate updates. Rates live on the plan, not
// the client row; there is no stored balance anywhere.
package plan

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
)

type Repo interface {
	GetClient(ctx context.Context, clientID uuid.UUID) (billing.Client, error)
	PlanByClient(ctx context.Context, clientID uuid.UUID) (billing.ServicePlan, error)
}

type Writer interface {
	CreatePlan(ctx context.Context, p billing.ServicePlan) (billing.ServicePlan, error)
	UpdatePlan(ctx context.Context, p billing.ServicePlan) (billing.ServicePlan, error)
}

type Service interface {
	ValidateCreate(p billing.ServicePlan) error
	Create(ctx context.Context, p billing.ServicePlan) (billing.ServicePlan, error)
	Get(ctx context.Context, clientID uuid.UUID) (billing.ServicePlan, error)
	UpdateRate(ctx context.Context, clientID uuid.UUID, rate decimal.Decimal) (billing.ServicePlan, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) ValidateCreate(p billing.ServicePlan) error {
	if p.ClientID == uuid.Nil {
		return errs.ErrInvalid
	}
	if p.Currency == "" {
		return errors.New("currency is required")
	}
	switch p.Mode {
	case billing.ModeFlat:
		if p.MonthlyRate.Sign() <= 0 {
			return errs.ErrInvalidAmount
		}
	case billing.ModeMetered:
		if p.UnitPrice.Sign() <= 0 {
			return errs.ErrInvalidAmount
		}
		if p.LastReading < 0 {
			return errs.ErrInvalidReading
		}
	default:
		return errors.New("mode must be flat or metered")
	}
	return nil
}

func (s *service) Create(ctx context.Context, p billing.ServicePlan) (billing.ServicePlan, error) {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if err := s.ValidateCreate(p); err != nil {
		return billing.ServicePlan{}, err
	}
	if _, err := s.repo.GetClient(ctx, p.ClientID); err != nil {
		return billing.ServicePlan{}, err
	}
	// One plan per client; the store enforces this too.
	if _, err := s.repo.PlanByClient(ctx, p.ClientID); err == nil {
		return billing.ServicePlan{}, errs.ErrConflict
	} else if !errors.Is(err, errs.ErrNotFound) {
		return billing.ServicePlan{}, err
	}
	np := billing.ServicePlan{
		ID:          uuid.New(),
		ClientID:    p.ClientID,
		Name:        p.Name,
		Mode:        p.Mode,
		Currency:    p.Currency,
		MonthlyRate: p.MonthlyRate,
		UnitPrice:   p.UnitPrice,
		LastReading: p.LastReading,
	}
	// Zero out the rate field the mode does not use.
	if np.Mode == billing.ModeFlat {
		np.UnitPrice = decimal.Zero
		np.LastReading = 0
	} else {
		np.MonthlyRate = decimal.Zero
	}
	return s.writer.CreatePlan(ctx, np)
}

func (s *service) Get(ctx context.Context, clientID uuid.UUID) (billing.ServicePlan, error) {
	if clientID == uuid.Nil {
		return billing.ServicePlan{}, errs.ErrInvalid
	}
	return s.repo.PlanByClient(ctx, clientID)
}

// UpdateRate changes the rate field the plan's mode uses. Mode and currency
// are immutable once the plan exists.
func (s *service) UpdateRate(ctx context.Context, clientID uuid.UUID, rate decimal.Decimal) (billing.ServicePlan, error) {
	if clientID == uuid.Nil {
		return billing.ServicePlan{}, errs.ErrInvalid
	}
	if rate.Sign() <= 0 {
		return billing.ServicePlan{}, errs.ErrInvalidAmount
	}
	p, err := s.repo.PlanByClient(ctx, clientID)
	if err != nil {
		return billing.ServicePlan{}, err
	}
	if p.Mode == billing.ModeFlat {
		p.MonthlyRate = rate
	} else {
		p.UnitPrice = rate
	}
	return s.writer.UpdatePlan(ctx, p)
}
