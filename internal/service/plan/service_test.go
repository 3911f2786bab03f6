package plan

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
	"github.com/hidrobill/hidrobill/internal/storage/memory"
)

func seedClient(t *testing.T, store *memory.Store) billing.Client {
	t.Helper()
	c := billing.Client{ID: uuid.New(), Number: "C-0001", Name: "Maria Lopez", Street: "Av. Juarez", State: billing.ServiceStateActive}
	store.SeedClient(c)
	return c
}

func TestCreate(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedClient(t, store)

	p, err := svc.Create(ctx, billing.ServicePlan{
		ClientID:    c.ID,
		Mode:        billing.ModeFlat,
		Currency:    "mxn",
		MonthlyRate: decimal.NewFromInt(200),
		UnitPrice:   decimal.NewFromInt(99), // ignored for flat plans
	})
	require.NoError(t, err)
	require.Equal(t, "MXN", p.Currency)
	require.True(t, p.UnitPrice.IsZero())

	// one plan per client
	_, err = svc.Create(ctx, billing.ServicePlan{ClientID: c.ID, Mode: billing.ModeFlat, Currency: "MXN", MonthlyRate: decimal.NewFromInt(100)})
	require.ErrorIs(t, err, errs.ErrConflict)

	// unknown client
	_, err = svc.Create(ctx, billing.ServicePlan{ClientID: uuid.New(), Mode: billing.ModeFlat, Currency: "MXN", MonthlyRate: decimal.NewFromInt(100)})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreate_RateValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedClient(t, store)

	_, err := svc.Create(ctx, billing.ServicePlan{ClientID: c.ID, Mode: billing.ModeFlat, Currency: "MXN"})
	require.ErrorIs(t, err, errs.ErrInvalidAmount)
	_, err = svc.Create(ctx, billing.ServicePlan{ClientID: c.ID, Mode: billing.ModeMetered, Currency: "MXN"})
	require.ErrorIs(t, err, errs.ErrInvalidAmount)
	_, err = svc.Create(ctx, billing.ServicePlan{ClientID: c.ID, Mode: "hourly", Currency: "MXN"})
	require.Error(t, err)
}

func TestUpdateRate(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedClient(t, store)
	_, err := svc.Create(ctx, billing.ServicePlan{ClientID: c.ID, Mode: billing.ModeMetered, Currency: "MXN", UnitPrice: decimal.RequireFromString("12.50")})
	require.NoError(t, err)

	p, err := svc.UpdateRate(ctx, c.ID, decimal.RequireFromString("13.75"))
	require.NoError(t, err)
	require.Equal(t, "13.75", p.UnitPrice.StringFixed(2))

	_, err = svc.UpdateRate(ctx, c.ID, decimal.Zero)
	require.ErrorIs(t, err, errs.ErrInvalidAmount)
}
