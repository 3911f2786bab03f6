package meter

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
	"github.com/hidrobill/hidrobill/internal/storage/memory"
)

func seedMeteredClient(t *testing.T, store *memory.Store, lastReading int64, unitPrice string) billing.Client {
	t.Helper()
	c := billing.Client{ID: uuid.New(), Number: "C-" + uuid.NewString()[:8], Name: "Metered Client", Street: "Main St", State: billing.ServiceStateActive}
	store.SeedClient(c)
	store.SeedPlan(billing.ServicePlan{
		ID:          uuid.New(),
		ClientID:    c.ID,
		Mode:        billing.ModeMetered,
		Currency:    "MXN",
		UnitPrice:   decimal.RequireFromString(unitPrice),
		LastReading: lastReading,
	})
	return c
}

func TestRecordReading(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedMeteredClient(t, store, 1500, "12.50")

	res, err := svc.RecordReading(ctx, c.ID, 1523, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, int64(23), res.Consumption)
	require.Equal(t, int64(1500), res.Reading.Previous)
	require.Equal(t, int64(1523), res.Reading.Current)
	require.NotNil(t, res.Entry)
	minor, ok := res.Entry.Amount.MinorUnits()
	require.True(t, ok)
	require.Equal(t, int64(28750), minor) // 23 * 12.50 = 287.50
	require.NotNil(t, res.Entry.ReadingID)
	require.Equal(t, res.Reading.ID, *res.Entry.ReadingID)

	// last reading advanced and the charge landed in the ledger
	p, err := store.PlanByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1523), p.LastReading)
	entries, err := store.EntriesByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, billing.EntryCharge, entries[0].Kind)
}

func TestRecordReading_ZeroConsumption(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedMeteredClient(t, store, 100, "12.50")

	res, err := svc.RecordReading(ctx, c.ID, 100, time.Now().UTC())
	require.NoError(t, err)
	require.Zero(t, res.Consumption)
	require.Nil(t, res.Entry)

	// the reading itself is still on record
	hist, err := svc.History(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	entries, err := store.EntriesByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRecordReading_RejectsRollback(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedMeteredClient(t, store, 100, "12.50")

	_, err := svc.RecordReading(ctx, c.ID, 90, time.Now().UTC())
	require.ErrorIs(t, err, errs.ErrInvalidReading)

	// nothing changed: no reading, no entry, last reading intact
	p, err := store.PlanByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), p.LastReading)
	hist, err := svc.History(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, hist)
	entries, err := store.EntriesByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRecordReading_RejectsFlatPlans(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := billing.Client{ID: uuid.New(), Number: "C-1", Name: "Flat Client", Street: "Main St", State: billing.ServiceStateActive}
	store.SeedClient(c)
	store.SeedPlan(billing.ServicePlan{ID: uuid.New(), ClientID: c.ID, Mode: billing.ModeFlat, Currency: "MXN", MonthlyRate: decimal.NewFromInt(200)})

	_, err := svc.RecordReading(ctx, c.ID, 10, time.Now().UTC())
	require.ErrorIs(t, err, errs.ErrInvalid)
}
