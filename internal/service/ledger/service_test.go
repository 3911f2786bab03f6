package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
	"github.com/hidrobill/hidrobill/internal/storage/memory"
)

func seedFlatClient(t *testing.T, store *memory.Store, rate int64) billing.Client {
	t.Helper()
	c := billing.Client{ID: uuid.New(), Number: "C-" + uuid.NewString()[:8], Name: "Test Client", Street: "Main St", State: billing.ServiceStateActive}
	store.SeedClient(c)
	store.SeedPlan(billing.ServicePlan{
		ID:          uuid.New(),
		ClientID:    c.ID,
		Mode:        billing.ModeFlat,
		Currency:    "MXN",
		MonthlyRate: decimal.NewFromInt(rate),
	})
	return c
}

func mxn(t *testing.T, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits("MXN", minor)
	require.NoError(t, err)
	return a
}

func minorOf(t *testing.T, a money.Amount) int64 {
	t.Helper()
	m, ok := a.MinorUnits()
	require.True(t, ok)
	return m
}

func TestBalanceLifecycle(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedFlatClient(t, store, 200)

	// three unpaid cycles at 200
	for i := 0; i < 3; i++ {
		_, err := svc.RecordCharge(ctx, c.ID, mxn(t, 20000), time.Now().UTC(), "monthly service charge")
		require.NoError(t, err)
	}
	bal, err := svc.Balance(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(60000), minorOf(t, bal))

	st, err := svc.Statement(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, billing.StatusOverdue, st.Status)
	require.Len(t, st.Entries, 3)

	// pay it all off
	_, err = svc.RecordPayment(ctx, c.ID, mxn(t, 60000), time.Now().UTC(), billing.MethodCash, 3)
	require.NoError(t, err)
	st, err = svc.Statement(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), minorOf(t, st.Balance))
	require.Equal(t, billing.StatusCurrent, st.Status)

	// overpay into credit
	_, err = svc.RecordPayment(ctx, c.ID, mxn(t, 5000), time.Now().UTC(), billing.MethodTransfer, 1)
	require.NoError(t, err)
	st, err = svc.Statement(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(-5000), minorOf(t, st.Balance))
	require.Equal(t, billing.StatusCredit, st.Status)
}

func TestBalancesAreIndependentAcrossClients(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	a := seedFlatClient(t, store, 200)
	b := seedFlatClient(t, store, 200)

	// interleave mutations for two clients
	_, err := svc.RecordCharge(ctx, a.ID, mxn(t, 10000), time.Now().UTC(), "")
	require.NoError(t, err)
	_, err = svc.RecordCharge(ctx, b.ID, mxn(t, 30000), time.Now().UTC(), "")
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, a.ID, mxn(t, 4000), time.Now().UTC(), billing.MethodCash, 1)
	require.NoError(t, err)

	balA, err := svc.Balance(ctx, a.ID)
	require.NoError(t, err)
	balB, err := svc.Balance(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6000), minorOf(t, balA))
	require.Equal(t, int64(30000), minorOf(t, balB))
}

func TestRecordCharge_Validation(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedFlatClient(t, store, 200)

	_, err := svc.RecordCharge(ctx, c.ID, mxn(t, 0), time.Now().UTC(), "")
	require.ErrorIs(t, err, errs.ErrInvalidAmount)
	_, err = svc.RecordCharge(ctx, c.ID, mxn(t, -100), time.Now().UTC(), "")
	require.ErrorIs(t, err, errs.ErrInvalidAmount)
	_, err = svc.RecordCharge(ctx, uuid.New(), mxn(t, 100), time.Now().UTC(), "")
	require.ErrorIs(t, err, errs.ErrNotFound)

	// rejected operations leave the ledger untouched
	entries, err := store.EntriesByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRecordPayment_AdvancesDueDateForFlatPlans(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedFlatClient(t, store, 200)

	paidAt := time.Date(2026, time.January, 31, 10, 0, 0, 0, time.UTC)
	_, err := svc.RecordPayment(ctx, c.ID, mxn(t, 20000), paidAt, billing.MethodCash, 1)
	require.NoError(t, err)

	p, err := store.PlanByClient(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, p.NextDueAt)
	// Jan 31 + 1 month clamps to Feb 28
	require.Equal(t, time.Date(2026, time.February, 28, 10, 0, 0, 0, time.UTC), *p.NextDueAt)
	require.NotNil(t, p.LastPaidAt)
	require.Equal(t, paidAt, *p.LastPaidAt)

	// the next payment advances from the stored due date, not the payment date
	_, err = svc.RecordPayment(ctx, c.ID, mxn(t, 40000), paidAt.AddDate(0, 0, 5), billing.MethodCash, 2)
	require.NoError(t, err)
	p, err = store.PlanByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.April, 28, 10, 0, 0, 0, time.UTC), *p.NextDueAt)
}

func TestRecordPayment_PeriodValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c := seedFlatClient(t, store, 200)

	_, err := svc.RecordPayment(ctx, c.ID, mxn(t, 20000), time.Now().UTC(), billing.MethodCash, 0)
	require.ErrorIs(t, err, errs.ErrInvalidPeriod)
	_, err = svc.RecordPayment(ctx, c.ID, mxn(t, 20000), time.Now().UTC(), billing.MethodCash, -2)
	require.ErrorIs(t, err, errs.ErrInvalidPeriod)

	entries, err := store.EntriesByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}
