package client

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
	"github.com/hidrobill/hidrobill/internal/storage/memory"
)

func TestRegister(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()

	c, err := svc.Register(ctx, billing.Client{Number: "C-0001", Name: "Maria Lopez", Street: "Av. Juarez"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, c.ID)
	require.Equal(t, billing.ServiceStateActive, c.State)

	// missing required fields
	_, err = svc.Register(ctx, billing.Client{Number: "C-0002", Street: "Av. Juarez"})
	require.Error(t, err)
	_, err = svc.Register(ctx, billing.Client{Number: "C-0002", Name: "No Street"})
	require.Error(t, err)

	// duplicate number, case-insensitive
	_, err = svc.Register(ctx, billing.Client{Number: "c-0001", Name: "Someone Else", Street: "Calle 5"})
	require.ErrorIs(t, err, ErrNumberExists)
}

func TestUpdate_ImmutableFields(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c, err := svc.Register(ctx, billing.Client{Number: "C-0001", Name: "Maria Lopez", Street: "Av. Juarez"})
	require.NoError(t, err)

	// contact info is editable
	upd := c
	upd.Phone = "555-0102"
	upd.Email = "maria@example.com"
	got, err := svc.Update(ctx, upd)
	require.NoError(t, err)
	require.Equal(t, "555-0102", got.Phone)

	// client number is not
	upd = c
	upd.Number = "C-9999"
	_, err = svc.Update(ctx, upd)
	require.ErrorIs(t, err, errs.ErrImmutable)

	// neither is state via Update
	upd = c
	upd.State = billing.ServiceStateSuspended
	_, err = svc.Update(ctx, upd)
	require.ErrorIs(t, err, errs.ErrImmutable)
}

func TestSuspendReactivate(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	c, err := svc.Register(ctx, billing.Client{Number: "C-0001", Name: "Maria Lopez", Street: "Av. Juarez"})
	require.NoError(t, err)

	got, err := svc.Suspend(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, billing.ServiceStateSuspended, got.State)

	// suspending twice is a no-op
	got, err = svc.Suspend(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, billing.ServiceStateSuspended, got.State)

	got, err = svc.Reactivate(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, billing.ServiceStateActive, got.State)

	_, err = svc.Suspend(ctx, uuid.New())
	require.ErrorIs(t, err, errs.ErrNotFound)
}
