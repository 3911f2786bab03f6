package httpapi

import (
	"context"

	"github.com/google/uuid"

	"github.com/hidrobill/hidrobill/internal/billing"
)

// Repository composes the read-side operations used by the API.
// Both the in-memory and the Postgres store satisfy it.
type Repository interface {
	GetClient(ctx context.Context, clientID uuid.UUID) (billing.Client, error)
	ListClients(ctx context.Context) ([]billing.Client, error)
	PlanByClient(ctx context.Context, clientID uuid.UUID) (billing.ServicePlan, error)
	ListPlans(ctx context.Context, mode *billing.BillingMode) ([]billing.ServicePlan, error)
	EntriesByClient(ctx context.Context, clientID uuid.UUID) ([]billing.LedgerEntry, error)
	ReadingsByPlan(ctx context.Context, planID uuid.UUID) ([]billing.MeterReading, error)
	HasCycleCharge(ctx context.Context, clientID uuid.UUID, key string) (bool, error)
}

// Writer composes the write-side operations used by the API. The Apply*
// methods persist an entry together with its side effect; the Postgres store
// runs each as one transaction.
type Writer interface {
	CreateClient(ctx context.Context, c billing.Client) (billing.Client, error)
	UpdateClient(ctx context.Context, c billing.Client) (billing.Client, error)
	CreatePlan(ctx context.Context, p billing.ServicePlan) (billing.ServicePlan, error)
	UpdatePlan(ctx context.Context, p billing.ServicePlan) (billing.ServicePlan, error)
	CreateLedgerEntry(ctx context.Context, e billing.LedgerEntry) (billing.LedgerEntry, error)
	ApplyPayment(ctx context.Context, e billing.LedgerEntry, p billing.ServicePlan) (billing.LedgerEntry, error)
	ApplyReading(ctx context.Context, r billing.MeterReading, e *billing.LedgerEntry, p billing.ServicePlan) error
	ApplyCycleCharge(ctx context.Context, e billing.LedgerEntry, key string) (bool, error)
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
