package main

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/storage/memory"
)

// seedMemory loads a small demo data set: one flat-rate and one metered client.
func seedMemory(store *memory.Store, currency string) []billing.Client {
	flat := billing.Client{
		ID:     uuid.New(),
		Number: "C-0001",
		Name:   "Maria Lopez",
		Street: "Av. Juarez 12",
		Lot:    "4",
		Block:  "B",
		State:  billing.ServiceStateActive,
	}
	metered := billing.Client{
		ID:     uuid.New(),
		Number: "C-0002",
		Name:   "Jose Ortiz",
		Street: "Calle 5 de Mayo 77",
		State:  billing.ServiceStateActive,
	}
	store.SeedClient(flat)
	store.SeedClient(metered)
	store.SeedPlan(billing.ServicePlan{
		ID:          uuid.New(),
		ClientID:    flat.ID,
		Name:        "residential flat",
		Mode:        billing.ModeFlat,
		Currency:    currency,
		MonthlyRate: decimal.NewFromInt(200),
	})
	store.SeedPlan(billing.ServicePlan{
		ID:          uuid.New(),
		ClientID:    metered.ID,
		Name:        "residential metered",
		Mode:        billing.ModeMetered,
		Currency:    currency,
		UnitPrice:   decimal.RequireFromString("12.50"),
		LastReading: 1500,
	})
	return []billing.Client{flat, metered}
}

func logDevSeed(l *slog.Logger, backend string, clients []billing.Client) {
	ids := make([]string, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ID.String())
	}
	l.Info("DEV seed ("+backend+")", "client_ids", ids)
}
