// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the HTTP API and services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between the
// domain entities and SQL rows and running the necessary statements and
// transactions: every combined mutation (payment + due-date advance, reading +
// charge, cycle charge + idempotency marker) commits or rolls back as a unit.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// SeedDev inserts two clients (one flat, one metered) with plans for quick
// local testing. It is idempotent per run due to fresh UUIDs, but client
// numbers repeat, so run it against a scratch database only.
func (s *Store) SeedDev(ctx context.Context) ([]billing.Client, []billing.ServicePlan, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	flat := billing.Client{ID: uuid.New(), Number: "C-0001", Name: "Maria Lopez", Street: "Av. Juarez", Lot: "12", Block: "B", State: billing.ServiceStateActive}
	metered := billing.Client{ID: uuid.New(), Number: "C-0002", Name: "Jorge Ramirez", Street: "Calle 5", Lot: "3", Block: "A", State: billing.ServiceStateActive}
	clients := []billing.Client{flat, metered}
	for _, c := range clients {
		if _, err := tx.Exec(ctx, `
            insert into clients (id, number, name, phone, email, street, lot, block, state)
            values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        `, c.ID, c.Number, c.Name, c.Phone, c.Email, c.Street, c.Lot, c.Block, c.State); err != nil {
			return nil, nil, err
		}
	}
	plans := []billing.ServicePlan{
		{ID: uuid.New(), ClientID: flat.ID, Name: "Residential flat", Mode: billing.ModeFlat, Currency: "MXN", MonthlyRate: decimal.NewFromInt(200), UnitPrice: decimal.Zero},
		{ID: uuid.New(), ClientID: metered.ID, Name: "Residential metered", Mode: billing.ModeMetered, Currency: "MXN", MonthlyRate: decimal.Zero, UnitPrice: decimal.RequireFromString("12.50"), LastReading: 1500},
	}
	for _, p := range plans {
		if _, err := tx.Exec(ctx, `
            insert into service_plans (id, client_id, name, mode, currency, monthly_rate, unit_price, last_reading, last_paid_at, next_due_at)
            values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        `, p.ID, p.ClientID, p.Name, p.Mode, p.Currency, p.MonthlyRate.String(), p.UnitPrice.String(), p.LastReading, p.LastPaidAt, p.NextDueAt); err != nil {
			return nil, nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return clients, plans, nil
}

// --- Clients ---

const clientCols = `id, number, name, phone, email, street, lot, block, state`

func scanClient(row pgx.Row) (billing.Client, error) {
	var c billing.Client
	err := row.Scan(&c.ID, &c.Number, &c.Name, &c.Phone, &c.Email, &c.Street, &c.Lot, &c.Block, &c.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.Client{}, errs.ErrNotFound
	}
	if err != nil {
		return billing.Client{}, err
	}
	return c, nil
}

// CreateClient inserts a client row.
func (s *Store) CreateClient(ctx context.Context, c billing.Client) (billing.Client, error) {
	_, err := s.pool.Exec(ctx, `
        insert into clients (id, number, name, phone, email, street, lot, block, state)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, c.ID, c.Number, c.Name, c.Phone, c.Email, c.Street, c.Lot, c.Block, c.State)
	if err != nil {
		return billing.Client{}, err
	}
	return c, nil
}

// UpdateClient updates mutable fields (contact info, address, state).
func (s *Store) UpdateClient(ctx context.Context, c billing.Client) (billing.Client, error) {
	ct, err := s.pool.Exec(ctx, `
        update clients
        set name=$1, phone=$2, email=$3, street=$4, lot=$5, block=$6, state=$7
        where id=$8
    `, c.Name, c.Phone, c.Email, c.Street, c.Lot, c.Block, c.State, c.ID)
	if err != nil {
		return billing.Client{}, err
	}
	if ct.RowsAffected() == 0 {
		return billing.Client{}, errs.ErrNotFound
	}
	return c, nil
}

// GetClient fetches a single client by id.
func (s *Store) GetClient(ctx context.Context, clientID uuid.UUID) (billing.Client, error) {
	return scanClient(s.pool.QueryRow(ctx, `select `+clientCols+` from clients where id = $1`, clientID))
}

// ListClients returns all clients ordered by client number.
func (s *Store) ListClients(ctx context.Context) ([]billing.Client, error) {
	rows, err := s.pool.Query(ctx, `select `+clientCols+` from clients order by number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]billing.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Plans ---

// Rates are numeric columns; they travel as text so shopspring decimals keep
// exact values.
const planCols = `id, client_id, name, mode, currency, monthly_rate::text, unit_price::text, last_reading, last_paid_at, next_due_at`

func scanPlan(row pgx.Row) (billing.ServicePlan, error) {
	var p billing.ServicePlan
	var rate, price string
	err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Mode, &p.Currency, &rate, &price, &p.LastReading, &p.LastPaidAt, &p.NextDueAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.ServicePlan{}, errs.ErrNotFound
	}
	if err != nil {
		return billing.ServicePlan{}, err
	}
	if p.MonthlyRate, err = decimal.NewFromString(rate); err != nil {
		return billing.ServicePlan{}, fmt.Errorf("monthly_rate: %w", err)
	}
	if p.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return billing.ServicePlan{}, fmt.Errorf("unit_price: %w", err)
	}
	return p, nil
}

// CreatePlan inserts a plan row. The unique index on client_id enforces one
// plan per client at the storage layer.
func (s *Store) CreatePlan(ctx context.Context, p billing.ServicePlan) (billing.ServicePlan, error) {
	ct, err := s.pool.Exec(ctx, `
        insert into service_plans (id, client_id, name, mode, currency, monthly_rate, unit_price, last_reading, last_paid_at, next_due_at)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        on conflict (client_id) do nothing
    `, p.ID, p.ClientID, p.Name, p.Mode, p.Currency, p.MonthlyRate.String(), p.UnitPrice.String(), p.LastReading, p.LastPaidAt, p.NextDueAt)
	if err != nil {
		return billing.ServicePlan{}, err
	}
	if ct.RowsAffected() == 0 {
		return billing.ServicePlan{}, errs.ErrConflict
	}
	return p, nil
}

// UpdatePlan updates mutable plan fields.
func (s *Store) UpdatePlan(ctx context.Context, p billing.ServicePlan) (billing.ServicePlan, error) {
	ct, err := s.pool.Exec(ctx, `
        update service_plans
        set name=$1, monthly_rate=$2, unit_price=$3, last_reading=$4, last_paid_at=$5, next_due_at=$6
        where id=$7
    `, p.Name, p.MonthlyRate.String(), p.UnitPrice.String(), p.LastReading, p.LastPaidAt, p.NextDueAt, p.ID)
	if err != nil {
		return billing.ServicePlan{}, err
	}
	if ct.RowsAffected() == 0 {
		return billing.ServicePlan{}, errs.ErrNotFound
	}
	return p, nil
}

// PlanByClient returns the client's service plan.
func (s *Store) PlanByClient(ctx context.Context, clientID uuid.UUID) (billing.ServicePlan, error) {
	return scanPlan(s.pool.QueryRow(ctx, `select `+planCols+` from service_plans where client_id = $1`, clientID))
}

// ListPlans returns plans, optionally filtered by billing mode.
func (s *Store) ListPlans(ctx context.Context, mode *billing.BillingMode) ([]billing.ServicePlan, error) {
	q := `select ` + planCols + ` from service_plans order by id`
	args := []any{}
	if mode != nil {
		q = `select ` + planCols + ` from service_plans where mode = $1 order by id`
		args = append(args, *mode)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]billing.ServicePlan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Ledger entries ---

const entryCols = `id, client_id, date, kind, amount_minor, currency, reading_id, method, memo`

func scanEntry(row pgx.Row) (billing.LedgerEntry, error) {
	var e billing.LedgerEntry
	var minor int64
	var currency string
	err := row.Scan(&e.ID, &e.ClientID, &e.Date, &e.Kind, &minor, &currency, &e.ReadingID, &e.Method, &e.Memo)
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.LedgerEntry{}, errs.ErrNotFound
	}
	if err != nil {
		return billing.LedgerEntry{}, err
	}
	if e.Amount, err = money.NewAmountFromMinorUnits(currency, minor); err != nil {
		return billing.LedgerEntry{}, err
	}
	return e, nil
}

// CreateLedgerEntry appends a single entry. Entries are immutable; no update
// or delete statements exist for this table.
func (s *Store) CreateLedgerEntry(ctx context.Context, e billing.LedgerEntry) (billing.LedgerEntry, error) {
	if err := insertEntry(ctx, s.pool, e); err != nil {
		return billing.LedgerEntry{}, err
	}
	return e, nil
}

// EntriesByClient returns all entries for a client ordered asc by (date, id).
func (s *Store) EntriesByClient(ctx context.Context, clientID uuid.UUID) ([]billing.LedgerEntry, error) {
	rows, err := s.pool.Query(ctx, `
        select `+entryCols+` from ledger_entries
        where client_id = $1
        order by date asc, id asc
    `, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]billing.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Combined mutations ---

// ApplyPayment appends the payment entry and persists the plan's advanced due
// date in one transaction.
func (s *Store) ApplyPayment(ctx context.Context, e billing.LedgerEntry, p billing.ServicePlan) (billing.LedgerEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return billing.LedgerEntry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := insertEntry(ctx, tx, e); err != nil {
		return billing.LedgerEntry{}, err
	}
	if err := updatePlan(ctx, tx, p); err != nil {
		return billing.LedgerEntry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return billing.LedgerEntry{}, err
	}
	return e, nil
}

// ApplyReading records the reading, advances the plan's last reading and
// appends the derived charge entry (nil for zero consumption) in one
// transaction.
func (s *Store) ApplyReading(ctx context.Context, r billing.MeterReading, e *billing.LedgerEntry, p billing.ServicePlan) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `
        insert into meter_readings (id, plan_id, previous, current, date)
        values ($1,$2,$3,$4,$5)
    `, r.ID, r.PlanID, r.Previous, r.Current, r.Date); err != nil {
		return err
	}
	if e != nil {
		if err := insertEntry(ctx, tx, *e); err != nil {
			return err
		}
	}
	if err := updatePlan(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ApplyCycleCharge appends a cycle charge guarded by the (client, cycle key)
// uniqueness of cycle_charges. When the marker already exists the transaction
// writes nothing and the method reports false.
func (s *Store) ApplyCycleCharge(ctx context.Context, e billing.LedgerEntry, key string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	ct, err := tx.Exec(ctx, `
        insert into cycle_charges (client_id, cycle_key, entry_id)
        values ($1,$2,$3)
        on conflict (client_id, cycle_key) do nothing
    `, e.ClientID, key, e.ID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}
	if err := insertEntry(ctx, tx, e); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// HasCycleCharge reports whether the client already has a charge for the cycle key.
func (s *Store) HasCycleCharge(ctx context.Context, clientID uuid.UUID, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
        select exists(select 1 from cycle_charges where client_id=$1 and cycle_key=$2)
    `, clientID, key).Scan(&exists)
	return exists, err
}

// --- Readings ---

// ReadingsByPlan returns readings for a plan ordered asc by (date, id).
func (s *Store) ReadingsByPlan(ctx context.Context, planID uuid.UUID) ([]billing.MeterReading, error) {
	rows, err := s.pool.Query(ctx, `
        select id, plan_id, previous, current, date
        from meter_readings
        where plan_id = $1
        order by date asc, id asc
    `, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]billing.MeterReading, 0)
	for rows.Next() {
		var r billing.MeterReading
		if err := rows.Scan(&r.ID, &r.PlanID, &r.Previous, &r.Current, &r.Date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// insertEntry inserts one ledger entry within the provided executor.
func insertEntry(ctx context.Context, ex execer, e billing.LedgerEntry) error {
	minor, _ := e.Amount.MinorUnits()
	_, err := ex.Exec(ctx, `
        insert into ledger_entries (id, client_id, date, kind, amount_minor, currency, reading_id, method, memo)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, e.ID, e.ClientID, e.Date, e.Kind, minor, e.Amount.Curr().Code(), e.ReadingID, e.Method, e.Memo)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// updatePlan persists plan mutations within the provided executor.
func updatePlan(ctx context.Context, ex execer, p billing.ServicePlan) error {
	ct, err := ex.Exec(ctx, `
        update service_plans
        set name=$1, monthly_rate=$2, unit_price=$3, last_reading=$4, last_paid_at=$5, next_due_at=$6
        where id=$7
    `, p.Name, p.MonthlyRate.String(), p.UnitPrice.String(), p.LastReading, p.LastPaidAt, p.NextDueAt, p.ID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
