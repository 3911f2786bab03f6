// Package memory provides a simple in-memory implementation used for development and tests.
// It keeps code paths easy to follow while allowing us to plug in a real DB later.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
)

// entryKey tracks ordering for entries per client: sorted asc by (Date, ID)
type entryKey struct {
	Date time.Time
	ID   uuid.UUID
}

// Store is an in-memory implementation of the repository+writer used by the API.
// It is guarded by an RWMutex for concurrent reads/writes. Multi-record
// operations (ApplyPayment, ApplyReading, ApplyCycleCharge) run under one
// write lock so a failure leaves nothing half-applied.
type Store struct {
	mu           sync.RWMutex
	clients      map[uuid.UUID]billing.Client
	plans        map[uuid.UUID]billing.ServicePlan
	planByClient map[uuid.UUID]uuid.UUID
	entries      map[uuid.UUID]*billing.LedgerEntry
	readings     map[uuid.UUID]billing.MeterReading
	// Per-client sorted index of entries for ordered statements
	entryKeysByClient map[uuid.UUID][]entryKey
	// Billing cycle idempotency: clientID -> cycle key -> entryID
	cycleKeys map[uuid.UUID]map[string]uuid.UUID
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		clients:           make(map[uuid.UUID]billing.Client),
		plans:             make(map[uuid.UUID]billing.ServicePlan),
		planByClient:      make(map[uuid.UUID]uuid.UUID),
		entries:           make(map[uuid.UUID]*billing.LedgerEntry),
		readings:          make(map[uuid.UUID]billing.MeterReading),
		entryKeysByClient: make(map[uuid.UUID][]entryKey),
		cycleKeys:         make(map[uuid.UUID]map[string]uuid.UUID),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedClient(c billing.Client) { s.mu.Lock(); s.clients[c.ID] = c; s.mu.Unlock() }
func (s *Store) SeedPlan(p billing.ServicePlan) {
	s.mu.Lock()
	s.plans[p.ID] = p
	s.planByClient[p.ClientID] = p.ID
	s.mu.Unlock()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.clients = map[uuid.UUID]billing.Client{}
	s.plans = map[uuid.UUID]billing.ServicePlan{}
	s.planByClient = map[uuid.UUID]uuid.UUID{}
	s.entries = map[uuid.UUID]*billing.LedgerEntry{}
	s.readings = map[uuid.UUID]billing.MeterReading{}
	s.entryKeysByClient = map[uuid.UUID][]entryKey{}
	s.cycleKeys = map[uuid.UUID]map[string]uuid.UUID{}
	s.mu.Unlock()
}

// --- Clients ---

// CreateClient persists a new client.
func (s *Store) CreateClient(_ context.Context, c billing.Client) (billing.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
	return c, nil
}

// UpdateClient persists changes to a client.
func (s *Store) UpdateClient(_ context.Context, c billing.Client) (billing.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; !ok {
		return billing.Client{}, errs.ErrNotFound
	}
	s.clients[c.ID] = c
	return c, nil
}

// GetClient returns a client by ID.
func (s *Store) GetClient(_ context.Context, clientID uuid.UUID) (billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return billing.Client{}, errs.ErrNotFound
	}
	return c, nil
}

// ListClients returns all clients ordered by client number.
func (s *Store) ListClients(_ context.Context) ([]billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// --- Plans ---

// CreatePlan persists a new service plan. One plan per client.
func (s *Store) CreatePlan(_ context.Context, p billing.ServicePlan) (billing.ServicePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.planByClient[p.ClientID]; ok {
		return billing.ServicePlan{}, errs.ErrConflict
	}
	s.plans[p.ID] = p
	s.planByClient[p.ClientID] = p.ID
	return p, nil
}

// UpdatePlan persists changes to a plan.
func (s *Store) UpdatePlan(_ context.Context, p billing.ServicePlan) (billing.ServicePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return billing.ServicePlan{}, errs.ErrNotFound
	}
	s.plans[p.ID] = p
	return p, nil
}

// PlanByClient returns the client's service plan.
func (s *Store) PlanByClient(_ context.Context, clientID uuid.UUID) (billing.ServicePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.planByClientLocked(clientID)
}

func (s *Store) planByClientLocked(clientID uuid.UUID) (billing.ServicePlan, error) {
	id, ok := s.planByClient[clientID]
	if !ok {
		return billing.ServicePlan{}, errs.ErrNotFound
	}
	p, ok := s.plans[id]
	if !ok {
		return billing.ServicePlan{}, errs.ErrNotFound
	}
	return p, nil
}

// ListPlans returns plans, optionally filtered by billing mode.
func (s *Store) ListPlans(_ context.Context, mode *billing.BillingMode) ([]billing.ServicePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.ServicePlan, 0, len(s.plans))
	for _, p := range s.plans {
		if mode != nil && p.Mode != *mode {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// --- Ledger entries ---

// CreateLedgerEntry appends an entry. Entries are immutable; no update path exists.
func (s *Store) CreateLedgerEntry(_ context.Context, e billing.LedgerEntry) (billing.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertEntryLocked(e)
	return e, nil
}

// EntriesByClient returns all entries for a client ordered asc by (Date, ID).
func (s *Store) EntriesByClient(_ context.Context, clientID uuid.UUID) ([]billing.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.entryKeysByClient[clientID]
	out := make([]billing.LedgerEntry, 0, len(keys))
	for _, k := range keys {
		if e, ok := s.entries[k.ID]; ok && e.ClientID == clientID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// --- Combined mutations ---

// ApplyPayment appends the payment entry and persists the plan's advanced
// due date as one operation.
func (s *Store) ApplyPayment(_ context.Context, e billing.LedgerEntry, p billing.ServicePlan) (billing.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return billing.LedgerEntry{}, errs.ErrNotFound
	}
	s.insertEntryLocked(e)
	s.plans[p.ID] = p
	return e, nil
}

// ApplyReading records the meter reading, advances the plan's last reading and
// appends the derived charge entry (nil for zero consumption) as one operation.
func (s *Store) ApplyReading(_ context.Context, r billing.MeterReading, e *billing.LedgerEntry, p billing.ServicePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return errs.ErrNotFound
	}
	s.readings[r.ID] = r
	if e != nil {
		s.insertEntryLocked(*e)
	}
	s.plans[p.ID] = p
	return nil
}

// ApplyCycleCharge appends a cycle charge guarded by the cycle key. It returns
// false without writing anything when the client was already charged for the key.
func (s *Store) ApplyCycleCharge(_ context.Context, e billing.LedgerEntry, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.cycleKeys[e.ClientID]
	if !ok {
		m = make(map[string]uuid.UUID)
		s.cycleKeys[e.ClientID] = m
	}
	if _, exists := m[key]; exists {
		return false, nil
	}
	m[key] = e.ID
	s.insertEntryLocked(e)
	return true, nil
}

// HasCycleCharge reports whether the client already has a charge for the cycle key.
func (s *Store) HasCycleCharge(_ context.Context, clientID uuid.UUID, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.cycleKeys[clientID]; ok {
		if _, exists := m[key]; exists {
			return true, nil
		}
	}
	return false, nil
}

// --- Readings ---

// ReadingsByPlan returns readings for a plan ordered asc by (Date, ID).
func (s *Store) ReadingsByPlan(_ context.Context, planID uuid.UUID) ([]billing.MeterReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.MeterReading, 0)
	for _, r := range s.readings {
		if r.PlanID == planID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// insertEntryLocked stores the entry and keeps the per-client index sorted
// asc by (Date, ID). Caller must hold s.mu (write lock).
func (s *Store) insertEntryLocked(e billing.LedgerEntry) {
	cp := e
	s.entries[e.ID] = &cp
	k := entryKey{Date: e.Date, ID: e.ID}
	keys := s.entryKeysByClient[e.ClientID]
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].Date.After(k.Date) {
			return true
		}
		if keys[i].Date.Equal(k.Date) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.entryKeysByClient[e.ClientID] = append(keys, k)
		return
	}
	keys = append(keys, entryKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.entryKeysByClient[e.ClientID] = keys
}
