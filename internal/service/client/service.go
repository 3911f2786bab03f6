// Package client implements the client registry rules: required registration
// fields, unique client numbers, immutable identity, and suspend/reactivate
// state flips. Clients are never deleted.
package client

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hidrobill/hidrobill/internal/billing"
	"github.com/hidrobill/hidrobill/internal/errs"
)

type Repo interface {
	GetClient(ctx context.Context, clientID uuid.UUID) (billing.Client, error)
	ListClients(ctx context.Context) ([]billing.Client, error)
}

type Writer interface {
	CreateClient(ctx context.Context, c billing.Client) (billing.Client, error)
	UpdateClient(ctx context.Context, c billing.Client) (billing.Client, error)
}

type Service interface {
	ValidateRegister(c billing.Client) error
	Register(ctx context.Context, c billing.Client) (billing.Client, error)
	Update(ctx context.Context, c billing.Client) (billing.Client, error)
	Suspend(ctx context.Context, clientID uuid.UUID) (billing.Client, error)
	Reactivate(ctx context.Context, clientID uuid.UUID) (billing.Client, error)
	Get(ctx context.Context, clientID uuid.UUID) (billing.Client, error)
	List(ctx context.Context) ([]billing.Client, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// ErrNumberExists indicates a client with the same number is already registered.
var ErrNumberExists = errors.New("client number already registered")

func (s *service) ValidateRegister(c billing.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(c.Number) == "" {
		return errors.New("client number is required")
	}
	if strings.TrimSpace(c.Street) == "" {
		return errors.New("street is required")
	}
	return nil
}

func (s *service) Register(ctx context.Context, c billing.Client) (billing.Client, error) {
	c.Number = strings.TrimSpace(c.Number)
	c.Name = strings.TrimSpace(c.Name)
	c.Street = strings.TrimSpace(c.Street)
	if err := s.ValidateRegister(c); err != nil {
		return billing.Client{}, err
	}
	// Ensure uniqueness over the client number
	existing, err := s.repo.ListClients(ctx)
	if err != nil {
		return billing.Client{}, err
	}
	for _, other := range existing {
		if strings.EqualFold(other.Number, c.Number) {
			return billing.Client{}, ErrNumberExists
		}
	}
	nc := billing.Client{
		ID:     uuid.New(),
		Number: c.Number,
		Name:   c.Name,
		Phone:  c.Phone,
		Email:  c.Email,
		Street: c.Street,
		Lot:    c.Lot,
		Block:  c.Block,
		State:  billing.ServiceStateActive,
	}
	return s.writer.CreateClient(ctx, nc)
}

// Update applies allowed changes to name, contact info and address.
// Number and State are immutable here; state changes go through
// Suspend/Reactivate.
func (s *service) Update(ctx context.Context, c billing.Client) (billing.Client, error) {
	if c.ID == uuid.Nil {
		return billing.Client{}, errs.ErrInvalid
	}
	current, err := s.repo.GetClient(ctx, c.ID)
	if err != nil {
		return billing.Client{}, err
	}
	if c.Number != "" && c.Number != current.Number {
		return billing.Client{}, errs.ErrImmutable
	}
	if c.State != "" && c.State != current.State {
		return billing.Client{}, errs.ErrImmutable
	}
	if strings.TrimSpace(c.Name) == "" {
		return billing.Client{}, errors.New("name is required")
	}
	current.Name = strings.TrimSpace(c.Name)
	current.Phone = c.Phone
	current.Email = c.Email
	if strings.TrimSpace(c.Street) != "" {
		current.Street = strings.TrimSpace(c.Street)
	}
	current.Lot = c.Lot
	current.Block = c.Block
	return s.writer.UpdateClient(ctx, current)
}

// Suspend cuts service for the client. Balance history is untouched; the
// status resolver reports suspended regardless of balance from here on.
func (s *service) Suspend(ctx context.Context, clientID uuid.UUID) (billing.Client, error) {
	return s.setState(ctx, clientID, billing.ServiceStateSuspended)
}

// Reactivate restores service for the client.
func (s *service) Reactivate(ctx context.Context, clientID uuid.UUID) (billing.Client, error) {
	return s.setState(ctx, clientID, billing.ServiceStateActive)
}

func (s *service) setState(ctx context.Context, clientID uuid.UUID, state billing.ServiceState) (billing.Client, error) {
	if clientID == uuid.Nil {
		return billing.Client{}, errs.ErrInvalid
	}
	c, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return billing.Client{}, err
	}
	if c.State == state {
		return c, nil
	}
	c.State = state
	return s.writer.UpdateClient(ctx, c)
}

func (s *service) Get(ctx context.Context, clientID uuid.UUID) (billing.Client, error) {
	if clientID == uuid.Nil {
		return billing.Client{}, errs.ErrInvalid
	}
	return s.repo.GetClient(ctx, clientID)
}

func (s *service) List(ctx context.Context) ([]billing.Client, error) {
	return s.repo.ListClients(ctx)
}
