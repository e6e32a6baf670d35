// Package repository declares the persistence contracts shared by the storage backends.
//
// Every backend returns apperr kinds: apperr.ErrNotFound for missing entities and
// apperr.ErrConflict when a per-unit update could not be serialized.
package repository

import (
	"context"

	"github.com/mamadbah2/rental/internal/domain/models"
)

// UnitMutation edits a unit inside the serialized section of Units.Update.
// Returning an error aborts the update without writing anything.
type UnitMutation func(unit *models.Unit) error

// Users stores owner, tenant and staff profiles.
//
// Create fails with Conflict when the id is taken. Update and Upsert serialize
// concurrent writes of the same user like Units.Update; Upsert applies mutate to an
// empty profile when none exists yet.
type Users interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error)
	Upsert(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error)
	ListByProperty(ctx context.Context, propertyID string, role models.Role) ([]models.User, error)
	ListByOwner(ctx context.Context, ownerID string, role models.Role) ([]models.User, error)
}

// Properties stores properties. Create writes the property and its units together.
type Properties interface {
	Create(ctx context.Context, property *models.Property, units []models.Unit) error
	GetByID(ctx context.Context, id string) (*models.Property, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error)
	ListAll(ctx context.Context) ([]models.Property, error)
}

// Units is the unit registry.
//
// Update is the only way to change a unit after creation. It serializes concurrent
// updates of the same unit: mutate sees the latest committed state and its result is
// written as a whole, or not at all.
type Units interface {
	Create(ctx context.Context, unit *models.Unit) error
	GetByID(ctx context.Context, id string) (*models.Unit, error)
	ListByProperty(ctx context.Context, propertyID string, status models.UnitStatus) ([]models.Unit, error)
	ListByProperties(ctx context.Context, propertyIDs []string) ([]models.Unit, error)
	Update(ctx context.Context, id string, mutate UnitMutation) (*models.Unit, error)
}

// Rent is the rent ledger.
//
// CreateIfAbsent inserts the record unless one already exists for the same unit and
// period; created reports whether this call inserted it.
//
// ApplyPayment credits amount at most once per gateway order; applied is false when
// orderID was already credited.
type Rent interface {
	CreateIfAbsent(ctx context.Context, record *models.RentRecord) (created bool, err error)
	GetByID(ctx context.Context, id string) (*models.RentRecord, error)
	ListByTenant(ctx context.Context, tenantID string) ([]models.RentRecord, error)
	ListByProperties(ctx context.Context, propertyIDs []string) ([]models.RentRecord, error)
	ApplyPayment(ctx context.Context, id, orderID string, amount float64) (record *models.RentRecord, applied bool, err error)
}

// Tickets stores maintenance tickets. Update serializes concurrent writes of a ticket.
type Tickets interface {
	Create(ctx context.Context, ticket *models.MaintenanceTicket) error
	GetByID(ctx context.Context, id string) (*models.MaintenanceTicket, error)
	Update(ctx context.Context, id string, mutate func(*models.MaintenanceTicket) error) (*models.MaintenanceTicket, error)
	ListByTenant(ctx context.Context, tenantID string) ([]models.MaintenanceTicket, error)
	ListByProperties(ctx context.Context, propertyIDs []string) ([]models.MaintenanceTicket, error)
}

// Agreements stores rental agreements.
type Agreements interface {
	Create(ctx context.Context, agreement *models.Agreement) error
	ListByUnit(ctx context.Context, unitID string) ([]models.Agreement, error)
	ListByTenant(ctx context.Context, tenantID string) ([]models.Agreement, error)
}

// Payments stores gateway orders.
//
// MarkPaid flips an order to paid once; changed is false when it was already paid.
type Payments interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	MarkPaid(ctx context.Context, orderID, paymentID string) (payment *models.Payment, changed bool, err error)
}

// Expenses stores owner expenses.
type Expenses interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, id string) (*models.Expense, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error)
}

// Handovers stores move-in and move-out inspections.
type Handovers interface {
	Create(ctx context.Context, handover *models.Handover) error
	ListByUnit(ctx context.Context, unitID string) ([]models.Handover, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Users      Users
	Properties Properties
	Units      Units
	Rent       Rent
	Tickets    Tickets
	Agreements Agreements
	Payments   Payments
	Expenses   Expenses
	Handovers  Handovers

	closer func(ctx context.Context) error
}

// WithCloser attaches the function releasing the backend's connections.
func (s *Store) WithCloser(closer func(ctx context.Context) error) *Store {
	s.closer = closer
	return s
}

// Close releases the backend's connections.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}
