// Package memory is an in-process repository backend used for local runs and service tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
)

type db struct {
	mu         sync.RWMutex
	users      map[string]models.User
	properties map[string]models.Property
	units      map[string]models.Unit
	rent       map[string]models.RentRecord
	rentKeys   map[string]string
	tickets    map[string]models.MaintenanceTicket
	agreements map[string]models.Agreement
	payments   map[string]models.Payment
	expenses   map[string]models.Expense
	handovers  map[string]models.Handover
}

// NewStore returns an empty store. Every repository in it shares one lock.
func NewStore() *repository.Store {
	d := &db{
		users:      map[string]models.User{},
		properties: map[string]models.Property{},
		units:      map[string]models.Unit{},
		rent:       map[string]models.RentRecord{},
		rentKeys:   map[string]string{},
		tickets:    map[string]models.MaintenanceTicket{},
		agreements: map[string]models.Agreement{},
		payments:   map[string]models.Payment{},
		expenses:   map[string]models.Expense{},
		handovers:  map[string]models.Handover{},
	}
	return &repository.Store{
		Users:      &Users{d},
		Properties: &Properties{d},
		Units:      &Units{d},
		Rent:       &Rent{d},
		Tickets:    &Tickets{d},
		Agreements: &Agreements{d},
		Payments:   &Payments{d},
		Expenses:   &Expenses{d},
		Handovers:  &Handovers{d},
	}
}

func contains(ids []string, id string) bool { return slices.Contains(ids, id) }

// Users implements repository.Users.
type Users struct{ db *db }

func (r *Users) Create(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[user.ID]; ok {
		return apperr.Conflict("user %s already exists", user.ID)
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.db.users[user.ID] = *user
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperr.NotFound("user %s not found", id)
	}
	return &u, nil
}

func (r *Users) Update(_ context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperr.NotFound("user %s not found", id)
	}
	if err := mutate(&u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()
	r.db.users[id] = u
	return &u, nil
}

func (r *Users) Upsert(_ context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now().UTC()
	u, ok := r.db.users[id]
	if !ok {
		u = models.User{ID: id, CreatedAt: now}
	}
	if err := mutate(&u); err != nil {
		return nil, err
	}
	u.ID = id
	u.UpdatedAt = now
	r.db.users[id] = u
	return &u, nil
}

func (r *Users) ListByProperty(_ context.Context, propertyID string, role models.Role) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.User
	for _, u := range r.db.users {
		if u.PropertyID == propertyID && (role == "" || u.Role == role) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *Users) ListByOwner(_ context.Context, ownerID string, role models.Role) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.User
	for _, u := range r.db.users {
		if u.OwnerID == ownerID && (role == "" || u.Role == role) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// Properties implements repository.Properties.
type Properties struct{ db *db }

func (r *Properties) Create(_ context.Context, property *models.Property, units []models.Unit) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.properties[property.ID]; ok {
		return apperr.Conflict("property %s already exists", property.ID)
	}
	for _, u := range units {
		if _, ok := r.db.units[u.ID]; ok {
			return apperr.Conflict("unit %s already exists", u.ID)
		}
	}
	p := *property
	p.Units = nil
	r.db.properties[p.ID] = p
	for _, u := range units {
		r.db.units[u.ID] = u
	}
	return nil
}

func (r *Properties) GetByID(_ context.Context, id string) (*models.Property, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.properties[id]
	if !ok {
		return nil, apperr.NotFound("property %s not found", id)
	}
	return &p, nil
}

func (r *Properties) ListByOwner(_ context.Context, ownerID string) ([]models.Property, error) {
	return r.list(func(p models.Property) bool { return p.OwnerID == ownerID }), nil
}

func (r *Properties) ListAll(_ context.Context) ([]models.Property, error) {
	return r.list(func(models.Property) bool { return true }), nil
}

func (r *Properties) list(keep func(models.Property) bool) []models.Property {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.Property
	for _, p := range r.db.properties {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.Property) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

// Units implements repository.Units. The store lock serializes Update.
type Units struct{ db *db }

func (r *Units) Create(_ context.Context, unit *models.Unit) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.units[unit.ID]; ok {
		return apperr.Conflict("unit %s already exists", unit.ID)
	}
	r.db.units[unit.ID] = *unit
	return nil
}

func (r *Units) GetByID(_ context.Context, id string) (*models.Unit, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.units[id]
	if !ok {
		return nil, apperr.NotFound("unit %s not found", id)
	}
	return &u, nil
}

func (r *Units) ListByProperty(_ context.Context, propertyID string, status models.UnitStatus) ([]models.Unit, error) {
	return r.list(func(u models.Unit) bool {
		return u.PropertyID == propertyID && (status == "" || u.Status == status)
	}), nil
}

func (r *Units) ListByProperties(_ context.Context, propertyIDs []string) ([]models.Unit, error) {
	return r.list(func(u models.Unit) bool { return contains(propertyIDs, u.PropertyID) }), nil
}

func (r *Units) list(keep func(models.Unit) bool) []models.Unit {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.Unit
	for _, u := range r.db.units {
		if keep(u) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.Unit) int {
		return cmp.Or(
			cmp.Compare(a.PropertyID, b.PropertyID),
			cmp.Compare(a.FloorNumber, b.FloorNumber),
			cmp.Compare(a.UnitNumber, b.UnitNumber),
		)
	})
	return out
}

func (r *Units) Update(_ context.Context, id string, mutate repository.UnitMutation) (*models.Unit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.units[id]
	if !ok {
		return nil, apperr.NotFound("unit %s not found", id)
	}
	if err := mutate(&u); err != nil {
		return nil, err
	}
	u.ID = id
	u.Version++
	u.UpdatedAt = time.Now().UTC()
	r.db.units[id] = u
	return &u, nil
}

// Rent implements repository.Rent with a (unit, period) key index.
type Rent struct{ db *db }

func rentKey(unitID, period string) string { return unitID + "|" + period }

func (r *Rent) CreateIfAbsent(_ context.Context, record *models.RentRecord) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := rentKey(record.UnitID, record.Period)
	if _, ok := r.db.rentKeys[key]; ok {
		return false, nil
	}
	r.db.rentKeys[key] = record.ID
	r.db.rent[record.ID] = *record
	return true, nil
}

func (r *Rent) GetByID(_ context.Context, id string) (*models.RentRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	rec, ok := r.db.rent[id]
	if !ok {
		return nil, apperr.NotFound("rent record %s not found", id)
	}
	return &rec, nil
}

func (r *Rent) ListByTenant(_ context.Context, tenantID string) ([]models.RentRecord, error) {
	return r.list(func(rec models.RentRecord) bool { return rec.TenantID == tenantID }), nil
}

func (r *Rent) ListByProperties(_ context.Context, propertyIDs []string) ([]models.RentRecord, error) {
	return r.list(func(rec models.RentRecord) bool { return contains(propertyIDs, rec.PropertyID) }), nil
}

func (r *Rent) list(keep func(models.RentRecord) bool) []models.RentRecord {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.RentRecord
	for _, rec := range r.db.rent {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b models.RentRecord) int {
		return cmp.Or(b.DueDate.Compare(a.DueDate), cmp.Compare(a.UnitNumber, b.UnitNumber))
	})
	return out
}

func (r *Rent) ApplyPayment(_ context.Context, id, orderID string, amount float64) (*models.RentRecord, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.rent[id]
	if !ok {
		return nil, false, apperr.NotFound("rent record %s not found", id)
	}
	if slices.Contains(rec.AppliedOrders, orderID) {
		return &rec, false, nil
	}
	rec.AmountPaid += amount
	rec.Status = models.StatusFor(rec.AmountPaid, rec.BaseRent)
	rec.AppliedOrders = append(slices.Clone(rec.AppliedOrders), orderID)
	r.db.rent[id] = rec
	return &rec, true, nil
}

// Tickets implements repository.Tickets.
type Tickets struct{ db *db }

func (r *Tickets) Create(_ context.Context, ticket *models.MaintenanceTicket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tickets[ticket.ID] = *ticket
	return nil
}

func (r *Tickets) GetByID(_ context.Context, id string) (*models.MaintenanceTicket, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	t, ok := r.db.tickets[id]
	if !ok {
		return nil, apperr.NotFound("ticket %s not found", id)
	}
	return &t, nil
}

func (r *Tickets) Update(_ context.Context, id string, mutate func(*models.MaintenanceTicket) error) (*models.MaintenanceTicket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tickets[id]
	if !ok {
		return nil, apperr.NotFound("ticket %s not found", id)
	}
	if err := mutate(&t); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now().UTC()
	r.db.tickets[id] = t
	return &t, nil
}

func (r *Tickets) ListByTenant(_ context.Context, tenantID string) ([]models.MaintenanceTicket, error) {
	return r.list(func(t models.MaintenanceTicket) bool { return t.TenantID == tenantID }), nil
}

func (r *Tickets) ListByProperties(_ context.Context, propertyIDs []string) ([]models.MaintenanceTicket, error) {
	return r.list(func(t models.MaintenanceTicket) bool { return contains(propertyIDs, t.PropertyID) }), nil
}

func (r *Tickets) list(keep func(models.MaintenanceTicket) bool) []models.MaintenanceTicket {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.MaintenanceTicket
	for _, t := range r.db.tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b models.MaintenanceTicket) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// Agreements implements repository.Agreements.
type Agreements struct{ db *db }

func (r *Agreements) Create(_ context.Context, agreement *models.Agreement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.agreements[agreement.ID] = *agreement
	return nil
}

func (r *Agreements) ListByUnit(_ context.Context, unitID string) ([]models.Agreement, error) {
	return r.list(func(a models.Agreement) bool { return a.UnitID == unitID }), nil
}

func (r *Agreements) ListByTenant(_ context.Context, tenantID string) ([]models.Agreement, error) {
	return r.list(func(a models.Agreement) bool { return a.TenantID == tenantID }), nil
}

func (r *Agreements) list(keep func(models.Agreement) bool) []models.Agreement {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.Agreement
	for _, a := range r.db.agreements {
		if keep(a) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b models.Agreement) int { return b.StartDate.Compare(a.StartDate) })
	return out
}

// Payments implements repository.Payments.
type Payments struct{ db *db }

func (r *Payments) Create(_ context.Context, payment *models.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.payments {
		if p.OrderID == payment.OrderID {
			return apperr.Conflict("order %s already recorded", payment.OrderID)
		}
	}
	r.db.payments[payment.ID] = *payment
	return nil
}

func (r *Payments) GetByOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.payments {
		if p.OrderID == orderID {
			return &p, nil
		}
	}
	return nil, apperr.NotFound("order %s not found", orderID)
}

func (r *Payments) MarkPaid(_ context.Context, orderID, paymentID string) (*models.Payment, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, p := range r.db.payments {
		if p.OrderID != orderID {
			continue
		}
		if p.Status == models.PaymentPaid {
			return &p, false, nil
		}
		p.Status = models.PaymentPaid
		p.PaymentID = paymentID
		p.UpdatedAt = time.Now().UTC()
		r.db.payments[id] = p
		return &p, true, nil
	}
	return nil, false, apperr.NotFound("order %s not found", orderID)
}

// Expenses implements repository.Expenses.
type Expenses struct{ db *db }

func (r *Expenses) Create(_ context.Context, expense *models.Expense) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.expenses[expense.ID] = *expense
	return nil
}

func (r *Expenses) GetByID(_ context.Context, id string) (*models.Expense, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	e, ok := r.db.expenses[id]
	if !ok {
		return nil, apperr.NotFound("expense %s not found", id)
	}
	return &e, nil
}

func (r *Expenses) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.expenses[id]; !ok {
		return apperr.NotFound("expense %s not found", id)
	}
	delete(r.db.expenses, id)
	return nil
}

func (r *Expenses) List(_ context.Context, f models.ExpenseFilter) ([]models.Expense, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.Expense
	for _, e := range r.db.expenses {
		switch {
		case f.OwnerID != "" && e.OwnerID != f.OwnerID,
			f.PropertyID != "" && e.PropertyID != f.PropertyID,
			f.Category != "" && e.Category != f.Category,
			f.From != nil && e.Date.Before(*f.From),
			f.To != nil && e.Date.After(*f.To):
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.Expense) int { return b.Date.Compare(a.Date) })
	return out, nil
}

// Handovers implements repository.Handovers.
type Handovers struct{ db *db }

func (r *Handovers) Create(_ context.Context, handover *models.Handover) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.handovers[handover.ID] = *handover
	return nil
}

func (r *Handovers) ListByUnit(_ context.Context, unitID string) ([]models.Handover, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.Handover
	for _, h := range r.db.handovers {
		if h.UnitID == unitID {
			out = append(out, h)
		}
	}
	slices.SortFunc(out, func(a, b models.Handover) int { return b.Date.Compare(a.Date) })
	return out, nil
}
