// Package maintenance tracks repair tickets raised by tenants.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/service/access"
	"github.com/mamadbah2/rental/internal/service/notify"
)

// TicketInput is a tenant's new request.
type TicketInput struct {
	UnitID      string
	Title       string
	Description string
	Priority    models.TicketPriority
	PhotoURL    string
}

// StatusInput moves a ticket along its lifecycle.
type StatusInput struct {
	TicketID string
	Status   models.TicketStatus
	Notes    string
	Cost     *float64
}

// Service implements the maintenance use cases.
type Service struct {
	guard      *access.Guard
	units      repository.Units
	properties repository.Properties
	tickets    repository.Tickets
	notifier   notify.Notifier
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the maintenance service.
func NewService(guard *access.Guard, store *repository.Store, notifier notify.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		guard:      guard,
		units:      store.Units,
		properties: store.Properties,
		tickets:    store.Tickets,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Create opens a ticket on the caller's unit and notifies the owner.
func (s *Service) Create(ctx context.Context, caller models.Identity, in TicketInput) (*models.MaintenanceTicket, error) {
	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	switch priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
	default:
		return nil, apperr.Validation("priority %q is not supported", priority)
	}

	unit, err := s.units.GetByID(ctx, in.UnitID)
	if err != nil {
		return nil, err
	}
	if unit.TenantID != caller.UID {
		return nil, apperr.Forbidden("only the tenant of unit %s can raise tickets", in.UnitID)
	}

	now := s.now().UTC()
	ticket := &models.MaintenanceTicket{
		ID:          uuid.NewString(),
		PropertyID:  unit.PropertyID,
		UnitID:      unit.ID,
		TenantID:    caller.UID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Status:      models.TicketOpen,
		PhotoURL:    in.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	if property, err := s.properties.GetByID(ctx, unit.PropertyID); err == nil {
		s.notifier.NotifyUser(ctx, property.OwnerID, models.Notification{
			Title: "New Maintenance Request",
			Body:  fmt.Sprintf("Unit %s: %s", unit.UnitNumber, ticket.Title),
			Data:  map[string]string{"type": "maintenance", "ticketId": ticket.ID},
		})
	} else {
		s.logger.Warn("owner lookup for ticket notification failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	return ticket, nil
}

// UpdateStatus applies a lifecycle transition. Disallowed transitions fail with Conflict.
func (s *Service) UpdateStatus(ctx context.Context, caller models.Identity, in StatusInput) (*models.MaintenanceTicket, error) {
	if in.Cost != nil && *in.Cost < 0 {
		return nil, apperr.Validation("cost must not be negative")
	}

	current, err := s.tickets.GetByID(ctx, in.TicketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.ManagedProperty(ctx, caller, current.PropertyID); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.Update(ctx, in.TicketID, func(t *models.MaintenanceTicket) error {
		if !t.Status.CanTransitionTo(in.Status) {
			return apperr.Conflict("ticket cannot move from %s to %s", t.Status, in.Status)
		}
		t.Status = in.Status
		if in.Notes != "" {
			t.ResolutionNotes = in.Notes
		}
		if in.Cost != nil {
			t.Cost = *in.Cost
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, ticket.TenantID, models.Notification{
		Title: "Maintenance Update",
		Body:  fmt.Sprintf("Your request %q is now %s.", ticket.Title, ticket.Status),
		Data:  map[string]string{"type": "maintenance", "ticketId": ticket.ID, "status": string(ticket.Status)},
	})
	return ticket, nil
}

// TenantTickets lists tickets raised by the caller.
func (s *Service) TenantTickets(ctx context.Context, caller models.Identity) ([]models.MaintenanceTicket, error) {
	tickets, err := s.tickets.ListByTenant(ctx, caller.UID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return nonNil(tickets), nil
}

// OwnerTickets lists tickets across the caller's properties.
func (s *Service) OwnerTickets(ctx context.Context, caller models.Identity) ([]models.MaintenanceTicket, error) {
	ids, err := s.guard.OwnedPropertyIDs(ctx, caller)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.MaintenanceTicket{}, nil
	}
	tickets, err := s.tickets.ListByProperties(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return nonNil(tickets), nil
}

func nonNil(tickets []models.MaintenanceTicket) []models.MaintenanceTicket {
	if tickets == nil {
		return []models.MaintenanceTicket{}
	}
	return tickets
}
