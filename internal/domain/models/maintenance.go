package models

import "time"

// TicketStatus is the lifecycle state of a maintenance ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketOpen:       {TicketInProgress, TicketResolved, TicketClosed},
	TicketInProgress: {TicketResolved, TicketClosed},
	TicketResolved:   {TicketClosed, TicketInProgress},
}

// CanTransitionTo reports whether a ticket may move from s to next.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TicketPriority ranks maintenance urgency.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// MaintenanceTicket is raised by a tenant against a unit and progressed by the owner or staff.
type MaintenanceTicket struct {
	ID              string         `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	PropertyID      string         `json:"propertyId" bson:"property_id" gorm:"index"`
	UnitID          string         `json:"unitId" bson:"unit_id" gorm:"index"`
	TenantID        string         `json:"tenantId" bson:"tenant_id" gorm:"index"`
	Title           string         `json:"title" bson:"title"`
	Description     string         `json:"description" bson:"description"`
	Priority        TicketPriority `json:"priority" bson:"priority"`
	Status          TicketStatus   `json:"status" bson:"status"`
	PhotoURL        string         `json:"photoUrl,omitempty" bson:"photo_url,omitempty"`
	ResolutionNotes string         `json:"resolutionNotes,omitempty" bson:"resolution_notes,omitempty"`
	Cost            float64        `json:"cost,omitempty" bson:"cost,omitempty"`
	Version         int64          `json:"-" bson:"version"`
	CreatedAt       time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" bson:"updated_at"`
}
