package models

import "time"

// HandoverType distinguishes move-in from move-out inspections.
type HandoverType string

const (
	HandoverCheckIn  HandoverType = "check-in"
	HandoverCheckOut HandoverType = "check-out"
)

// ChecklistItem is one inspected item of a handover.
type ChecklistItem struct {
	Item     string `json:"item" bson:"item"`
	State    string `json:"state" bson:"state"`
	Comments string `json:"comments,omitempty" bson:"comments,omitempty"`
}

// Handover is the inventory report written when a tenant moves in or out.
type Handover struct {
	ID         string          `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	PropertyID string          `json:"propertyId" bson:"property_id"`
	UnitID     string          `json:"unitId" bson:"unit_id" gorm:"index"`
	TenantID   string          `json:"tenantId,omitempty" bson:"tenant_id,omitempty"`
	Type       HandoverType    `json:"type" bson:"type"`
	Checklist  []ChecklistItem `json:"checklist" bson:"checklist" gorm:"serializer:json"`
	Photos     []string        `json:"photos" bson:"photos" gorm:"serializer:json"`
	CheckedBy  string          `json:"checkedBy" bson:"checked_by"`
	Date       time.Time       `json:"date" bson:"date"`
}
