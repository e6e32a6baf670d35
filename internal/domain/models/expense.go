package models

import "time"

// Expense is an owner-side cost, property-wide or tied to a unit.
type Expense struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	OwnerID     string    `json:"ownerId" bson:"owner_id" gorm:"index;not null"`
	PropertyID  string    `json:"propertyId" bson:"property_id" gorm:"index"`
	UnitID      string    `json:"unitId,omitempty" bson:"unit_id,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Amount      float64   `json:"amount" bson:"amount"`
	Category    string    `json:"category" bson:"category"`
	Date        time.Time `json:"date" bson:"date"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// ExpenseFilter narrows an owner's expense listing. Zero values are ignored.
type ExpenseFilter struct {
	OwnerID    string
	PropertyID string
	Category   string
	From       *time.Time
	To         *time.Time
}
