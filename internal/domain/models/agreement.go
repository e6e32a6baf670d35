package models

import "time"

// Agreement is a signed rental agreement for a unit.
type Agreement struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	PropertyID  string    `json:"propertyId" bson:"property_id"`
	UnitID      string    `json:"unitId" bson:"unit_id" gorm:"index"`
	TenantID    string    `json:"tenantId" bson:"tenant_id" gorm:"index"`
	OwnerID     string    `json:"ownerId" bson:"owner_id"`
	DocumentURL string    `json:"pdfUrl" bson:"document_url"`
	StartDate   time.Time `json:"startDate" bson:"start_date"`
	EndDate     time.Time `json:"endDate" bson:"end_date"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}
