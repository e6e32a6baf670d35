package models

import "time"

// UnitStatus enumerates the occupancy states of a unit.
type UnitStatus string

const (
	UnitVacant           UnitStatus = "vacant"
	UnitOccupied         UnitStatus = "occupied"
	UnitUnderMaintenance UnitStatus = "under_maintenance"
)

// Valid reports whether s is one of the known unit states.
func (s UnitStatus) Valid() bool {
	switch s {
	case UnitVacant, UnitOccupied, UnitUnderMaintenance:
		return true
	}
	return false
}

// Property is a building owned by a single owner. It owns the lifecycle of its units.
type Property struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	OwnerID   string    `json:"ownerId" bson:"owner_id" gorm:"index;not null"`
	Name      string    `json:"name" bson:"name"`
	Address   string    `json:"address" bson:"address"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`

	Units []Unit `json:"units,omitempty" bson:"-" gorm:"-"`
}

// Unit is a rentable space inside a property.
//
// Status and TenantID only change together: status is occupied exactly when TenantID is set.
type Unit struct {
	ID          string     `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	PropertyID  string     `json:"propertyId" bson:"property_id" gorm:"index;not null"`
	FloorNumber int        `json:"floorNumber" bson:"floor_number"`
	UnitNumber  string     `json:"unitNumber" bson:"unit_number"`
	RentAmount  float64    `json:"rentAmount" bson:"rent_amount"`
	Status      UnitStatus `json:"status" bson:"status" gorm:"index;not null"`
	TenantID    string     `json:"tenantId,omitempty" bson:"tenant_id,omitempty" gorm:"index"`

	ElectricityConsumerNumber string     `json:"electricityConsumerNumber,omitempty" bson:"electricity_consumer_number,omitempty"`
	ElectricityRegion         string     `json:"electricityRegion,omitempty" bson:"electricity_region,omitempty"`
	ElectricityEnabled        bool       `json:"isElectricityActive" bson:"electricity_enabled"`
	ElectricityBillStatus     BillStatus `json:"electricityBillStatus,omitempty" bson:"electricity_bill_status,omitempty"`
	ElectricityCheckedAt      *time.Time `json:"electricityCheckedAt,omitempty" bson:"electricity_checked_at,omitempty"`

	Version   int64     `json:"-" bson:"version"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

const defaultConsumerPrefix = "100200300"

// ConsumerNumber returns the electricity consumer number, derived from the unit number when unset.
func (u Unit) ConsumerNumber() string {
	if u.ElectricityConsumerNumber != "" {
		return u.ElectricityConsumerNumber
	}
	return defaultConsumerPrefix + u.UnitNumber
}

// Region returns the electricity board region of the unit or fallback when unset.
func (u Unit) Region(fallback string) string {
	if u.ElectricityRegion != "" {
		return u.ElectricityRegion
	}
	return fallback
}

// PropertyStructure describes the floors and units to create along with a property.
type PropertyStructure struct {
	Floors []FloorSpec `json:"floors"`
}

// FloorSpec lists the units of one floor.
type FloorSpec struct {
	Units []UnitSpec `json:"units"`
}

// UnitSpec is the creation payload for a unit.
type UnitSpec struct {
	UnitNumber                string  `json:"unit_number"`
	RentAmount                float64 `json:"rent"`
	ElectricityConsumerNumber string  `json:"electricityConsumerNumber"`
}
