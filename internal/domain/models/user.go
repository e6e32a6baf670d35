package models

import "time"

// Role is the access role resolved from the caller's token.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleTenant Role = "tenant"
	RoleStaff  Role = "staff"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleTenant || r == RoleStaff
}

// User is the profile of an owner, tenant or staff member. ID is the token uid.
type User struct {
	ID         string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(128)"`
	Email      string    `json:"email" bson:"email"`
	Name       string    `json:"name" bson:"name"`
	Phone      string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Role       Role      `json:"role" bson:"role" gorm:"index"`
	FCMToken   string    `json:"fcmToken,omitempty" bson:"fcm_token,omitempty"`
	OwnerID    string    `json:"ownerId,omitempty" bson:"owner_id,omitempty" gorm:"index"`
	PropertyID string    `json:"propertyId,omitempty" bson:"property_id,omitempty" gorm:"index"`
	UnitID     string    `json:"unitId,omitempty" bson:"unit_id,omitempty"`
	KYC        *KYC      `json:"kyc,omitempty" bson:"kyc,omitempty" gorm:"serializer:json"`
	Version    int64     `json:"-" bson:"version"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updated_at"`
}

// KYCStatus is the verification state of submitted identity documents.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

// KYC holds identity documents submitted by a user.
type KYC struct {
	AadhaarNumber string     `json:"aadhaarNumber" bson:"aadhaar_number"`
	PANNumber     string     `json:"panNumber" bson:"pan_number"`
	DocumentURLs  []string   `json:"documentUrls" bson:"document_urls"`
	Status        KYCStatus  `json:"status" bson:"status"`
	SubmittedAt   time.Time  `json:"submittedAt" bson:"submitted_at"`
	VerifiedAt    *time.Time `json:"verifiedAt,omitempty" bson:"verified_at,omitempty"`
	VerifiedBy    string     `json:"verifiedBy,omitempty" bson:"verified_by,omitempty"`
	AdminNotes    string     `json:"adminNotes,omitempty" bson:"admin_notes,omitempty"`
}
