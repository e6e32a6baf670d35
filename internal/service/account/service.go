// Package account manages user profiles, staff and KYC documents.
package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/service/notify"
)

var (
	aadhaarPattern = regexp.MustCompile(`^\d{12}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
)

// Profile is the caller-editable part of a user.
type Profile struct {
	ID    string
	Name  string
	Email string
	Phone string
	Role  models.Role
}

// KYCSubmission carries identity documents.
type KYCSubmission struct {
	AadhaarNumber string
	PANNumber     string
	DocumentURLs  []string
}

// Service implements account use cases.
type Service struct {
	users    repository.Users
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the account service.
func NewService(users repository.Users, notifier notify.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, notifier: notifier, logger: logger, now: time.Now}
}

// Sync upserts the caller's profile. The token role wins over the requested one,
// except that a caller without a role claim may pick owner or tenant.
func (s *Service) Sync(ctx context.Context, caller models.Identity, p Profile) (*models.User, error) {
	role := caller.Role
	if role == "" {
		role = p.Role
	}
	if role == "" {
		role = models.RoleTenant
	}
	if !role.Valid() {
		return nil, apperr.Validation("role %q is not supported", role)
	}

	user, err := s.users.Upsert(ctx, caller.UID, func(u *models.User) error {
		u.Role = role
		u.Name = firstNonEmpty(p.Name, u.Name)
		u.Email = firstNonEmpty(p.Email, u.Email)
		u.Phone = firstNonEmpty(p.Phone, u.Phone)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sync user: %w", err)
	}
	s.logger.Info("user synced", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context, caller models.Identity) (*models.User, error) {
	return s.users.GetByID(ctx, caller.UID)
}

// SetFCMToken stores the device token push notifications are sent to.
func (s *Service) SetFCMToken(ctx context.Context, caller models.Identity, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.Validation("fcmToken is required")
	}
	_, err := s.users.Update(ctx, caller.UID, func(u *models.User) error {
		u.FCMToken = token
		return nil
	})
	return err
}

// CreateTenant registers a tenant profile on behalf of an owner.
func (s *Service) CreateTenant(ctx context.Context, caller models.Identity, p Profile) (*models.User, error) {
	return s.createManaged(ctx, caller, p, models.RoleTenant)
}

// CreateStaff registers a staff member employed by the calling owner.
func (s *Service) CreateStaff(ctx context.Context, caller models.Identity, p Profile) (*models.User, error) {
	return s.createManaged(ctx, caller, p, models.RoleStaff)
}

func (s *Service) createManaged(ctx context.Context, caller models.Identity, p Profile, role models.Role) (*models.User, error) {
	if caller.Role != models.RoleOwner {
		return nil, apperr.Forbidden("only owners can create %s profiles", role)
	}
	if p.ID == "" || p.Name == "" {
		return nil, apperr.Validation("id and name are required")
	}

	user := &models.User{
		ID:      p.ID,
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Role:    role,
		OwnerID: caller.UID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("managed profile created",
		zap.String("user_id", user.ID),
		zap.String("role", string(role)),
		zap.String("owner_id", caller.UID))
	return user, nil
}

// ListStaff returns the staff members employed by the calling owner.
func (s *Service) ListStaff(ctx context.Context, caller models.Identity) ([]models.User, error) {
	if caller.Role != models.RoleOwner {
		return nil, apperr.Forbidden("only owners can list staff")
	}
	staff, err := s.users.ListByOwner(ctx, caller.UID, models.RoleStaff)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		staff = []models.User{}
	}
	return staff, nil
}

// SubmitKYC stores the caller's documents as pending verification.
func (s *Service) SubmitKYC(ctx context.Context, caller models.Identity, sub KYCSubmission) (*models.KYC, error) {
	pan := strings.ToUpper(strings.TrimSpace(sub.PANNumber))
	aadhaar := strings.ReplaceAll(sub.AadhaarNumber, " ", "")
	if !aadhaarPattern.MatchString(aadhaar) {
		return nil, apperr.Validation("aadhaarNumber must be 12 digits")
	}
	if !panPattern.MatchString(pan) {
		return nil, apperr.Validation("panNumber is not a valid PAN")
	}

	docs := sub.DocumentURLs
	if docs == nil {
		docs = []string{}
	}
	kyc := &models.KYC{
		AadhaarNumber: aadhaar,
		PANNumber:     pan,
		DocumentURLs:  docs,
		Status:        models.KYCPending,
		SubmittedAt:   s.now().UTC(),
	}

	if _, err := s.users.Update(ctx, caller.UID, func(u *models.User) error {
		u.KYC = kyc
		return nil
	}); err != nil {
		return nil, err
	}
	return kyc, nil
}

// VerifyKYC records an owner's decision on a user's documents and notifies the user.
func (s *Service) VerifyKYC(ctx context.Context, caller models.Identity, userID string, status models.KYCStatus, notes string) (*models.KYC, error) {
	if status != models.KYCVerified && status != models.KYCRejected {
		return nil, apperr.Validation("status must be verified or rejected")
	}

	verifier, err := s.users.GetByID(ctx, caller.UID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if verifier == nil || verifier.Role != models.RoleOwner {
		return nil, apperr.Forbidden("only owners can verify KYC")
	}

	var result models.KYC
	_, err = s.users.Update(ctx, userID, func(u *models.User) error {
		if u.KYC == nil {
			return apperr.Validation("user %s has not submitted KYC", userID)
		}
		if u.OwnerID != "" && u.OwnerID != caller.UID {
			return apperr.Forbidden("user %s is managed by another owner", userID)
		}
		verifiedAt := s.now().UTC()
		kyc := *u.KYC
		kyc.Status = status
		kyc.VerifiedAt = &verifiedAt
		kyc.VerifiedBy = caller.UID
		kyc.AdminNotes = notes
		u.KYC = &kyc
		result = kyc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, userID, models.Notification{
		Title: "KYC update",
		Body:  fmt.Sprintf("Your KYC documents were %s.", status),
		Data:  map[string]string{"type": "kyc", "status": string(status)},
	})
	return &result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
