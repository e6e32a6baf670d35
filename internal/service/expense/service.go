// Package expense records owner-side costs.
package expense

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
)

// Input is a new expense. Date is YYYY-MM-DD and defaults to today.
type Input struct {
	PropertyID  string
	UnitID      string
	Title       string
	Amount      float64
	Category    string
	Date        string
	Description string
}

// Query filters the owner's expense listing. Dates are YYYY-MM-DD and inclusive.
type Query struct {
	PropertyID string
	Category   string
	StartDate  string
	EndDate    string
}

// Service implements the expense use cases.
type Service struct {
	guard    *access.Guard
	expenses repository.Expenses
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the expense service.
func NewService(guard *access.Guard, expenses repository.Expenses, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{guard: guard, expenses: expenses, logger: logger, now: time.Now}
}

// Create records an expense against a property the caller owns.
func (s *Service) Create(ctx context.Context, caller models.Identity, in Input) (*models.Expense, error) {
	if in.Title == "" || in.Category == "" || in.PropertyID == "" {
		return nil, apperr.Validation("title, category and propertyId are required")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}

	now := s.now().UTC()
	date := now.Truncate(24 * time.Hour)
	if in.Date != "" {
		parsed, err := models.ParseDate(in.Date)
		if err != nil {
			return nil, apperr.Validation("%v", err)
		}
		date = parsed
	}

	if _, err := s.guard.OwnedProperty(ctx, caller, in.PropertyID); err != nil {
		return nil, err
	}
	if in.UnitID != "" {
		if _, err := s.guard.UnitInProperty(ctx, in.PropertyID, in.UnitID); err != nil {
			return nil, err
		}
	}

	expense := &models.Expense{
		ID:          uuid.NewString(),
		OwnerID:     caller.UID,
		PropertyID:  in.PropertyID,
		UnitID:      in.UnitID,
		Title:       in.Title,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        date,
		Description: in.Description,
		CreatedAt:   now,
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	return expense, nil
}

// List returns the caller's expenses, newest first.
func (s *Service) List(ctx context.Context, caller models.Identity, q Query) ([]models.Expense, error) {
	filter := models.ExpenseFilter{OwnerID: caller.UID, PropertyID: q.PropertyID, Category: q.Category}
	if q.StartDate != "" {
		from, err := models.ParseDate(q.StartDate)
		if err != nil {
			return nil, apperr.Validation("startDate: %v", err)
		}
		filter.From = &from
	}
	if q.EndDate != "" {
		to, err := models.ParseDate(q.EndDate)
		if err != nil {
			return nil, apperr.Validation("endDate: %v", err)
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}

	expenses, err := s.expenses.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return expenses, nil
}

// Delete removes one of the caller's expenses.
func (s *Service) Delete(ctx context.Context, caller models.Identity, id string) error {
	expense, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if expense.OwnerID != caller.UID {
		return apperr.Forbidden("expense %s belongs to another owner", id)
	}
	return s.expenses.Delete(ctx, id)
}
