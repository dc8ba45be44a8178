package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleetops/internal/domain"
	"fleetops/internal/logging"
	internalRedis "fleetops/internal/redis"
	"fleetops/internal/repository"
)

// ExpenseService handles ad-hoc expense entries.
type ExpenseService struct {
	expenses repository.ExpenseRepository
	cache    *cacheAside
	log      logrus.FieldLogger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(expenses repository.ExpenseRepository, cacheStore internalRedis.CacheStoreInterface, log logrus.FieldLogger) *ExpenseService {
	return &ExpenseService{
		expenses: expenses,
		cache:    newCacheAside(cacheStore, log),
		log:      log,
	}
}

// AddExpenseRequest contains the parameters for recording an expense.
type AddExpenseRequest struct {
	Type      string
	Amount    float64
	DriverID  string
	CabNumber string
}

// AddExpense records an expense entry.
func (s *ExpenseService) AddExpense(ctx context.Context, req AddExpenseRequest) (*domain.ExpenseEntry, error) {
	expenseType := strings.TrimSpace(req.Type)
	if expenseType == "" {
		return nil, ErrInvalidExpenseType
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidExpenseAmount
	}

	now := time.Now().UTC()
	expense := &domain.ExpenseEntry{
		ID:        uuid.New().String(),
		Type:      expenseType,
		Amount:    req.Amount,
		DriverID:  req.DriverID,
		CabNumber: strings.TrimSpace(req.CabNumber),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		s.log.WithError(err).Error("failed to store expense")
		return nil, err
	}

	s.cache.invalidate(ctx, internalRedis.Mutation{
		Kind:     internalRedis.ExpenseCreated,
		DriverID: expense.DriverID,
		Cab:      internalRedis.CabRef{Number: expense.CabNumber},
	})
	logging.Action(s.log, "add expense").WithField("expense_id", expense.ID).Info("expense recorded")

	return expense, nil
}

// UpdateExpenseRequest carries the fields to change. Nil fields are kept.
type UpdateExpenseRequest struct {
	Type      *string
	Amount    *float64
	DriverID  *string
	CabNumber *string
}

// UpdateExpense changes an expense entry and refreshes its cached copy.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id string, req UpdateExpenseRequest) (*domain.ExpenseEntry, error) {
	expense, err := s.getExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	prevDriverID, prevCabNumber := expense.DriverID, expense.CabNumber

	if req.Type != nil {
		t := strings.TrimSpace(*req.Type)
		if t == "" {
			return nil, ErrInvalidExpenseType
		}
		expense.Type = t
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, ErrInvalidExpenseAmount
		}
		expense.Amount = *req.Amount
	}
	if req.DriverID != nil {
		expense.DriverID = *req.DriverID
	}
	if req.CabNumber != nil {
		expense.CabNumber = strings.TrimSpace(*req.CabNumber)
	}
	expense.UpdatedAt = time.Now().UTC()

	if err := s.expenses.Update(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		s.log.WithError(err).WithField("expense_id", id).Error("failed to update expense")
		return nil, err
	}

	s.cache.invalidate(ctx, internalRedis.Mutation{
		Kind:          internalRedis.ExpenseUpdated,
		DriverID:      expense.DriverID,
		Cab:           internalRedis.CabRef{Number: expense.CabNumber},
		PrevDriverID:  prevDriverID,
		PrevCabNumber: prevCabNumber,
	})
	s.cache.set(ctx, internalRedis.ExpenseKey(expense.ID), expense, internalRedis.ExpenseTTL)

	return expense, nil
}

// DeleteExpense removes an expense entry.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	expense, err := s.getExpense(ctx, id)
	if err != nil {
		return err
	}

	if err := s.expenses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExpenseNotFound
		}
		return err
	}

	s.cache.invalidate(ctx, internalRedis.Mutation{
		Kind:      internalRedis.ExpenseDeleted,
		ExpenseID: expense.ID,
		DriverID:  expense.DriverID,
		Cab:       internalRedis.CabRef{Number: expense.CabNumber},
	})
	logging.Action(s.log, "delete expense").WithField("expense_id", id).Info("expense deleted")
	return nil
}

// GetExpense retrieves one expense entry.
func (s *ExpenseService) GetExpense(ctx context.Context, id string) (*domain.ExpenseEntry, error) {
	if id == "" {
		return nil, ErrInvalidExpenseID
	}

	expense, err := readThrough(ctx, s.cache, internalRedis.ExpenseKey(id), internalRedis.ExpenseTTL,
		func(ctx context.Context) (*domain.ExpenseEntry, error) {
			return s.expenses.GetByID(ctx, id)
		})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExpenseNotFound
	}
	return expense, err
}

// ListExpensesByDriver retrieves the entries recorded for a driver.
func (s *ExpenseService) ListExpensesByDriver(ctx context.Context, driverID string) ([]*domain.ExpenseEntry, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return readThrough(ctx, s.cache, internalRedis.DriverExpensesKey(driverID), internalRedis.ExpenseListTTL,
		func(ctx context.Context) ([]*domain.ExpenseEntry, error) {
			return nonNil(s.expenses.ListByDriverID(ctx, driverID))
		})
}

// ListExpensesByCab retrieves the entries recorded against a cab number.
func (s *ExpenseService) ListExpensesByCab(ctx context.Context, cabNumber string) ([]*domain.ExpenseEntry, error) {
	if cabNumber == "" {
		return nil, ErrInvalidCabNumber
	}
	return readThrough(ctx, s.cache, internalRedis.CabExpensesKey(cabNumber), internalRedis.ExpenseListTTL,
		func(ctx context.Context) ([]*domain.ExpenseEntry, error) {
			return nonNil(s.expenses.ListByCabNumber(ctx, cabNumber))
		})
}

// getExpense reads from the store, bypassing the cache, before a write.
func (s *ExpenseService) getExpense(ctx context.Context, id string) (*domain.ExpenseEntry, error) {
	if id == "" {
		return nil, ErrInvalidExpenseID
	}
	expense, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

// nonNil turns a nil slice into an empty one so listings encode as [].
func nonNil[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
