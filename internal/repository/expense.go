package repository

import (
	"context"

	"fleetops/internal/domain"
)

// ExpenseRepository defines the persistence operations for expense entries.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.ExpenseEntry) error
	GetByID(ctx context.Context, id string) (*domain.ExpenseEntry, error)
	Update(ctx context.Context, expense *domain.ExpenseEntry) error
	Delete(ctx context.Context, id string) error
	ListByDriverID(ctx context.Context, driverID string) ([]*domain.ExpenseEntry, error)
	ListByCabNumber(ctx context.Context, cabNumber string) ([]*domain.ExpenseEntry, error)
}

// AnalyticsRepository defines the persistence operations for analytics snapshots.
type AnalyticsRepository interface {
	// Create appends a snapshot.
	Create(ctx context.Context, snapshot *domain.AnalyticsSnapshot) error

	// Latest retrieves up to limit snapshots, newest first.
	Latest(ctx context.Context, limit int) ([]*domain.AnalyticsSnapshot, error)
}
