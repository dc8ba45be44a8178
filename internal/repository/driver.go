package repository

import (
	"context"

	"fleetops/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// ListByAddedBy retrieves the drivers owned by an admin.
	ListByAddedBy(ctx context.Context, adminID string) ([]*domain.Driver, error)

	// CountByAddedBy returns the number of drivers per owning admin.
	CountByAddedBy(ctx context.Context) (map[string]int, error)

	// DeleteByAddedBy removes every driver owned by an admin.
	DeleteByAddedBy(ctx context.Context, adminID string) (int64, error)
}
