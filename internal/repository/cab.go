package repository

import (
	"context"

	"fleetops/internal/domain"
)

// CabRepository defines the persistence operations for cabs.
type CabRepository interface {
	// Create adds a new cab. Returns ErrDuplicate if the number is taken.
	Create(ctx context.Context, cab *domain.Cab) error

	// GetByID retrieves a cab by ID.
	GetByID(ctx context.Context, id string) (*domain.Cab, error)

	// GetByNumber retrieves a cab by its plate number.
	GetByNumber(ctx context.Context, number string) (*domain.Cab, error)

	// GetAll retrieves all cabs.
	GetAll(ctx context.Context) ([]*domain.Cab, error)

	// ListByAddedBy retrieves the cabs owned by an admin.
	ListByAddedBy(ctx context.Context, adminID string) ([]*domain.Cab, error)

	// CountByAddedBy returns the number of cabs per owning admin.
	CountByAddedBy(ctx context.Context) (map[string]int, error)

	// Update updates the metadata of an existing cab.
	Update(ctx context.Context, cab *domain.Cab) error

	// Delete removes a cab.
	Delete(ctx context.Context, id string) error

	// DeleteByAddedBy removes every cab owned by an admin.
	DeleteByAddedBy(ctx context.Context, adminID string) (int64, error)
}
