package repository

import (
	"context"

	"fleetops/internal/domain"
)

// AdminRepository defines the persistence operations for admin accounts.
type AdminRepository interface {
	// GetByID retrieves an admin by ID.
	GetByID(ctx context.Context, id string) (*domain.Admin, error)

	// GetAll retrieves all admins.
	GetAll(ctx context.Context) ([]*domain.Admin, error)

	// Delete removes an admin. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}
