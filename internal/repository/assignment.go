package repository

import (
	"context"

	"fleetops/internal/domain"
)

// AssignmentRepository defines the persistence operations for cab assignments.
type AssignmentRepository interface {
	// Create persists a new assignment.
	// Returns ErrDuplicate if the driver or cab already has an active assignment.
	Create(ctx context.Context, assignment *domain.Assignment) error

	// GetByID retrieves an assignment by ID.
	GetByID(ctx context.Context, id string) (*domain.Assignment, error)

	// GetActiveByDriverID retrieves the active assignment for a driver.
	// Returns nil if no active assignment exists.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Assignment, error)

	// GetActiveByCabID retrieves the active assignment for a cab.
	// Returns nil if no active assignment exists.
	GetActiveByCabID(ctx context.Context, cabID string) (*domain.Assignment, error)

	// Update writes status and trip details if the stored version still equals
	// assignment.Version, then increments the version on both sides.
	// Returns ErrVersionConflict when the version moved.
	Update(ctx context.Context, assignment *domain.Assignment) error

	// Delete removes an assignment.
	Delete(ctx context.Context, id string) error

	// ListByAssignedBy retrieves an admin's assignments joined with their cab
	// and driver. Assignments whose cab no longer exists are omitted.
	ListByAssignedBy(ctx context.Context, adminID string) ([]*domain.AssignmentView, error)

	// ListActiveByDriverID retrieves a driver's active assignments joined with
	// their cab and driver. Cab is nil when the cab no longer exists.
	ListActiveByDriverID(ctx context.Context, driverID string) ([]*domain.AssignmentView, error)

	// GetAllByAssignedBy retrieves every assignment created by an admin,
	// without joins, so rows whose cab or driver is gone are included.
	GetAllByAssignedBy(ctx context.Context, adminID string) ([]*domain.Assignment, error)

	// GetAll retrieves every assignment regardless of status.
	GetAll(ctx context.Context) ([]*domain.Assignment, error)

	// DeleteByAssignedBy removes every assignment created by an admin.
	DeleteByAssignedBy(ctx context.Context, adminID string) (int64, error)
}
