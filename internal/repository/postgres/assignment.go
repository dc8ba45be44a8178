package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleetops/internal/domain"
	"fleetops/internal/repository"
)

// AssignmentRepository is a PostgreSQL implementation of repository.AssignmentRepository.
type AssignmentRepository struct {
	q Querier
}

// NewAssignmentRepository creates a new PostgreSQL assignment repository.
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{q: db}
}

const assignmentColumns = `a.id, a.driver_id, a.cab_id, a.assigned_by, a.status, a.trip_details, a.version, a.created_at, a.updated_at`

const viewColumns = assignmentColumns + `,
	c.id, c.cab_number, c.insurance_number, c.insurance_expiry, c.registration_number, c.cab_image, c.added_by, c.created_at, c.updated_at,
	d.id, d.name, d.email, d.phone, d.license_number, d.added_by, d.created_at`

// Create persists a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	query := `
		INSERT INTO cab_assignments (id, driver_id, cab_id, assigned_by, status, trip_details, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	details, err := json.Marshal(a.TripDetails)
	if err != nil {
		return fmt.Errorf("encode trip details: %w", err)
	}

	_, err = r.q.ExecContext(ctx, query,
		a.ID,
		a.DriverID,
		a.CabID,
		a.AssignedBy,
		a.Status,
		details,
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)

	return translateError(err)
}

// GetByID retrieves an assignment by ID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM cab_assignments a WHERE a.id = $1`

	a, err := scanAssignment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// GetActiveByDriverID retrieves the active assignment for a driver.
// Returns nil if no active assignment exists.
func (r *AssignmentRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Assignment, error) {
	return r.getActive(ctx, "driver_id", driverID)
}

// GetActiveByCabID retrieves the active assignment for a cab.
// Returns nil if no active assignment exists.
func (r *AssignmentRepository) GetActiveByCabID(ctx context.Context, cabID string) (*domain.Assignment, error) {
	return r.getActive(ctx, "cab_id", cabID)
}

func (r *AssignmentRepository) getActive(ctx context.Context, column, value string) (*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM cab_assignments a
		WHERE a.` + column + ` = $1 AND a.status <> $2
		LIMIT 1
	`

	a, err := scanAssignment(r.q.QueryRowContext(ctx, query, value, domain.AssignmentStatusCompleted))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// Update writes status and trip details guarded by the version column.
func (r *AssignmentRepository) Update(ctx context.Context, a *domain.Assignment) error {
	query := `
		UPDATE cab_assignments
		SET status = $1, trip_details = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5
	`

	details, err := json.Marshal(a.TripDetails)
	if err != nil {
		return fmt.Errorf("encode trip details: %w", err)
	}

	now := time.Now().UTC()
	err = execAffected(ctx, r.q, query, a.Status, details, now, a.ID, a.Version)
	if errors.Is(err, repository.ErrNotFound) {
		// Distinguish a missing row from a stale version.
		if _, getErr := r.GetByID(ctx, a.ID); getErr != nil {
			return getErr
		}
		return repository.ErrVersionConflict
	}
	if err != nil {
		return err
	}

	a.Version++
	a.UpdatedAt = now
	return nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	return execAffected(ctx, r.q, `DELETE FROM cab_assignments WHERE id = $1`, id)
}

// ListByAssignedBy retrieves an admin's assignments with their cab and driver.
func (r *AssignmentRepository) ListByAssignedBy(ctx context.Context, adminID string) ([]*domain.AssignmentView, error) {
	query := `
		SELECT ` + viewColumns + `
		FROM cab_assignments a
		JOIN cabs c ON c.id = a.cab_id
		LEFT JOIN drivers d ON d.id = a.driver_id
		WHERE a.assigned_by = $1
		ORDER BY a.created_at DESC
	`
	return r.listViews(ctx, query, adminID)
}

// ListActiveByDriverID retrieves a driver's active assignments with their cab
// and driver. A deleted cab leaves the view's Cab nil.
func (r *AssignmentRepository) ListActiveByDriverID(ctx context.Context, driverID string) ([]*domain.AssignmentView, error) {
	query := `
		SELECT ` + viewColumns + `
		FROM cab_assignments a
		LEFT JOIN cabs c ON c.id = a.cab_id
		LEFT JOIN drivers d ON d.id = a.driver_id
		WHERE a.driver_id = $1 AND a.status <> $2
		ORDER BY a.created_at DESC
	`
	return r.listViews(ctx, query, driverID, domain.AssignmentStatusCompleted)
}

// GetAllByAssignedBy retrieves every assignment created by an admin.
func (r *AssignmentRepository) GetAllByAssignedBy(ctx context.Context, adminID string) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM cab_assignments a WHERE a.assigned_by = $1 ORDER BY a.created_at`
	return r.list(ctx, query, adminID)
}

// GetAll retrieves every assignment regardless of status.
func (r *AssignmentRepository) GetAll(ctx context.Context) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM cab_assignments a ORDER BY a.created_at`
	return r.list(ctx, query)
}

func (r *AssignmentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Assignment, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// DeleteByAssignedBy removes every assignment created by an admin.
func (r *AssignmentRepository) DeleteByAssignedBy(ctx context.Context, adminID string) (int64, error) {
	return execCount(ctx, r.q, `DELETE FROM cab_assignments WHERE assigned_by = $1`, adminID)
}

func (r *AssignmentRepository) listViews(ctx context.Context, query string, args ...any) ([]*domain.AssignmentView, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*domain.AssignmentView
	for rows.Next() {
		v, err := scanAssignmentView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var a domain.Assignment
	var details []byte

	if err := row.Scan(
		&a.ID,
		&a.DriverID,
		&a.CabID,
		&a.AssignedBy,
		&a.Status,
		&details,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := decodeTripDetails(details, &a.TripDetails); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAssignmentView(row rowScanner) (*domain.AssignmentView, error) {
	var v domain.AssignmentView
	var details []byte
	var cabID, cabNumber, cabInsurance, cabRegistration, cabImage, cabAddedBy sql.NullString
	var insuranceExpiry, cabCreatedAt, cabUpdatedAt sql.NullTime
	var driverID, driverName, driverEmail, driverPhone, driverLicense, driverAddedBy sql.NullString
	var driverCreatedAt sql.NullTime

	if err := row.Scan(
		&v.ID,
		&v.DriverID,
		&v.CabID,
		&v.AssignedBy,
		&v.Status,
		&details,
		&v.Version,
		&v.CreatedAt,
		&v.UpdatedAt,
		&cabID,
		&cabNumber,
		&cabInsurance,
		&insuranceExpiry,
		&cabRegistration,
		&cabImage,
		&cabAddedBy,
		&cabCreatedAt,
		&cabUpdatedAt,
		&driverID,
		&driverName,
		&driverEmail,
		&driverPhone,
		&driverLicense,
		&driverAddedBy,
		&driverCreatedAt,
	); err != nil {
		return nil, err
	}

	if err := decodeTripDetails(details, &v.TripDetails); err != nil {
		return nil, err
	}

	if cabID.Valid {
		v.Cab = &domain.Cab{
			ID:                 cabID.String,
			CabNumber:          cabNumber.String,
			InsuranceNumber:    cabInsurance.String,
			InsuranceExpiry:    insuranceExpiry.Time,
			RegistrationNumber: cabRegistration.String,
			CabImage:           cabImage.String,
			AddedBy:            cabAddedBy.String,
			CreatedAt:          cabCreatedAt.Time,
			UpdatedAt:          cabUpdatedAt.Time,
		}
	}

	if driverID.Valid {
		v.Driver = &domain.Driver{
			ID:            driverID.String,
			Name:          driverName.String,
			Email:         driverEmail.String,
			Phone:         driverPhone.String,
			LicenseNumber: driverLicense.String,
			AddedBy:       driverAddedBy.String,
			CreatedAt:     driverCreatedAt.Time,
		}
	}

	return &v, nil
}

func decodeTripDetails(data []byte, dest *domain.TripDetails) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode trip details: %w", err)
	}
	return nil
}

// Ensure AssignmentRepository implements repository.AssignmentRepository.
var _ repository.AssignmentRepository = (*AssignmentRepository)(nil)
