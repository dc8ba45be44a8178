package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fleetops/internal/domain"
	"fleetops/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

const driverColumns = `id, name, email, phone, license_number, added_by, created_at`

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

	var driver domain.Driver
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&driver.ID,
		&driver.Name,
		&driver.Email,
		&driver.Phone,
		&driver.LicenseNumber,
		&driver.AddedBy,
		&driver.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &driver, nil
}

// ListByAddedBy retrieves the drivers owned by an admin.
func (r *DriverRepository) ListByAddedBy(ctx context.Context, adminID string) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE added_by = $1 ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		if err := rows.Scan(
			&driver.ID,
			&driver.Name,
			&driver.Email,
			&driver.Phone,
			&driver.LicenseNumber,
			&driver.AddedBy,
			&driver.CreatedAt,
		); err != nil {
			return nil, err
		}
		drivers = append(drivers, &driver)
	}
	return drivers, rows.Err()
}

// CountByAddedBy returns the number of drivers per owning admin.
func (r *DriverRepository) CountByAddedBy(ctx context.Context) (map[string]int, error) {
	return countBy(ctx, r.q, `SELECT added_by, COUNT(*) FROM drivers WHERE added_by <> '' GROUP BY added_by`)
}

// DeleteByAddedBy removes every driver owned by an admin.
func (r *DriverRepository) DeleteByAddedBy(ctx context.Context, adminID string) (int64, error) {
	return execCount(ctx, r.q, `DELETE FROM drivers WHERE added_by = $1`, adminID)
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
