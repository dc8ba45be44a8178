package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleetops/internal/domain"
	"fleetops/internal/repository"
)

// CabRepository is a PostgreSQL implementation of repository.CabRepository.
type CabRepository struct {
	q Querier
}

// NewCabRepository creates a new PostgreSQL cab repository.
func NewCabRepository(db *sql.DB) *CabRepository {
	return &CabRepository{q: db}
}

const cabColumns = `id, cab_number, insurance_number, insurance_expiry, registration_number, cab_image, added_by, created_at, updated_at`

// Create adds a new cab.
func (r *CabRepository) Create(ctx context.Context, cab *domain.Cab) error {
	query := `INSERT INTO cabs (` + cabColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.q.ExecContext(ctx, query,
		cab.ID,
		cab.CabNumber,
		cab.InsuranceNumber,
		nullTime(cab.InsuranceExpiry),
		cab.RegistrationNumber,
		cab.CabImage,
		cab.AddedBy,
		cab.CreatedAt,
		cab.UpdatedAt,
	)
	return translateError(err)
}

// GetByID retrieves a cab by ID.
func (r *CabRepository) GetByID(ctx context.Context, id string) (*domain.Cab, error) {
	return r.getOne(ctx, `SELECT `+cabColumns+` FROM cabs WHERE id = $1`, id)
}

// GetByNumber retrieves a cab by its plate number.
func (r *CabRepository) GetByNumber(ctx context.Context, number string) (*domain.Cab, error) {
	return r.getOne(ctx, `SELECT `+cabColumns+` FROM cabs WHERE cab_number = $1`, number)
}

// GetAll retrieves all cabs.
func (r *CabRepository) GetAll(ctx context.Context) ([]*domain.Cab, error) {
	return r.list(ctx, `SELECT `+cabColumns+` FROM cabs ORDER BY cab_number`)
}

// ListByAddedBy retrieves the cabs owned by an admin.
func (r *CabRepository) ListByAddedBy(ctx context.Context, adminID string) ([]*domain.Cab, error) {
	return r.list(ctx, `SELECT `+cabColumns+` FROM cabs WHERE added_by = $1 ORDER BY created_at DESC`, adminID)
}

// CountByAddedBy returns the number of cabs per owning admin.
func (r *CabRepository) CountByAddedBy(ctx context.Context) (map[string]int, error) {
	return countBy(ctx, r.q, `SELECT added_by, COUNT(*) FROM cabs WHERE added_by <> '' GROUP BY added_by`)
}

// Update updates the metadata of an existing cab. Number and owner are immutable.
func (r *CabRepository) Update(ctx context.Context, cab *domain.Cab) error {
	query := `
		UPDATE cabs
		SET insurance_number = $1, insurance_expiry = $2, registration_number = $3, cab_image = $4, updated_at = $5
		WHERE id = $6
	`
	return execAffected(ctx, r.q, query,
		cab.InsuranceNumber,
		nullTime(cab.InsuranceExpiry),
		cab.RegistrationNumber,
		cab.CabImage,
		cab.UpdatedAt,
		cab.ID,
	)
}

// Delete removes a cab.
func (r *CabRepository) Delete(ctx context.Context, id string) error {
	return execAffected(ctx, r.q, `DELETE FROM cabs WHERE id = $1`, id)
}

// DeleteByAddedBy removes every cab owned by an admin.
func (r *CabRepository) DeleteByAddedBy(ctx context.Context, adminID string) (int64, error) {
	return execCount(ctx, r.q, `DELETE FROM cabs WHERE added_by = $1`, adminID)
}

func (r *CabRepository) getOne(ctx context.Context, query string, arg string) (*domain.Cab, error) {
	cab, err := scanCab(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return cab, nil
}

func (r *CabRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Cab, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cabs []*domain.Cab
	for rows.Next() {
		cab, err := scanCab(rows)
		if err != nil {
			return nil, err
		}
		cabs = append(cabs, cab)
	}
	return cabs, rows.Err()
}

func scanCab(row rowScanner) (*domain.Cab, error) {
	var cab domain.Cab
	var insuranceExpiry sql.NullTime

	if err := row.Scan(
		&cab.ID,
		&cab.CabNumber,
		&cab.InsuranceNumber,
		&insuranceExpiry,
		&cab.RegistrationNumber,
		&cab.CabImage,
		&cab.AddedBy,
		&cab.CreatedAt,
		&cab.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if insuranceExpiry.Valid {
		cab.InsuranceExpiry = insuranceExpiry.Time
	}
	return &cab, nil
}

// Ensure CabRepository implements repository.CabRepository.
var _ repository.CabRepository = (*CabRepository)(nil)
