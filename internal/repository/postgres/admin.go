package postgres

import (
	"context"
	"database/sql"

	"fleetops/internal/domain"
	"fleetops/internal/repository"
)

// AdminRepository implements repository.AdminRepository using PostgreSQL.
type AdminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByID retrieves an admin by ID.
func (r *AdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	query := `SELECT id, name, email, role, status, created_at FROM admins WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var admin domain.Admin
	err := row.Scan(&admin.ID, &admin.Name, &admin.Email, &admin.Role, &admin.Status, &admin.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetAll retrieves all admins.
func (r *AdminRepository) GetAll(ctx context.Context) ([]*domain.Admin, error) {
	query := `SELECT id, name, email, role, status, created_at FROM admins ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []*domain.Admin
	for rows.Next() {
		var admin domain.Admin
		if err := rows.Scan(&admin.ID, &admin.Name, &admin.Email, &admin.Role, &admin.Status, &admin.CreatedAt); err != nil {
			return nil, err
		}
		admins = append(admins, &admin)
	}
	return admins, rows.Err()
}

// Delete removes an admin.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	return execAffected(ctx, r.db, `DELETE FROM admins WHERE id = $1`, id)
}

// Ensure AdminRepository implements repository.AdminRepository.
var _ repository.AdminRepository = (*AdminRepository)(nil)
