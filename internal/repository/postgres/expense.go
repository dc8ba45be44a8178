package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleetops/internal/domain"
	"fleetops/internal/repository"
)

// ExpenseRepository is a PostgreSQL implementation of repository.ExpenseRepository.
type ExpenseRepository struct {
	q Querier
}

// NewExpenseRepository creates a new PostgreSQL expense repository.
func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{q: db}
}

const expenseColumns = `id, type, amount, driver_id, cab_number, created_at, updated_at`

// Create persists a new expense entry.
func (r *ExpenseRepository) Create(ctx context.Context, e *domain.ExpenseEntry) error {
	query := `INSERT INTO expenses (` + expenseColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.ExecContext(ctx, query, e.ID, e.Type, e.Amount, e.DriverID, e.CabNumber, e.CreatedAt, e.UpdatedAt)
	return translateError(err)
}

// GetByID retrieves an expense entry by ID.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*domain.ExpenseEntry, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Update updates an existing expense entry.
func (r *ExpenseRepository) Update(ctx context.Context, e *domain.ExpenseEntry) error {
	query := `
		UPDATE expenses
		SET type = $1, amount = $2, driver_id = $3, cab_number = $4, updated_at = $5
		WHERE id = $6
	`
	return execAffected(ctx, r.q, query, e.Type, e.Amount, e.DriverID, e.CabNumber, e.UpdatedAt, e.ID)
}

// Delete removes an expense entry.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	return execAffected(ctx, r.q, `DELETE FROM expenses WHERE id = $1`, id)
}

// ListByDriverID retrieves the expense entries recorded for a driver.
func (r *ExpenseRepository) ListByDriverID(ctx context.Context, driverID string) ([]*domain.ExpenseEntry, error) {
	return r.list(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE driver_id = $1 ORDER BY created_at DESC`, driverID)
}

// ListByCabNumber retrieves the expense entries recorded against a cab.
func (r *ExpenseRepository) ListByCabNumber(ctx context.Context, cabNumber string) ([]*domain.ExpenseEntry, error) {
	return r.list(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE cab_number = $1 ORDER BY created_at DESC`, cabNumber)
}

func (r *ExpenseRepository) list(ctx context.Context, query string, arg string) ([]*domain.ExpenseEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*domain.ExpenseEntry
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func scanExpense(row rowScanner) (*domain.ExpenseEntry, error) {
	var e domain.ExpenseEntry
	if err := row.Scan(&e.ID, &e.Type, &e.Amount, &e.DriverID, &e.CabNumber, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// Ensure ExpenseRepository implements repository.ExpenseRepository.
var _ repository.ExpenseRepository = (*ExpenseRepository)(nil)
