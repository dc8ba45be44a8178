package postgres

import (
	"context"
	"database/sql"

	"fleetops/internal/domain"
	"fleetops/internal/repository"
)

// AnalyticsRepository is a PostgreSQL implementation of repository.AnalyticsRepository.
type AnalyticsRepository struct {
	q Querier
}

// NewAnalyticsRepository creates a new PostgreSQL analytics repository.
func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{q: db}
}

// Create appends a snapshot.
func (r *AnalyticsRepository) Create(ctx context.Context, s *domain.AnalyticsSnapshot) error {
	query := `
		INSERT INTO analytics_snapshots (id, total_rides, revenue, customer_satisfaction, fleet_utilization, date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query, s.ID, s.TotalRides, s.Revenue, s.CustomerSatisfaction, s.FleetUtilization, s.Date)
	return translateError(err)
}

// Latest retrieves up to limit snapshots, newest first.
func (r *AnalyticsRepository) Latest(ctx context.Context, limit int) ([]*domain.AnalyticsSnapshot, error) {
	query := `
		SELECT id, total_rides, revenue, customer_satisfaction, fleet_utilization, date
		FROM analytics_snapshots
		ORDER BY date DESC
		LIMIT $1
	`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.AnalyticsSnapshot
	for rows.Next() {
		var s domain.AnalyticsSnapshot
		if err := rows.Scan(&s.ID, &s.TotalRides, &s.Revenue, &s.CustomerSatisfaction, &s.FleetUtilization, &s.Date); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

// Ensure AnalyticsRepository implements repository.AnalyticsRepository.
var _ repository.AnalyticsRepository = (*AnalyticsRepository)(nil)
