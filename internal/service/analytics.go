package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleetops/internal/domain"
	internalRedis "fleetops/internal/redis"
	"fleetops/internal/repository"
)

// latestAnalyticsLimit is the number of snapshots served by LatestAnalytics.
const latestAnalyticsLimit = 10

// AnalyticsService handles the analytics time series.
type AnalyticsService struct {
	snapshots repository.AnalyticsRepository
	cache     *cacheAside
	log       logrus.FieldLogger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(snapshots repository.AnalyticsRepository, cacheStore internalRedis.CacheStoreInterface, log logrus.FieldLogger) *AnalyticsService {
	return &AnalyticsService{
		snapshots: snapshots,
		cache:     newCacheAside(cacheStore, log),
		log:       log,
	}
}

// AddAnalyticsRequest contains one set of fleet metrics.
type AddAnalyticsRequest struct {
	TotalRides           int
	Revenue              float64
	CustomerSatisfaction float64
	FleetUtilization     float64
	// Date defaults to now.
	Date time.Time
}

// AddAnalytics appends a snapshot to the time series.
func (s *AnalyticsService) AddAnalytics(ctx context.Context, req AddAnalyticsRequest) (*domain.AnalyticsSnapshot, error) {
	if req.TotalRides < 0 || req.Revenue < 0 || req.CustomerSatisfaction < 0 || req.FleetUtilization < 0 {
		return nil, ErrInvalidAnalytics
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	snapshot := &domain.AnalyticsSnapshot{
		ID:                   uuid.New().String(),
		TotalRides:           req.TotalRides,
		Revenue:              req.Revenue,
		CustomerSatisfaction: req.CustomerSatisfaction,
		FleetUtilization:     req.FleetUtilization,
		Date:                 date,
	}

	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		s.log.WithError(err).Error("failed to store analytics snapshot")
		return nil, err
	}

	s.cache.invalidate(ctx, internalRedis.Mutation{Kind: internalRedis.AnalyticsAdded})
	return snapshot, nil
}

// LatestAnalytics returns the newest snapshots, newest first.
func (s *AnalyticsService) LatestAnalytics(ctx context.Context) ([]*domain.AnalyticsSnapshot, error) {
	return readThrough(ctx, s.cache, internalRedis.LatestAnalyticsKey, internalRedis.AnalyticsTTL,
		func(ctx context.Context) ([]*domain.AnalyticsSnapshot, error) {
			return nonNil(s.snapshots.Latest(ctx, latestAnalyticsLimit))
		})
}
