package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleetops/internal/accumulator"
	"fleetops/internal/domain"
	"fleetops/internal/events"
	"fleetops/internal/logging"
	internalRedis "fleetops/internal/redis"
	"fleetops/internal/repository"
)

// defaultUpdateAttempts bounds optimistic retries when none is configured.
const defaultUpdateAttempts = 3

// AssignmentService owns the cab assignment lifecycle.
type AssignmentService struct {
	assignments    repository.AssignmentRepository
	cabs           repository.CabRepository
	drivers        repository.DriverRepository
	cache          *cacheAside
	publisher      events.Publisher
	log            logrus.FieldLogger
	updateAttempts int
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	cabs repository.CabRepository,
	drivers repository.DriverRepository,
	cacheStore internalRedis.CacheStoreInterface,
	publisher events.Publisher,
	log logrus.FieldLogger,
	updateAttempts int,
) *AssignmentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if updateAttempts < 1 {
		updateAttempts = defaultUpdateAttempts
	}
	return &AssignmentService{
		assignments:    assignments,
		cabs:           cabs,
		drivers:        drivers,
		cache:          newCacheAside(cacheStore, log),
		publisher:      publisher,
		log:            log,
		updateAttempts: updateAttempts,
	}
}

// CreateAssignmentRequest contains the parameters for assigning a cab to a driver.
type CreateAssignmentRequest struct {
	DriverID string
	// CabRef is either the cab ID or its plate number.
	CabRef     string
	AssignedBy string
}

// CreateAssignment binds a driver and a cab. The pre-checks only give a
// precise message; the partial unique indexes in the store decide races.
func (s *AssignmentService) CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (*domain.Assignment, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.CabRef == "" {
		return nil, ErrInvalidCabRef
	}
	if req.AssignedBy == "" {
		return nil, ErrInvalidAssignedBy
	}

	log := logging.Action(s.log, "create assignment").WithFields(logrus.Fields{
		"driver_id":   req.DriverID,
		"cab_ref":     req.CabRef,
		"assigned_by": req.AssignedBy,
	})

	cab, err := lookupCab(ctx, s.cache, s.cabs, req.CabRef)
	if err != nil {
		return nil, err
	}

	if _, err := s.drivers.GetByID(ctx, req.DriverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}

	existing, err := s.assignments.GetActiveByDriverID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDriverHasActiveAssignment
	}

	existing, err = s.assignments.GetActiveByCabID(ctx, cab.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCabHasActiveAssignment
	}

	now := time.Now().UTC()
	assignment := &domain.Assignment{
		ID:         uuid.New().String(),
		DriverID:   req.DriverID,
		CabID:      cab.ID,
		AssignedBy: req.AssignedBy,
		Status:     domain.AssignmentStatusAssigned,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.assignments.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.WithError(err).Info("lost assignment race")
			return nil, ErrAssignmentConflict
		}
		log.WithError(err).Error("failed to store assignment")
		return nil, err
	}

	s.afterWrite(ctx, internalRedis.AssignmentCreated, events.AssignmentCreated, assignment, nil)
	log.WithField("assignment_id", assignment.ID).Info("cab assigned")

	return assignment, nil
}

// UpdateTripDetailsRequest carries one driver submission.
type UpdateTripDetailsRequest struct {
	DriverID string
	// Fields holds raw form values keyed by category name.
	Fields map[string]string
	Files  accumulator.Files
}

// UpdateTripDetails merges a submission into the caller's active assignment.
// The read-modify-write is guarded by the assignment version and retried a
// bounded number of times, so concurrent appends are never lost.
func (s *AssignmentService) UpdateTripDetails(ctx context.Context, req UpdateTripDetailsRequest) (*domain.Assignment, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	log := logging.Action(s.log, "update trip details").WithField("driver_id", req.DriverID)

	for attempt := 1; attempt <= s.updateAttempts; attempt++ {
		assignment, err := s.assignments.GetActiveByDriverID(ctx, req.DriverID)
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			return nil, ErrNoActiveAssignment
		}

		merged, touched := accumulator.Apply(assignment.TripDetails, req.Fields, req.Files)
		if len(touched) == 0 {
			return nil, ErrEmptyTripUpdate
		}
		assignment.TripDetails = merged

		err = s.assignments.Update(ctx, assignment)
		if errors.Is(err, repository.ErrVersionConflict) {
			log.WithField("attempt", attempt).Debug("trip details changed concurrently, retrying")
			continue
		}
		if err != nil {
			log.WithError(err).Error("failed to store trip details")
			return nil, err
		}

		s.afterWrite(ctx, internalRedis.TripDetailsUpdated, events.TripDetailsUpdated, assignment, touched)
		log.WithFields(logrus.Fields{
			"assignment_id": assignment.ID,
			"categories":    touched,
		}).Info("trip details updated")

		return assignment, nil
	}

	log.Warn("giving up on trip details update after repeated version conflicts")
	return nil, ErrConcurrentTripUpdate
}

// CompleteAssignment marks an assignment completed. Completing a completed
// assignment is a no-op. A driver may only complete their own assignment.
func (s *AssignmentService) CompleteAssignment(ctx context.Context, id string, actor domain.Actor) (*domain.Assignment, error) {
	if id == "" {
		return nil, ErrInvalidAssignmentID
	}

	log := logging.Action(s.log, "complete assignment").WithField("assignment_id", id)

	for attempt := 1; attempt <= s.updateAttempts; attempt++ {
		assignment, err := s.getAssignment(ctx, id)
		if err != nil {
			return nil, err
		}
		if actor.Role == domain.RoleDriver && assignment.DriverID != actor.ID {
			return nil, ErrForbidden
		}
		if !assignment.IsActive() {
			return assignment, nil
		}

		assignment.Status = domain.AssignmentStatusCompleted
		err = s.assignments.Update(ctx, assignment)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			log.WithError(err).Error("failed to complete assignment")
			return nil, err
		}

		s.afterWrite(ctx, internalRedis.AssignmentCompleted, events.AssignmentCompleted, assignment, nil)
		log.Info("assignment completed")
		return assignment, nil
	}

	return nil, ErrConcurrentTripUpdate
}

// UnassignAssignment deletes an active assignment. Only the admin who made
// the assignment or a super-admin may do so.
func (s *AssignmentService) UnassignAssignment(ctx context.Context, id string, actor domain.Actor) error {
	if id == "" {
		return ErrInvalidAssignmentID
	}

	assignment, err := s.getAssignment(ctx, id)
	if err != nil {
		return err
	}

	if assignment.AssignedBy != actor.ID && !actor.IsSuperAdmin() {
		return ErrForbidden
	}
	if !assignment.IsActive() {
		return ErrAssignmentCompleted
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.afterWrite(ctx, internalRedis.AssignmentUnassigned, events.AssignmentUnassigned, assignment, nil)
	logging.Action(s.log, "unassign cab").WithFields(logrus.Fields{
		"assignment_id": id,
		"actor_id":      actor.ID,
	}).Info("cab unassigned")

	return nil
}

// ListAssignmentsForAdmin returns every assignment made by adminID.
func (s *AssignmentService) ListAssignmentsForAdmin(ctx context.Context, adminID string) ([]*domain.AssignmentView, error) {
	if adminID == "" {
		return nil, ErrInvalidAdminID
	}

	return readThrough(ctx, s.cache, internalRedis.AssignedCabsKey(adminID), internalRedis.AssignedCabsTTL,
		func(ctx context.Context) ([]*domain.AssignmentView, error) {
			views, err := s.assignments.ListByAssignedBy(ctx, adminID)
			if views == nil && err == nil {
				views = []*domain.AssignmentView{}
			}
			return views, err
		})
}

// ListAssignmentsForDriver returns the driver's active assignments. An empty
// result is reported as ErrNoActiveAssignment and is not cached.
func (s *AssignmentService) ListAssignmentsForDriver(ctx context.Context, driverID string) ([]*domain.AssignmentView, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	key := internalRedis.DriverAssignmentsKey(driverID)

	var cached []*domain.AssignmentView
	if s.cache.get(ctx, key, &cached) && len(cached) > 0 {
		return cached, nil
	}

	views, err := s.assignments.ListActiveByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNoActiveAssignment
	}

	s.cache.set(ctx, key, views, internalRedis.DriverAssignmentsTTL)
	return views, nil
}

func (s *AssignmentService) getAssignment(ctx context.Context, id string) (*domain.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

// afterWrite invalidates derived cache keys and announces the transition.
// Neither step can fail the already committed write.
func (s *AssignmentService) afterWrite(
	ctx context.Context,
	kind internalRedis.MutationKind,
	eventType events.EventType,
	a *domain.Assignment,
	touched []domain.TripCategory,
) {
	s.cache.invalidate(ctx, internalRedis.Mutation{
		Kind:     kind,
		AdminID:  a.AssignedBy,
		DriverID: a.DriverID,
		Cab:      internalRedis.CabRef{ID: a.CabID},
	})

	event := events.NewEvent(eventType, a)
	event.Categories = touched
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithField("assignment_id", a.ID).Warn("failed to publish assignment event")
	}
}
