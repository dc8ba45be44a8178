package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"fleetops/internal/logging"
	internalRedis "fleetops/internal/redis"
	"fleetops/internal/repository"
)

// AdminService handles sub-admin removal.
type AdminService struct {
	admins      repository.AdminRepository
	assignments repository.AssignmentRepository
	cabs        repository.CabRepository
	drivers     repository.DriverRepository
	cache       *cacheAside
	log         logrus.FieldLogger
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	admins repository.AdminRepository,
	assignments repository.AssignmentRepository,
	cabs repository.CabRepository,
	drivers repository.DriverRepository,
	cacheStore internalRedis.CacheStoreInterface,
	log logrus.FieldLogger,
) *AdminService {
	return &AdminService{
		admins:      admins,
		assignments: assignments,
		cabs:        cabs,
		drivers:     drivers,
		cache:       newCacheAside(cacheStore, log),
		log:         log,
	}
}

// CascadeResult reports what a sub-admin deletion removed. Failures lists
// the related steps that did not complete; they are not rolled back.
type CascadeResult struct {
	AdminID            string   `json:"adminId"`
	AssignmentsDeleted int64    `json:"assignmentsDeleted"`
	CabsDeleted        int64    `json:"cabsDeleted"`
	DriversDeleted     int64    `json:"driversDeleted"`
	Failures           []string `json:"failures,omitempty"`
}

// DeleteSubAdmin removes a sub-admin and then every assignment, cab and
// driver they own. The call succeeds once the admin record is gone even if
// some related deletions fail.
func (s *AdminService) DeleteSubAdmin(ctx context.Context, adminID string) (*CascadeResult, error) {
	if adminID == "" {
		return nil, ErrInvalidAdminID
	}

	log := logging.Action(s.log, "delete sub-admin").WithField("admin_id", adminID)
	result := &CascadeResult{AdminID: adminID}

	// Owned records are listed first so their cache keys can still be
	// derived once the rows are gone.
	mutation := internalRedis.Mutation{Kind: internalRedis.SubAdminDeleted, AdminID: adminID}
	if cabs, err := s.cabs.ListByAddedBy(ctx, adminID); err != nil {
		log.WithError(err).Warn("failed to list owned cabs")
	} else {
		for _, cab := range cabs {
			mutation.OwnedCabs = append(mutation.OwnedCabs, internalRedis.CabRef{ID: cab.ID, Number: cab.CabNumber})
		}
	}
	if drivers, err := s.drivers.ListByAddedBy(ctx, adminID); err != nil {
		log.WithError(err).Warn("failed to list owned drivers")
	} else {
		for _, driver := range drivers {
			mutation.OwnedDrivers = append(mutation.OwnedDrivers, driver.ID)
		}
	}
	s.collectAssigned(ctx, log, adminID, &mutation)

	if err := s.admins.Delete(ctx, adminID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubAdminNotFound
		}
		log.WithError(err).Error("failed to delete sub-admin")
		return nil, err
	}

	steps := []struct {
		name  string
		count *int64
		run   func(context.Context, string) (int64, error)
	}{
		{"assignments", &result.AssignmentsDeleted, s.assignments.DeleteByAssignedBy},
		{"cabs", &result.CabsDeleted, s.cabs.DeleteByAddedBy},
		{"drivers", &result.DriversDeleted, s.drivers.DeleteByAddedBy},
	}
	for _, step := range steps {
		n, err := step.run(ctx, adminID)
		if err != nil {
			log.WithError(err).WithField("step", step.name).Error("cascade step failed")
			result.Failures = append(result.Failures, step.name)
			continue
		}
		*step.count = n
	}

	s.cache.invalidate(ctx, mutation)
	log.WithFields(logrus.Fields{
		"assignments": result.AssignmentsDeleted,
		"cabs":        result.CabsDeleted,
		"drivers":     result.DriversDeleted,
		"failures":    result.Failures,
	}).Info("sub-admin deleted")

	return result, nil
}

// collectAssigned adds the drivers and cabs referenced by the admin's
// assignments, which may belong to other admins, to the mutation.
func (s *AdminService) collectAssigned(ctx context.Context, log logrus.FieldLogger, adminID string, mutation *internalRedis.Mutation) {
	assignments, err := s.assignments.GetAllByAssignedBy(ctx, adminID)
	if err != nil {
		log.WithError(err).Warn("failed to list assignments for cascade")
		return
	}

	owned := make(map[string]bool, len(mutation.OwnedCabs))
	for _, cab := range mutation.OwnedCabs {
		owned[cab.ID] = true
	}
	seen := make(map[string]bool)
	for _, a := range assignments {
		mutation.AssignedDrivers = append(mutation.AssignedDrivers, a.DriverID)
		if owned[a.CabID] || seen[a.CabID] {
			continue
		}
		seen[a.CabID] = true

		ref := internalRedis.CabRef{ID: a.CabID}
		if cab, err := s.cabs.GetByID(ctx, a.CabID); err == nil {
			ref.Number = cab.CabNumber
		}
		mutation.AssignedCabs = append(mutation.AssignedCabs, ref)
	}
}
