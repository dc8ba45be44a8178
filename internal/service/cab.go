package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleetops/internal/domain"
	"fleetops/internal/logging"
	internalRedis "fleetops/internal/redis"
	"fleetops/internal/repository"
)

// CabService handles cab records and their cache entries.
type CabService struct {
	cabs  repository.CabRepository
	cache *cacheAside
	log   logrus.FieldLogger
}

// NewCabService creates a new CabService.
func NewCabService(cabs repository.CabRepository, cacheStore internalRedis.CacheStoreInterface, log logrus.FieldLogger) *CabService {
	return &CabService{
		cabs:  cabs,
		cache: newCacheAside(cacheStore, log),
		log:   log,
	}
}

// lookupCab resolves ref, a cab ID or plate number, through cab:<ref>.
func lookupCab(ctx context.Context, cache *cacheAside, cabs repository.CabRepository, ref string) (*domain.Cab, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrInvalidCabRef
	}

	cab, err := readThrough(ctx, cache, internalRedis.CabKey(ref), internalRedis.CabTTL,
		func(ctx context.Context) (*domain.Cab, error) {
			if _, err := uuid.Parse(ref); err == nil {
				return cabs.GetByID(ctx, ref)
			}
			return cabs.GetByNumber(ctx, ref)
		})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCabNotFound
		}
		return nil, err
	}
	return cab, nil
}

// GetCab retrieves a cab by ID or plate number.
func (s *CabService) GetCab(ctx context.Context, ref string) (*domain.Cab, error) {
	return lookupCab(ctx, s.cache, s.cabs, ref)
}

// ListCabs retrieves the cabs owned by adminID.
func (s *CabService) ListCabs(ctx context.Context, adminID string) ([]*domain.Cab, error) {
	if adminID == "" {
		return nil, ErrInvalidAdminID
	}

	return readThrough(ctx, s.cache, internalRedis.CabListKey(adminID), internalRedis.CabListTTL,
		func(ctx context.Context) ([]*domain.Cab, error) {
			cabs, err := s.cabs.ListByAddedBy(ctx, adminID)
			if cabs == nil && err == nil {
				cabs = []*domain.Cab{}
			}
			return cabs, err
		})
}

// CreateCabRequest contains the parameters for registering a cab.
type CreateCabRequest struct {
	CabNumber          string
	InsuranceNumber    string
	InsuranceExpiry    time.Time
	RegistrationNumber string
	CabImage           string
	AddedBy            string
}

// CreateCab registers a cab owned by req.AddedBy.
func (s *CabService) CreateCab(ctx context.Context, req CreateCabRequest) (*domain.Cab, error) {
	number := strings.TrimSpace(req.CabNumber)
	if number == "" {
		return nil, ErrInvalidCabNumber
	}
	if req.AddedBy == "" {
		return nil, ErrInvalidAdminID
	}

	now := time.Now().UTC()
	cab := &domain.Cab{
		ID:                 uuid.New().String(),
		CabNumber:          number,
		InsuranceNumber:    req.InsuranceNumber,
		InsuranceExpiry:    req.InsuranceExpiry,
		RegistrationNumber: req.RegistrationNumber,
		CabImage:           req.CabImage,
		AddedBy:            req.AddedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.cabs.Create(ctx, cab); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCabNumberTaken
		}
		return nil, err
	}

	s.cache.invalidate(ctx, internalRedis.Mutation{Kind: internalRedis.CabCreated, AdminID: cab.AddedBy})
	logging.Action(s.log, "create cab").WithFields(logrus.Fields{
		"cab_id":     cab.ID,
		"cab_number": cab.CabNumber,
	}).Info("cab created")

	return cab, nil
}

// UpdateCabRequest carries the metadata fields to change. Nil fields are kept.
type UpdateCabRequest struct {
	InsuranceNumber    *string
	InsuranceExpiry    *time.Time
	RegistrationNumber *string
	CabImage           *string
}

// UpdateCab changes cab metadata. Only the owner or a super-admin may do so.
func (s *CabService) UpdateCab(ctx context.Context, id string, req UpdateCabRequest, actor domain.Actor) (*domain.Cab, error) {
	cab, err := s.ownedCab(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if req.InsuranceNumber != nil {
		cab.InsuranceNumber = *req.InsuranceNumber
	}
	if req.InsuranceExpiry != nil {
		cab.InsuranceExpiry = *req.InsuranceExpiry
	}
	if req.RegistrationNumber != nil {
		cab.RegistrationNumber = *req.RegistrationNumber
	}
	if req.CabImage != nil {
		cab.CabImage = *req.CabImage
	}
	cab.UpdatedAt = time.Now().UTC()

	if err := s.cabs.Update(ctx, cab); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCabNotFound
		}
		return nil, err
	}

	s.cache.invalidate(ctx, internalRedis.Mutation{
		Kind:    internalRedis.CabUpdated,
		AdminID: cab.AddedBy,
		Cab:     internalRedis.CabRef{ID: cab.ID, Number: cab.CabNumber},
	})
	return cab, nil
}

// DeleteCab removes a cab. Assignments referencing it are left in place and
// drop out of admin listings.
func (s *CabService) DeleteCab(ctx context.Context, id string, actor domain.Actor) error {
	cab, err := s.ownedCab(ctx, id, actor)
	if err != nil {
		return err
	}

	if err := s.cabs.Delete(ctx, cab.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCabNotFound
		}
		return err
	}

	s.cache.invalidate(ctx, internalRedis.Mutation{
		Kind:    internalRedis.CabDeleted,
		AdminID: cab.AddedBy,
		Cab:     internalRedis.CabRef{ID: cab.ID, Number: cab.CabNumber},
	})
	logging.Action(s.log, "delete cab").WithField("cab_id", cab.ID).Info("cab deleted")
	return nil
}

// ownedCab loads a cab straight from the store and checks the actor may change it.
func (s *CabService) ownedCab(ctx context.Context, id string, actor domain.Actor) (*domain.Cab, error) {
	if id == "" {
		return nil, ErrInvalidCabRef
	}

	cab, err := s.cabs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCabNotFound
		}
		return nil, err
	}

	if cab.AddedBy != actor.ID && !actor.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	return cab, nil
}
