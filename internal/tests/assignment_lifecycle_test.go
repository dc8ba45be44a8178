package tests

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/domain"
	"fleetops/internal/events"
	internalRedis "fleetops/internal/redis"
	"fleetops/internal/service"
)

// ──────────────────────────────────────────────
// 1. CREATION
// ──────────────────────────────────────────────

func TestCreateAssignment_ByCabNumber_Succeeds(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	cab := f.addCab("KA01AB1234", "a1")

	a, err := f.assignmentService.CreateAssignment(context.Background(), service.CreateAssignmentRequest{
		DriverID:   "d1",
		CabRef:     "KA01AB1234",
		AssignedBy: "a1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, domain.AssignmentStatusAssigned, a.Status)
	assert.Equal(t, cab.ID, a.CabID)
	assert.Equal(t, "a1", a.AssignedBy)
	assert.Contains(t, f.cache.Deleted(), "assignedCabs:a1")
	assert.Equal(t, []events.EventType{events.AssignmentCreated}, f.publisher.Types())
}

func TestCreateAssignment_ByCabID_PopulatesCabCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	cab := f.addCab("KA01AB1234", "a1")

	_, err := f.assignmentService.CreateAssignment(context.Background(), service.CreateAssignmentRequest{
		DriverID:   "d1",
		CabRef:     cab.ID,
		AssignedBy: "a1",
	})
	require.NoError(t, err)

	key := internalRedis.CabKey(cab.ID)
	assert.True(t, f.cache.Has(key))
	assert.Equal(t, internalRedis.CabTTL, f.cache.TTL(key))
}

func TestCreateAssignment_CabServedFromCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	f.addDriver("d2", "a1")
	cab := f.addCab("KA01AB1234", "a1")
	f.cache.Put(internalRedis.CabKey("KA01AB1234"), cab)

	_, err := f.assignmentService.CreateAssignment(context.Background(), service.CreateAssignmentRequest{
		DriverID: "d1", CabRef: "KA01AB1234", AssignedBy: "a1",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), f.cabs.GetCallCount, "cab lookup should hit the cache")
}

func TestCreateAssignment_ValidationErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		req     service.CreateAssignmentRequest
		wantErr error
	}{
		{
			name:    "missing driver",
			req:     service.CreateAssignmentRequest{CabRef: "KA01", AssignedBy: "a1"},
			wantErr: service.ErrInvalidDriverID,
		},
		{
			name:    "missing cab",
			req:     service.CreateAssignmentRequest{DriverID: "d1", AssignedBy: "a1"},
			wantErr: service.ErrInvalidCabRef,
		},
		{
			name:    "missing assigning admin",
			req:     service.CreateAssignmentRequest{DriverID: "d1", CabRef: "KA01"},
			wantErr: service.ErrInvalidAssignedBy,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.assignmentService.CreateAssignment(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, service.KindValidation, service.Kind(err))
		})
	}
}

func TestCreateAssignment_UnknownReferences_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	f.addCab("KA01", "a1")

	_, err := f.assignmentService.CreateAssignment(context.Background(), service.CreateAssignmentRequest{
		DriverID: "d1", CabRef: "NOPE", AssignedBy: "a1",
	})
	assert.ErrorIs(t, err, service.ErrCabNotFound)
	assert.Equal(t, service.KindNotFound, service.Kind(err))

	_, err = f.assignmentService.CreateAssignment(context.Background(), service.CreateAssignmentRequest{
		DriverID: "ghost", CabRef: "KA01", AssignedBy: "a1",
	})
	assert.ErrorIs(t, err, service.ErrDriverNotFound)
	assert.Equal(t, 0, f.assignments.Count())
}

func TestCreateAssignment_DriverOrCabBusy_Conflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	f.addDriver("d2", "a1")
	f.addCab("C1", "a1")
	f.addCab("C2", "a1")

	ctx := context.Background()
	_, err := f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "d1", CabRef: "C1", AssignedBy: "a1"})
	require.NoError(t, err)

	_, err = f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "d1", CabRef: "C2", AssignedBy: "a2"})
	assert.ErrorIs(t, err, service.ErrDriverHasActiveAssignment)
	assert.Equal(t, service.KindConflict, service.Kind(err))

	_, err = f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "d2", CabRef: "C1", AssignedBy: "a1"})
	assert.ErrorIs(t, err, service.ErrCabHasActiveAssignment)
	assert.Equal(t, service.KindConflict, service.Kind(err))
}

// ──────────────────────────────────────────────
// 2. CONCURRENT CREATION
// ──────────────────────────────────────────────

func TestCreateAssignment_ConcurrentSameDriver_OnlyOneSucceeds(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")

	const numRequests = 20
	for i := 0; i < numRequests; i++ {
		f.addCab(fmt.Sprintf("CAB-%02d", i), "a1")
	}

	var wg sync.WaitGroup
	results := make(chan error, numRequests)
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.assignmentService.CreateAssignment(context.Background(), service.CreateAssignmentRequest{
				DriverID:   "d1",
				CabRef:     fmt.Sprintf("CAB-%02d", i),
				AssignedBy: "a1",
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.Equal(t, service.KindConflict, service.Kind(err), "unexpected error: %v", err)
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, f.assignments.ActiveCount(func(a *domain.Assignment) bool { return a.DriverID == "d1" }))
}

func TestCreateAssignment_ConcurrentSameCab_OnlyOneSucceeds(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cab := f.addCab("C1", "a1")

	const numRequests = 20
	for i := 0; i < numRequests; i++ {
		f.addDriver(fmt.Sprintf("d%02d", i), "a1")
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.assignmentService.CreateAssignment(context.Background(), service.CreateAssignmentRequest{
				DriverID:   fmt.Sprintf("d%02d", i),
				CabRef:     "C1",
				AssignedBy: "a1",
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, f.assignments.ActiveCount(func(a *domain.Assignment) bool { return a.CabID == cab.ID }))
}

// ──────────────────────────────────────────────
// 3. COMPLETION AND REASSIGNMENT
// ──────────────────────────────────────────────

func TestScenario_ConflictThenCompleteThenReassign(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("D1", "admin-1")
	f.addCab("C1", "admin-1")
	f.addCab("C2", "admin-2")
	ctx := context.Background()

	first, err := f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "D1", CabRef: "C1", AssignedBy: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusAssigned, first.Status)

	_, err = f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "D1", CabRef: "C2", AssignedBy: "admin-2"})
	assert.Equal(t, service.KindConflict, service.Kind(err))

	completed, err := f.assignmentService.CompleteAssignment(ctx, first.ID, adminActor("admin-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusCompleted, completed.Status)

	second, err := f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "D1", CabRef: "C2", AssignedBy: "admin-2"})
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusAssigned, second.Status)
}

func TestCompleteAssignment_IsTerminalAndIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	f.addCab("C1", "a1")
	ctx := context.Background()

	a, err := f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "d1", CabRef: "C1", AssignedBy: "a1"})
	require.NoError(t, err)

	_, err = f.assignmentService.CompleteAssignment(ctx, a.ID, driverActor("d1"))
	require.NoError(t, err)

	again, err := f.assignmentService.CompleteAssignment(ctx, a.ID, adminActor("a1"))
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusCompleted, again.Status)

	_, err = f.assignmentService.UpdateTripDetails(ctx, service.UpdateTripDetailsRequest{
		DriverID: "d1",
		Fields:   map[string]string{"fuel": `{"amount": 100}`},
	})
	assert.ErrorIs(t, err, service.ErrNoActiveAssignment)
	assert.Equal(t, service.KindNotFound, service.Kind(err))

	stored, err := f.assignments.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusCompleted, stored.Status)
	assert.Nil(t, stored.TripDetails.Fuel)

	// Only the first completion is announced.
	assert.Equal(t, []events.EventType{events.AssignmentCreated, events.AssignmentCompleted}, f.publisher.Types())
}

func TestCompleteAssignment_OtherDriver_Forbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	f.addCab("C1", "a1")

	a, err := f.assignmentService.CreateAssignment(context.Background(), service.CreateAssignmentRequest{DriverID: "d1", CabRef: "C1", AssignedBy: "a1"})
	require.NoError(t, err)

	_, err = f.assignmentService.CompleteAssignment(context.Background(), a.ID, driverActor("d2"))
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestCompleteAssignment_Unknown_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.assignmentService.CompleteAssignment(context.Background(), "missing", adminActor("a1"))
	assert.ErrorIs(t, err, service.ErrAssignmentNotFound)
}

// ──────────────────────────────────────────────
// 4. UNASSIGN
// ──────────────────────────────────────────────

func TestUnassign_Authorization(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		actor   domain.Actor
		wantErr error
	}{
		{name: "owner", actor: adminActor("a1")},
		{name: "super-admin", actor: superAdminActor("root")},
		{name: "other admin", actor: adminActor("a2"), wantErr: service.ErrForbidden},
		{name: "driver", actor: driverActor("d1"), wantErr: service.ErrForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.addDriver("d1", "a1")
			f.addCab("C1", "a1")
			ctx := context.Background()

			a, err := f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "d1", CabRef: "C1", AssignedBy: "a1"})
			require.NoError(t, err)

			err = f.assignmentService.UnassignAssignment(ctx, a.ID, tc.actor)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, 1, f.assignments.Count())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, f.assignments.Count())
			assert.Contains(t, f.cache.Deleted(), "assignedCabs:a1")
		})
	}
}

func TestUnassign_CompletedAssignment_Conflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	cab := f.addCab("C1", "a1")
	a := f.addTrip("d1", cab.ID, "a1", domain.AssignmentStatusCompleted, domain.TripDetails{})

	err := f.assignmentService.UnassignAssignment(context.Background(), a.ID, adminActor("a1"))
	assert.ErrorIs(t, err, service.ErrAssignmentCompleted)
	assert.Equal(t, service.KindConflict, service.Kind(err))
	assert.Equal(t, 1, f.assignments.Count())
}

func TestUnassign_FreesDriverAndCab(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	f.addCab("C1", "a1")
	ctx := context.Background()

	a, err := f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "d1", CabRef: "C1", AssignedBy: "a1"})
	require.NoError(t, err)
	require.NoError(t, f.assignmentService.UnassignAssignment(ctx, a.ID, adminActor("a1")))

	_, err = f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "d1", CabRef: "C1", AssignedBy: "a1"})
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────
// 5. LISTINGS
// ──────────────────────────────────────────────

func TestListAssignmentsForAdmin_JoinsAndDropsMissingCabs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	f.addDriver("d2", "a1")
	cab := f.addCab("C1", "a1")
	f.addTrip("d1", cab.ID, "a1", domain.AssignmentStatusCompleted, domain.TripDetails{})
	f.addTrip("d2", "deleted-cab", "a1", domain.AssignmentStatusAssigned, domain.TripDetails{})
	f.addTrip("d2", cab.ID, "other-admin", domain.AssignmentStatusAssigned, domain.TripDetails{})

	views, err := f.assignmentService.ListAssignmentsForAdmin(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "C1", views[0].Cab.CabNumber)
	require.NotNil(t, views[0].Driver)
	assert.Equal(t, "d1", views[0].Driver.ID)
	assert.Equal(t, internalRedis.AssignedCabsTTL, f.cache.TTL("assignedCabs:a1"))
}

func TestListAssignmentsForAdmin_Empty_ReturnsEmptyList(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	views, err := f.assignmentService.ListAssignmentsForAdmin(context.Background(), "a1")
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestListAssignmentsForDriver_OnlyActive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	old := f.addCab("C0", "a1")
	current := f.addCab("C1", "a1")
	f.addTrip("d1", old.ID, "a1", domain.AssignmentStatusCompleted, domain.TripDetails{})
	f.addTrip("d1", current.ID, "a1", domain.AssignmentStatusAssigned, domain.TripDetails{})

	views, err := f.assignmentService.ListAssignmentsForDriver(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, current.ID, views[0].CabID)
	assert.True(t, f.cache.Has("driverAssignments:d1"))
}

func TestListAssignmentsForDriver_NoneActive_NotFoundAndNotCached(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	cab := f.addCab("C0", "a1")
	f.addTrip("d1", cab.ID, "a1", domain.AssignmentStatusCompleted, domain.TripDetails{})

	_, err := f.assignmentService.ListAssignmentsForDriver(context.Background(), "d1")
	assert.ErrorIs(t, err, service.ErrNoActiveAssignment)
	assert.False(t, f.cache.Has("driverAssignments:d1"))
}

func TestListAssignmentsForDriver_CabDeleted_StillListed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.addDriver("d1", "a1")
	f.addCab("C1", "a1")

	a, err := f.assignmentService.CreateAssignment(ctx, service.CreateAssignmentRequest{DriverID: "d1", CabRef: "C1", AssignedBy: "a1"})
	require.NoError(t, err)
	require.NoError(t, f.cabs.Delete(ctx, a.CabID))

	views, err := f.assignmentService.ListAssignmentsForDriver(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, a.ID, views[0].ID)
	assert.Nil(t, views[0].Cab)

	_, err = f.assignmentService.UpdateTripDetails(ctx, service.UpdateTripDetailsRequest{
		DriverID: "d1",
		Fields:   map[string]string{"fastTag": `{"amount": 20}`},
	})
	require.NoError(t, err)
}
