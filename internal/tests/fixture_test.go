package tests

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"fleetops/internal/domain"
	"fleetops/internal/service"
)

// fixture wires every service against in-memory stores.
type fixture struct {
	assignments *MockAssignmentRepository
	cabs        *MockCabRepository
	drivers     *MockDriverRepository
	admins      *MockAdminRepository
	expenses    *MockExpenseRepository
	analytics   *MockAnalyticsRepository
	cache       *MockCacheStore
	publisher   *RecordingPublisher
	logs        *logtest.Hook
	logger      *logrus.Logger

	assignmentService *service.AssignmentService
	cabService        *service.CabService
	expenseService    *service.ExpenseService
	aggregator        *service.AggregatorService
	analyticsService  *service.AnalyticsService
	adminService      *service.AdminService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithAttempts(t, 3)
}

func newFixtureWithAttempts(t *testing.T, updateAttempts int) *fixture {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		cabs:      NewMockCabRepository(),
		drivers:   NewMockDriverRepository(),
		admins:    NewMockAdminRepository(),
		expenses:  NewMockExpenseRepository(),
		analytics: NewMockAnalyticsRepository(),
		cache:     NewMockCacheStore(),
		publisher: &RecordingPublisher{},
		logs:      hook,
		logger:    logger,
	}
	f.assignments = NewMockAssignmentRepository(f.cabs, f.drivers)

	f.assignmentService = service.NewAssignmentService(f.assignments, f.cabs, f.drivers, f.cache, f.publisher, logger, updateAttempts)
	f.cabService = service.NewCabService(f.cabs, f.cache, logger)
	f.expenseService = service.NewExpenseService(f.expenses, f.cache, logger)
	f.aggregator = service.NewAggregatorService(f.assignments, f.cabs, f.drivers, f.admins, f.cache, logger)
	f.analyticsService = service.NewAnalyticsService(f.analytics, f.cache, logger)
	f.adminService = service.NewAdminService(f.admins, f.assignments, f.cabs, f.drivers, f.cache, logger)

	return f
}

func (f *fixture) addAdmin(id, name string) *domain.Admin {
	admin := &domain.Admin{ID: id, Name: name, Role: domain.RoleAdmin, Status: "active", CreatedAt: time.Now()}
	f.admins.AddAdmin(admin)
	return admin
}

func (f *fixture) addDriver(id, addedBy string) *domain.Driver {
	driver := &domain.Driver{ID: id, Name: "Driver " + id, Phone: "+91-" + id, AddedBy: addedBy, CreatedAt: time.Now()}
	f.drivers.AddDriver(driver)
	return driver
}

func (f *fixture) addCab(number, addedBy string) *domain.Cab {
	cab := &domain.Cab{ID: uuid.New().String(), CabNumber: number, AddedBy: addedBy, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.cabs.AddCab(cab)
	return cab
}

// addTrip stores an assignment with the given trip details, bypassing the
// lifecycle checks.
func (f *fixture) addTrip(driverID, cabID, assignedBy string, status domain.AssignmentStatus, trip domain.TripDetails) *domain.Assignment {
	a := &domain.Assignment{
		ID:          uuid.New().String(),
		DriverID:    driverID,
		CabID:       cabID,
		AssignedBy:  assignedBy,
		Status:      status,
		TripDetails: trip,
		Version:     1,
	}
	f.assignments.AddAssignment(a)
	return a
}

// warnings returns the messages logged at WARN.
func (f *fixture) warnings() []string {
	var msgs []string
	for _, e := range f.logs.AllEntries() {
		if e.Level == logrus.WarnLevel {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

func adminActor(id string) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleAdmin}
}

func superAdminActor(id string) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleSuperAdmin}
}

func driverActor(id string) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleDriver}
}
