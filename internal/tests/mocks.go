package tests

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"fleetops/internal/accumulator"
	"fleetops/internal/domain"
	"fleetops/internal/events"
	"fleetops/internal/redis"
	"fleetops/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Error injection
	DeleteByAddedByError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) ListByAddedBy(ctx context.Context, adminID string) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Driver
	for _, d := range m.drivers {
		if d.AddedBy == adminID {
			copy := *d
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockDriverRepository) CountByAddedBy(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, d := range m.drivers {
		counts[d.AddedBy]++
	}
	return counts, nil
}

func (m *MockDriverRepository) DeleteByAddedBy(ctx context.Context, adminID string) (int64, error) {
	if m.DeleteByAddedByError != nil {
		return 0, m.DeleteByAddedByError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.drivers {
		if d.AddedBy == adminID {
			delete(m.drivers, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored drivers.
func (m *MockDriverRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drivers)
}

// ──────────────────────────────────────────────
// MOCK CAB REPOSITORY
// ──────────────────────────────────────────────

// MockCabRepository is a mock implementation of CabRepository.
// Cab numbers are unique, as in the cabs table.
type MockCabRepository struct {
	mu   sync.RWMutex
	cabs map[string]*domain.Cab

	// Counters for verification
	GetCallCount int32

	// Error injection
	DeleteByAddedByError error
}

// NewMockCabRepository creates a new mock cab repository.
func NewMockCabRepository() *MockCabRepository {
	return &MockCabRepository{
		cabs: make(map[string]*domain.Cab),
	}
}

// AddCab adds a cab to the mock repository.
func (m *MockCabRepository) AddCab(cab *domain.Cab) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cabs[cab.ID] = cab
}

func (m *MockCabRepository) Create(ctx context.Context, cab *domain.Cab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cabs {
		if c.CabNumber == cab.CabNumber {
			return repository.ErrDuplicate
		}
	}
	copy := *cab
	m.cabs[cab.ID] = &copy
	return nil
}

func (m *MockCabRepository) GetByID(ctx context.Context, id string) (*domain.Cab, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	cab, ok := m.cabs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *cab
	return &copy, nil
}

func (m *MockCabRepository) GetByNumber(ctx context.Context, number string) (*domain.Cab, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.cabs {
		if c.CabNumber == number {
			copy := *c
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockCabRepository) GetAll(ctx context.Context) ([]*domain.Cab, error) {
	return m.filter(func(*domain.Cab) bool { return true }), nil
}

func (m *MockCabRepository) ListByAddedBy(ctx context.Context, adminID string) ([]*domain.Cab, error) {
	return m.filter(func(c *domain.Cab) bool { return c.AddedBy == adminID }), nil
}

func (m *MockCabRepository) CountByAddedBy(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, c := range m.cabs {
		counts[c.AddedBy]++
	}
	return counts, nil
}

func (m *MockCabRepository) Update(ctx context.Context, cab *domain.Cab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cabs[cab.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *cab
	m.cabs[cab.ID] = &copy
	return nil
}

func (m *MockCabRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cabs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.cabs, id)
	return nil
}

func (m *MockCabRepository) DeleteByAddedBy(ctx context.Context, adminID string) (int64, error) {
	if m.DeleteByAddedByError != nil {
		return 0, m.DeleteByAddedByError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.cabs {
		if c.AddedBy == adminID {
			delete(m.cabs, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored cabs.
func (m *MockCabRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cabs)
}

func (m *MockCabRepository) filter(keep func(*domain.Cab) bool) []*domain.Cab {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Cab
	for _, c := range m.cabs {
		if keep(c) {
			copy := *c
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CabNumber < result[j].CabNumber })
	return result
}

// ──────────────────────────────────────────────
// MOCK ASSIGNMENT REPOSITORY
// ──────────────────────────────────────────────

// MockAssignmentRepository is a mock implementation of AssignmentRepository.
// Like the cab_assignments table it allows one active assignment per driver
// and per cab, and guards updates with the version column.
type MockAssignmentRepository struct {
	mu          sync.RWMutex
	assignments map[string]*domain.Assignment
	seq         int64

	cabs    *MockCabRepository
	drivers *MockDriverRepository

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// ConflictingUpdates makes the next n updates fail with a version conflict.
	ConflictingUpdates int32

	// Error injection
	DeleteByAssignedByError error
}

// NewMockAssignmentRepository creates a new mock assignment repository that
// joins listings against cabs and drivers.
func NewMockAssignmentRepository(cabs *MockCabRepository, drivers *MockDriverRepository) *MockAssignmentRepository {
	return &MockAssignmentRepository{
		assignments: make(map[string]*domain.Assignment),
		cabs:        cabs,
		drivers:     drivers,
	}
}

// AddAssignment stores an assignment without any constraint checks.
func (m *MockAssignmentRepository) AddAssignment(a *domain.Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Unix(m.seq, 0)
	}
	m.assignments[a.ID] = cloneAssignment(a)
}

func (m *MockAssignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.IsActive() {
		for _, existing := range m.assignments {
			if !existing.IsActive() {
				continue
			}
			if existing.DriverID == a.DriverID || existing.CabID == a.CabID {
				return repository.ErrDuplicate
			}
		}
	}
	m.seq++
	stored := cloneAssignment(a)
	stored.CreatedAt = time.Unix(m.seq, 0)
	m.assignments[a.ID] = stored
	return nil
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAssignment(a), nil
}

func (m *MockAssignmentRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Assignment, error) {
	return m.findActive(func(a *domain.Assignment) bool { return a.DriverID == driverID }), nil
}

func (m *MockAssignmentRepository) GetActiveByCabID(ctx context.Context, cabID string) (*domain.Assignment, error) {
	return m.findActive(func(a *domain.Assignment) bool { return a.CabID == cabID }), nil
}

func (m *MockAssignmentRepository) Update(ctx context.Context, a *domain.Assignment) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if atomic.AddInt32(&m.ConflictingUpdates, -1) >= 0 {
		return repository.ErrVersionConflict
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.assignments[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != a.Version {
		return repository.ErrVersionConflict
	}
	a.Version++
	a.UpdatedAt = time.Now().UTC()
	updated := cloneAssignment(a)
	updated.CreatedAt = stored.CreatedAt
	m.assignments[a.ID] = updated
	return nil
}

func (m *MockAssignmentRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.assignments, id)
	return nil
}

func (m *MockAssignmentRepository) ListByAssignedBy(ctx context.Context, adminID string) ([]*domain.AssignmentView, error) {
	return m.views(func(a *domain.Assignment) bool { return a.AssignedBy == adminID }, false), nil
}

func (m *MockAssignmentRepository) ListActiveByDriverID(ctx context.Context, driverID string) ([]*domain.AssignmentView, error) {
	return m.views(func(a *domain.Assignment) bool { return a.DriverID == driverID && a.IsActive() }, true), nil
}

func (m *MockAssignmentRepository) GetAllByAssignedBy(ctx context.Context, adminID string) ([]*domain.Assignment, error) {
	return m.sorted(func(a *domain.Assignment) bool { return a.AssignedBy == adminID }), nil
}

func (m *MockAssignmentRepository) GetAll(ctx context.Context) ([]*domain.Assignment, error) {
	return m.sorted(func(*domain.Assignment) bool { return true }), nil
}

func (m *MockAssignmentRepository) DeleteByAssignedBy(ctx context.Context, adminID string) (int64, error) {
	if m.DeleteByAssignedByError != nil {
		return 0, m.DeleteByAssignedByError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.assignments {
		if a.AssignedBy == adminID {
			delete(m.assignments, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored assignments.
func (m *MockAssignmentRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assignments)
}

// ActiveCount returns the number of non-completed assignments matching keep.
func (m *MockAssignmentRepository) ActiveCount(keep func(*domain.Assignment) bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.assignments {
		if a.IsActive() && keep(a) {
			n++
		}
	}
	return n
}

func (m *MockAssignmentRepository) findActive(match func(*domain.Assignment) bool) *domain.Assignment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assignments {
		if a.IsActive() && match(a) {
			return cloneAssignment(a)
		}
	}
	return nil
}

// sorted returns copies of the matching assignments, oldest first.
func (m *MockAssignmentRepository) sorted(keep func(*domain.Assignment) bool) []*domain.Assignment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Assignment
	for _, a := range m.assignments {
		if keep(a) {
			result = append(result, cloneAssignment(a))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

// views joins matching assignments with their cab and driver, newest first.
// Assignments whose cab is gone are dropped, as the inner join does, unless
// keepMissingCab mirrors the left join.
func (m *MockAssignmentRepository) views(keep func(*domain.Assignment) bool, keepMissingCab bool) []*domain.AssignmentView {
	matching := m.sorted(keep)
	var result []*domain.AssignmentView
	for i := len(matching) - 1; i >= 0; i-- {
		a := matching[i]
		cab, err := m.cabs.GetByID(context.Background(), a.CabID)
		if err != nil && !keepMissingCab {
			continue
		}
		view := &domain.AssignmentView{Assignment: *a, Cab: cab}
		if driver, err := m.drivers.GetByID(context.Background(), a.DriverID); err == nil {
			view.Driver = driver
		}
		result = append(result, view)
	}
	return result
}

func cloneAssignment(a *domain.Assignment) *domain.Assignment {
	copy := *a
	copy.TripDetails = accumulator.Clone(a.TripDetails)
	return &copy
}

// ──────────────────────────────────────────────
// MOCK ADMIN REPOSITORY
// ──────────────────────────────────────────────

// MockAdminRepository is a mock implementation of AdminRepository.
type MockAdminRepository struct {
	mu     sync.RWMutex
	admins map[string]*domain.Admin
}

// NewMockAdminRepository creates a new mock admin repository.
func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{
		admins: make(map[string]*domain.Admin),
	}
}

// AddAdmin adds an admin to the mock repository.
func (m *MockAdminRepository) AddAdmin(admin *domain.Admin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[admin.ID] = admin
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	admin, ok := m.admins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *admin
	return &copy, nil
}

func (m *MockAdminRepository) GetAll(ctx context.Context) ([]*domain.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Admin, 0, len(m.admins))
	for _, a := range m.admins {
		copy := *a
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockAdminRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.admins, id)
	return nil
}

// ──────────────────────────────────────────────
// MOCK EXPENSE AND ANALYTICS REPOSITORIES
// ──────────────────────────────────────────────

// MockExpenseRepository is a mock implementation of ExpenseRepository.
type MockExpenseRepository struct {
	mu       sync.RWMutex
	expenses map[string]*domain.ExpenseEntry

	ListCallCount int32
}

// NewMockExpenseRepository creates a new mock expense repository.
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		expenses: make(map[string]*domain.ExpenseEntry),
	}
}

func (m *MockExpenseRepository) Create(ctx context.Context, e *domain.ExpenseEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *e
	m.expenses[e.ID] = &copy
	return nil
}

func (m *MockExpenseRepository) GetByID(ctx context.Context, id string) (*domain.ExpenseEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.expenses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *e
	return &copy, nil
}

func (m *MockExpenseRepository) Update(ctx context.Context, e *domain.ExpenseEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[e.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *e
	m.expenses[e.ID] = &copy
	return nil
}

func (m *MockExpenseRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *MockExpenseRepository) ListByDriverID(ctx context.Context, driverID string) ([]*domain.ExpenseEntry, error) {
	return m.filter(func(e *domain.ExpenseEntry) bool { return e.DriverID == driverID }), nil
}

func (m *MockExpenseRepository) ListByCabNumber(ctx context.Context, cabNumber string) ([]*domain.ExpenseEntry, error) {
	return m.filter(func(e *domain.ExpenseEntry) bool { return e.CabNumber == cabNumber }), nil
}

func (m *MockExpenseRepository) filter(keep func(*domain.ExpenseEntry) bool) []*domain.ExpenseEntry {
	atomic.AddInt32(&m.ListCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.ExpenseEntry
	for _, e := range m.expenses {
		if keep(e) {
			copy := *e
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

// MockAnalyticsRepository is a mock implementation of AnalyticsRepository.
type MockAnalyticsRepository struct {
	mu        sync.Mutex
	snapshots []*domain.AnalyticsSnapshot
}

// NewMockAnalyticsRepository creates a new mock analytics repository.
func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{}
}

func (m *MockAnalyticsRepository) Create(ctx context.Context, s *domain.AnalyticsSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *s
	m.snapshots = append(m.snapshots, &copy)
	return nil
}

func (m *MockAnalyticsRepository) Latest(ctx context.Context, limit int) ([]*domain.AnalyticsSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.AnalyticsSnapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		copy := *s
		result = append(result, &copy)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory CacheStoreInterface that stores values as
// JSON, like the Redis store does.
type MockCacheStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	deleted []string

	// Error injection
	GetError    error
	SetError    error
	DeleteError error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *MockCacheStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if m.GetError != nil {
		return false, m.GetError
	}
	m.mu.Lock()
	data, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *MockCacheStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if m.SetError != nil {
		return m.SetError
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = data
	m.ttls[key] = ttl
	return nil
}

func (m *MockCacheStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if m.DeleteError != nil {
		return 0, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, key := range keys {
		m.deleted = append(m.deleted, key)
		if _, ok := m.entries[key]; ok {
			delete(m.entries, key)
			delete(m.ttls, key)
			n++
		}
	}
	return n, nil
}

// Has reports whether key is cached.
func (m *MockCacheStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// TTL returns the TTL key was last written with.
func (m *MockCacheStore) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

// Put seeds key with value, bypassing error injection.
func (m *MockCacheStore) Put(key string, value any) {
	data, _ := json.Marshal(value)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = data
}

// Deleted returns every key passed to Delete, in order.
func (m *MockCacheStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// ──────────────────────────────────────────────
// RECORDING PUBLISHER
// ──────────────────────────────────────────────

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event

	PublishError error
}

func (p *RecordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.PublishError
}

func (p *RecordingPublisher) Close() error { return nil }

// Types returns the types of the published events, in order.
func (p *RecordingPublisher) Types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// Ensure mocks implement the interfaces.
var (
	_ repository.AssignmentRepository = (*MockAssignmentRepository)(nil)
	_ repository.CabRepository        = (*MockCabRepository)(nil)
	_ repository.DriverRepository     = (*MockDriverRepository)(nil)
	_ repository.AdminRepository      = (*MockAdminRepository)(nil)
	_ repository.ExpenseRepository    = (*MockExpenseRepository)(nil)
	_ repository.AnalyticsRepository  = (*MockAnalyticsRepository)(nil)
	_ redis.CacheStoreInterface       = (*MockCacheStore)(nil)
	_ events.Publisher                = (*RecordingPublisher)(nil)
)
