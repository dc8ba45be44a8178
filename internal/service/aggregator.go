package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fleetops/internal/domain"
	internalRedis "fleetops/internal/redis"
	"fleetops/internal/repository"
)

// unknownCab labels assignments whose cab no longer exists.
const unknownCab = "Unknown"

// AggregatorService computes expense rollups over every assignment.
// Results are recomputed in full on a cache miss.
type AggregatorService struct {
	assignments repository.AssignmentRepository
	cabs        repository.CabRepository
	drivers     repository.DriverRepository
	admins      repository.AdminRepository
	cache       *cacheAside
	log         logrus.FieldLogger
}

// NewAggregatorService creates a new AggregatorService.
func NewAggregatorService(
	assignments repository.AssignmentRepository,
	cabs repository.CabRepository,
	drivers repository.DriverRepository,
	admins repository.AdminRepository,
	cacheStore internalRedis.CacheStoreInterface,
	log logrus.FieldLogger,
) *AggregatorService {
	return &AggregatorService{
		assignments: assignments,
		cabs:        cabs,
		drivers:     drivers,
		admins:      admins,
		cache:       newCacheAside(cacheStore, log),
		log:         log,
	}
}

// breakdown accumulates the four category sums exactly.
type breakdown struct {
	fuel, fastTag, tyrePuncture, otherProblems decimal.Decimal
}

func (b *breakdown) add(t domain.TripDetails) {
	if t.Fuel != nil {
		b.fuel = b.fuel.Add(sum(t.Fuel.Amount))
	}
	if t.FastTag != nil {
		b.fastTag = b.fastTag.Add(sum(t.FastTag.Amount))
	}
	if t.TyrePuncture != nil {
		b.tyrePuncture = b.tyrePuncture.Add(sum(t.TyrePuncture.RepairAmount))
	}
	if t.OtherProblems != nil {
		b.otherProblems = b.otherProblems.Add(sum(t.OtherProblems.Amount))
	}
}

func (b *breakdown) total() decimal.Decimal {
	return b.fuel.Add(b.fastTag).Add(b.tyrePuncture).Add(b.otherProblems)
}

func (b *breakdown) result() domain.ExpenseBreakdown {
	return domain.ExpenseBreakdown{
		Fuel:          b.fuel.InexactFloat64(),
		FastTag:       b.fastTag.InexactFloat64(),
		TyrePuncture:  b.tyrePuncture.InexactFloat64(),
		OtherProblems: b.otherProblems.InexactFloat64(),
	}
}

func sum(values []float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

type cabTotals struct {
	number string
	trips  int
	breakdown
}

// ComputeCabExpenses sums trip expenses per cab over assignments of any
// status, sorted by total expense descending.
func (s *AggregatorService) ComputeCabExpenses(ctx context.Context) ([]domain.CabExpense, error) {
	return readThrough(ctx, s.cache, internalRedis.AllExpensesKey, internalRedis.AllExpensesTTL, s.computeCabExpenses)
}

func (s *AggregatorService) computeCabExpenses(ctx context.Context) ([]domain.CabExpense, error) {
	assignments, err := s.assignments.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	cabs, err := s.cabs.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	numbers := make(map[string]string, len(cabs))
	for _, cab := range cabs {
		numbers[cab.ID] = cab.CabNumber
	}

	totals := make(map[string]*cabTotals)
	var order []string
	for _, a := range assignments {
		t, ok := totals[a.CabID]
		if !ok {
			number, found := numbers[a.CabID]
			if !found {
				number = unknownCab
			}
			t = &cabTotals{number: number}
			totals[a.CabID] = t
			order = append(order, a.CabID)
		}
		t.trips++
		t.add(a.TripDetails)
	}

	result := make([]domain.CabExpense, 0, len(order))
	sortKeys := make(map[string]decimal.Decimal, len(order))
	for _, cabID := range order {
		t := totals[cabID]
		total := t.total()
		sortKeys[cabID] = total
		result = append(result, domain.CabExpense{
			CabID:        cabID,
			CabNumber:    t.number,
			TripCount:    t.trips,
			TotalExpense: total.InexactFloat64(),
			Breakdown:    t.result(),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return sortKeys[result[i].CabID].GreaterThan(sortKeys[result[j].CabID])
	})
	return result, nil
}

type subAdminTotals struct {
	name  string
	trips int
	breakdown
}

// ComputeSubAdminExpenses rolls trips up per admin who made them, together
// with the number of drivers and cabs each admin owns. Assignments whose
// admin cannot be resolved are dropped.
func (s *AggregatorService) ComputeSubAdminExpenses(ctx context.Context) ([]domain.SubAdminExpense, error) {
	return readThrough(ctx, s.cache, internalRedis.SubAdminExpensesKey, internalRedis.SubAdminExpensesTTL, s.computeSubAdminExpenses)
}

func (s *AggregatorService) computeSubAdminExpenses(ctx context.Context) ([]domain.SubAdminExpense, error) {
	assignments, err := s.assignments.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	admins, err := s.admins.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	driverCounts, err := s.drivers.CountByAddedBy(ctx)
	if err != nil {
		return nil, err
	}
	cabCounts, err := s.cabs.CountByAddedBy(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(admins))
	for _, admin := range admins {
		names[admin.ID] = admin.Name
	}

	totals := make(map[string]*subAdminTotals)
	var order []string
	dropped := 0
	for _, a := range assignments {
		name, ok := names[a.AssignedBy]
		if a.AssignedBy == "" || !ok {
			dropped++
			continue
		}
		t, ok := totals[a.AssignedBy]
		if !ok {
			t = &subAdminTotals{name: name}
			totals[a.AssignedBy] = t
			order = append(order, a.AssignedBy)
		}
		t.trips++
		t.add(a.TripDetails)
	}
	if dropped > 0 {
		s.log.WithField("dropped", dropped).Debug("skipped assignments without a resolvable admin")
	}

	result := make([]domain.SubAdminExpense, 0, len(order))
	sortKeys := make(map[string]decimal.Decimal, len(order))
	for _, adminID := range order {
		t := totals[adminID]
		total := t.total()
		sortKeys[adminID] = total
		result = append(result, domain.SubAdminExpense{
			SubAdminID:   adminID,
			SubAdmin:     t.name,
			TripCount:    t.trips,
			TotalExpense: total.InexactFloat64(),
			Breakdown:    t.result(),
			TotalDrivers: driverCounts[adminID],
			TotalCabs:    cabCounts[adminID],
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return sortKeys[result[i].SubAdminID].GreaterThan(sortKeys[result[j].SubAdminID])
	})
	return result, nil
}
