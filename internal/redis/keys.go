package redis

import "time"

// Cache TTL constants
const (
	CabTTL               = time.Hour        // Cab lookups by id or number
	AssignedCabsTTL      = 5 * time.Minute  // Admin assignment listing changes often
	DriverAssignmentsTTL = time.Hour        // Driver's active assignment
	CabListTTL           = time.Hour        // Cabs owned by an admin
	AllExpensesTTL       = 10 * time.Minute // Per-cab expense rollup
	ExpenseListTTL       = 10 * time.Minute // Expense entries by driver or cab
	ExpenseTTL           = time.Hour        // Single expense entry
	SubAdminExpensesTTL  = time.Hour        // Per-sub-admin rollup, TTL only
	AnalyticsTTL         = time.Hour        // Latest analytics snapshots
)

// Fixed keys
const (
	AllExpensesKey        = "all_expenses"
	SubAdminExpensesKey   = "subadmin_expenses"
	LatestAnalyticsKey    = "analytics:latest"
	AllSubAdminsKey       = "allSubAdmins"
	TotalSubAdminCountKey = "totalSubAdminCount"
)

// CabKey is the key of a cab looked up by id or by number.
func CabKey(ref string) string { return "cab:" + ref }

// AssignedCabsKey is the key of an admin's assignment listing.
func AssignedCabsKey(adminID string) string { return "assignedCabs:" + adminID }

// DriverAssignmentsKey is the key of a driver's active assignment listing.
func DriverAssignmentsKey(driverID string) string { return "driverAssignments:" + driverID }

// CabListKey is the key of the cabs owned by an admin.
func CabListKey(adminID string) string { return "cabList:admin:" + adminID }

// CabExpensesKey is the key of the expense entries recorded against a cab number.
func CabExpensesKey(cabNumber string) string { return "cabExpenses:" + cabNumber }

// DriverExpensesKey is the key of the expense entries recorded for a driver.
func DriverExpensesKey(driverID string) string { return "driverExpenses:" + driverID }

// ExpenseKey is the key of a single expense entry.
func ExpenseKey(id string) string { return "expense:" + id }

// SubAdminKey is the key of a sub-admin profile.
func SubAdminKey(id string) string { return "subAdmin:" + id }

// DriversKey is the key of the drivers owned by an admin.
func DriversKey(adminID string) string { return "drivers:" + adminID }

// MutationKind identifies a write against the record store.
type MutationKind int

const (
	AssignmentCreated MutationKind = iota + 1
	AssignmentCompleted
	AssignmentUnassigned
	TripDetailsUpdated
	CabCreated
	CabUpdated
	CabDeleted
	ExpenseCreated
	ExpenseUpdated
	ExpenseDeleted
	AnalyticsAdded
	SubAdminDeleted
)

// CabRef identifies a cab by both of the refs it may be cached under.
type CabRef struct {
	ID     string
	Number string
}

// Mutation describes a completed write. Only the fields relevant to Kind
// need to be set; empty references produce no keys.
type Mutation struct {
	Kind      MutationKind
	AdminID   string
	DriverID  string
	Cab       CabRef
	ExpenseID string

	// Values replaced by an expense update.
	PrevDriverID  string
	PrevCabNumber string

	// Records owned by a deleted sub-admin.
	OwnedCabs    []CabRef
	OwnedDrivers []string

	// Drivers and cabs on the deleted sub-admin's assignments, whoever owns them.
	AssignedDrivers []string
	AssignedCabs    []CabRef
}

// KeysFor returns every cache key derived from the entity touched by m.
// All invalidation goes through here so that a new write path only has to
// describe itself.
func KeysFor(m Mutation) []string {
	k := keySet{}

	switch m.Kind {
	case AssignmentCreated, AssignmentCompleted, AssignmentUnassigned:
		k.add(AssignedCabsKey, m.AdminID)
		k.add(DriverAssignmentsKey, m.DriverID)

	case TripDetailsUpdated:
		k.add(CabKey, m.Cab.ID)
		k.add(CabKey, m.Cab.Number)
		k.add(AssignedCabsKey, m.AdminID)
		k.add(DriverAssignmentsKey, m.DriverID)

	case CabCreated:
		k.add(CabListKey, m.AdminID)

	case CabUpdated:
		k.add(CabKey, m.Cab.ID)
		k.add(CabKey, m.Cab.Number)
		k.add(CabListKey, m.AdminID)

	case CabDeleted:
		k.add(CabKey, m.Cab.ID)
		k.add(CabKey, m.Cab.Number)
		k.add(CabListKey, m.AdminID)
		k.add(AssignedCabsKey, m.AdminID)

	case ExpenseCreated, ExpenseUpdated, ExpenseDeleted:
		k.addKey(AllExpensesKey)
		k.add(DriverExpensesKey, m.DriverID)
		k.add(CabExpensesKey, m.Cab.Number)
		k.add(DriverExpensesKey, m.PrevDriverID)
		k.add(CabExpensesKey, m.PrevCabNumber)
		if m.Kind == ExpenseDeleted {
			k.add(ExpenseKey, m.ExpenseID)
		}

	case AnalyticsAdded:
		k.addKey(LatestAnalyticsKey)

	case SubAdminDeleted:
		k.add(SubAdminKey, m.AdminID)
		k.addKey(AllSubAdminsKey)
		k.addKey(TotalSubAdminCountKey)
		k.add(CabListKey, m.AdminID)
		k.add(AssignedCabsKey, m.AdminID)
		k.add(DriversKey, m.AdminID)
		for _, cab := range m.OwnedCabs {
			k.add(CabKey, cab.ID)
			k.add(CabKey, cab.Number)
			k.add(CabExpensesKey, cab.Number)
		}
		for _, driverID := range m.OwnedDrivers {
			k.add(DriverExpensesKey, driverID)
			k.add(DriverAssignmentsKey, driverID)
		}
		for _, driverID := range m.AssignedDrivers {
			k.add(DriverAssignmentsKey, driverID)
		}
		for _, cab := range m.AssignedCabs {
			k.add(CabKey, cab.ID)
			k.add(CabKey, cab.Number)
		}
	}

	return k.keys
}

type keySet struct {
	keys []string
	seen map[string]bool
}

func (s *keySet) add(build func(string) string, ref string) {
	if ref == "" {
		return
	}
	s.addKey(build(ref))
}

func (s *keySet) addKey(key string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.keys = append(s.keys, key)
}
