package domain

import "time"

// ExpenseEntry is an ad-hoc expense that is not tied to a trip.
type ExpenseEntry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	DriverID  string    `json:"driverId"`
	CabNumber string    `json:"cabNumber"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ExpenseBreakdown splits a total over the four trip expense categories.
// Vehicle servicing is tracked per trip but is not part of the breakdown.
type ExpenseBreakdown struct {
	Fuel          float64 `json:"fuel"`
	FastTag       float64 `json:"fastTag"`
	TyrePuncture  float64 `json:"tyrePuncture"`
	OtherProblems float64 `json:"otherProblems"`
}

// CabExpense is the per-cab rollup over every assignment of that cab.
type CabExpense struct {
	CabID        string           `json:"cabId"`
	CabNumber    string           `json:"cabNumber"`
	TripCount    int              `json:"tripCount"`
	TotalExpense float64          `json:"totalExpense"`
	Breakdown    ExpenseBreakdown `json:"breakdown"`
}

// SubAdminExpense is the per-sub-admin rollup of trips, drivers and cabs.
type SubAdminExpense struct {
	SubAdminID   string           `json:"subAdminId"`
	SubAdmin     string           `json:"subAdmin"`
	TripCount    int              `json:"tripCount"`
	TotalExpense float64          `json:"totalExpense"`
	Breakdown    ExpenseBreakdown `json:"breakdown"`
	TotalDrivers int              `json:"totalDrivers"`
	TotalCabs    int              `json:"totalCabs"`
}

// AnalyticsSnapshot is a point-in-time set of fleet metrics.
type AnalyticsSnapshot struct {
	ID                   string    `json:"id"`
	TotalRides           int       `json:"totalRides"`
	Revenue              float64   `json:"revenue"`
	CustomerSatisfaction float64   `json:"customerSatisfaction"`
	FleetUtilization     float64   `json:"fleetUtilization"`
	Date                 time.Time `json:"date"`
}
