package domain

import "time"

// AssignmentStatus represents the lifecycle status of a cab assignment.
type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// Assignment binds one driver and one cab to the admin who created the binding.
// TripDetails is owned by the assignment and has no lifecycle of its own.
type Assignment struct {
	ID          string           `json:"id"`
	DriverID    string           `json:"driverId"`
	CabID       string           `json:"cabId"`
	AssignedBy  string           `json:"assignedBy"`
	Status      AssignmentStatus `json:"status"`
	TripDetails TripDetails      `json:"tripDetails"`
	Version     int              `json:"version"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// IsActive reports whether the assignment still blocks its driver and cab.
func (a *Assignment) IsActive() bool {
	return a.Status != AssignmentStatusCompleted
}

// AssignmentView is an assignment joined with the cab and driver it references.
// Driver is nil when the referenced driver no longer exists. Cab is nil only
// in a driver's own listing, after the cab was deleted.
type AssignmentView struct {
	Assignment
	Cab    *Cab    `json:"cab"`
	Driver *Driver `json:"driver,omitempty"`
}
