package service

import (
	"errors"

	"fleetops/internal/repository"
)

var (
	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidCabRef is returned when neither a cab ID nor a cab number is given.
	ErrInvalidCabRef = errors.New("invalid cab reference")

	// ErrInvalidAssignedBy is returned when the assigning admin is missing.
	ErrInvalidAssignedBy = errors.New("invalid assigning admin")

	// ErrInvalidAssignmentID is returned when assignment ID is empty.
	ErrInvalidAssignmentID = errors.New("invalid assignment id")

	// ErrEmptyTripUpdate is returned when a trip update carries no category and no file.
	ErrEmptyTripUpdate = errors.New("no trip details supplied")

	// ErrInvalidCabNumber is returned when a cab is created without a number.
	ErrInvalidCabNumber = errors.New("invalid cab number")

	// ErrInvalidAdminID is returned when admin ID is empty.
	ErrInvalidAdminID = errors.New("invalid admin id")

	// ErrInvalidExpenseID is returned when expense ID is empty.
	ErrInvalidExpenseID = errors.New("invalid expense id")

	// ErrInvalidExpenseType is returned when an expense has no type.
	ErrInvalidExpenseType = errors.New("invalid expense type")

	// ErrInvalidExpenseAmount is returned when an expense amount is not positive.
	ErrInvalidExpenseAmount = errors.New("invalid expense amount")

	// ErrInvalidAnalytics is returned when a snapshot carries negative metrics.
	ErrInvalidAnalytics = errors.New("invalid analytics snapshot")

	// ErrCabNotFound is returned when a cab reference resolves to nothing.
	ErrCabNotFound = errors.New("cab not found")

	// ErrDriverNotFound is returned when the referenced driver does not exist.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrAssignmentNotFound is returned when the assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrNoActiveAssignment is returned when a driver has no active assignment.
	ErrNoActiveAssignment = errors.New("no active trip found for this driver")

	// ErrSubAdminNotFound is returned when the sub-admin does not exist.
	ErrSubAdminNotFound = errors.New("sub-admin not found")

	// ErrExpenseNotFound is returned when the expense entry does not exist.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrDriverHasActiveAssignment is returned when the driver already has an active cab.
	ErrDriverHasActiveAssignment = errors.New("this driver already has an active cab assigned")

	// ErrCabHasActiveAssignment is returned when the cab is already assigned to another driver.
	ErrCabHasActiveAssignment = errors.New("this cab is already assigned to another driver")

	// ErrAssignmentConflict is returned when a concurrent request claimed the
	// driver or cab first.
	ErrAssignmentConflict = errors.New("driver or cab already has an active trip")

	// ErrAssignmentCompleted is returned when unassigning a completed assignment.
	ErrAssignmentCompleted = errors.New("assignment already completed")

	// ErrConcurrentTripUpdate is returned when trip details kept changing
	// underneath every update attempt.
	ErrConcurrentTripUpdate = errors.New("trip details were modified concurrently, retry")

	// ErrCabNumberTaken is returned when another cab already uses the number.
	ErrCabNumberTaken = errors.New("cab number already registered")

	// ErrForbidden is returned when the actor may not act on the record.
	ErrForbidden = errors.New("not permitted to modify this record")
)

// ErrorKind classifies errors for callers.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
)

var (
	validationErrors = []error{
		ErrInvalidDriverID,
		ErrInvalidCabRef,
		ErrInvalidAssignedBy,
		ErrInvalidAssignmentID,
		ErrEmptyTripUpdate,
		ErrInvalidCabNumber,
		ErrInvalidAdminID,
		ErrInvalidExpenseID,
		ErrInvalidExpenseType,
		ErrInvalidExpenseAmount,
		ErrInvalidAnalytics,
	}

	notFoundErrors = []error{
		ErrCabNotFound,
		ErrDriverNotFound,
		ErrAssignmentNotFound,
		ErrNoActiveAssignment,
		ErrSubAdminNotFound,
		ErrExpenseNotFound,
		repository.ErrNotFound,
	}

	conflictErrors = []error{
		ErrDriverHasActiveAssignment,
		ErrCabHasActiveAssignment,
		ErrAssignmentConflict,
		ErrAssignmentCompleted,
		ErrConcurrentTripUpdate,
		ErrCabNumberTaken,
	}
)

// Kind reports which class err belongs to. Anything unrecognised is internal.
func Kind(err error) ErrorKind {
	switch {
	case isAny(err, validationErrors):
		return KindValidation
	case isAny(err, notFoundErrors):
		return KindNotFound
	case isAny(err, conflictErrors):
		return KindConflict
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
