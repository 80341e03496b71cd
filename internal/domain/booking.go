package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterval   = errors.New("check-out must be strictly after check-in")
	ErrGuestNameRequired = errors.New("guest name is required")
	ErrEmptyAssignment   = errors.New("assignment target must not be empty")
)

// ConflictError rejects an assignment that would overlap an existing stay on
// the same apartment. It names the conflicting booking so callers can show it.
type ConflictError struct {
	ApartmentID string
	BookingID   string
}

func (e *ConflictError) Error() string {
	return "apartment " + e.ApartmentID + " is already booked by " + e.BookingID + " for an overlapping period"
}

type AssignmentKind string

const (
	AssignmentNone      AssignmentKind = "UNASSIGNED"
	AssignmentApartment AssignmentKind = "APARTMENT"
	AssignmentTemporary AssignmentKind = "TEMPORARY"
)

// Assignment is a tagged value: a booking is either unassigned, assigned to a
// managed apartment, or parked on an ad-hoc external accommodation. Fields are
// unexported so the two assigned forms cannot both be set.
type Assignment struct {
	kind        AssignmentKind
	apartmentID string
	temporary   string
}

func Unassigned() Assignment {
	return Assignment{kind: AssignmentNone}
}

func AssignedToApartment(apartmentID string) (Assignment, error) {
	if apartmentID == "" {
		return Assignment{}, ErrEmptyAssignment
	}
	return Assignment{kind: AssignmentApartment, apartmentID: apartmentID}, nil
}

func AssignedTemporary(label string) (Assignment, error) {
	if label == "" {
		return Assignment{}, ErrEmptyAssignment
	}
	return Assignment{kind: AssignmentTemporary, temporary: label}, nil
}

func (a Assignment) Kind() AssignmentKind {
	if a.kind == "" {
		return AssignmentNone
	}
	return a.kind
}

// ApartmentID returns the target apartment id when the booking is assigned to
// a managed apartment.
func (a Assignment) ApartmentID() (string, bool) {
	return a.apartmentID, a.kind == AssignmentApartment
}

// TemporaryLabel returns the external accommodation label when the booking is
// parked outside the managed pool.
func (a Assignment) TemporaryLabel() (string, bool) {
	return a.temporary, a.kind == AssignmentTemporary
}

func (a Assignment) IsAssigned() bool {
	return a.kind == AssignmentApartment || a.kind == AssignmentTemporary
}

type Booking struct {
	ID         string
	GuestName  string
	CheckIn    time.Time
	CheckOut   time.Time
	Assignment Assignment
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the booking's own invariants: a named guest and a strictly
// positive half-open stay interval.
func (b Booking) Validate() error {
	if b.GuestName == "" {
		return ErrGuestNameRequired
	}
	if !b.CheckOut.After(b.CheckIn) {
		return ErrInvalidInterval
	}
	return nil
}
