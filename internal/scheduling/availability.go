package scheduling

import (
	"time"

	"github.com/avoronova/flatbook/internal/domain"
)

// ErrInvalidInterval is returned when a queried range has end <= start.
var ErrInvalidInterval = domain.ErrInvalidInterval

// AvailableApartments returns the apartments free for [start, end), favorites
// first. Within the favorite and non-favorite groups the input order is kept
// (stable partition), which the auto-assigner relies on when it picks the
// first entry.
//
// Only bookings assigned to a managed apartment count; unassigned bookings
// and temporary-accommodation bookings never block an apartment.
func AvailableApartments(apartments []domain.Apartment, bookings []domain.Booking, start, end time.Time) ([]domain.Apartment, error) {
	if !end.After(start) {
		return nil, ErrInvalidInterval
	}

	busy := make(map[string]bool)
	for _, b := range bookings {
		aptID, ok := b.Assignment.ApartmentID()
		if !ok || busy[aptID] {
			continue
		}
		if Overlaps(b.CheckIn, b.CheckOut, start, end) {
			busy[aptID] = true
		}
	}

	favorites := make([]domain.Apartment, 0, len(apartments))
	rest := make([]domain.Apartment, 0, len(apartments))
	for _, a := range apartments {
		if busy[a.ID] {
			continue
		}
		if a.IsFavorite {
			favorites = append(favorites, a)
		} else {
			rest = append(rest, a)
		}
	}
	return append(favorites, rest...), nil
}

// OccupancyForDay counts the apartment-assigned bookings whose stay contains
// the given instant. Containment follows the half-open rule: a check-out day
// is not occupied.
func OccupancyForDay(bookings []domain.Booking, day time.Time) int {
	n := 0
	for _, b := range bookings {
		if _, ok := b.Assignment.ApartmentID(); !ok {
			continue
		}
		if !day.Before(b.CheckIn) && day.Before(b.CheckOut) {
			n++
		}
	}
	return n
}

// FindConflict returns the first booking on the given apartment whose stay
// overlaps [start, end), or nil if the apartment is free. excludeID skips the
// booking being (re)assigned so it does not conflict with itself.
func FindConflict(bookings []domain.Booking, apartmentID string, start, end time.Time, excludeID string) *domain.Booking {
	for i := range bookings {
		b := &bookings[i]
		if b.ID == excludeID {
			continue
		}
		aptID, ok := b.Assignment.ApartmentID()
		if !ok || aptID != apartmentID {
			continue
		}
		if Overlaps(b.CheckIn, b.CheckOut, start, end) {
			return b
		}
	}
	return nil
}
