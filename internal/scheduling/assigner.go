package scheduling

import (
	"context"
	"sort"

	"github.com/avoronova/flatbook/internal/domain"
)

// PlannedAssignment pairs a booking with the apartment the assigner chose.
type PlannedAssignment struct {
	BookingID   string
	ApartmentID string
}

// Plan is the outcome of one batch run. A batch never fails as a whole:
// bookings that could not be placed are listed in Failed and the rest carry
// their chosen apartment. Earlier choices are never rolled back.
type Plan struct {
	Assigned []PlannedAssignment
	Failed   []string
}

func (p Plan) AssignedCount() int { return len(p.Assigned) }
func (p Plan) FailedCount() int   { return len(p.Failed) }

// AutoAssign places every unassigned booking in the snapshot onto an
// apartment, greedily:
//
//  1. The queue is the unassigned bookings sorted by check-in ascending;
//     equal check-ins keep their input order.
//  2. Each booking takes the first available apartment (favorites first, per
//     AvailableApartments). Availability is re-derived against the working
//     booking set, so placements made earlier in the same batch block later
//     overlapping ones.
//  3. A booking with no available apartment is recorded as failed and the
//     batch continues.
//
// Cancelling ctx stops the batch before the next booking; the partial plan is
// returned together with ctx.Err().
func AutoAssign(ctx context.Context, apartments []domain.Apartment, bookings []domain.Booking) (Plan, error) {
	working := make([]domain.Booking, len(bookings))
	copy(working, bookings)

	queue := make([]int, 0, len(working))
	for i, b := range working {
		if !b.Assignment.IsAssigned() {
			queue = append(queue, i)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		return working[queue[i]].CheckIn.Before(working[queue[j]].CheckIn)
	})

	var plan Plan
	for _, idx := range queue {
		if err := ctx.Err(); err != nil {
			return plan, err
		}

		b := working[idx]
		free, err := AvailableApartments(apartments, working, b.CheckIn, b.CheckOut)
		if err != nil {
			// A malformed interval on one booking does not abort the batch.
			plan.Failed = append(plan.Failed, b.ID)
			continue
		}
		if len(free) == 0 {
			plan.Failed = append(plan.Failed, b.ID)
			continue
		}

		target := free[0]
		assignment, err := domain.AssignedToApartment(target.ID)
		if err != nil {
			plan.Failed = append(plan.Failed, b.ID)
			continue
		}
		working[idx].Assignment = assignment
		plan.Assigned = append(plan.Assigned, PlannedAssignment{BookingID: b.ID, ApartmentID: target.ID})
	}
	return plan, nil
}
