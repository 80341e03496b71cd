// Package scheduling holds the pure decision logic of the booking manager:
// interval overlap, availability projection, stay-window ranking and the
// greedy batch assigner. Nothing in this package touches storage; callers
// feed it a snapshot of apartments and bookings and commit its decisions.
package scheduling

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Sharing a boundary instant is not an overlap, so
// a check-out at T and a check-in at T on the same apartment can coexist
// (same-day turnover). Both pairs must satisfy end > start.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
