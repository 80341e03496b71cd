package scheduling

import (
	"sort"
	"time"

	"github.com/avoronova/flatbook/internal/domain"
)

// Weights tune the stay-window ranking. They are reporting heuristics, not
// correctness rules, and can be overridden from configuration.
type Weights struct {
	// FavoriteBonus is subtracted from a window's score when at least one
	// favorite apartment is free for the whole window.
	FavoriteBonus float64
	// SundayPenalty is added once per Sunday inside the window; the house
	// does not take check-ins on Sundays.
	SundayPenalty float64
	// SaturdayStartPenalty is added when the window starts on a Saturday.
	SaturdayStartPenalty float64
}

// DefaultWeights are the shipped defaults. The values are starting points
// chosen for this deployment, not derived constants.
var DefaultWeights = Weights{
	FavoriteBonus:        0.5,
	SundayPenalty:        1.0,
	SaturdayStartPenalty: 0.5,
}

// StayWindow is one ranked candidate stay. Lower scores rank earlier.
type StayWindow struct {
	Start time.Time
	End   time.Time
	Score float64
}

// BestDates ranks candidate stay windows of the given length, one starting on
// each day of [from, from+days), by ascending score. The base score is the
// average per-day occupancy over the window; windows where a favorite
// apartment is free get a bonus and windows touching undesirable check-in
// days get penalties, per the weights. Windows with no apartment available at
// all are skipped. At most limit windows are returned (0 means no limit).
func BestDates(apartments []domain.Apartment, bookings []domain.Booking, from time.Time, days, nights, limit int, w Weights) ([]StayWindow, error) {
	if nights <= 0 || days <= 0 {
		return nil, ErrInvalidInterval
	}

	out := make([]StayWindow, 0, days)
	for d := 0; d < days; d++ {
		start := from.AddDate(0, 0, d)
		end := start.AddDate(0, 0, nights)

		free, err := AvailableApartments(apartments, bookings, start, end)
		if err != nil {
			return nil, err
		}
		if len(free) == 0 {
			continue
		}

		score := averageOccupancy(bookings, start, nights)
		if free[0].IsFavorite {
			score -= w.FavoriteBonus
		}
		for n := 0; n < nights; n++ {
			if start.AddDate(0, 0, n).Weekday() == time.Sunday {
				score += w.SundayPenalty
			}
		}
		if start.Weekday() == time.Saturday {
			score += w.SaturdayStartPenalty
		}

		out = append(out, StayWindow{Start: start, End: end, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func averageOccupancy(bookings []domain.Booking, start time.Time, nights int) float64 {
	total := 0
	for n := 0; n < nights; n++ {
		total += OccupancyForDay(bookings, start.AddDate(0, 0, n))
	}
	return float64(total) / float64(nights)
}
