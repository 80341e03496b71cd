package domain

import "time"

type Apartment struct {
	ID         string
	Name       string
	Properties []string
	IsFavorite bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NormalizeProperties deduplicates amenity tags, keeping the first occurrence
// of each tag and the original order otherwise. Empty tags are dropped.
func NormalizeProperties(props []string) []string {
	if len(props) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(props))
	out := make([]string, 0, len(props))
	for _, p := range props {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
