package models

import "time"

// CategoryEntry is one aggregated row returned by the calendar endpoint.
type CategoryEntry struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// Snapshot is a stored copy of one successful response.
type Snapshot struct {
	ID        string          `json:"id"`
	Range     Range           `json:"range"`
	FetchedAt time.Time       `json:"fetched_at"`
	Entries   []CategoryEntry `json:"entries"`
}

// TotalHours sums the hours of every entry in the snapshot.
func (s Snapshot) TotalHours() float64 {
	var total float64
	for _, e := range s.Entries {
		total += e.Hours
	}
	return total
}
