package engine

import (
	"sort"
	"time"

	"scorecard/internal/domain"
)

const (
	TimelineProgress = "progress"
	TimelineDecision = "decision"
)

// TimelineEntry is either a progress update or a decision, per Kind.
type TimelineEntry struct {
	Kind      string                `json:"kind" enum:"progress,decision"`
	Timestamp string                `json:"timestamp"`
	Version   int                   `json:"version"`
	Progress  *TimelineUpdate       `json:"progress,omitempty"`
	Decision  *domain.DecisionEvent `json:"decision,omitempty"`
}

type TimelineUpdate struct {
	UpdateText      string           `json:"update_text"`
	PercentComplete float64          `json:"percent_complete"`
	RAGStatus       domain.RAGStatus `json:"rag_status"`
	Author          string           `json:"author"`
}

// BuildTimeline flattens updates and their decisions into one chronological
// list. Decisions without a timestamp take their update's created_at. Ties keep
// version order with the update ahead of its own decisions.
func BuildTimeline(updates []domain.ProgressUpdate) []TimelineEntry {
	ordered := append([]domain.ProgressUpdate(nil), updates...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	entries := []TimelineEntry{}
	for _, u := range ordered {
		entries = append(entries, TimelineEntry{
			Kind:      TimelineProgress,
			Timestamp: u.CreatedAt,
			Version:   u.Version,
			Progress: &TimelineUpdate{
				UpdateText:      u.UpdateText,
				PercentComplete: u.PercentComplete,
				RAGStatus:       u.RAGStatus,
				Author:          u.Author,
			},
		})
		for _, d := range u.Metrics.Decisions {
			d := d
			ts := d.Timestamp
			if ts == "" {
				ts = u.CreatedAt
			}
			entries = append(entries, TimelineEntry{Kind: TimelineDecision, Timestamp: ts, Version: u.Version, Decision: &d})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return timelineBefore(entries[i].Timestamp, entries[j].Timestamp)
	})
	return entries
}

func timelineBefore(a, b string) bool {
	ta, errA := parseTimestamp(a)
	tb, errB := parseTimestamp(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
