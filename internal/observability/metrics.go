package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/todo/pkg/models"
)

// Metrics holds counters derived from the event log, plus an optional
// snapshot of the current collection.
type Metrics struct {
	TasksCreated    int            `json:"tasks_created"`
	TasksCompleted  int            `json:"tasks_completed"`
	TasksCancelled  int            `json:"tasks_cancelled"`
	TasksDeleted    int            `json:"tasks_deleted"`
	Transitions     map[string]int `json:"transitions"`
	PersistFailures int            `json:"persist_failures"`
	EventCount      int            `json:"event_count"`
	OldestEvent     *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent     *time.Time     `json:"newest_event,omitempty"`

	CurrentByStatus map[string]int `json:"current_by_status,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event at or after since. Transitions counts
// status changes keyed by the status moved into.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		Transitions: make(map[string]int),
		EventCount:  len(events),
	}

	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case EventTaskCreated:
			m.TasksCreated++
		case EventTaskCompleted:
			m.TasksCompleted++
		case EventTaskCancelled:
			m.TasksCancelled++
		case EventTaskDeleted:
			m.TasksDeleted++
		case EventTaskStatusChanged:
			if status, ok := event.Data["new_status"].(string); ok {
				m.Transitions[status]++
			}
		case EventPersistFailed:
			m.PersistFailures++
		}
	}

	return m, nil
}

// StatusCounts counts tasks per status. Every known status is present, even
// at zero.
func StatusCounts(tasks []models.Task) map[string]int {
	counts := make(map[string]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[string(s)] = 0
	}
	for _, t := range tasks {
		counts[string(t.Status)]++
	}
	return counts
}

// ParseSince parses a look-back window such as "7d", "30d" or "24h" and
// returns now minus that window.
func ParseSince(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	var num int
	if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q: must not be negative", s)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
