package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/todo/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionOverdue         = "task_overdue"
	ConditionStaleInProgress = "task_stale_in_progress"
	ConditionSaveFailures    = "save_failures"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TaskID      string        `json:"task_id,omitempty"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts fire.
type AlertThresholds struct {
	OverdueGraceHours   int `yaml:"overdue_grace_hours" json:"overdue_grace_hours"`
	StaleInProgressDays int `yaml:"stale_in_progress_days" json:"stale_in_progress_days"`
}

func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{OverdueGraceHours: 0, StaleInProgressDays: 3}
}

// ThresholdsFromConfig converts the alerts section of .todoconfig.
func ThresholdsFromConfig(cfg models.AlertConfig) AlertThresholds {
	return AlertThresholds{
		OverdueGraceHours:   cfg.OverdueGraceHours,
		StaleInProgressDays: cfg.StaleInProgressDays,
	}
}

// TaskSource supplies the current task collection.
type TaskSource interface {
	Tasks() []models.Task
}

// AlertEngine evaluates alert conditions against the current tasks and the
// event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	tasks      TaskSource
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine. now defaults to time.Now.
func NewAlertEngine(tasks TaskSource, eventLog EventLog, thresholds AlertThresholds, now func() time.Time) AlertEngine {
	if now == nil {
		now = time.Now
	}
	return &alertEngine{
		tasks:      tasks,
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        now,
	}
}

// Evaluate returns triggered alerts ordered by severity, then by ID.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now().UTC()
	tasks := ae.tasks.Tasks()

	alerts := ae.checkOverdue(tasks, now)

	stale, err := ae.checkStaleInProgress(tasks, now)
	if err != nil {
		return nil, fmt.Errorf("checking stale tasks: %w", err)
	}
	alerts = append(alerts, stale...)

	failures, err := ae.checkSaveFailures(now)
	if err != nil {
		return nil, fmt.Errorf("checking save failures: %w", err)
	}
	alerts = append(alerts, failures...)

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := severityRank(alerts[i].Severity), severityRank(alerts[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts, nil
}

// checkOverdue flags non-terminal tasks whose execution time plus the grace
// period has passed. Tasks not yet started are more urgent.
func (ae *alertEngine) checkOverdue(tasks []models.Task, now time.Time) []Alert {
	grace := time.Duration(ae.thresholds.OverdueGraceHours) * time.Hour

	var alerts []Alert
	for _, t := range tasks {
		if t.Status.IsTerminal() || t.ExecutionDateTime.IsZero() {
			continue
		}
		if !now.After(t.ExecutionDateTime.Add(grace)) {
			continue
		}
		severity := SeverityMedium
		if t.Status == models.StatusCreated {
			severity = SeverityHigh
		}
		alerts = append(alerts, Alert{
			ID:          "overdue-" + t.ID,
			Condition:   ConditionOverdue,
			Severity:    severity,
			Message:     fmt.Sprintf("%q was due at %s and is still %s", t.Title, t.ExecutionDateTime.Format("2006-01-02 15:04 UTC"), t.Status),
			TaskID:      t.ID,
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkStaleInProgress flags tasks that entered In Progress longer ago than
// the threshold. The last matching status change in the event log is used,
// falling back to the creation time.
func (ae *alertEngine) checkStaleInProgress(tasks []models.Task, now time.Time) ([]Alert, error) {
	if ae.thresholds.StaleInProgressDays <= 0 {
		return nil, nil
	}

	startedAt := make(map[string]time.Time)
	if ae.eventLog != nil {
		events, err := ae.eventLog.Read(EventFilter{Type: EventTaskStatusChanged})
		if err != nil {
			return nil, err
		}
		for _, event := range events {
			taskID, _ := event.Data["task_id"].(string)
			newStatus, _ := event.Data["new_status"].(string)
			if taskID != "" && newStatus == string(models.StatusInProgress) {
				startedAt[taskID] = event.Time
			}
		}
	}

	threshold := time.Duration(ae.thresholds.StaleInProgressDays) * 24 * time.Hour
	var alerts []Alert
	for _, t := range tasks {
		if t.Status != models.StatusInProgress {
			continue
		}
		since, ok := startedAt[t.ID]
		if !ok {
			since = t.CreatedAt
		}
		if now.Sub(since) <= threshold {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "stale-" + t.ID,
			Condition:   ConditionStaleInProgress,
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("%q has been in progress for more than %d days", t.Title, ae.thresholds.StaleInProgressDays),
			TaskID:      t.ID,
			TriggeredAt: now,
		})
	}
	return alerts, nil
}

// checkSaveFailures reports failed writes in the last 24 hours.
func (ae *alertEngine) checkSaveFailures(now time.Time) ([]Alert, error) {
	if ae.eventLog == nil {
		return nil, nil
	}
	since := now.Add(-24 * time.Hour)
	events, err := ae.eventLog.Read(EventFilter{Type: EventPersistFailed, Since: &since})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return []Alert{{
		ID:          "save-failures",
		Condition:   ConditionSaveFailures,
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("saving the task list failed %d time(s) in the last 24 hours", len(events)),
		TriggeredAt: now,
	}}, nil
}

func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}
