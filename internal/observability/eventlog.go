package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event types written by the task store.
const (
	EventTaskCreated       = "task.created"
	EventTaskStatusChanged = "task.status_changed"
	EventTaskCompleted     = "task.completed"
	EventTaskCancelled     = "task.cancelled"
	EventTaskDeleted       = "task.deleted"
	EventTasksReset        = "tasks.reset"
	EventPersistFailed     = "tasks.persist_failed"
)

// Event is one line of the task history log.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter selects events by time window, type and level. Zero fields
// match everything.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level string
}

// EventLog appends events and reads them back in write order.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog opens (creating if needed) an append-only JSON Lines file
// at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f}, nil
}

func (l *jsonlEventLog) Write(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read skips blank and malformed lines. A missing file reads as no events.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if filter.matches(event) {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func (f EventFilter) matches(event Event) bool {
	if f.Since != nil && event.Time.Before(*f.Since) {
		return false
	}
	if f.Until != nil && event.Time.After(*f.Until) {
		return false
	}
	if f.Type != "" && event.Type != f.Type {
		return false
	}
	if f.Level != "" && event.Level != f.Level {
		return false
	}
	return true
}

// EventRecorder turns store callbacks into Events. It satisfies the task
// store's EventLogger interface.
type EventRecorder struct {
	log EventLog
	now func() time.Time
}

// NewEventRecorder writes to log, stamping events with now (time.Now when
// nil).
func NewEventRecorder(log EventLog, now func() time.Time) *EventRecorder {
	if now == nil {
		now = time.Now
	}
	return &EventRecorder{log: log, now: now}
}

func (r *EventRecorder) LogEvent(eventType string, data map[string]any) error {
	return r.log.Write(Event{
		Time:    r.now().UTC(),
		Level:   eventLevel(eventType),
		Type:    eventType,
		Message: eventMessage(eventType, data),
		Data:    data,
	})
}

func eventLevel(eventType string) string {
	switch eventType {
	case EventPersistFailed:
		return "ERROR"
	case EventTasksReset:
		return "WARN"
	default:
		return "INFO"
	}
}

func eventMessage(eventType string, data map[string]any) string {
	id, _ := data["task_id"].(string)
	switch eventType {
	case EventTaskCreated:
		return fmt.Sprintf("task %s created", id)
	case EventTaskStatusChanged:
		return fmt.Sprintf("task %s moved from %v to %v", id, data["old_status"], data["new_status"])
	case EventTaskCompleted:
		return fmt.Sprintf("task %s completed", id)
	case EventTaskCancelled:
		return fmt.Sprintf("task %s cancelled", id)
	case EventTaskDeleted:
		return fmt.Sprintf("task %s deleted", id)
	case EventTasksReset:
		return "task list reset"
	case EventPersistFailed:
		return fmt.Sprintf("saving tasks failed during %v", data["op"])
	default:
		return eventType
	}
}
