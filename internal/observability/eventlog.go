package observability

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// EventType names a recorded board event.
type EventType string

const (
	EventTaskAdded     EventType = "task.added"
	EventTaskEdited    EventType = "task.edited"
	EventTaskRemoved   EventType = "task.removed"
	EventTaskMoved     EventType = "task.moved"
	EventTaskCompleted EventType = "task.completed"
)

var changeEventTypes = map[models.ChangeKind]EventType{
	models.ChangeAdded:   EventTaskAdded,
	models.ChangeEdited:  EventTaskEdited,
	models.ChangeRemoved: EventTaskRemoved,
	models.ChangeMoved:   EventTaskMoved,
}

// EventTypeOf returns the event recorded for a board change kind.
func EventTypeOf(kind models.ChangeKind) (EventType, bool) {
	t, ok := changeEventTypes[kind]
	return t, ok
}

// Event is one line of the board event log. From, To and Index mirror the
// models.Change it was recorded from.
type Event struct {
	Time     time.Time       `json:"time"`
	Type     EventType       `json:"type"`
	TaskID   string          `json:"task_id"`
	Title    string          `json:"title,omitempty"`
	Priority models.Priority `json:"priority,omitempty"`
	From     models.Column   `json:"from,omitempty"`
	To       models.Column   `json:"to,omitempty"`
	Index    int             `json:"index"`
}

// EventFilter selects events. Zero fields match everything; Since and Until
// are inclusive.
type EventFilter struct {
	Since  *time.Time
	Until  *time.Time
	Types  []EventType
	TaskID string
}

func (f EventFilter) matches(e Event) bool {
	switch {
	case f.Since != nil && e.Time.Before(*f.Since):
		return false
	case f.Until != nil && e.Time.After(*f.Until):
		return false
	case len(f.Types) > 0 && !slices.Contains(f.Types, e.Type):
		return false
	case f.TaskID != "" && e.TaskID != f.TaskID:
		return false
	}
	return true
}

// EventLog appends board events and reads them back.
type EventLog interface {
	// Append writes events as one contiguous block.
	Append(events ...Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

type fileEventLog struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// OpenEventLog opens (or creates) a JSON Lines event log at path.
func OpenEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log %s: %w", path, err)
	}
	return &fileEventLog{path: path, file: f}, nil
}

func (l *fileEventLog) Append(events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for _, e := range events {
		data, err := sonic.ConfigStd.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding %s event for %s: %w", e.Type, e.TaskID, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("appending %d events: %w", len(events), err)
	}
	return nil
}

// Read returns the events matching filter in the order they were appended.
// Lines that do not decode are skipped.
func (l *fileEventLog) Read(filter EventFilter) ([]Event, error) {
	l.mu.Lock()
	data, err := os.ReadFile(l.path)
	l.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading event log %s: %w", l.path, err)
	}

	var events []Event
	for line := range bytes.Lines(data) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var e Event
		if sonic.ConfigStd.Unmarshal(line, &e) != nil || e.Type == "" {
			continue
		}
		if filter.matches(e) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (l *fileEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}
