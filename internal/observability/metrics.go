package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	TasksAdded         int            `json:"tasks_added" yaml:"tasks_added"`
	TasksEdited        int            `json:"tasks_edited" yaml:"tasks_edited"`
	TasksRemoved       int            `json:"tasks_removed" yaml:"tasks_removed"`
	TasksMoved         int            `json:"tasks_moved" yaml:"tasks_moved"`
	TasksCompleted     int            `json:"tasks_completed" yaml:"tasks_completed"`
	MovesByDestination map[string]int `json:"moves_by_destination" yaml:"moves_by_destination"`
	AddedByPriority    map[string]int `json:"added_by_priority" yaml:"added_by_priority"`
	EventCount         int            `json:"event_count" yaml:"event_count"`
	OldestEvent        *time.Time     `json:"oldest_event,omitempty" yaml:"oldest_event,omitempty"`
	NewestEvent        *time.Time     `json:"newest_event,omitempty" yaml:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		MovesByDestination: make(map[string]int),
		AddedByPriority:    make(map[string]int),
		EventCount:         len(events),
	}

	for _, event := range events {
		t := event.Time
		if m.OldestEvent == nil || t.Before(*m.OldestEvent) {
			m.OldestEvent = &t
		}
		if m.NewestEvent == nil || t.After(*m.NewestEvent) {
			m.NewestEvent = &t
		}

		switch event.Type {
		case EventTaskAdded:
			m.TasksAdded++
			if event.Priority != "" {
				m.AddedByPriority[string(event.Priority)]++
			}
		case EventTaskEdited:
			m.TasksEdited++
		case EventTaskRemoved:
			m.TasksRemoved++
		case EventTaskMoved:
			m.TasksMoved++
			if event.To != "" {
				m.MovesByDestination[string(event.To)]++
			}
		case EventTaskCompleted:
			m.TasksCompleted++
		}
	}

	return m, nil
}
