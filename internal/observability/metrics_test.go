package observability

import (
	"testing"
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

func TestMetricsCalculator_Calculate(t *testing.T) {
	log := newTestEventLog(t)

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	appendEvents(t, log,
		Event{Time: base, Type: EventTaskAdded, TaskID: "task-1", Priority: models.PriorityHigh},
		Event{Time: base.Add(time.Minute), Type: EventTaskAdded, TaskID: "task-2", Priority: models.PriorityLow},
		Event{Time: base.Add(2 * time.Minute), Type: EventTaskAdded, TaskID: "task-3", Priority: models.PriorityHigh},
		Event{Time: base.Add(3 * time.Minute), Type: EventTaskEdited, TaskID: "task-1"},
		Event{Time: base.Add(4 * time.Minute), Type: EventTaskMoved, TaskID: "task-1", From: models.ColumnTodo, To: models.ColumnProgress},
		Event{Time: base.Add(5 * time.Minute), Type: EventTaskMoved, TaskID: "task-1", From: models.ColumnProgress, To: models.ColumnDone},
		Event{Time: base.Add(5 * time.Minute), Type: EventTaskCompleted, TaskID: "task-1"},
		Event{Time: base.Add(6 * time.Minute), Type: EventTaskRemoved, TaskID: "task-2"},
	)

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}

	if m.TasksAdded != 3 {
		t.Errorf("TasksAdded = %d, want 3", m.TasksAdded)
	}
	if m.TasksEdited != 1 {
		t.Errorf("TasksEdited = %d, want 1", m.TasksEdited)
	}
	if m.TasksMoved != 2 {
		t.Errorf("TasksMoved = %d, want 2", m.TasksMoved)
	}
	if m.TasksCompleted != 1 {
		t.Errorf("TasksCompleted = %d, want 1", m.TasksCompleted)
	}
	if m.TasksRemoved != 1 {
		t.Errorf("TasksRemoved = %d, want 1", m.TasksRemoved)
	}
	if m.MovesByDestination["progress"] != 1 || m.MovesByDestination["done"] != 1 {
		t.Errorf("MovesByDestination = %v", m.MovesByDestination)
	}
	if m.AddedByPriority["High"] != 2 || m.AddedByPriority["Low"] != 1 {
		t.Errorf("AddedByPriority = %v", m.AddedByPriority)
	}
	if m.EventCount != 8 {
		t.Errorf("EventCount = %d, want 8", m.EventCount)
	}
	if m.OldestEvent == nil || !m.OldestEvent.Equal(base) {
		t.Errorf("OldestEvent = %v, want %v", m.OldestEvent, base)
	}
	if m.NewestEvent == nil || !m.NewestEvent.Equal(base.Add(6*time.Minute)) {
		t.Errorf("NewestEvent = %v, want %v", m.NewestEvent, base.Add(6*time.Minute))
	}
}

func TestMetricsCalculator_EmptyLog(t *testing.T) {
	log := newTestEventLog(t)

	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.EventCount != 0 || m.TasksAdded != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
	if m.OldestEvent != nil || m.NewestEvent != nil {
		t.Error("expected no event bounds for an empty log")
	}
	if m.MovesByDestination == nil || m.AddedByPriority == nil {
		t.Error("maps should be initialised")
	}
}

func TestMetricsCalculator_FiltersBySince(t *testing.T) {
	log := newTestEventLog(t)

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	appendEvents(t, log,
		Event{Time: base.Add(-48 * time.Hour), Type: EventTaskAdded},
		Event{Time: base, Type: EventTaskAdded},
	)

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.TasksAdded != 1 {
		t.Errorf("TasksAdded = %d, want 1", m.TasksAdded)
	}
}
