package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
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
	ConditionOverdue     = "task_overdue"
	ConditionDueSoon     = "task_due_soon"
	ConditionWIPExceeded = "wip_limit_exceeded"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id" yaml:"id"`
	Condition   string        `json:"condition" yaml:"condition"`
	Severity    AlertSeverity `json:"severity" yaml:"severity"`
	Message     string        `json:"message" yaml:"message"`
	TaskID      string        `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	TriggeredAt time.Time     `json:"triggered_at" yaml:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	// DueSoonDays is how many days ahead a deadline counts as due soon.
	DueSoonDays int `yaml:"due_soon_days" json:"due_soon_days"`
	// WIPLimit caps the progress column; 0 disables the check.
	WIPLimit int `yaml:"wip_limit" json:"wip_limit"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		DueSoonDays: 2,
		WIPLimit:    5,
	}
}

// SnapshotSource provides the board state alerts are evaluated against.
type SnapshotSource interface {
	Snapshot() models.BoardSnapshot
}

// AlertEngine evaluates alert conditions against the current board.
type AlertEngine interface {
	Evaluate() []Alert
}

// alertEngine checks deadlines and the progress column of a live board.
type alertEngine struct {
	board      SnapshotSource
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine over board. A nil now uses
// time.Now.
func NewAlertEngine(board SnapshotSource, thresholds AlertThresholds, now func() time.Time) AlertEngine {
	if now == nil {
		now = time.Now
	}
	return &alertEngine{
		board:      board,
		thresholds: thresholds,
		now:        now,
	}
}

// Evaluate returns the triggered alerts: deadline alerts in column order,
// then the WIP limit alert.
func (ae *alertEngine) Evaluate() []Alert {
	now := ae.now()
	snap := ae.board.Snapshot()

	var alerts []Alert
	for _, col := range []models.Column{models.ColumnTodo, models.ColumnProgress} {
		for _, task := range snap.Tasks(col) {
			if a, ok := ae.checkDeadline(task, now); ok {
				alerts = append(alerts, a)
			}
		}
	}
	if a, ok := ae.checkWIP(snap, now); ok {
		alerts = append(alerts, a)
	}
	return alerts
}

// checkDeadline compares a task's deadline with today's date. Deadlines that
// do not parse never alert.
func (ae *alertEngine) checkDeadline(task models.Task, now time.Time) (Alert, bool) {
	deadline, ok := task.DeadlineDate(now.Location())
	if !ok {
		return Alert{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case deadline.Before(today):
		return Alert{
			ID:          fmt.Sprintf("overdue-%s", task.ID),
			Condition:   ConditionOverdue,
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("task %q was due on %s", task.Title, task.Deadline),
			TaskID:      task.ID,
			TriggeredAt: now,
		}, true
	case !deadline.After(today.AddDate(0, 0, ae.thresholds.DueSoonDays)):
		return Alert{
			ID:          fmt.Sprintf("due-soon-%s", task.ID),
			Condition:   ConditionDueSoon,
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("task %q is due on %s", task.Title, task.Deadline),
			TaskID:      task.ID,
			TriggeredAt: now,
		}, true
	}
	return Alert{}, false
}

func (ae *alertEngine) checkWIP(snap models.BoardSnapshot, now time.Time) (Alert, bool) {
	limit := ae.thresholds.WIPLimit
	if limit <= 0 || len(snap.Progress) <= limit {
		return Alert{}, false
	}
	return Alert{
		ID:          "wip-limit",
		Condition:   ConditionWIPExceeded,
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("%d tasks in progress, exceeding the limit of %d", len(snap.Progress), limit),
		TriggeredAt: now,
	}, true
}
