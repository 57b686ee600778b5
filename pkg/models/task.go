package models

import (
	"strings"
	"time"
)

// Priority represents the urgency label shown on a task card. The add form
// offers High and Low; edits accept any free text.
type Priority string

const (
	PriorityHigh Priority = "High"
	PriorityLow  Priority = "Low"
)

// Task is a unit of work on the board. ID is assigned at creation and is the
// only stable way to address a task; its position inside a column changes as
// other tasks are removed or moved.
type Task struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description"`
	Priority    Priority  `yaml:"priority" json:"priority"`
	Deadline    string    `yaml:"deadline" json:"deadline"`
	Created     time.Time `yaml:"created" json:"created"`
	Updated     time.Time `yaml:"updated" json:"updated"`
}

// TaskFields holds the user-supplied fields of a new task.
type TaskFields struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Priority    Priority `yaml:"priority,omitempty" json:"priority,omitempty"`
	Deadline    string   `yaml:"deadline,omitempty" json:"deadline,omitempty"`
}

// TaskPatch describes an in-place edit. A nil field keeps the current value.
type TaskPatch struct {
	Title       *string   `yaml:"title,omitempty" json:"title,omitempty"`
	Description *string   `yaml:"description,omitempty" json:"description,omitempty"`
	Priority    *Priority `yaml:"priority,omitempty" json:"priority,omitempty"`
	Deadline    *string   `yaml:"deadline,omitempty" json:"deadline,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Deadline == nil
}

// deadlineLayouts are the deadline spellings recognised by DeadlineDate.
var deadlineLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

// DeadlineDate parses the free-text deadline as a calendar date in loc.
// It returns false when the deadline is empty or not in a recognised layout.
func (t Task) DeadlineDate(loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(t.Deadline)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if d, err := time.ParseInLocation(layout, s, loc); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
