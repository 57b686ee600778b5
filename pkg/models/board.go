package models

import (
	"fmt"
	"time"
)

// Column identifies one of the three fixed task buckets.
type Column string

const (
	ColumnTodo     Column = "todo"
	ColumnProgress Column = "progress"
	ColumnDone     Column = "done"
)

// Columns lists the board columns in display order.
var Columns = []Column{ColumnTodo, ColumnProgress, ColumnDone}

// Valid reports whether c names one of the board columns.
func (c Column) Valid() bool {
	switch c {
	case ColumnTodo, ColumnProgress, ColumnDone:
		return true
	}
	return false
}

// DefaultTitle returns the display title used when no title is configured.
func (c Column) DefaultTitle() string {
	switch c {
	case ColumnTodo:
		return "To Do"
	case ColumnProgress:
		return "On Progress"
	case ColumnDone:
		return "Done"
	}
	return string(c)
}

// BoardSnapshot is a deep copy of the board at one instant.
type BoardSnapshot struct {
	Todo     []Task `yaml:"todo" json:"todo"`
	Progress []Task `yaml:"progress" json:"progress"`
	Done     []Task `yaml:"done" json:"done"`
}

// Tasks returns the tasks of the given column, or nil for an unknown column.
func (s BoardSnapshot) Tasks(c Column) []Task {
	switch c {
	case ColumnTodo:
		return s.Todo
	case ColumnProgress:
		return s.Progress
	case ColumnDone:
		return s.Done
	}
	return nil
}

// Len returns the total number of tasks on the board.
func (s BoardSnapshot) Len() int {
	return len(s.Todo) + len(s.Progress) + len(s.Done)
}

// Stats derives the board counters from the snapshot.
func (s BoardSnapshot) Stats() BoardStats {
	st := BoardStats{
		Todo:     len(s.Todo),
		Progress: len(s.Progress),
		Done:     len(s.Done),
	}
	st.Active = st.Todo + st.Progress
	st.Total = st.Active + st.Done
	return st
}

// BoardStats holds the counters shown in the board sidebar.
type BoardStats struct {
	Todo     int `yaml:"todo" json:"todo"`
	Progress int `yaml:"progress" json:"progress"`
	Done     int `yaml:"done" json:"done"`
	// Active counts tasks that are not done.
	Active int `yaml:"active" json:"active"`
	Total  int `yaml:"total" json:"total"`
}

// Completed renders the done counter as "done/total".
func (s BoardStats) Completed() string {
	return fmt.Sprintf("%d/%d", s.Done, s.Total)
}

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeEdited  ChangeKind = "edited"
	ChangeRemoved ChangeKind = "removed"
	ChangeMoved   ChangeKind = "moved"
)

// Change describes one successful board mutation. For moves, From is the
// source column and To the destination; for other kinds both hold the
// task's column. Index is the task's position after the mutation (before it,
// for removals).
type Change struct {
	Kind  ChangeKind `json:"kind"`
	Task  Task       `json:"task"`
	From  Column     `json:"from"`
	To    Column     `json:"to"`
	Index int        `json:"index"`
	Time  time.Time  `json:"time"`
}
