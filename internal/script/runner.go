package script

import (
	"errors"
	"fmt"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// ErrExpectationFailed is returned when the final board does not match the
// scenario's expect block.
var ErrExpectationFailed = errors.New("expectation failed")

// Result is the outcome of a scenario run.
type Result struct {
	Name  string               `yaml:"name,omitempty" json:"name,omitempty"`
	Steps int                  `yaml:"steps" json:"steps"`
	Board models.BoardSnapshot `yaml:"board" json:"board"`
	Stats models.BoardStats    `yaml:"stats" json:"stats"`
	// Aliases maps each as: name to the ID of the task it created.
	Aliases map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// Run applies the scenario's steps to board in order and stops at the first
// failing step. The board is left in the state reached so far.
func Run(board core.Board, sc *Scenario) (*Result, error) {
	aliases := make(map[string]string)

	for i, step := range sc.Steps {
		if err := apply(board, step, aliases); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Kind(), err)
		}
	}

	snap := board.Snapshot()
	res := &Result{
		Name:  sc.Name,
		Steps: len(sc.Steps),
		Board: snap,
		Stats: snap.Stats(),
	}
	if len(aliases) > 0 {
		res.Aliases = aliases
	}

	if sc.Expect != nil {
		if err := sc.Expect.check(snap); err != nil {
			return res, err
		}
	}
	return res, nil
}

func apply(board core.Board, step Step, aliases map[string]string) error {
	switch {
	case step.Add != nil:
		task, err := board.Add(*step.Add)
		if err != nil {
			return err
		}
		if step.As != "" {
			aliases[step.As] = task.ID
		}
		return nil

	case step.Edit != nil:
		t := step.Edit.Target
		patch := step.Edit.patch()
		if t.Task != "" {
			_, err := board.Edit(resolve(t.Task, aliases), patch)
			return err
		}
		_, err := board.EditAt(t.Column, *t.Index, patch)
		return err

	case step.Remove != nil:
		t := *step.Remove
		if t.Task != "" {
			_, _, _, err := board.Remove(resolve(t.Task, aliases))
			return err
		}
		_, err := board.RemoveAt(t.Column, *t.Index)
		return err

	case step.Move != nil:
		t := step.Move.Target
		if t.Task != "" {
			_, err := board.Move(resolve(t.Task, aliases), step.Move.To)
			return err
		}
		_, err := board.MoveAt(t.Column, *t.Index, step.Move.To)
		return err
	}
	return ErrInvalidStep
}

// resolve maps an alias to its task ID; anything else is taken as an ID.
func resolve(ref string, aliases map[string]string) string {
	if id, ok := aliases[ref]; ok {
		return id
	}
	return ref
}

func (e *Expectation) check(snap models.BoardSnapshot) error {
	checks := []struct {
		col  models.Column
		want *int
	}{
		{models.ColumnTodo, e.Todo},
		{models.ColumnProgress, e.Progress},
		{models.ColumnDone, e.Done},
	}
	for _, c := range checks {
		if c.want == nil {
			continue
		}
		if got := len(snap.Tasks(c.col)); got != *c.want {
			return fmt.Errorf("%w: %s has %d tasks, want %d", ErrExpectationFailed, c.col, got, *c.want)
		}
	}
	return nil
}
