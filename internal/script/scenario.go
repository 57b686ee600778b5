// Package script runs YAML board scenarios: an ordered list of add, edit,
// remove and move steps applied to a fresh board.
package script

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// ErrInvalidStep is returned for steps that do not name exactly one valid
// action.
var ErrInvalidStep = errors.New("invalid step")

// Scenario is a parsed scenario file.
type Scenario struct {
	Name   string       `yaml:"name,omitempty"`
	Steps  []Step       `yaml:"steps"`
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Step is one board operation. Exactly one of Add, Edit, Remove or Move is
// set. As names the task created by an Add so later steps can refer to it.
type Step struct {
	Add    *models.TaskFields `yaml:"add,omitempty"`
	Edit   *EditStep          `yaml:"edit,omitempty"`
	Remove *Target            `yaml:"remove,omitempty"`
	Move   *MoveStep          `yaml:"move,omitempty"`
	As     string             `yaml:"as,omitempty"`
}

// Target addresses a task either by alias or ID (Task), or by position
// (Column and Index).
type Target struct {
	Task   string        `yaml:"task,omitempty"`
	Column models.Column `yaml:"column,omitempty"`
	Index  *int          `yaml:"index,omitempty"`
}

// EditStep replaces the given fields of the target task. Fields that are
// omitted or blank keep their previous value.
type EditStep struct {
	Target           `yaml:",inline"`
	models.TaskPatch `yaml:",inline"`
}

// patch returns the step's fields trimmed, with blank ones dropped.
func (e EditStep) patch() models.TaskPatch {
	var p models.TaskPatch
	p.Title = nonBlank(e.Title)
	p.Description = nonBlank(e.Description)
	if v := nonBlank((*string)(e.Priority)); v != nil {
		prio := models.Priority(*v)
		p.Priority = &prio
	}
	p.Deadline = nonBlank(e.Deadline)
	return p
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// MoveStep moves the target task to the end of To.
type MoveStep struct {
	Target `yaml:",inline"`
	To     models.Column `yaml:"to"`
}

// Expectation asserts column sizes after the last step. Nil counts are not
// checked.
type Expectation struct {
	Todo     *int `yaml:"todo,omitempty"`
	Progress *int `yaml:"progress,omitempty"`
	Done     *int `yaml:"done,omitempty"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: scenario path is user supplied
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	for i, step := range sc.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &sc, nil
}

// Kind returns the name of the step's action.
func (s Step) Kind() string {
	switch {
	case s.Add != nil:
		return "add"
	case s.Edit != nil:
		return "edit"
	case s.Remove != nil:
		return "remove"
	case s.Move != nil:
		return "move"
	}
	return ""
}

func (s Step) validate() error {
	actions := 0
	for _, set := range []bool{s.Add != nil, s.Edit != nil, s.Remove != nil, s.Move != nil} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("%w: want exactly one of add, edit, remove, move; got %d", ErrInvalidStep, actions)
	}
	if s.As != "" && s.Add == nil {
		return fmt.Errorf("%w: as is only allowed on add", ErrInvalidStep)
	}

	switch {
	case s.Edit != nil:
		return s.Edit.Target.validate()
	case s.Remove != nil:
		return s.Remove.validate()
	case s.Move != nil:
		if s.Move.To == "" {
			return fmt.Errorf("%w: move needs a destination column", ErrInvalidStep)
		}
		return s.Move.Target.validate()
	}
	return nil
}

func (t Target) validate() error {
	positional := t.Column != "" || t.Index != nil
	switch {
	case t.Task != "" && positional:
		return fmt.Errorf("%w: address a task by task or by column and index, not both", ErrInvalidStep)
	case t.Task == "" && (t.Column == "" || t.Index == nil):
		return fmt.Errorf("%w: target needs task, or column and index", ErrInvalidStep)
	}
	return nil
}
