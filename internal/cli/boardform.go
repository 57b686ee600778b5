package cli

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldPriority
	fieldDeadline
	fieldCount
)

// addPriorities are the choices offered by the add form.
var addPriorities = []models.Priority{models.PriorityHigh, models.PriorityLow}

// taskForm backs both the add and the edit form. The add form offers a
// High/Low priority choice; the edit form takes priority as free text.
type taskForm struct {
	editing  bool
	taskID   string
	original models.Task

	title       textinput.Model
	description textarea.Model
	priority    textinput.Model
	choice      int
	deadline    textinput.Model

	focus formField
	err   string
}

func newTaskForm() *taskForm {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 120

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.ShowLineNumbers = false
	desc.SetHeight(3)

	prio := textinput.New()
	prio.Placeholder = "Priority"
	prio.CharLimit = 20

	deadline := textinput.New()
	deadline.CharLimit = 20

	return &taskForm{
		title:       title,
		description: desc,
		priority:    prio,
		deadline:    deadline,
	}
}

func newAddForm(defaultPriority models.Priority) *taskForm {
	f := newTaskForm()
	f.deadline.Placeholder = "YYYY-MM-DD"
	for i, p := range addPriorities {
		if p == defaultPriority {
			f.choice = i
		}
	}
	if defaultPriority == "" {
		f.choice = len(addPriorities) - 1
	}
	return f
}

// newEditForm prefills every field with the task's current value.
func newEditForm(task models.Task) *taskForm {
	f := newTaskForm()
	f.editing = true
	f.taskID = task.ID
	f.original = task
	f.title.SetValue(task.Title)
	f.description.SetValue(task.Description)
	f.priority.SetValue(string(task.Priority))
	f.deadline.Placeholder = "DD-MM-YYYY"
	f.deadline.SetValue(task.Deadline)
	return f
}

func (f *taskForm) next() tea.Cmd {
	f.focus = (f.focus + 1) % fieldCount
	return f.focusCurrent()
}

func (f *taskForm) prev() tea.Cmd {
	f.focus = (f.focus - 1 + fieldCount) % fieldCount
	return f.focusCurrent()
}

func (f *taskForm) focusCurrent() tea.Cmd {
	f.title.Blur()
	f.description.Blur()
	f.priority.Blur()
	f.deadline.Blur()

	switch f.focus {
	case fieldTitle:
		return f.title.Focus()
	case fieldDescription:
		return f.description.Focus()
	case fieldPriority:
		if f.editing {
			return f.priority.Focus()
		}
	case fieldDeadline:
		return f.deadline.Focus()
	}
	return nil
}

// update forwards msg to the focused field.
func (f *taskForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
		if f.err != "" && strings.TrimSpace(f.title.Value()) != "" {
			f.err = ""
		}
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	case fieldPriority:
		if f.editing {
			f.priority, cmd = f.priority.Update(msg)
			break
		}
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "left", "h", "up", "k":
				f.choice = (f.choice - 1 + len(addPriorities)) % len(addPriorities)
			case "right", "l", "down", "j", " ":
				f.choice = (f.choice + 1) % len(addPriorities)
			}
		}
	case fieldDeadline:
		f.deadline, cmd = f.deadline.Update(msg)
	}
	return cmd
}

// fields returns the add form's values with surrounding whitespace removed.
func (f *taskForm) fields() models.TaskFields {
	return models.TaskFields{
		Title:       strings.TrimSpace(f.title.Value()),
		Description: strings.TrimSpace(f.description.Value()),
		Priority:    addPriorities[f.choice],
		Deadline:    strings.TrimSpace(f.deadline.Value()),
	}
}

// patch returns the edit form's changes. A field left empty keeps the
// task's previous value, as does a field that was not changed.
func (f *taskForm) patch() models.TaskPatch {
	var p models.TaskPatch
	if v, ok := changed(f.title.Value(), f.original.Title); ok {
		p.Title = &v
	}
	if v, ok := changed(f.description.Value(), f.original.Description); ok {
		p.Description = &v
	}
	if v, ok := changed(f.priority.Value(), string(f.original.Priority)); ok {
		prio := models.Priority(v)
		p.Priority = &prio
	}
	if v, ok := changed(f.deadline.Value(), f.original.Deadline); ok {
		p.Deadline = &v
	}
	return p
}

func changed(input, previous string) (string, bool) {
	v := strings.TrimSpace(input)
	if v == "" || v == previous {
		return "", false
	}
	return v, true
}
