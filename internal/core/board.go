// Package core contains the business logic for taskboard: the in-memory
// board state container, task ID generation, and configuration loading.
package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

var (
	// ErrEmptyTitle is returned when a task would be left without a title.
	ErrEmptyTitle = errors.New("task title must not be empty")
	// ErrTaskNotFound is returned when no task carries the requested ID.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUnknownColumn is returned for a column key other than todo, progress or done.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrIndexOutOfRange is returned when a positional address no longer
	// points at a task, typically because the column changed since the
	// index was read.
	ErrIndexOutOfRange = errors.New("task index out of range")
)

// Board defines the operations of the board state container. Tasks are
// addressed by ID; the *At variants resolve a (column, index) position to an
// ID and apply the same operation atomically.
type Board interface {
	Add(fields models.TaskFields) (models.Task, error)
	Edit(id string, patch models.TaskPatch) (models.Task, error)
	Remove(id string) (models.Task, models.Column, int, error)
	Move(id string, to models.Column) (models.Task, error)

	TaskAt(column models.Column, index int) (models.Task, error)
	EditAt(column models.Column, index int, patch models.TaskPatch) (models.Task, error)
	RemoveAt(column models.Column, index int) (models.Task, error)
	MoveAt(from models.Column, index int, to models.Column) (models.Task, error)

	Get(id string) (models.Task, models.Column, int, error)
	Snapshot() models.BoardSnapshot
	Stats() models.BoardStats

	// Subscribe registers fn to be called after every successful mutation.
	// Listeners are called in mutation order and must not mutate the board.
	Subscribe(fn func(models.Change)) (unsubscribe func())
}

// BoardOptions configures a new Board.
type BoardOptions struct {
	// DefaultPriority is applied to added tasks that carry no priority.
	DefaultPriority models.Priority
	// Now overrides the clock used for Created/Updated timestamps.
	Now func() time.Time
}

// memoryBoard implements Board with three in-memory slices guarded by a
// RWMutex. notifyMu keeps listener calls in mutation order without holding
// the state lock while listeners run.
type memoryBoard struct {
	mu       sync.RWMutex
	notifyMu sync.Mutex

	idGen           TaskIDGenerator
	defaultPriority models.Priority
	now             func() time.Time

	columns map[models.Column][]models.Task

	listeners    map[int]func(models.Change)
	nextListener int
}

// NewBoard creates an empty board. idGen assigns task IDs on Add.
func NewBoard(idGen TaskIDGenerator, opts BoardOptions) Board {
	if opts.DefaultPriority == "" {
		opts.DefaultPriority = models.PriorityLow
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &memoryBoard{
		idGen:           idGen,
		defaultPriority: opts.DefaultPriority,
		now:             opts.Now,
		columns: map[models.Column][]models.Task{
			models.ColumnTodo:     {},
			models.ColumnProgress: {},
			models.ColumnDone:     {},
		},
		listeners: make(map[int]func(models.Change)),
	}
}

// Add appends a new task to the todo column.
func (b *memoryBoard) Add(fields models.TaskFields) (models.Task, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return models.Task{}, ErrEmptyTitle
	}

	id, err := b.idGen.GenerateTaskID()
	if err != nil {
		return models.Task{}, fmt.Errorf("adding task: %w", err)
	}

	priority := fields.Priority
	if priority == "" {
		priority = b.defaultPriority
	}

	b.mu.Lock()
	if _, _, exists := b.locate(id); exists {
		b.mu.Unlock()
		return models.Task{}, fmt.Errorf("adding task: duplicate id %s", id)
	}
	now := b.now()
	task := models.Task{
		ID:          id,
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    priority,
		Deadline:    fields.Deadline,
		Created:     now,
		Updated:     now,
	}
	b.columns[models.ColumnTodo] = append(b.columns[models.ColumnTodo], task)
	b.unlockAndPublish(models.Change{
		Kind:  models.ChangeAdded,
		Task:  task,
		From:  models.ColumnTodo,
		To:    models.ColumnTodo,
		Index: len(b.columns[models.ColumnTodo]) - 1,
		Time:  now,
	})
	return task, nil
}

// Edit replaces the patched fields of the task with the given ID in place.
func (b *memoryBoard) Edit(id string, patch models.TaskPatch) (models.Task, error) {
	b.mu.Lock()
	task, ch, err := b.editLocked(id, patch)
	b.finish(ch, err)
	if err != nil {
		return models.Task{}, fmt.Errorf("editing task %s: %w", id, err)
	}
	return task, nil
}

// Remove deletes the task with the given ID and reports the position it
// held.
func (b *memoryBoard) Remove(id string) (models.Task, models.Column, int, error) {
	b.mu.Lock()
	task, ch, err := b.removeLocked(id)
	b.finish(ch, err)
	if err != nil {
		return models.Task{}, "", -1, fmt.Errorf("removing task %s: %w", id, err)
	}
	return task, ch.From, ch.Index, nil
}

// Move relocates the task with the given ID to the end of column to.
func (b *memoryBoard) Move(id string, to models.Column) (models.Task, error) {
	b.mu.Lock()
	task, ch, err := b.moveLocked(id, to)
	b.finish(ch, err)
	if err != nil {
		return models.Task{}, fmt.Errorf("moving task %s: %w", id, err)
	}
	return task, nil
}

// TaskAt returns the task at the given position.
func (b *memoryBoard) TaskAt(column models.Column, index int) (models.Task, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	id, err := b.idAt(column, index)
	if err != nil {
		return models.Task{}, err
	}
	col, idx, _ := b.locate(id)
	return b.columns[col][idx], nil
}

// EditAt edits the task at the given position.
func (b *memoryBoard) EditAt(column models.Column, index int, patch models.TaskPatch) (models.Task, error) {
	b.mu.Lock()
	id, err := b.idAt(column, index)
	var (
		task models.Task
		ch   *models.Change
	)
	if err == nil {
		task, ch, err = b.editLocked(id, patch)
	}
	b.finish(ch, err)
	if err != nil {
		return models.Task{}, fmt.Errorf("editing %s[%d]: %w", column, index, err)
	}
	return task, nil
}

// RemoveAt deletes the task at the given position, shifting later tasks down.
func (b *memoryBoard) RemoveAt(column models.Column, index int) (models.Task, error) {
	b.mu.Lock()
	id, err := b.idAt(column, index)
	var (
		task models.Task
		ch   *models.Change
	)
	if err == nil {
		task, ch, err = b.removeLocked(id)
	}
	b.finish(ch, err)
	if err != nil {
		return models.Task{}, fmt.Errorf("removing %s[%d]: %w", column, index, err)
	}
	return task, nil
}

// MoveAt moves the task at the given position to the end of column to.
func (b *memoryBoard) MoveAt(from models.Column, index int, to models.Column) (models.Task, error) {
	b.mu.Lock()
	id, err := b.idAt(from, index)
	var (
		task models.Task
		ch   *models.Change
	)
	if err == nil {
		task, ch, err = b.moveLocked(id, to)
	}
	b.finish(ch, err)
	if err != nil {
		return models.Task{}, fmt.Errorf("moving %s[%d] to %s: %w", from, index, to, err)
	}
	return task, nil
}

// Get returns the task with the given ID along with its current column and
// position.
func (b *memoryBoard) Get(id string) (models.Task, models.Column, int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	col, idx, ok := b.locate(id)
	if !ok {
		return models.Task{}, "", 0, fmt.Errorf("getting task %s: %w", id, ErrTaskNotFound)
	}
	return b.columns[col][idx], col, idx, nil
}

// Snapshot returns a copy of all three columns. Column slices are never nil.
func (b *memoryBoard) Snapshot() models.BoardSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return models.BoardSnapshot{
		Todo:     cloneTasks(b.columns[models.ColumnTodo]),
		Progress: cloneTasks(b.columns[models.ColumnProgress]),
		Done:     cloneTasks(b.columns[models.ColumnDone]),
	}
}

// Stats returns the per-column counters.
func (b *memoryBoard) Stats() models.BoardStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := models.BoardStats{
		Todo:     len(b.columns[models.ColumnTodo]),
		Progress: len(b.columns[models.ColumnProgress]),
		Done:     len(b.columns[models.ColumnDone]),
	}
	s.Active = s.Todo + s.Progress
	s.Total = s.Active + s.Done
	return s
}

// Subscribe registers a change listener.
func (b *memoryBoard) Subscribe(fn func(models.Change)) func() {
	b.mu.Lock()
	id := b.nextListener
	b.nextListener++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// --- locked helpers; callers hold b.mu for writing ---

func (b *memoryBoard) editLocked(id string, patch models.TaskPatch) (models.Task, *models.Change, error) {
	col, idx, ok := b.locate(id)
	if !ok {
		return models.Task{}, nil, ErrTaskNotFound
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.Task{}, nil, ErrEmptyTitle
	}

	task := b.columns[col][idx]
	if patch.Empty() {
		return task, nil, nil
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Deadline != nil {
		task.Deadline = *patch.Deadline
	}
	task.Updated = b.now()
	b.columns[col][idx] = task

	return task, &models.Change{
		Kind:  models.ChangeEdited,
		Task:  task,
		From:  col,
		To:    col,
		Index: idx,
		Time:  task.Updated,
	}, nil
}

func (b *memoryBoard) removeLocked(id string) (models.Task, *models.Change, error) {
	col, idx, ok := b.locate(id)
	if !ok {
		return models.Task{}, nil, ErrTaskNotFound
	}
	task := b.columns[col][idx]
	b.columns[col] = deleteAt(b.columns[col], idx)

	return task, &models.Change{
		Kind:  models.ChangeRemoved,
		Task:  task,
		From:  col,
		To:    col,
		Index: idx,
		Time:  b.now(),
	}, nil
}

func (b *memoryBoard) moveLocked(id string, to models.Column) (models.Task, *models.Change, error) {
	if !to.Valid() {
		return models.Task{}, nil, fmt.Errorf("%w %q", ErrUnknownColumn, to)
	}
	from, idx, ok := b.locate(id)
	if !ok {
		return models.Task{}, nil, ErrTaskNotFound
	}

	task := b.columns[from][idx]
	task.Updated = b.now()
	b.columns[from] = deleteAt(b.columns[from], idx)
	b.columns[to] = append(b.columns[to], task)

	return task, &models.Change{
		Kind:  models.ChangeMoved,
		Task:  task,
		From:  from,
		To:    to,
		Index: len(b.columns[to]) - 1,
		Time:  task.Updated,
	}, nil
}

// idAt resolves a position to a task ID. Callers hold b.mu.
func (b *memoryBoard) idAt(column models.Column, index int) (string, error) {
	if !column.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownColumn, column)
	}
	tasks := b.columns[column]
	if index < 0 || index >= len(tasks) {
		return "", fmt.Errorf("%w: %s has %d task(s), index %d", ErrIndexOutOfRange, column, len(tasks), index)
	}
	return tasks[index].ID, nil
}

// locate finds the column and position of the task with the given ID.
// Callers hold b.mu.
func (b *memoryBoard) locate(id string) (models.Column, int, bool) {
	for _, col := range models.Columns {
		for i, t := range b.columns[col] {
			if t.ID == id {
				return col, i, true
			}
		}
	}
	return "", 0, false
}

// finish releases the write lock, publishing ch when the mutation succeeded.
func (b *memoryBoard) finish(ch *models.Change, err error) {
	if err != nil || ch == nil {
		b.mu.Unlock()
		return
	}
	b.unlockAndPublish(*ch)
}

// unlockAndPublish releases the write lock and delivers ch to every listener.
// notifyMu is taken before the state lock is released so that deliveries
// happen in the same order as the mutations.
func (b *memoryBoard) unlockAndPublish(ch models.Change) {
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(models.Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.listeners[id])
	}

	b.notifyMu.Lock()
	b.mu.Unlock()
	defer b.notifyMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

func deleteAt(tasks []models.Task, idx int) []models.Task {
	out := make([]models.Task, 0, len(tasks)-1)
	out = append(out, tasks[:idx]...)
	return append(out, tasks[idx+1:]...)
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}
