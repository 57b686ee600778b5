package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TaskIDGenerator defines the interface for generating unique task IDs.
type TaskIDGenerator interface {
	GenerateTaskID() (string, error)
}

// uuidTaskIDGenerator implements TaskIDGenerator with random UUIDs.
type uuidTaskIDGenerator struct {
	prefix string
}

// NewTaskIDGenerator creates a TaskIDGenerator that produces IDs of the form
// {prefix}-{uuid}. An empty prefix yields bare UUIDs.
func NewTaskIDGenerator(prefix string) TaskIDGenerator {
	return &uuidTaskIDGenerator{prefix: prefix}
}

// GenerateTaskID returns a new random task ID.
func (g *uuidTaskIDGenerator) GenerateTaskID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating task id: %w", err)
	}
	if g.prefix == "" {
		return id.String(), nil
	}
	return g.prefix + "-" + id.String(), nil
}

// sequentialTaskIDGenerator hands out {prefix}-{n} starting at 1. It is used
// where output must be reproducible, such as scenario runs.
type sequentialTaskIDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

// NewSequentialIDGenerator creates a TaskIDGenerator producing task-1,
// task-2, ... for the given prefix.
func NewSequentialIDGenerator(prefix string) TaskIDGenerator {
	if prefix == "" {
		prefix = "task"
	}
	return &sequentialTaskIDGenerator{prefix: prefix}
}

func (g *sequentialTaskIDGenerator) GenerateTaskID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter), nil
}
