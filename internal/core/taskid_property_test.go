package core

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"pgregory.net/rapid"
)

// Every call to GenerateTaskID must produce a unique, prefixed ID.
func TestProperty_TaskIDUniqueness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 100).Draw(rt, "n")
		prefix := rapid.StringMatching(`[a-z0-9]{1,10}`).Draw(rt, "prefix")
		sequential := rapid.Bool().Draw(rt, "sequential")

		gen := NewTaskIDGenerator(prefix)
		if sequential {
			gen = NewSequentialIDGenerator(prefix)
		}

		seen := make(map[string]struct{}, n)
		for i := 0; i < n; i++ {
			id, err := gen.GenerateTaskID()
			if err != nil {
				rt.Fatalf("GenerateTaskID failed on call %d: %v", i+1, err)
			}
			if !strings.HasPrefix(id, prefix+"-") {
				rt.Fatalf("id %q lacks prefix %q", id, prefix)
			}
			if _, exists := seen[id]; exists {
				rt.Fatalf("duplicate task ID %q on call %d", id, i+1)
			}
			seen[id] = struct{}{}
		}
	})
}

// Sequential IDs count up from 1 without gaps, even under concurrent use.
func TestProperty_SequentialIDsDense(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		workers := rapid.IntRange(1, 8).Draw(rt, "workers")
		perWorker := rapid.IntRange(1, 20).Draw(rt, "perWorker")

		gen := NewSequentialIDGenerator("task")
		var (
			mu  sync.Mutex
			ids = make(map[string]bool)
			wg  sync.WaitGroup
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					id, _ := gen.GenerateTaskID()
					mu.Lock()
					ids[id] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		total := workers * perWorker
		for i := 1; i <= total; i++ {
			if !ids[fmt.Sprintf("task-%d", i)] {
				rt.Fatalf("missing task-%d among %d ids", i, len(ids))
			}
		}
	})
}
