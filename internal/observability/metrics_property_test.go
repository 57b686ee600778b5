package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

var allEventTypes = []EventType{
	EventTaskAdded, EventTaskEdited, EventTaskRemoved, EventTaskMoved, EventTaskCompleted,
}

// Property: every event in range is counted exactly once, both in EventCount
// and in the per-type counter matching its type.
func TestProperty_MetricsCountEveryEvent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := OpenEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
		n := rapid.IntRange(0, 30).Draw(rt, "numEvents")
		want := make(map[EventType]int)
		for i := 0; i < n; i++ {
			typ := rapid.SampledFrom(allEventTypes).Draw(rt, fmt.Sprintf("type_%d", i))
			offset := rapid.IntRange(0, 168).Draw(rt, fmt.Sprintf("hours_%d", i))
			want[typ]++
			event := Event{
				Time:     base.Add(time.Duration(offset) * time.Hour),
				Type:     typ,
				TaskID:   fmt.Sprintf("task-%d", i),
				Priority: models.PriorityLow,
				To:       models.ColumnDone,
			}
			if err := el.Append(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		m, err := NewMetricsCalculator(el).Calculate(base)
		if err != nil {
			t.Fatalf("calculating metrics: %v", err)
		}

		if m.EventCount != n {
			rt.Errorf("EventCount = %d, want %d", m.EventCount, n)
		}
		got := map[EventType]int{
			EventTaskAdded:     m.TasksAdded,
			EventTaskEdited:    m.TasksEdited,
			EventTaskRemoved:   m.TasksRemoved,
			EventTaskMoved:     m.TasksMoved,
			EventTaskCompleted: m.TasksCompleted,
		}
		for _, typ := range allEventTypes {
			if got[typ] != want[typ] {
				rt.Errorf("%s: got %d, want %d", typ, got[typ], want[typ])
			}
		}
		if m.MovesByDestination["done"] != want[EventTaskMoved] {
			rt.Errorf("moves to done = %d, want %d", m.MovesByDestination["done"], want[EventTaskMoved])
		}
	})
}
