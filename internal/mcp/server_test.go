package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// --- Fake implementations ---

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
	since   time.Time
}

func (f *fakeMetricsCalculator) Calculate(since time.Time) (*observability.Metrics, error) {
	f.since = since
	return f.metrics, nil
}

type fakeAlertEngine struct {
	alerts []observability.Alert
}

func (f *fakeAlertEngine) Evaluate() []observability.Alert {
	return f.alerts
}

// --- Test helpers ---

func newTestBoard(t *testing.T) core.Board {
	t.Helper()
	return core.NewBoard(core.NewSequentialIDGenerator("task"), core.BoardOptions{
		DefaultPriority: models.PriorityLow,
		Now:             func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) },
	})
}

func mustAdd(t *testing.T, b core.Board, title string) models.Task {
	t.Helper()
	task, err := b.Add(models.TaskFields{Title: title})
	if err != nil {
		t.Fatalf("Add(%q): %v", title, err)
	}
	return task
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// callToolAllowError is like callTool but returns nil instead of failing when
// the tool call returns a protocol error (e.g. schema validation failure).
func callToolAllowError(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		return nil
	}

	return result
}

// decode unmarshals the tool result into out, preferring the text content
// and falling back to the structured content.
func decode(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()

	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return
	}
	if result.StructuredContent == nil {
		t.Fatalf("no decodable output (text was: %s)", text)
	}
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshalling structured content: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshalling structured content: %v", err)
	}
}

// --- Tests ---

func TestListBoard(t *testing.T) {
	b := newTestBoard(t)
	first := mustAdd(t, b, "Write report")
	mustAdd(t, b, "Review draft")
	if _, err := b.Move(first.ID, models.ColumnProgress); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(b, nil, nil, nil, "test")

	result := callTool(t, srv, "list_board", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out listBoardOutput
	decode(t, result, &out)

	if len(out.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(out.Columns))
	}
	for i, col := range models.Columns {
		if out.Columns[i].Column != string(col) {
			t.Errorf("columns[%d] = %s, want %s", i, out.Columns[i].Column, col)
		}
	}
	if got := out.Columns[0].Tasks; len(got) != 1 || got[0].Title != "Review draft" || got[0].Index != 0 {
		t.Errorf("todo = %+v", got)
	}
	if got := out.Columns[1].Tasks; len(got) != 1 || got[0].ID != first.ID || got[0].Column != "progress" {
		t.Errorf("progress = %+v", got)
	}
	if out.Stats.Total != 2 || out.Stats.Active != 2 || out.Stats.Completed != "0/2" {
		t.Errorf("stats = %+v", out.Stats)
	}
}

func TestGetTask(t *testing.T) {
	b := newTestBoard(t)
	mustAdd(t, b, "first")
	task := mustAdd(t, b, "second")
	srv := NewServer(b, nil, nil, nil, "test")

	result := callTool(t, srv, "get_task", map[string]any{"task_id": task.ID})
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractText(result))
	}

	var out taskOutput
	decode(t, result, &out)

	if out.ID != task.ID || out.Title != "second" {
		t.Errorf("got %+v", out)
	}
	if out.Column != "todo" || out.Index != 1 {
		t.Errorf("position = %s[%d], want todo[1]", out.Column, out.Index)
	}
	if out.Priority != "Low" {
		t.Errorf("priority = %q, want Low", out.Priority)
	}
	if out.Created != "2025-03-10T09:00:00Z" {
		t.Errorf("created = %q", out.Created)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	srv := NewServer(newTestBoard(t), nil, nil, nil, "test")

	result := callTool(t, srv, "get_task", map[string]any{"task_id": "task-99"})
	if !result.IsError {
		t.Fatal("expected error result for non-existent task")
	}
	if extractText(result) == "" {
		t.Fatal("expected error message in result content")
	}
}

func TestGetTaskMissingID(t *testing.T) {
	srv := NewServer(newTestBoard(t), nil, nil, nil, "test")

	// The SDK validates required fields at the schema level.
	result := callToolAllowError(t, srv, "get_task", map[string]any{})
	if result == nil {
		return
	}
	if !result.IsError {
		t.Fatal("expected error result for missing task_id")
	}
}

func TestAddTask(t *testing.T) {
	b := newTestBoard(t)
	srv := NewServer(b, nil, nil, nil, "test")

	result := callTool(t, srv, "add_task", map[string]any{
		"title":    "Write report",
		"priority": "High",
		"deadline": "2024-01-01",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out taskOutput
	decode(t, result, &out)
	if out.ID != "task-1" || out.Column != "todo" || out.Index != 0 {
		t.Errorf("got %+v", out)
	}

	snap := b.Snapshot()
	if len(snap.Todo) != 1 || snap.Todo[0].Priority != models.PriorityHigh || snap.Todo[0].Deadline != "2024-01-01" {
		t.Errorf("board todo = %+v", snap.Todo)
	}
}

func TestAddTaskBlankTitle(t *testing.T) {
	b := newTestBoard(t)
	srv := NewServer(b, nil, nil, nil, "test")

	result := callTool(t, srv, "add_task", map[string]any{"title": "   "})
	if !result.IsError {
		t.Fatal("expected error for blank title")
	}
	if b.Snapshot().Len() != 0 {
		t.Error("board must be unchanged after a rejected add")
	}
}

func TestEditTask(t *testing.T) {
	b := newTestBoard(t)
	task, err := b.Add(models.TaskFields{Title: "old", Description: "keep me", Priority: models.PriorityLow})
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(b, nil, nil, nil, "test")

	result := callTool(t, srv, "edit_task", map[string]any{
		"task_id":  task.ID,
		"title":    "new",
		"priority": "Urgent",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	got, _, _, err := b.Get(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "new" || got.Priority != "Urgent" {
		t.Errorf("edited fields not applied: %+v", got)
	}
	if got.Description != "keep me" {
		t.Errorf("description = %q, omitted fields must be kept", got.Description)
	}
}

func TestEditTaskNotFound(t *testing.T) {
	srv := NewServer(newTestBoard(t), nil, nil, nil, "test")

	result := callTool(t, srv, "edit_task", map[string]any{"task_id": "task-7", "title": "x"})
	if !result.IsError {
		t.Fatal("expected error for unknown task")
	}
}

func TestRemoveTask(t *testing.T) {
	b := newTestBoard(t)
	a := mustAdd(t, b, "a")
	mustAdd(t, b, "b")
	srv := NewServer(b, nil, nil, nil, "test")

	result := callTool(t, srv, "remove_task", map[string]any{"task_id": a.ID})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out messageOutput
	decode(t, result, &out)
	if out.Task.ID != a.ID || out.Task.Column != "todo" || out.Task.Index != 0 {
		t.Errorf("removed task = %+v", out.Task)
	}
	if out.Message == "" {
		t.Error("expected a message")
	}

	snap := b.Snapshot()
	if len(snap.Todo) != 1 || snap.Todo[0].Title != "b" {
		t.Errorf("todo after remove = %+v", snap.Todo)
	}

	again := callTool(t, srv, "remove_task", map[string]any{"task_id": a.ID})
	if !again.IsError {
		t.Error("second removal must fail")
	}
}

func TestMoveTask(t *testing.T) {
	b := newTestBoard(t)
	task := mustAdd(t, b, "Write report")
	srv := NewServer(b, nil, nil, nil, "test")

	result := callTool(t, srv, "move_task", map[string]any{"task_id": task.ID, "to": "done"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out taskOutput
	decode(t, result, &out)
	if out.Column != "done" || out.Index != 0 {
		t.Errorf("position = %s[%d], want done[0]", out.Column, out.Index)
	}

	snap := b.Snapshot()
	if len(snap.Todo) != 0 || len(snap.Done) != 1 {
		t.Errorf("board after move = %+v", snap)
	}
}

func TestMoveTaskUnknownColumn(t *testing.T) {
	b := newTestBoard(t)
	task := mustAdd(t, b, "x")
	srv := NewServer(b, nil, nil, nil, "test")

	result := callTool(t, srv, "move_task", map[string]any{"task_id": task.ID, "to": "archive"})
	if !result.IsError {
		t.Fatal("expected error for unknown column")
	}
	if len(b.Snapshot().Todo) != 1 {
		t.Error("task must stay in todo")
	}
}

func TestBoardStats(t *testing.T) {
	b := newTestBoard(t)
	done := mustAdd(t, b, "a")
	mustAdd(t, b, "b")
	mustAdd(t, b, "c")
	if _, err := b.Move(done.ID, models.ColumnDone); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(b, nil, nil, nil, "test")

	result := callTool(t, srv, "board_stats", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out statsOutput
	decode(t, result, &out)
	if out.Todo != 2 || out.Done != 1 || out.Active != 2 || out.Total != 3 || out.Completed != "1/3" {
		t.Errorf("stats = %+v", out)
	}
}

func TestGetMetrics(t *testing.T) {
	oldest := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mc := &fakeMetricsCalculator{metrics: &observability.Metrics{
		TasksAdded:         4,
		TasksCompleted:     1,
		MovesByDestination: map[string]int{"done": 1},
		AddedByPriority:    map[string]int{"High": 3, "Low": 1},
		EventCount:         6,
		OldestEvent:        &oldest,
	}}
	srv := NewServer(newTestBoard(t), mc, nil, nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{"since": "30d"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out metricsOutput
	decode(t, result, &out)
	if out.TasksAdded != 4 || out.TasksCompleted != 1 || out.EventCount != 6 {
		t.Errorf("metrics = %+v", out)
	}
	if out.AddedByPriority["High"] != 3 {
		t.Errorf("AddedByPriority = %v", out.AddedByPriority)
	}
	if out.OldestEvent != "2025-03-01T09:00:00Z" {
		t.Errorf("OldestEvent = %q", out.OldestEvent)
	}
	if age := time.Since(mc.since); age < 29*24*time.Hour || age > 31*24*time.Hour {
		t.Errorf("since window = %v, want about 30 days", age)
	}
}

func TestGetMetricsDisabled(t *testing.T) {
	srv := NewServer(newTestBoard(t), nil, nil, nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error when metrics calculator is nil")
	}
}

func TestGetMetricsBadSince(t *testing.T) {
	mc := &fakeMetricsCalculator{metrics: &observability.Metrics{}}
	srv := NewServer(newTestBoard(t), mc, nil, nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{"since": "7x"})
	if !result.IsError {
		t.Fatal("expected error for unsupported suffix")
	}
}

func TestGetAlerts(t *testing.T) {
	ae := &fakeAlertEngine{alerts: []observability.Alert{{
		ID:          "overdue-task-1",
		Condition:   observability.ConditionOverdue,
		Severity:    observability.SeverityHigh,
		Message:     `task "Write report" was due on 2024-01-01`,
		TaskID:      "task-1",
		TriggeredAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}}}
	srv := NewServer(newTestBoard(t), nil, ae, nil, "test")

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out getAlertsOutput
	decode(t, result, &out)
	if out.Count != 1 || len(out.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %+v", out)
	}
	if out.Alerts[0].Severity != "high" || out.Alerts[0].TaskID != "task-1" {
		t.Errorf("alert = %+v", out.Alerts[0])
	}
}

func TestGetAlertsDisabled(t *testing.T) {
	srv := NewServer(newTestBoard(t), nil, nil, nil, "test")

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error when alert engine is nil")
	}
}

func TestGetAlertsEmpty(t *testing.T) {
	ae := &fakeAlertEngine{alerts: []observability.Alert{}}
	srv := NewServer(newTestBoard(t), nil, ae, nil, "test")

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out getAlertsOutput
	decode(t, result, &out)
	if out.Count != 0 {
		t.Errorf("expected 0 alerts, got %d", out.Count)
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
