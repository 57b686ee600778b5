// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the task board as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"io"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// Server wraps a board and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	board       core.Board
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
	logger      log.FieldLogger
}

// NewServer creates a new MCP server over board. metricsCalc and alertEngine
// may be nil if observability is disabled.
func NewServer(board core.Board, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, logger log.FieldLogger, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if logger == nil {
		discard := log.New()
		discard.Out = io.Discard
		logger = discard
	}

	s := &Server{
		board:       board,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
		logger:      logger.WithField("component", "mcp"),
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "taskboard", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier returned by add_task or list_board"`
}

type taskOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline"`
	Column      string `json:"column"`
	Index       int    `json:"index"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
}

type listBoardInput struct{}

type columnOutput struct {
	Column string       `json:"column"`
	Tasks  []taskOutput `json:"tasks"`
}

type listBoardOutput struct {
	Columns []columnOutput `json:"columns"`
	Stats   statsOutput    `json:"stats"`
}

type addTaskInput struct {
	Title       string `json:"title" jsonschema:"task title, must not be blank"`
	Description string `json:"description,omitempty" jsonschema:"free-text description"`
	Priority    string `json:"priority,omitempty" jsonschema:"priority label, usually High or Low; defaults to the configured priority"`
	Deadline    string `json:"deadline,omitempty" jsonschema:"free-text deadline such as 2025-03-31"`
}

type editTaskInput struct {
	TaskID      string  `json:"task_id" jsonschema:"the task identifier"`
	Title       *string `json:"title,omitempty" jsonschema:"new title; omit to keep the current one"`
	Description *string `json:"description,omitempty" jsonschema:"new description; omit to keep the current one"`
	Priority    *string `json:"priority,omitempty" jsonschema:"new priority; omit to keep the current one"`
	Deadline    *string `json:"deadline,omitempty" jsonschema:"new deadline; omit to keep the current one"`
}

type moveTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier"`
	To     string `json:"to" jsonschema:"destination column: todo, progress or done"`
}

type messageOutput struct {
	Message string     `json:"message"`
	Task    taskOutput `json:"task"`
}

type boardStatsInput struct{}

type statsOutput struct {
	Todo      int    `json:"todo"`
	Progress  int    `json:"progress"`
	Done      int    `json:"done"`
	Active    int    `json:"active"`
	Total     int    `json:"total"`
	Completed string `json:"completed"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksAdded         int            `json:"tasks_added"`
	TasksEdited        int            `json:"tasks_edited"`
	TasksRemoved       int            `json:"tasks_removed"`
	TasksMoved         int            `json:"tasks_moved"`
	TasksCompleted     int            `json:"tasks_completed"`
	MovesByDestination map[string]int `json:"moves_by_destination"`
	AddedByPriority    map[string]int `json:"added_by_priority"`
	EventCount         int            `json:"event_count"`
	OldestEvent        string         `json:"oldest_event,omitempty"`
	NewestEvent        string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TaskID      string `json:"task_id,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_board",
		Description: "List every column of the board in order with its tasks and the board counters.",
	}, s.handleListBoard)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a task by ID, including its current column and position.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task to the end of the todo column. The title must not be blank.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "edit_task",
		Description: "Edit a task in place. Only the fields provided are changed.",
	}, s.handleEditTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "remove_task",
		Description: "Remove a task from the board.",
	}, s.handleRemoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "move_task",
		Description: "Move a task to the end of another column (todo, progress, done).",
	}, s.handleMoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "board_stats",
		Description: "Get the board counters: tasks per column, active tasks and completed tasks.",
	}, s.handleBoardStats)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: tasks added, edited, moved, completed and removed.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (overdue tasks, tasks due soon, WIP limit).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListBoard(_ context.Context, _ *gomcp.CallToolRequest, _ listBoardInput) (*gomcp.CallToolResult, listBoardOutput, error) {
	snap := s.board.Snapshot()
	out := listBoardOutput{
		Columns: make([]columnOutput, 0, len(models.Columns)),
		Stats:   statsToOutput(snap.Stats()),
	}
	for _, col := range models.Columns {
		tasks := snap.Tasks(col)
		co := columnOutput{Column: string(col), Tasks: make([]taskOutput, len(tasks))}
		for i, t := range tasks {
			co.Tasks[i] = taskToOutput(t, col, i)
		}
		out.Columns = append(out.Columns, co)
	}
	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, col, idx, err := s.board.Get(input.TaskID)
	if err != nil {
		return s.fail("get_task", err), taskOutput{}, nil
	}
	return nil, taskToOutput(task, col, idx), nil
}

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	task, err := s.board.Add(models.TaskFields{
		Title:       input.Title,
		Description: input.Description,
		Priority:    models.Priority(input.Priority),
		Deadline:    input.Deadline,
	})
	if err != nil {
		return s.fail("add_task", err), taskOutput{}, nil
	}
	return nil, s.locate(task), nil
}

func (s *Server) handleEditTask(_ context.Context, _ *gomcp.CallToolRequest, input editTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	patch := models.TaskPatch{
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
	}
	if input.Priority != nil {
		p := models.Priority(*input.Priority)
		patch.Priority = &p
	}

	task, err := s.board.Edit(input.TaskID, patch)
	if err != nil {
		return s.fail("edit_task", err), taskOutput{}, nil
	}
	return nil, s.locate(task), nil
}

func (s *Server) handleRemoveTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}

	task, col, idx, err := s.board.Remove(input.TaskID)
	if err != nil {
		return s.fail("remove_task", err), messageOutput{}, nil
	}
	return nil, messageOutput{
		Message: fmt.Sprintf("task %s removed from %s", task.ID, col),
		Task:    taskToOutput(task, col, idx),
	}, nil
}

func (s *Server) handleMoveTask(_ context.Context, _ *gomcp.CallToolRequest, input moveTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.board.Move(input.TaskID, models.Column(input.To))
	if err != nil {
		return s.fail("move_task", err), taskOutput{}, nil
	}
	return nil, s.locate(task), nil
}

func (s *Server) handleBoardStats(_ context.Context, _ *gomcp.CallToolRequest, _ boardStatsInput) (*gomcp.CallToolResult, statsOutput, error) {
	return nil, statsToOutput(s.board.Stats()), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := observability.ParseSince(sinceStr, time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return s.fail("get_metrics", err), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksAdded:         metrics.TasksAdded,
		TasksEdited:        metrics.TasksEdited,
		TasksRemoved:       metrics.TasksRemoved,
		TasksMoved:         metrics.TasksMoved,
		TasksCompleted:     metrics.TasksCompleted,
		MovesByDestination: metrics.MovesByDestination,
		AddedByPriority:    metrics.AddedByPriority,
		EventCount:         metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	alerts := s.alertEngine.Evaluate()
	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TaskID:      a.TaskID,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

// locate reports task with its current column and index. A task removed by
// a concurrent client in between is reported without a position.
func (s *Server) locate(task models.Task) taskOutput {
	current, col, idx, err := s.board.Get(task.ID)
	if err != nil {
		return taskToOutput(task, "", -1)
	}
	return taskToOutput(current, col, idx)
}

// fail logs a board error and converts it into a tool error result.
func (s *Server) fail(tool string, err error) *gomcp.CallToolResult {
	s.logger.WithError(err).WithField("tool", tool).Debug("tool call failed")
	return errorResult(fmt.Sprintf("%s: %s", tool, err))
}

func taskToOutput(t models.Task, col models.Column, idx int) taskOutput {
	return taskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Deadline:    t.Deadline,
		Column:      string(col),
		Index:       idx,
		Created:     t.Created.Format(time.RFC3339),
		Updated:     t.Updated.Format(time.RFC3339),
	}
}

func statsToOutput(st models.BoardStats) statsOutput {
	return statsOutput{
		Todo:      st.Todo,
		Progress:  st.Progress,
		Done:      st.Done,
		Active:    st.Active,
		Total:     st.Total,
		Completed: st.Completed(),
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		MovesByDestination: make(map[string]int),
		AddedByPriority:    make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
