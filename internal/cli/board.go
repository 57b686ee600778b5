package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/api"
	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// createdMessage is shown after a task is added when confirm_create is on.
const createdMessage = "New task has been created successfully"

type boardMode int

const (
	modeBoard boardMode = iota
	modeMenu
	modeAddForm
	modeEditForm
	modePopup
)

type menuAction int

const (
	actionEdit menuAction = iota
	actionRemove
	actionMove
)

type menuItem struct {
	label  string
	action menuAction
	to     models.Column
}

// boardChangedMsg reports a board mutation, made by this model or by another
// surface sharing the board.
type boardChangedMsg struct{}

type boardModel struct {
	board  core.Board
	cfg    *models.BoardConfig
	alerts observability.AlertEngine

	snap      models.BoardSnapshot
	alertList []observability.Alert

	// Cursor: index into models.Columns and row within that column.
	col int
	row int

	mode       boardMode
	menu       []menuItem
	menuCursor int
	menuTaskID string
	form       *taskForm
	notice     string

	width  int
	height int

	changes     chan struct{}
	unsubscribe func()
}

func newBoardModel(board core.Board, cfg *models.BoardConfig, alerts observability.AlertEngine) boardModel {
	if cfg == nil {
		cfg = core.DefaultBoardConfig()
	}
	changes := make(chan struct{}, 1)
	m := boardModel{
		board:   board,
		cfg:     cfg,
		alerts:  alerts,
		changes: changes,
	}
	m.unsubscribe = board.Subscribe(func(models.Change) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	m.refresh()
	return m
}

// watchBoard waits for the next board change notification.
func watchBoard(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return boardChangedMsg{}
	}
}

func (m boardModel) Init() tea.Cmd {
	return watchBoard(m.changes)
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardChangedMsg:
		m.refresh()
		return m, watchBoard(m.changes)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeMenu:
			return m.updateMenu(msg)
		case modeAddForm, modeEditForm:
			return m.updateForm(msg)
		case modePopup:
			return m.updatePopup(msg)
		}
		return m.updateBoard(msg)
	}

	if m.form != nil {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m boardModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "left", "h":
		if m.col > 0 {
			m.col--
			m.clampRow()
		}
	case "right", "l":
		if m.col < len(models.Columns)-1 {
			m.col++
			m.clampRow()
		}
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if m.row < len(m.columnTasks())-1 {
			m.row++
		}
	case "enter", "m":
		m.openMenu()
	case "a", "+":
		m.form = newAddForm(m.cfg.DefaultPriority)
		m.mode = modeAddForm
		return m, m.form.focusCurrent()
	}
	return m, nil
}

func (m boardModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.closeMenu()
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(m.menu)-1 {
			m.menuCursor++
		}
	case "enter":
		return m.runMenuItem(m.menu[m.menuCursor])
	}
	return m, nil
}

func (m boardModel) updatePopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "q", " ":
		m.mode = modeBoard
	}
	return m, nil
}

func (m boardModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.form = nil
		m.mode = modeBoard
		return m, nil
	case "tab":
		return m, f.next()
	case "shift+tab":
		return m, f.prev()
	case "ctrl+s":
		return m.submitForm()
	case "enter":
		if f.focus != fieldDescription {
			return m.submitForm()
		}
	}
	return m, f.update(msg)
}

func (m boardModel) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	if m.mode == modeAddForm {
		fields := f.fields()
		if fields.Title == "" {
			f.err = "Title is required"
			f.focus = fieldTitle
			return m, f.focusCurrent()
		}
		if _, err := m.board.Add(fields); err != nil {
			f.err = err.Error()
			return m, nil
		}
		m.form = nil
		m.mode = modeBoard
		if m.cfg.ConfirmCreate {
			m.mode = modePopup
		}
		m.refresh()
		return m, nil
	}

	patch := f.patch()
	if !patch.Empty() {
		if _, err := m.board.Edit(f.taskID, patch); err != nil && !errors.Is(err, core.ErrTaskNotFound) {
			f.err = err.Error()
			return m, nil
		}
	}
	m.form = nil
	m.mode = modeBoard
	m.refresh()
	return m, nil
}

// openMenu shows the action menu for the selected card. The current column
// is left out of the move targets.
func (m *boardModel) openMenu() {
	task, ok := m.selected()
	if !ok {
		return
	}
	current := models.Columns[m.col]
	items := []menuItem{
		{label: "Edit", action: actionEdit},
		{label: "Remove", action: actionRemove},
	}
	for _, col := range models.Columns {
		if col == current {
			continue
		}
		items = append(items, menuItem{
			label:  "Move to " + m.cfg.ColumnTitle(col),
			action: actionMove,
			to:     col,
		})
	}
	m.menu = items
	m.menuCursor = 0
	m.menuTaskID = task.ID
	m.mode = modeMenu
}

func (m *boardModel) closeMenu() {
	m.menu = nil
	m.menuCursor = 0
	m.menuTaskID = ""
	m.mode = modeBoard
}

// runMenuItem applies a menu action to the task the menu was opened on. A
// task removed in the meantime by another surface is ignored.
func (m boardModel) runMenuItem(item menuItem) (tea.Model, tea.Cmd) {
	id := m.menuTaskID
	m.closeMenu()

	var err error
	switch item.action {
	case actionEdit:
		task, _, _, getErr := m.board.Get(id)
		if getErr != nil {
			m.refresh()
			return m, nil
		}
		m.form = newEditForm(task)
		m.mode = modeEditForm
		return m, m.form.focusCurrent()
	case actionRemove:
		_, _, _, err = m.board.Remove(id)
	case actionMove:
		_, err = m.board.Move(id, item.to)
	}
	if err != nil && !errors.Is(err, core.ErrTaskNotFound) {
		m.notice = err.Error()
	}
	m.refresh()
	return m, nil
}

// refresh re-reads the board and alerts and keeps the cursor in range.
func (m *boardModel) refresh() {
	m.snap = m.board.Snapshot()
	m.alertList = nil
	if m.alerts != nil {
		m.alertList = m.alerts.Evaluate()
	}
	m.clampRow()
}

func (m *boardModel) clampRow() {
	n := len(m.columnTasks())
	switch {
	case n == 0:
		m.row = 0
	case m.row >= n:
		m.row = n - 1
	case m.row < 0:
		m.row = 0
	}
}

func (m boardModel) columnTasks() []models.Task {
	return m.snap.Tasks(models.Columns[m.col])
}

func (m boardModel) selected() (models.Task, bool) {
	tasks := m.columnTasks()
	if m.row < 0 || m.row >= len(tasks) {
		return models.Task{}, false
	}
	return tasks[m.row], true
}

var boardListen string

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive task board",
	Long: `Open the task board in the terminal.

Keys:
  a              add a task
  ←/→ or h/l     switch column
  ↑/↓ or k/j     select card
  enter or m     open the card menu (edit, remove, move)
  q              quit

With --listen the board is also served over the local HTTP API, and changes
made through the API show up on screen immediately.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		// Log lines would corrupt the alt screen.
		if Logger != nil && (Config == nil || Config.Log.File == "") {
			Logger.SetOutput(io.Discard)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		serveErr := make(chan error, 1)
		if boardListen != "" {
			e := api.NewServer(Board, AlertEngine, Logger)
			if err := api.Listen(e, boardListen); err != nil {
				return err
			}
			go func() {
				serveErr <- api.Serve(ctx, e, boardListen)
			}()
		}

		m := newBoardModel(Board, Config, AlertEngine)
		defer m.unsubscribe()

		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("running board: %w", err)
		}

		if boardListen != "" {
			cancel()
			if err := <-serveErr; err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	boardCmd.Flags().StringVar(&boardListen, "listen", "", "Also serve the HTTP API on this address (e.g. 127.0.0.1:8080)")
	rootCmd.AddCommand(boardCmd)
}
