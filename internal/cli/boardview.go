package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

const (
	sidebarWidth   = 24
	minColumnWidth = 24
	defaultWidth   = 120
)

// Column accent colors.
var columnAccent = map[models.Column]lipgloss.Color{
	models.ColumnTodo:     lipgloss.Color("#722ed1"),
	models.ColumnProgress: lipgloss.Color("#fa8c16"),
	models.ColumnDone:     lipgloss.Color("#52c41a"),
}

// Style definitions.
var (
	boardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	addHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#1677ff")).
			Padding(0, 1)

	statBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(sidebarWidth - 2)

	statLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statValueStyle = lipgloss.NewStyle().Bold(true)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedCardStyle = cardStyle.BorderForeground(lipgloss.Color("62"))

	cardTitleStyle = lipgloss.NewStyle().Bold(true)
	deadlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	menuStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
	menuCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)

	formStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
	formLabelStyle = lipgloss.NewStyle().Bold(true)
	formFocusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	formErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	choiceStyle    = lipgloss.NewStyle().Padding(0, 1)

	popupStyle       = formStyle.Align(lipgloss.Center)
	popupButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 2)

	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// priorityColor returns the badge color for a priority label.
func priorityColor(p models.Priority) lipgloss.Color {
	switch p {
	case models.PriorityHigh:
		return lipgloss.Color("#ff4d4f")
	case models.PriorityLow:
		return lipgloss.Color("#fadb14")
	default:
		return lipgloss.Color("#d9d9d9")
	}
}

func priorityBadge(p models.Priority) string {
	label := string(p)
	if label == "" {
		label = "-"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#000000")).
		Background(priorityColor(p)).
		Padding(0, 1).
		Render(label)
}

func (m boardModel) View() string {
	width := m.width
	if width == 0 {
		width = defaultWidth
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		boardTitleStyle.Render(" Task Board "),
		"  ",
		addHintStyle.Render("+ Add Task (a)"),
	)

	var body string
	switch m.mode {
	case modeAddForm, modeEditForm:
		body = m.renderForm()
	case modePopup:
		body = m.renderPopup(width)
	default:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderColumns(width))
	}

	var footer strings.Builder
	if line := alertSummary(m.alertList); line != "" {
		footer.WriteString(alertStyle.Render(line))
		footer.WriteString("\n")
	}
	if m.notice != "" {
		footer.WriteString(noticeStyle.Render(m.notice))
		footer.WriteString("\n")
	}
	footer.WriteString(helpStyle.Render(m.helpLine()))

	return fmt.Sprintf("%s\n\n%s\n\n%s", header, body, footer.String())
}

func (m boardModel) helpLine() string {
	switch m.mode {
	case modeMenu:
		return "↑/↓: choose | enter: select | esc: close"
	case modeAddForm, modeEditForm:
		return "tab: next field | enter: save | esc: cancel"
	case modePopup:
		return "enter: back"
	}
	return "a: add | ←/→: column | ↑/↓: card | enter: menu | q: quit"
}

func (m boardModel) renderSidebar() string {
	stats := m.snap.Stats()
	box := func(label, value string) string {
		return statBoxStyle.Render(statLabelStyle.Render(label) + "\n" + statValueStyle.Render(value))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		box("All Active Tasks", fmt.Sprintf("%d", stats.Active)),
		box("Task To Do", fmt.Sprintf("%d", stats.Todo)),
		box("Completed Tasks", stats.Completed()),
	)
}

func (m boardModel) renderColumns(width int) string {
	colWidth := (width - sidebarWidth - 2) / len(models.Columns)
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	cols := make([]string, 0, len(models.Columns))
	for i, col := range models.Columns {
		cols = append(cols, m.renderColumn(i, col, colWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m boardModel) renderColumn(idx int, col models.Column, width int) string {
	tasks := m.snap.Tasks(col)
	accent := columnAccent[col]

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accent).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(accent).
		Width(width - 2).
		Render(fmt.Sprintf("%s (%d)", m.cfg.ColumnTitle(col), len(tasks)))

	parts := []string{title}
	if len(tasks) == 0 {
		parts = append(parts, helpStyle.Render("  No tasks"))
	}
	for row, task := range tasks {
		selected := idx == m.col && row == m.row
		parts = append(parts, renderCard(task, width-2, selected))
		if selected && m.mode == modeMenu {
			parts = append(parts, m.renderMenu())
		}
	}

	return lipgloss.NewStyle().Width(width).PaddingRight(1).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func renderCard(task models.Task, width int, selected bool) string {
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}

	lines := []string{priorityBadge(task.Priority), cardTitleStyle.Render(task.Title)}
	if task.Description != "" {
		lines = append(lines, task.Description)
	}
	if task.Deadline != "" {
		lines = append(lines, deadlineStyle.Render("Deadline: "+task.Deadline))
	}
	return style.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func (m boardModel) renderMenu() string {
	var b strings.Builder
	for i, item := range m.menu {
		if i > 0 {
			b.WriteString("\n")
		}
		if i == m.menuCursor {
			b.WriteString(menuCursorStyle.Render("> " + item.label))
			continue
		}
		b.WriteString("  " + item.label)
	}
	return menuStyle.Render(b.String())
}

func (m boardModel) renderForm() string {
	f := m.form
	if f == nil {
		return ""
	}

	heading := "Add Task"
	if f.editing {
		heading = "Edit Task"
	}

	label := func(field formField, text string) string {
		if f.focus == field {
			return formFocusStyle.Render("> " + text)
		}
		return formLabelStyle.Render("  " + text)
	}

	var prio string
	if f.editing {
		prio = f.priority.View()
	} else {
		choices := make([]string, 0, len(addPriorities))
		for i, p := range addPriorities {
			if i == f.choice {
				choices = append(choices, choiceStyle.Inherit(lipgloss.NewStyle().Background(priorityColor(p)).Foreground(lipgloss.Color("#000000"))).Render(string(p)))
				continue
			}
			choices = append(choices, choiceStyle.Render(string(p)))
		}
		prio = strings.Join(choices, " ")
	}

	parts := []string{
		formLabelStyle.Render(heading),
		"",
		label(fieldTitle, "Title"),
		f.title.View(),
		label(fieldDescription, "Description"),
		f.description.View(),
		label(fieldPriority, "Priority"),
		prio,
		label(fieldDeadline, "Deadline"),
		f.deadline.View(),
	}
	if f.err != "" {
		parts = append(parts, "", formErrorStyle.Render(f.err))
	}
	return formStyle.Render(strings.Join(parts, "\n"))
}

func (m boardModel) renderPopup(width int) string {
	box := popupStyle.Render(createdMessage + "\n\n" + popupButtonStyle.Render("Back"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}

// alertSummary condenses alerts into one line, or "" when there are none.
func alertSummary(alerts []observability.Alert) string {
	if len(alerts) == 0 {
		return ""
	}
	var overdue, dueSoon int
	wip := false
	for _, a := range alerts {
		switch a.Condition {
		case observability.ConditionOverdue:
			overdue++
		case observability.ConditionDueSoon:
			dueSoon++
		case observability.ConditionWIPExceeded:
			wip = true
		}
	}

	var parts []string
	if overdue > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", overdue))
	}
	if dueSoon > 0 {
		parts = append(parts, fmt.Sprintf("%d due soon", dueSoon))
	}
	if wip {
		parts = append(parts, "WIP limit exceeded")
	}
	return "! " + strings.Join(parts, ", ")
}
