package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/hylla/joinboard/internal/app"
	"github.com/hylla/joinboard/internal/domain"
)

// promptKind identifies the footer input that currently owns the keyboard.
type promptKind int

const (
	promptNone promptKind = iota
	promptSearch
	promptAdd
)

// quickAddCategory is the category given to tasks added from the board.
const quickAddCategory = domain.CategoryTechnicalTask

// taskChangedMsg carries the refetched board after a create or delete.
type taskChangedMsg struct {
	verb   string
	taskID string
	status string
	view   app.BoardView
	err    error
}

func newPromptInput() textinput.Model {
	in := textinput.New()
	in.CharLimit = 120
	return in
}

// startSearch focuses the footer input as a live board filter.
func (m *Model) startSearch() tea.Cmd {
	m.prompt = promptSearch
	m.input.Prompt = "/ "
	m.input.Placeholder = "title or description"
	m.input.SetValue(m.query)
	m.input.CursorEnd()
	m.status = "search"
	return m.input.Focus()
}

// startAddTask focuses the footer input for a new task title. The column is
// preset to the leftmost column in view and tab cycles it.
func (m *Model) startAddTask() tea.Cmd {
	m.prompt = promptAdd
	m.addColumn = domain.ColumnToDo
	if zone, ok := m.board.ZoneAt(m.board.PointAt(1, boardTop+1)); ok {
		if col, ok := domain.ColumnForZone(zone); ok {
			m.addColumn = col
		}
	}
	m.input.Placeholder = "task title"
	m.input.SetValue("")
	m.setAddPrompt()
	m.status = "add task"
	return m.input.Focus()
}

func (m *Model) setAddPrompt() {
	m.input.Prompt = "add to " + m.addColumn.Title() + " (tab column): "
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.SetValue("")
}

// handlePromptKey routes keys to the open search or add input.
func (m Model) handlePromptKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		m.Close()
		return m, tea.Quit
	case msg.Code == tea.KeyEscape || msg.String() == "esc":
		if m.prompt == promptSearch {
			m.applySearch("")
			m.status = "search cleared"
		} else {
			m.status = "add cancelled"
		}
		m.closePrompt()
		return m, nil
	case msg.Code == tea.KeyEnter || msg.String() == "enter":
		if m.prompt == promptSearch {
			m.closePrompt()
			return m, nil
		}
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			m.status = "title required"
			return m, nil
		}
		col := m.addColumn
		m.closePrompt()
		m.status = "adding..."
		return m, m.createTask(title, col)
	case m.prompt == promptAdd && (msg.Code == tea.KeyTab || msg.String() == "tab"):
		cols := domain.Columns()
		m.addColumn = cols[(slices.Index(cols, m.addColumn)+1)%len(cols)]
		m.setAddPrompt()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.prompt == promptSearch {
			m.applySearch(m.input.Value())
		}
		return m, cmd
	}
}

// applySearch filters the board and reports when nothing matches.
func (m *Model) applySearch(query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	m.query = query
	n := m.board.SetFilter(query)
	if m.engine != nil {
		m.engine.BindCards()
	}
	switch {
	case query == "":
		m.status = "ready"
	case n == 0:
		m.status = fmt.Sprintf("no result with %q", query)
	default:
		m.status = fmt.Sprintf("%d matching", n)
	}
}

// createTask stores a task in col and refetches the board.
func (m Model) createTask(title string, col domain.Column) tea.Cmd {
	svc, userID, now := m.svc, m.settings.userID, m.settings.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		task, err := svc.CreateTask(ctx, userID, domain.TaskInput{
			Title:    title,
			DueDate:  now().Format(time.DateOnly),
			Category: quickAddCategory,
			Board:    col,
		})
		if err != nil {
			return taskChangedMsg{verb: "add", err: err}
		}
		view, err := svc.Board(ctx, userID)
		return taskChangedMsg{
			verb:   "add",
			taskID: task.ID,
			status: fmt.Sprintf("added %s to %s", task.Title, col.Title()),
			view:   view,
			err:    err,
		}
	}
}

// deleteTask removes taskID and refetches the board.
func (m Model) deleteTask(taskID string) tea.Cmd {
	svc, userID := m.svc, m.settings.userID
	title := taskID
	if task, ok := m.board.Task(taskID); ok {
		title = task.Title
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		if err := svc.DeleteTask(ctx, userID, taskID); err != nil {
			return taskChangedMsg{verb: "delete", taskID: taskID, err: err}
		}
		view, err := svc.Board(ctx, userID)
		return taskChangedMsg{
			verb:   "delete",
			taskID: taskID,
			status: "deleted " + title,
			view:   view,
			err:    err,
		}
	}
}
