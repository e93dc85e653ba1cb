package app

import (
	"context"
	"strings"

	"github.com/hylla/joinboard/internal/domain"
)

// BoardColumn is one rendered column with its tasks in creation order.
type BoardColumn struct {
	Column domain.Column
	Title  string
	Tasks  []domain.Task
}

// BoardView is a user's full board.
type BoardView struct {
	UserID   string
	Columns  []BoardColumn
	Contacts map[string]domain.Contact
}

// Board loads tasks and contacts and groups the tasks by column in board order.
func (s *Service) Board(ctx context.Context, userID string) (BoardView, error) {
	tasks, contacts, err := s.loadBoard(ctx, userID)
	if err != nil {
		return BoardView{}, err
	}
	view := GroupBoard(userID, tasks)
	view.Contacts = make(map[string]domain.Contact, len(contacts))
	for _, contact := range contacts {
		view.Contacts[contact.ID] = contact
	}
	for _, task := range tasks {
		if !task.Board.Valid() {
			s.logger.Warn("task has unknown board column", "task_id", task.ID, "column", string(task.Board))
		}
	}
	return view, nil
}

// GroupBoard buckets tasks into the four board columns. Tasks naming an unknown
// column are left out.
func GroupBoard(userID string, tasks []domain.Task) BoardView {
	cols := domain.Columns()
	view := BoardView{UserID: userID, Columns: make([]BoardColumn, len(cols))}
	for i, col := range cols {
		view.Columns[i] = BoardColumn{Column: col, Title: col.Title(), Tasks: []domain.Task{}}
	}
	for _, task := range tasks {
		idx := task.Board.Index()
		if idx < 0 {
			continue
		}
		view.Columns[idx].Tasks = append(view.Columns[idx].Tasks, task)
	}
	return view
}

// SearchTasks keeps the tasks whose title or description contains query,
// ignoring case and surrounding space. An empty query keeps every task.
func SearchTasks(tasks []domain.Task, query string) []domain.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tasks
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), query) ||
			strings.Contains(strings.ToLower(task.Description), query) {
			out = append(out, task)
		}
	}
	return out
}

// Task finds a task anywhere on the board.
func (v BoardView) Task(taskID string) (domain.Task, bool) {
	for _, col := range v.Columns {
		for _, task := range col.Tasks {
			if task.ID == taskID {
				return task, true
			}
		}
	}
	return domain.Task{}, false
}

// ContactNames resolves a task's assigned ids to names, skipping unknown ids.
func (v BoardView) ContactNames(task domain.Task) []string {
	out := make([]string, 0, len(task.Assigned))
	for _, id := range task.Assigned {
		if contact, ok := v.Contacts[id]; ok {
			out = append(out, contact.Name)
		}
	}
	return out
}
