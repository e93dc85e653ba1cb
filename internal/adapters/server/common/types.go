// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// BoardRequest identifies one user's board.
type BoardRequest struct {
	UserID string
}

// MoveTaskRequest moves one task to a column.
type MoveTaskRequest struct {
	UserID string
	TaskID string
	Column string
}

// ToggleSubtaskRequest flips one subtask's done flag.
type ToggleSubtaskRequest struct {
	UserID string
	TaskID string
	Index  int
}

// SubtaskView is one checklist entry.
type SubtaskView struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// TaskView is the transport shape of one task.
type TaskView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	DueDate     string        `json:"due_date,omitempty"`
	Category    string        `json:"category,omitempty"`
	Priority    string        `json:"priority,omitempty"`
	Column      string        `json:"column"`
	Assigned    []string      `json:"assigned"`
	Subtasks    []SubtaskView `json:"subtasks"`
	CreatedAt   int64         `json:"created_at"`
}

// ColumnView is one board column.
type ColumnView struct {
	ID    string     `json:"id"`
	Zone  string     `json:"zone"`
	Title string     `json:"title"`
	Tasks []TaskView `json:"tasks"`
}

// BoardSnapshot is the transport shape of a full board.
type BoardSnapshot struct {
	UserID  string       `json:"user_id"`
	Columns []ColumnView `json:"columns"`
}

// BoardService exposes the board operations served over HTTP and MCP.
type BoardService interface {
	Board(context.Context, BoardRequest) (BoardSnapshot, error)
	MoveTask(context.Context, MoveTaskRequest) (TaskView, error)
	ToggleSubtask(context.Context, ToggleSubtaskRequest) (TaskView, error)
}
