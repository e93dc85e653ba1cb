package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/joinboard/internal/app"
	"github.com/hylla/joinboard/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service board APIs.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// Board loads one user's grouped board.
func (a *AppServiceAdapter) Board(ctx context.Context, in BoardRequest) (BoardSnapshot, error) {
	if a == nil || a.service == nil {
		return BoardSnapshot{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return BoardSnapshot{}, fmt.Errorf("user_id is required: %w", ErrInvalidRequest)
	}
	view, err := a.service.Board(ctx, userID)
	if err != nil {
		return BoardSnapshot{}, mapAppError("load board", err)
	}
	return convertBoard(view), nil
}

// MoveTask persists a column change and returns the refreshed task.
func (a *AppServiceAdapter) MoveTask(ctx context.Context, in MoveTaskRequest) (TaskView, error) {
	if a == nil || a.service == nil {
		return TaskView{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	column, err := domain.ParseColumn(in.Column)
	if err != nil {
		return TaskView{}, mapAppError("move task", err)
	}
	userID, taskID := strings.TrimSpace(in.UserID), strings.TrimSpace(in.TaskID)
	task, err := a.service.MoveTask(ctx, userID, taskID, column)
	if err != nil {
		return TaskView{}, mapAppError("move task", err)
	}
	return convertTask(task), nil
}

// ToggleSubtask flips one subtask and returns the updated task.
func (a *AppServiceAdapter) ToggleSubtask(ctx context.Context, in ToggleSubtaskRequest) (TaskView, error) {
	if a == nil || a.service == nil {
		return TaskView{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	task, err := a.service.ToggleSubtask(ctx, strings.TrimSpace(in.UserID), strings.TrimSpace(in.TaskID), in.Index)
	if err != nil {
		return TaskView{}, mapAppError("toggle subtask", err)
	}
	return convertTask(task), nil
}

// mapAppError translates app and domain errors into transport sentinels.
func mapAppError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrInvalidPath),
		errors.Is(err, app.ErrInvalidSubtask),
		errors.Is(err, domain.ErrInvalidColumn),
		errors.Is(err, domain.ErrInvalidID):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func convertBoard(view app.BoardView) BoardSnapshot {
	out := BoardSnapshot{UserID: view.UserID, Columns: make([]ColumnView, 0, len(view.Columns))}
	for _, col := range view.Columns {
		tasks := make([]TaskView, 0, len(col.Tasks))
		for _, task := range col.Tasks {
			tasks = append(tasks, convertTask(task))
		}
		out.Columns = append(out.Columns, ColumnView{
			ID:    string(col.Column),
			Zone:  string(col.Column.ZoneID()),
			Title: col.Title,
			Tasks: tasks,
		})
	}
	return out
}

func convertTask(task domain.Task) TaskView {
	subtasks := make([]SubtaskView, 0, len(task.Subtasks))
	for _, st := range task.Subtasks {
		subtasks = append(subtasks, SubtaskView{Title: st.Title, Done: st.Done})
	}
	return TaskView{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Category:    task.Category,
		Priority:    string(task.Priority),
		Column:      string(task.Board),
		Assigned:    append([]string{}, task.Assigned...),
		Subtasks:    subtasks,
		CreatedAt:   task.CreatedAt,
	}
}
