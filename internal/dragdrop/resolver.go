package dragdrop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hylla/joinboard/internal/domain"
)

// ErrInvalidMove reports a move without a task id or with an unknown column.
var ErrInvalidMove = errors.New("invalid move")

// HitTester maps a point to the drop zone under it.
type HitTester interface {
	ZoneAt(p Point) (domain.ZoneID, bool)
}

// Highlighter shows which zone a drag is hovering.
type Highlighter interface {
	ClearHighlights()
	Highlight(zone domain.ZoneID)
}

// TaskStore persists column changes and reloads the task list.
type TaskStore interface {
	PersistTaskColumn(ctx context.Context, userID, taskID string, column domain.Column) error
	FetchTasks(ctx context.Context, userID string) ([]domain.Task, error)
}

// Renderer redraws the board from a full task list.
type Renderer interface {
	RenderBoard(tasks []domain.Task)
}

// Logger is the structured logger surface used by the engine.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// Move is a resolved drop.
type Move struct {
	TaskID string
	Column domain.Column
}

// Resolver turns a release point into a column and commits the change.
type Resolver struct {
	zones    HitTester
	store    TaskStore
	renderer Renderer
	userID   string
	logger   Logger

	mu       sync.Mutex
	issued   uint64
	rendered uint64
}

// NewResolver constructs a resolver for one user's board.
func NewResolver(zones HitTester, store TaskStore, renderer Renderer, userID string, logger Logger) *Resolver {
	if logger == nil {
		logger = discardLogger()
	}
	return &Resolver{
		zones:    zones,
		store:    store,
		renderer: renderer,
		userID:   userID,
		logger:   logger,
	}
}

// Resolve returns the column whose zone contains p.
func (r *Resolver) Resolve(p Point) (domain.Column, bool) {
	if r.zones == nil {
		return "", false
	}
	zone, ok := r.zones.ZoneAt(p)
	if !ok {
		return "", false
	}
	return domain.ColumnForZone(zone)
}

// Commit persists mv, refetches the board, and renders it.
// A persistence failure is logged and returned without rendering.
func (r *Resolver) Commit(ctx context.Context, mv Move) error {
	if strings.TrimSpace(mv.TaskID) == "" || !mv.Column.Valid() {
		return fmt.Errorf("%w: task %q column %q", ErrInvalidMove, mv.TaskID, mv.Column)
	}
	seq := r.nextSequence()

	if err := r.store.PersistTaskColumn(ctx, r.userID, mv.TaskID, mv.Column); err != nil {
		r.logger.Error("move task failed", "task_id", mv.TaskID, "column", string(mv.Column), "err", err)
		return fmt.Errorf("persist task column: %w", err)
	}
	tasks, err := r.store.FetchTasks(ctx, r.userID)
	if err != nil {
		r.logger.Error("refetch tasks failed", "task_id", mv.TaskID, "err", err)
		return fmt.Errorf("fetch tasks: %w", err)
	}
	r.render(seq, tasks)
	r.logger.Debug("task moved", "task_id", mv.TaskID, "column", string(mv.Column))
	return nil
}

func (r *Resolver) nextSequence() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
	return r.issued
}

// render draws tasks unless a newer commit already rendered.
func (r *Resolver) render(seq uint64, tasks []domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq < r.rendered {
		r.logger.Debug("skipping stale board render", "sequence", seq, "rendered", r.rendered)
		return
	}
	r.rendered = seq
	if r.renderer != nil {
		r.renderer.RenderBoard(tasks)
	}
}
