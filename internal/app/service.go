package app

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/hylla/joinboard/internal/domain"
)

// defaultPruneWorkers bounds concurrent deletes of stale contact references.
const defaultPruneWorkers = 4

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Logger       Logger
	PruneWorkers int
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service reads and writes one user's board through a document store.
type Service struct {
	docs         Documents
	idGen        IDGenerator
	clock        Clock
	logger       Logger
	pruneWorkers int
}

// NewService constructs a new value for this package.
func NewService(docs Documents, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = charmLog.New(io.Discard)
	}
	if cfg.PruneWorkers <= 0 {
		cfg.PruneWorkers = defaultPruneWorkers
	}
	return &Service{
		docs:         docs,
		idGen:        idGen,
		clock:        clock,
		logger:       cfg.Logger,
		pruneWorkers: cfg.PruneWorkers,
	}
}

// PersistTaskColumn writes the task's board field.
func (s *Service) PersistTaskColumn(ctx context.Context, userID, taskID string, column domain.Column) error {
	if !column.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidColumn, column)
	}
	path, err := JoinPath(userID, "tasks", taskID, "board")
	if err != nil {
		return err
	}
	if err := s.docs.Put(ctx, path, string(column)); err != nil {
		return fmt.Errorf("write task board: %w", err)
	}
	return nil
}

// MoveTask loads one task, moves it to column, and persists only its board field.
func (s *Service) MoveTask(ctx context.Context, userID, taskID string, column domain.Column) (domain.Task, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.MoveTo(column); err != nil {
		return domain.Task{}, fmt.Errorf("%w: %q", err, column)
	}
	if err := s.PersistTaskColumn(ctx, userID, taskID, task.Board); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// FetchTasks loads every task, drops assigned ids that no longer name a contact,
// and returns the tasks ordered by creation time.
func (s *Service) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks, _, err := s.loadBoard(ctx, userID)
	return tasks, err
}

// FetchContacts returns the user's contacts ordered by name.
func (s *Service) FetchContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	path, err := JoinPath(userID, "contacts")
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := s.docs.Get(ctx, path, &raw); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []domain.Contact{}, nil
		}
		return nil, fmt.Errorf("fetch contacts: %w", err)
	}
	entries, err := decodeKeyed(raw)
	if err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	out := make([]domain.Contact, 0, len(entries))
	for id, body := range entries {
		var contact domain.Contact
		if err := json.Unmarshal(body, &contact); err != nil {
			s.logger.Warn("skipping malformed contact", "contact_id", id, "err", err)
			continue
		}
		contact.ID = id
		out = append(out, contact)
	}
	slices.SortFunc(out, func(a, b domain.Contact) int {
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// GetTask loads one task.
func (s *Service) GetTask(ctx context.Context, userID, taskID string) (domain.Task, error) {
	path, err := JoinPath(userID, "tasks", taskID)
	if err != nil {
		return domain.Task{}, err
	}
	var raw json.RawMessage
	if err := s.docs.Get(ctx, path, &raw); err != nil {
		return domain.Task{}, fmt.Errorf("fetch task: %w", err)
	}
	if isNullJSON(raw) {
		return domain.Task{}, fmt.Errorf("task %q: %w", taskID, ErrNotFound)
	}
	var task domain.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return domain.Task{}, fmt.Errorf("decode task %q: %w", taskID, err)
	}
	task.ID = taskID
	if task.Board == "" {
		task.Board = domain.ColumnToDo
	}
	return task, nil
}

// CreateTask validates in and stores a new task under a generated id.
func (s *Service) CreateTask(ctx context.Context, userID string, in domain.TaskInput) (domain.Task, error) {
	task, err := domain.NewTask(s.idGen(), in, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	path, err := JoinPath(userID, "tasks", task.ID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.docs.Put(ctx, path, task); err != nil {
		return domain.Task{}, fmt.Errorf("write task: %w", err)
	}
	s.logger.Info("task created", "task_id", task.ID, "column", string(task.Board))
	return task, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	path, err := JoinPath(userID, "tasks", taskID)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ToggleSubtask flips the done flag of the subtask at index and returns the updated task.
func (s *Service) ToggleSubtask(ctx context.Context, userID, taskID string, index int) (domain.Task, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if index < 0 || index >= len(task.Subtasks) {
		return domain.Task{}, fmt.Errorf("%w: %d of %d", ErrInvalidSubtask, index, len(task.Subtasks))
	}
	done := !task.Subtasks[index].Done
	path, err := JoinPath(userID, "tasks", taskID, "subtasks", strconv.Itoa(index), "done")
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.docs.Put(ctx, path, done); err != nil {
		return domain.Task{}, fmt.Errorf("write subtask: %w", err)
	}
	task.Subtasks[index].Done = done
	return task, nil
}

// staleRef is an assigned slot whose contact no longer exists.
type staleRef struct {
	taskID string
	slot   string
}

func (s *Service) loadBoard(ctx context.Context, userID string) ([]domain.Task, []domain.Contact, error) {
	path, err := JoinPath(userID, "tasks")
	if err != nil {
		return nil, nil, err
	}
	var raw json.RawMessage
	if err := s.docs.Get(ctx, path, &raw); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, fmt.Errorf("fetch tasks: %w", err)
	}
	entries, err := decodeKeyed(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decode tasks: %w", err)
	}
	contacts, err := s.FetchContacts(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]struct{}, len(contacts))
	for _, contact := range contacts {
		known[contact.ID] = struct{}{}
	}

	tasks := make([]domain.Task, 0, len(entries))
	var stale []staleRef
	for id, body := range entries {
		var task domain.Task
		if err := json.Unmarshal(body, &task); err != nil {
			s.logger.Warn("skipping malformed task", "task_id", id, "err", err)
			continue
		}
		task.ID = id
		if task.Board == "" {
			task.Board = domain.ColumnToDo
		}
		slots, err := assignedSlots(body)
		if err != nil {
			return nil, nil, fmt.Errorf("decode assigned for task %q: %w", id, err)
		}
		for key, contactID := range slots {
			if _, ok := known[contactID]; !ok {
				stale = append(stale, staleRef{taskID: id, slot: key})
			}
		}
		kept := make(domain.ContactRefs, 0, len(task.Assigned))
		for _, contactID := range task.Assigned {
			if _, ok := known[contactID]; ok {
				kept = append(kept, contactID)
			}
		}
		task.Assigned = kept
		tasks = append(tasks, task)
	}

	if err := s.pruneAssigned(ctx, userID, stale); err != nil {
		return nil, nil, err
	}
	slices.SortFunc(tasks, func(a, b domain.Task) int {
		if c := cmp.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return tasks, contacts, nil
}

// pruneAssigned deletes stale assigned slots through a bounded worker pool.
func (s *Service) pruneAssigned(ctx context.Context, userID string, stale []staleRef) error {
	if len(stale) == 0 {
		return nil
	}
	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.pruneWorkers)
	for _, ref := range stale {
		p.Go(func(ctx context.Context) error {
			path, err := JoinPath(userID, "tasks", ref.taskID, "assigned", ref.slot)
			if err != nil {
				return err
			}
			if err := s.docs.Delete(ctx, path); err != nil {
				return fmt.Errorf("prune assigned %s: %w", path, err)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		s.logger.Error("prune assigned contacts failed", "user_id", userID, "err", err)
		return err
	}
	s.logger.Debug("pruned assigned contacts", "user_id", userID, "count", len(stale))
	return nil
}

// decodeKeyed reads a JSON object or array into keyed entries, skipping null values.
// Arrays use their indexes as keys, matching how the realtime database stores numeric keys.
func decodeKeyed(raw json.RawMessage) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	if isNullJSON(raw) {
		return out, nil
	}
	trimmed := bytes.TrimSpace(raw)
	switch trimmed[0] {
	case '{':
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
		for key, body := range entries {
			if !isNullJSON(body) {
				out[key] = body
			}
		}
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
		for i, body := range entries {
			if !isNullJSON(body) {
				out[strconv.Itoa(i)] = body
			}
		}
	default:
		return nil, fmt.Errorf("expected object or array, got %q", string(trimmed[:1]))
	}
	return out, nil
}

// assignedSlots maps each stored assigned slot key to the contact id it holds.
func assignedSlots(taskBody json.RawMessage) (map[string]string, error) {
	var holder struct {
		Assigned json.RawMessage `json:"assigned"`
	}
	if err := json.Unmarshal(taskBody, &holder); err != nil {
		return nil, err
	}
	entries, err := decodeKeyed(holder.Assigned)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for key, body := range entries {
		var value any
		if err := json.Unmarshal(body, &value); err != nil {
			return nil, err
		}
		id, _ := domain.RefFromValue(value)
		out[key] = id
	}
	return out, nil
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
