package domain

import (
	"encoding/json"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var validPriorities = []Priority{PriorityUrgent, PriorityMedium, PriorityLow}

const (
	CategoryUserStory     = "User Story"
	CategoryTechnicalTask = "Technical Task"
)

var validCategories = []string{CategoryUserStory, CategoryTechnicalTask}

// dueDateLayout is the calendar date format used by the store.
const dueDateLayout = "2006-01-02"

type Task struct {
	ID          string      `json:"-"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	DueDate     string      `json:"dueDate"`
	Category    string      `json:"category"`
	Priority    Priority    `json:"priority"`
	Assigned    ContactRefs `json:"assigned,omitempty"`
	Subtasks    []Subtask   `json:"subtasks,omitempty"`
	Board       Column      `json:"board"`
	CreatedAt   int64       `json:"createdAt"`
}

type TaskInput struct {
	Title       string
	Description string
	DueDate     string
	Category    string
	Priority    Priority
	Assigned    []string
	Subtasks    []Subtask
	Board       Column
}

func NewTask(id string, in TaskInput, now time.Time) (Task, error) {
	id = strings.TrimSpace(id)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.Category = strings.TrimSpace(in.Category)

	if id == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if _, err := time.Parse(dueDateLayout, in.DueDate); err != nil {
		return Task{}, ErrInvalidDueDate
	}
	if !slices.Contains(validCategories, in.Category) {
		return Task{}, ErrInvalidCategory
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Task{}, ErrInvalidPriority
	}
	if in.Board == "" {
		in.Board = ColumnToDo
	}
	if !in.Board.Valid() {
		return Task{}, ErrInvalidColumn
	}

	subtasks := make([]Subtask, 0, len(in.Subtasks))
	for _, st := range in.Subtasks {
		st.Title = strings.TrimSpace(st.Title)
		if st.Title == "" {
			continue
		}
		subtasks = append(subtasks, st)
	}

	return Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Category:    in.Category,
		Priority:    in.Priority,
		Assigned:    normalizeRefs(in.Assigned),
		Subtasks:    subtasks,
		Board:       in.Board,
		CreatedAt:   now.UTC().UnixMilli(),
	}, nil
}

// MoveTo places the task in another column.
func (t *Task) MoveTo(col Column) error {
	if !col.Valid() {
		return ErrInvalidColumn
	}
	t.Board = col
	return nil
}

// SubtaskProgress reports completed and total subtasks.
func (t Task) SubtaskProgress() (done, total int) {
	for _, st := range t.Subtasks {
		if st.Done {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// Subtask is one checklist entry of a task.
type Subtask struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// UnmarshalJSON accepts legacy `name` titles and string-encoded done flags.
func (s *Subtask) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title string          `json:"title"`
		Name  string          `json:"name"`
		Done  json.RawMessage `json:"done"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = strings.TrimSpace(raw.Name)
	}
	if title == "" {
		title = "Unnamed Subtask"
	}
	s.Title = title
	s.Done = false
	switch strings.TrimSpace(string(raw.Done)) {
	case "true", `"true"`:
		s.Done = true
	}
	return nil
}

// ContactRefs is the ordered list of contact ids assigned to a task.
type ContactRefs []string

// UnmarshalJSON tolerates null holes, numeric ids, and sparse arrays stored as objects.
func (r *ContactRefs) UnmarshalJSON(data []byte) error {
	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		*r = refsFromValues(list)
		return nil
	}
	var sparse map[string]any
	if err := json.Unmarshal(data, &sparse); err != nil {
		return err
	}
	keys := make([]string, 0, len(sparse))
	for key := range sparse {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	values := make([]any, 0, len(keys))
	for _, key := range keys {
		values = append(values, sparse[key])
	}
	*r = refsFromValues(values)
	return nil
}

func refsFromValues(values []any) ContactRefs {
	out := make(ContactRefs, 0, len(values))
	for _, v := range values {
		if id, ok := RefFromValue(v); ok {
			out = append(out, id)
		}
	}
	return out
}

// RefFromValue converts one decoded assigned entry into a contact id.
// Strings are trimmed, numbers are formatted, and anything else is rejected.
func RefFromValue(v any) (string, bool) {
	switch typed := v.(type) {
	case string:
		s := strings.TrimSpace(typed)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	default:
		return "", false
	}
}

func normalizeRefs(ids []string) ContactRefs {
	out := make(ContactRefs, 0, len(ids))
	seen := map[string]struct{}{}
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
