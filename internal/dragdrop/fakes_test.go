package dragdrop

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hylla/joinboard/internal/domain"
)

// fakeContainer records scroll deltas.
type fakeContainer struct {
	bounds Rect
	dx     float64
	dy     float64
	calls  int
}

func (c *fakeContainer) Bounds() Rect { return c.bounds }

func (c *fakeContainer) ScrollBy(dx, dy float64) {
	c.dx += dx
	c.dy += dy
	c.calls++
}

// zoneRect pairs a rectangle with the zone it represents.
type zoneRect struct {
	rect Rect
	zone domain.ZoneID
}

type fakeZones []zoneRect

func (z fakeZones) ZoneAt(p Point) (domain.ZoneID, bool) {
	for _, zr := range z {
		if zr.rect.Contains(p) {
			return zr.zone, true
		}
	}
	return "", false
}

// boardZones lays out four 400px wide columns starting at x=100, y=100.
func boardZones() fakeZones {
	ids := []domain.ZoneID{domain.ZoneToDo, domain.ZoneInProgress, domain.ZoneAwaitFeedback, domain.ZoneDone}
	out := make(fakeZones, 0, len(ids))
	for i, id := range ids {
		left := 100 + float64(i)*450
		out = append(out, zoneRect{rect: Rect{Left: left, Top: 100, Right: left + 400, Bottom: 900}, zone: id})
	}
	return out
}

// zoneCenter returns a point inside the zone for col.
func zoneCenter(col domain.Column) Point {
	return Point{X: 100 + float64(col.Index())*450 + 200, Y: 500}
}

type fakeHighlighter struct {
	clears int
	active []domain.ZoneID
}

func (h *fakeHighlighter) ClearHighlights() {
	h.clears++
	h.active = nil
}

func (h *fakeHighlighter) Highlight(zone domain.ZoneID) {
	h.active = append(h.active, zone)
}

type fakeElement struct {
	lifted bool
	lifts  int
}

func (e *fakeElement) SetLifted(lifted bool) {
	e.lifted = lifted
	if lifted {
		e.lifts++
	}
}

type persistCall struct {
	user   string
	taskID string
	column domain.Column
}

type fakeStore struct {
	mu         sync.Mutex
	persists   []persistCall
	fetches    int
	persistErr error
	fetchErr   error
	tasks      []domain.Task
	onPersist  func()
}

func (s *fakeStore) PersistTaskColumn(_ context.Context, userID, taskID string, column domain.Column) error {
	if s.onPersist != nil {
		s.onPersist()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persistErr != nil {
		return s.persistErr
	}
	s.persists = append(s.persists, persistCall{user: userID, taskID: taskID, column: column})
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Board = column
		}
	}
	return nil
}

func (s *fakeStore) FetchTasks(context.Context, string) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]domain.Task(nil), s.tasks...), nil
}

type fakeRenderer struct {
	mu      sync.Mutex
	renders [][]domain.Task
}

func (r *fakeRenderer) RenderBoard(tasks []domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, tasks)
}

func (r *fakeRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.renders)
}

type logEntry struct {
	level   string
	msg     any
	keyvals []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) Debug(msg any, keyvals ...any) { l.add("debug", msg, keyvals) }
func (l *recordingLogger) Error(msg any, keyvals ...any) { l.add("error", msg, keyvals) }

func (l *recordingLogger) add(level string, msg any, keyvals []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, keyvals: keyvals})
}

func (l *recordingLogger) errors() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, entry := range l.entries {
		if entry.level == "error" {
			out = append(out, entry)
		}
	}
	return out
}

var errStoreDown = errors.New("store down")

// harness bundles an engine with its fakes.
type harness struct {
	engine    *Engine
	sched     *ManualScheduler
	container *fakeContainer
	highlight *fakeHighlighter
	store     *fakeStore
	renderer  *fakeRenderer
	logger    *recordingLogger
	cards     []Card
	binds     int
	taps      []string
}

func newHarness(t *testing.T, touch bool) *harness {
	t.Helper()
	h := &harness{
		sched:     NewManualScheduler(),
		container: &fakeContainer{bounds: Rect{Left: 0, Top: 0, Right: 2000, Bottom: 1000}},
		highlight: &fakeHighlighter{},
		store: &fakeStore{tasks: []domain.Task{
			{ID: "t1", Title: "Write docs", Board: domain.ColumnToDo},
			{ID: "t2", Title: "Ship it", Board: domain.ColumnInProgress},
		}},
		renderer: &fakeRenderer{},
		logger:   &recordingLogger{},
	}
	h.cards = []Card{
		{TaskID: "t1", Element: &fakeElement{}, Bounds: Rect{Left: 120, Top: 120, Right: 480, Bottom: 220}},
		{TaskID: "t2", Element: &fakeElement{}, Bounds: Rect{Left: 570, Top: 120, Right: 930, Bottom: 220}},
	}
	engine, err := New(Config{
		Container:    h.container,
		Zones:        boardZones(),
		Highlights:   h.highlight,
		Store:        h.store,
		Renderer:     h.renderer,
		UserID:       "guest",
		Cards: func() []Card {
			h.binds++
			return h.cards
		},
		TouchEnabled: touch,
		TapHandler:   func(taskID string) { h.taps = append(h.taps, taskID) },
		Scheduler:    h.sched,
		Logger:       h.logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.engine = engine
	return h
}
