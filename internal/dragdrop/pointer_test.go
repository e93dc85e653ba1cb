package dragdrop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hylla/joinboard/internal/domain"
)

// TestPointerDragWithoutDropWritesNothing verifies a release over the background only cleans up.
func TestPointerDragWithoutDropWritesNothing(t *testing.T) {
	h := newHarness(t, false)
	el := &fakeElement{}

	h.engine.OnDragStart(&Event{Point: zoneCenter(domain.ColumnToDo), Target: el}, "t1")
	if got := h.engine.DraggedTaskID(); got != "t1" {
		t.Fatalf("DraggedTaskID() = %q, want t1", got)
	}
	if !el.lifted {
		t.Fatal("expected origin card to be lifted")
	}

	if err := h.engine.OnDragEnd(context.Background(), &Event{Point: Point{X: 20, Y: 20}, Target: el}); err != nil {
		t.Fatalf("OnDragEnd() error = %v", err)
	}
	if got := h.engine.DraggedTaskID(); got != "" {
		t.Fatalf("DraggedTaskID() after end = %q, want empty", got)
	}
	if h.engine.State() != StateIdle {
		t.Fatalf("State() = %s, want idle", h.engine.State())
	}
	if el.lifted {
		t.Fatal("expected lift removed after drag end")
	}
	if len(h.store.persists) != 0 || h.renderer.count() != 0 {
		t.Fatalf("writes = %d renders = %d, want none", len(h.store.persists), h.renderer.count())
	}
}

// TestPointerDropPersistsThenRenders verifies one write followed by one render.
func TestPointerDropPersistsThenRenders(t *testing.T) {
	h := newHarness(t, false)
	el := &fakeElement{}
	ctx := context.Background()

	h.engine.OnDragStart(&Event{Point: zoneCenter(domain.ColumnToDo), Target: el}, "t1")
	over := &Event{Point: zoneCenter(domain.ColumnDone)}
	h.engine.OnDragOver(over)
	if !over.DefaultPrevented() {
		t.Fatal("expected drag over to prevent default")
	}
	if len(h.highlight.active) != 1 || h.highlight.active[0] != domain.ZoneDone {
		t.Fatalf("highlighted = %v, want [categoryDone]", h.highlight.active)
	}

	if err := h.engine.OnDragEnd(ctx, &Event{Point: zoneCenter(domain.ColumnDone), Target: el}); err != nil {
		t.Fatalf("OnDragEnd() error = %v", err)
	}
	if len(h.store.persists) != 1 {
		t.Fatalf("writes = %d, want 1", len(h.store.persists))
	}
	want := persistCall{user: "guest", taskID: "t1", column: domain.ColumnDone}
	if h.store.persists[0] != want {
		t.Fatalf("write = %#v, want %#v", h.store.persists[0], want)
	}
	if h.store.fetches != 1 || h.renderer.count() != 1 {
		t.Fatalf("fetches = %d renders = %d, want 1 and 1", h.store.fetches, h.renderer.count())
	}
	rendered := h.renderer.renders[0]
	if rendered[0].Board != domain.ColumnDone {
		t.Fatalf("rendered board = %q, want done", rendered[0].Board)
	}
	if len(h.highlight.active) != 0 {
		t.Fatalf("highlights after drop = %v, want none", h.highlight.active)
	}
}

// TestPointerDropCleansUpBeforeWrite verifies the session is idle and unhighlighted when the write runs.
func TestPointerDropCleansUpBeforeWrite(t *testing.T) {
	h := newHarness(t, false)
	el := &fakeElement{}
	var (
		state      State
		highlights int
		active     bool
	)
	h.store.onPersist = func() {
		state = h.engine.State()
		highlights = len(h.highlight.active)
		active = h.engine.Active()
	}

	h.engine.OnDragStart(&Event{Point: zoneCenter(domain.ColumnToDo), Target: el}, "t1")
	h.engine.OnDragOver(&Event{Point: zoneCenter(domain.ColumnDone)})
	if err := h.engine.OnDragEnd(context.Background(), &Event{Point: zoneCenter(domain.ColumnDone), Target: el}); err != nil {
		t.Fatalf("OnDragEnd() error = %v", err)
	}
	if len(h.store.persists) != 1 {
		t.Fatalf("writes = %d, want 1", len(h.store.persists))
	}
	if state != StateIdle || highlights != 0 || active || el.lifted {
		t.Fatalf("during write: state = %v highlights = %d active = %v lifted = %v, want clean idle session", state, highlights, active, el.lifted)
	}
}

// TestPointerDropOntoOwnColumnStillWrites verifies the idempotent write and render.
func TestPointerDropOntoOwnColumnStillWrites(t *testing.T) {
	h := newHarness(t, false)
	h.engine.OnDragStart(&Event{Point: zoneCenter(domain.ColumnToDo)}, "t1")
	if err := h.engine.OnDragEnd(context.Background(), &Event{Point: zoneCenter(domain.ColumnToDo)}); err != nil {
		t.Fatalf("OnDragEnd() error = %v", err)
	}
	if len(h.store.persists) != 1 || h.store.persists[0].column != domain.ColumnToDo {
		t.Fatalf("writes = %#v, want one write of toDo", h.store.persists)
	}
	if h.renderer.count() != 1 {
		t.Fatalf("renders = %d, want 1", h.renderer.count())
	}
}

// TestPointerPersistFailureIsLoggedNotRendered verifies failures stay non-fatal.
func TestPointerPersistFailureIsLoggedNotRendered(t *testing.T) {
	h := newHarness(t, false)
	h.store.persistErr = errStoreDown

	h.engine.OnDragStart(&Event{Point: zoneCenter(domain.ColumnToDo)}, "t1")
	err := h.engine.OnDragEnd(context.Background(), &Event{Point: zoneCenter(domain.ColumnAwaitFeedback)})
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("OnDragEnd() error = %v, want %v", err, errStoreDown)
	}
	if h.renderer.count() != 0 {
		t.Fatalf("renders = %d, want 0", h.renderer.count())
	}
	logged := h.logger.errors()
	if len(logged) != 1 || logged[0].msg != "move task failed" {
		t.Fatalf("error logs = %#v, want one move task failed entry", logged)
	}
	if h.engine.State() != StateIdle {
		t.Fatalf("State() = %s, want idle", h.engine.State())
	}
}

// TestPointerDragAutoScrollsAndStopsOnEnd verifies edge scrolling only lives as long as the drag.
func TestPointerDragAutoScrollsAndStopsOnEnd(t *testing.T) {
	h := newHarness(t, false)
	h.engine.OnDragOver(&Event{Point: Point{X: 1000, Y: 5}})
	if h.engine.ScrollDirection(AxisVertical) != DirectionNone {
		t.Fatal("expected no scrolling without an active drag")
	}

	h.engine.OnDragStart(&Event{Point: zoneCenter(domain.ColumnToDo)}, "t1")
	h.engine.OnDragOver(&Event{Point: Point{X: 1000, Y: 990}})
	if got := h.engine.ScrollDirection(AxisVertical); got != DirectionForward {
		t.Fatalf("ScrollDirection(vertical) = %s, want forward", got)
	}
	h.sched.Advance(48 * time.Millisecond)
	if h.container.dy != 30 {
		t.Fatalf("dy = %v, want 30", h.container.dy)
	}

	h.engine.EndDrag(&Event{Point: Point{X: 1000, Y: 990}})
	if h.engine.Active() {
		t.Fatal("expected engine inactive after EndDrag")
	}
	h.sched.Advance(time.Second)
	if h.container.dy != 30 {
		t.Fatalf("dy after end = %v, want 30", h.container.dy)
	}
}

// TestPointerStartReplacesStaleSession verifies only one task is dragged at a time.
func TestPointerStartReplacesStaleSession(t *testing.T) {
	h := newHarness(t, false)
	first := &fakeElement{}
	h.engine.OnDragStart(&Event{Point: zoneCenter(domain.ColumnToDo), Target: first}, "t1")
	h.engine.OnDragStart(&Event{Point: zoneCenter(domain.ColumnInProgress)}, "t2")
	if got := h.engine.DraggedTaskID(); got != "t2" {
		t.Fatalf("DraggedTaskID() = %q, want t2", got)
	}
	if first.lifted {
		t.Fatal("expected stale origin to lose its lift")
	}
}

// TestNewRejectsIncompleteConfig verifies required collaborators.
func TestNewRejectsIncompleteConfig(t *testing.T) {
	if _, err := New(Config{Zones: boardZones()}); !errors.Is(err, ErrMissingStore) {
		t.Fatalf("New() error = %v, want ErrMissingStore", err)
	}
	if _, err := New(Config{Store: &fakeStore{}}); !errors.Is(err, ErrMissingZones) {
		t.Fatalf("New() error = %v, want ErrMissingZones", err)
	}
	bad := DefaultTuning()
	bad.ScrollThreshold = -5
	if _, err := New(Config{Store: &fakeStore{}, Zones: boardZones(), Tuning: bad}); !errors.Is(err, ErrInvalidTuning) {
		t.Fatalf("New() error = %v, want ErrInvalidTuning", err)
	}
}
