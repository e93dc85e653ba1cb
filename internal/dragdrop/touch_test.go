package dragdrop

import (
	"context"
	"testing"
	"time"

	"github.com/hylla/joinboard/internal/domain"
)

var cardPoint = Point{X: 200, Y: 150}

func startTouch(t *testing.T, h *harness) *fakeElement {
	t.Helper()
	if got := h.engine.BindCards(); got != len(h.cards) {
		t.Fatalf("BindCards() = %d, want %d", got, len(h.cards))
	}
	el := h.cards[0].Element.(*fakeElement)
	ev := &Event{Point: cardPoint, Target: el}
	h.engine.OnTouchStart(ev, "t1")
	if !ev.DefaultPrevented() {
		t.Fatal("expected touch start to prevent default")
	}
	if h.engine.State() != StateArmed {
		t.Fatalf("State() = %s, want armed", h.engine.State())
	}
	return el
}

// TestTouchTapNeverDrags verifies a short, small gesture is a tap.
func TestTouchTapNeverDrags(t *testing.T) {
	h := newHarness(t, true)
	el := startTouch(t, h)

	h.engine.OnTouchMove(&Event{Point: Point{X: cardPoint.X + 6, Y: cardPoint.Y + 7}})
	h.sched.Advance(100 * time.Millisecond)
	if h.engine.State() != StateArmed {
		t.Fatalf("State() = %s, want armed below threshold", h.engine.State())
	}
	if err := h.engine.OnTouchEnd(context.Background(), &Event{Point: cardPoint}); err != nil {
		t.Fatalf("OnTouchEnd() error = %v", err)
	}
	h.sched.Advance(time.Second)

	if h.engine.State() != StateIdle {
		t.Fatalf("State() = %s, want idle", h.engine.State())
	}
	if el.lifts != 0 {
		t.Fatalf("lifts = %d, want 0", el.lifts)
	}
	if len(h.store.persists) != 0 {
		t.Fatalf("writes = %d, want 0", len(h.store.persists))
	}
	if len(h.taps) != 1 || h.taps[0] != "t1" {
		t.Fatalf("taps = %v, want [t1]", h.taps)
	}
}

// TestTouchPromotesByMovement verifies promotion happens before the long-press timer.
func TestTouchPromotesByMovement(t *testing.T) {
	h := newHarness(t, true)
	el := startTouch(t, h)

	h.sched.Advance(50 * time.Millisecond)
	move := &Event{Point: Point{X: cardPoint.X + 11, Y: cardPoint.Y}}
	h.engine.OnTouchMove(move)
	if h.engine.State() != StateDragging {
		t.Fatalf("State() = %s, want dragging", h.engine.State())
	}
	if !h.engine.ActiveTouchDrag() {
		t.Fatal("expected active touch drag")
	}
	if !el.lifted {
		t.Fatal("expected origin lifted on promotion")
	}
	if !move.DefaultPrevented() {
		t.Fatal("expected drag move to prevent default")
	}
	if got := h.sched.Pending(); got != 0 {
		t.Fatalf("Pending() = %d, want promotion timer cancelled", got)
	}
}

// TestTouchPromotesByLongPress verifies the timer path.
func TestTouchPromotesByLongPress(t *testing.T) {
	h := newHarness(t, true)
	startTouch(t, h)

	h.sched.Advance(149 * time.Millisecond)
	if h.engine.State() != StateArmed {
		t.Fatalf("State() = %s, want armed before delay", h.engine.State())
	}
	h.sched.Advance(time.Millisecond)
	if h.engine.State() != StateDragging {
		t.Fatalf("State() = %s, want dragging after delay", h.engine.State())
	}
}

// TestTouchDropCommitsMove verifies a touch drag over a column persists the move.
func TestTouchDropCommitsMove(t *testing.T) {
	h := newHarness(t, true)
	el := startTouch(t, h)
	h.sched.Advance(150 * time.Millisecond)

	h.engine.OnTouchMove(&Event{Point: Point{X: 300, Y: 600}})
	if len(h.highlight.active) != 0 {
		t.Fatalf("highlighted = %v, want origin zone skipped", h.highlight.active)
	}
	h.engine.OnTouchMove(&Event{Point: zoneCenter(domain.ColumnInProgress)})
	if len(h.highlight.active) != 1 || h.highlight.active[0] != domain.ZoneInProgress {
		t.Fatalf("highlighted = %v, want [categoryInProgress]", h.highlight.active)
	}

	if err := h.engine.OnTouchEnd(context.Background(), &Event{Point: zoneCenter(domain.ColumnInProgress)}); err != nil {
		t.Fatalf("OnTouchEnd() error = %v", err)
	}
	if len(h.store.persists) != 1 || h.store.persists[0].column != domain.ColumnInProgress {
		t.Fatalf("writes = %#v, want one inProgress write", h.store.persists)
	}
	if h.renderer.count() != 1 {
		t.Fatalf("renders = %d, want 1", h.renderer.count())
	}
	if el.lifted || h.engine.ActiveTouchDrag() {
		t.Fatal("expected session cleaned up after drop")
	}
	if len(h.taps) != 0 {
		t.Fatalf("taps = %v, want none", h.taps)
	}
}

// TestTouchDocumentListenersFollowDrag verifies document-level handlers only act during a drag.
func TestTouchDocumentListenersFollowDrag(t *testing.T) {
	h := newHarness(t, true)
	startTouch(t, h)

	h.engine.OnDocumentTouchMove(&Event{Point: Point{X: 900, Y: 500}})
	if h.engine.State() != StateArmed {
		t.Fatalf("State() = %s, want armed; document move must not promote", h.engine.State())
	}

	h.sched.Advance(150 * time.Millisecond)
	h.engine.OnDocumentTouchMove(&Event{Point: Point{X: 1990, Y: 500}})
	if got := h.engine.ScrollDirection(AxisHorizontal); got != DirectionForward {
		t.Fatalf("ScrollDirection(horizontal) = %s, want forward", got)
	}
	if err := h.engine.OnDocumentTouchEnd(context.Background(), &Event{Point: zoneCenter(domain.ColumnDone)}); err != nil {
		t.Fatalf("OnDocumentTouchEnd() error = %v", err)
	}
	if len(h.store.persists) != 1 || h.store.persists[0].column != domain.ColumnDone {
		t.Fatalf("writes = %#v, want one done write", h.store.persists)
	}
	if h.engine.Active() {
		t.Fatal("expected engine inactive after document touch end")
	}
	if err := h.engine.OnDocumentTouchEnd(context.Background(), &Event{Point: zoneCenter(domain.ColumnDone)}); err != nil {
		t.Fatalf("second OnDocumentTouchEnd() error = %v", err)
	}
	if len(h.store.persists) != 1 {
		t.Fatalf("writes = %d, want 1", len(h.store.persists))
	}
}

// TestTouchIgnoresUnboundCards verifies stale card nodes do not arm.
func TestTouchIgnoresUnboundCards(t *testing.T) {
	h := newHarness(t, true)
	h.engine.BindCards()
	ev := &Event{Point: cardPoint}
	h.engine.OnTouchStart(ev, "ghost")
	if h.engine.State() != StateIdle || ev.DefaultPrevented() {
		t.Fatalf("State() = %s prevented = %t, want idle and untouched", h.engine.State(), ev.DefaultPrevented())
	}
}

// TestTouchDisabledBindsNothing verifies touch can be switched off.
func TestTouchDisabledBindsNothing(t *testing.T) {
	h := newHarness(t, false)
	if got := h.engine.BindCards(); got != 0 {
		t.Fatalf("BindCards() = %d, want 0", got)
	}
	h.engine.OnTouchStart(&Event{Point: cardPoint}, "t1")
	if h.engine.State() != StateIdle {
		t.Fatalf("State() = %s, want idle", h.engine.State())
	}
}

// TestTouchResizeRebindsAfterDebounce verifies rebinding waits for the resize to settle.
func TestTouchResizeRebindsAfterDebounce(t *testing.T) {
	h := newHarness(t, true)
	h.engine.BindCards()
	if h.binds != 1 {
		t.Fatalf("binds = %d, want 1", h.binds)
	}

	h.engine.OnResize()
	h.sched.Advance(60 * time.Millisecond)
	h.engine.OnResize()
	h.sched.Advance(99 * time.Millisecond)
	if h.binds != 1 {
		t.Fatalf("binds = %d before the debounce elapses, want 1", h.binds)
	}
	h.sched.Advance(time.Millisecond)
	if h.binds != 2 {
		t.Fatalf("binds = %d after the debounce, want 2", h.binds)
	}
}

// TestTouchStartRebindsCardRenderedAfterBind verifies a card that appeared after the
// last bind, for example by scrolling into view, still arms a gesture.
func TestTouchStartRebindsCardRenderedAfterBind(t *testing.T) {
	h := newHarness(t, true)
	h.engine.BindCards()
	h.cards = append(h.cards, Card{TaskID: "t3", Element: &fakeElement{}, Bounds: Rect{Left: 120, Top: 240, Right: 480, Bottom: 340}})

	h.engine.OnTouchStart(&Event{Point: Point{X: 200, Y: 300}}, "t3")
	if h.engine.State() != StateArmed || h.binds != 2 {
		t.Fatalf("State() = %s binds = %d, want armed after one rebind", h.engine.State(), h.binds)
	}
	h.sched.Advance(150 * time.Millisecond)
	if h.engine.State() != StateDragging || h.engine.DraggedTaskID() != "t3" {
		t.Fatalf("State() = %s dragged = %q, want t3 dragging", h.engine.State(), h.engine.DraggedTaskID())
	}
	h.engine.EndTouch(&Event{Point: Point{X: 200, Y: 300}})

	h.engine.OnTouchStart(&Event{Point: Point{X: 200, Y: 300}}, "missing")
	if h.engine.State() != StateIdle {
		t.Fatalf("State() = %s, want idle for a card that is not rendered", h.engine.State())
	}
}

// TestPointerStartIgnoredDuringTouchDrag verifies the touch gesture keeps ownership.
func TestPointerStartIgnoredDuringTouchDrag(t *testing.T) {
	h := newHarness(t, true)
	startTouch(t, h)
	h.sched.Advance(150 * time.Millisecond)

	h.engine.OnDragStart(&Event{Point: zoneCenter(domain.ColumnInProgress)}, "t2")
	if got := h.engine.DraggedTaskID(); got != "t1" {
		t.Fatalf("DraggedTaskID() = %q, want t1", got)
	}
	if mv, ok := h.engine.EndDrag(&Event{Point: zoneCenter(domain.ColumnDone)}); ok {
		t.Fatalf("EndDrag() = %#v, want no move during touch drag", mv)
	}
}
