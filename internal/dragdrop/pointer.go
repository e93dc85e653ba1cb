package dragdrop

import (
	"context"
	"strings"
)

// OnDragStart begins a pointer drag of taskID from ev.Target.
// It is ignored while a touch drag owns the session.
func (e *Engine) OnDragStart(ev *Event, taskID string) {
	taskID = strings.TrimSpace(taskID)
	if ev == nil || taskID == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.activeTouch {
		return
	}
	if e.session.state != StateIdle {
		e.cleanupLocked()
	}
	e.session.state = StateDragging
	e.session.taskID = taskID
	e.session.origin = ev.Target
	e.session.start = ev.Point
	if zone, ok := e.zoneAt(ev.Point); ok {
		e.session.originZone = zone
	}
	if ev.Target != nil {
		ev.Target.SetLifted(true)
	}
	e.logger.Debug("drag started", "task_id", taskID, "input", "pointer")
}

// OnDragOver updates the hover highlight and auto-scroll for a pointer drag.
func (e *Engine) OnDragOver(ev *Event) {
	if ev == nil {
		return
	}
	ev.PreventDefault()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.state != StateDragging || e.session.activeTouch {
		return
	}
	e.highlights.ClearHighlights()
	if zone, ok := e.zoneAt(ev.Point); ok {
		e.highlights.Highlight(zone)
	}
	e.scroller.Evaluate(e.container, ev.Point)
}

// EndDrag finishes a pointer drag and returns the move for the release point, if any.
// Cleanup always runs, even when the release lands outside every zone.
func (e *Engine) EndDrag(ev *Event) (Move, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.activeTouch {
		return Move{}, false
	}
	var (
		mv Move
		ok bool
	)
	if e.session.state == StateDragging && ev != nil {
		if col, hit := e.resolver.Resolve(ev.Point); hit {
			mv = Move{TaskID: e.session.taskID, Column: col}
			ok = true
		}
	}
	if ev != nil && ev.Target != nil {
		ev.Target.SetLifted(false)
	}
	e.cleanupLocked()
	return mv, ok
}

// OnDragEnd ends a pointer drag and commits the resolved move.
func (e *Engine) OnDragEnd(ctx context.Context, ev *Event) error {
	mv, ok := e.EndDrag(ev)
	if !ok {
		return nil
	}
	return e.Commit(ctx, mv)
}
