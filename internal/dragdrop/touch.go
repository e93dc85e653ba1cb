package dragdrop

import (
	"context"
	"strings"
)

// Card is a rendered task card that accepts touch input.
type Card struct {
	TaskID  string
	Element Element
	Bounds  Rect
}

// BindCards replaces the touch bindings with the cards currently rendered.
// It returns the number of bound cards.
func (e *Engine) BindCards() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bindCardsLocked()
}

func (e *Engine) bindCardsLocked() int {
	if !e.touch {
		return 0
	}
	e.cards = map[string]Card{}
	if e.cardsFn == nil {
		return 0
	}
	for _, card := range e.cardsFn() {
		id := strings.TrimSpace(card.TaskID)
		if id == "" {
			continue
		}
		card.TaskID = id
		e.cards[id] = card
	}
	e.logger.Debug("touch cards bound", "count", len(e.cards))
	return len(e.cards)
}

// OnResize schedules a debounced rebind of the touch cards.
func (e *Engine) OnResize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.touch {
		return
	}
	if e.rebindTimer != nil {
		e.rebindTimer.Stop()
	}
	e.rebindGen++
	gen := e.rebindGen
	e.rebindTimer = e.sched.AfterFunc(e.tuning.RebindDelay, func() {
		if gen != e.rebindGen {
			return
		}
		e.rebindTimer = nil
		e.bindCardsLocked()
	})
}

// OnTouchStart arms a touch gesture on a bound card.
func (e *Engine) OnTouchStart(ev *Event, taskID string) {
	if ev == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	taskID = strings.TrimSpace(taskID)
	card, ok := e.cards[taskID]
	if !ok && e.touch {
		// Scrolling changes which cards are rendered; rebind once before giving up.
		e.bindCardsLocked()
		card, ok = e.cards[taskID]
	}
	if !ok {
		e.logger.Debug("touch on unbound card ignored", "task_id", taskID)
		return
	}
	ev.PreventDefault()
	if e.session.state != StateIdle {
		e.cleanupLocked()
	}

	target := ev.Target
	if target == nil {
		target = card.Element
	}
	e.session.state = StateArmed
	e.session.taskID = card.TaskID
	e.session.origin = target
	e.session.start = ev.Point
	if zone, hit := e.zoneAt(ev.Point); hit {
		e.session.originZone = zone
	}

	e.promoteGen++
	gen := e.promoteGen
	e.session.promote = e.sched.AfterFunc(e.tuning.LongPressDelay, func() {
		if gen != e.promoteGen || e.session.state != StateArmed {
			return
		}
		e.session.promote = nil
		e.promoteLocked()
	})
}

// OnTouchMove handles card-level move events.
func (e *Engine) OnTouchMove(ev *Event) {
	if ev == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touchMoveLocked(ev)
}

// OnDocumentTouchMove handles document-level move events, active only during a touch drag.
func (e *Engine) OnDocumentTouchMove(ev *Event) {
	if ev == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.docListen || e.session.state != StateDragging {
		return
	}
	e.touchMoveLocked(ev)
}

func (e *Engine) touchMoveLocked(ev *Event) {
	switch e.session.state {
	case StateIdle:
		return
	case StateArmed:
		if ev.Point.Distance(e.session.start) < e.tuning.TouchMoveThreshold {
			return
		}
		e.session.cancelPromotion()
		e.promoteLocked()
	case StateDragging:
		if !e.session.activeTouch {
			return
		}
	}

	ev.PreventDefault()
	e.highlights.ClearHighlights()
	if zone, ok := e.zoneAt(ev.Point); ok && zone != e.session.originZone {
		e.highlights.Highlight(zone)
	}
	e.scroller.Evaluate(e.container, ev.Point)
}

func (e *Engine) promoteLocked() {
	e.session.state = StateDragging
	e.session.activeTouch = true
	if e.session.origin != nil {
		e.session.origin.SetLifted(true)
	}
	e.docListen = true
	e.logger.Debug("drag started", "task_id", e.session.taskID, "input", "touch")
}

// EndTouch finishes a touch gesture. A release before promotion is a tap and
// yields no move; the tap handler, if any, is called after the lock is released.
func (e *Engine) EndTouch(ev *Event) (Move, bool) {
	e.mu.Lock()
	mv, ok, tapped := e.endTouchLocked(ev)
	onTap := e.onTap
	e.mu.Unlock()

	if tapped != "" && onTap != nil {
		onTap(tapped)
	}
	return mv, ok
}

func (e *Engine) endTouchLocked(ev *Event) (Move, bool, string) {
	e.session.cancelPromotion()
	switch e.session.state {
	case StateArmed:
		taskID := e.session.taskID
		e.cleanupLocked()
		return Move{}, false, taskID
	case StateDragging:
		if !e.session.activeTouch {
			return Move{}, false, ""
		}
		var (
			mv Move
			ok bool
		)
		if ev != nil {
			if col, hit := e.resolver.Resolve(ev.Point); hit {
				mv = Move{TaskID: e.session.taskID, Column: col}
				ok = true
			}
		}
		e.cleanupLocked()
		return mv, ok, ""
	default:
		return Move{}, false, ""
	}
}

// OnTouchEnd ends a card-level touch and commits the resolved move.
func (e *Engine) OnTouchEnd(ctx context.Context, ev *Event) error {
	mv, ok := e.EndTouch(ev)
	if !ok {
		return nil
	}
	return e.Commit(ctx, mv)
}

// OnDocumentTouchEnd ends any touch sequence that is still open.
func (e *Engine) OnDocumentTouchEnd(ctx context.Context, ev *Event) error {
	e.mu.Lock()
	open := e.session.state != StateIdle && (e.session.activeTouch || e.session.state == StateArmed)
	e.mu.Unlock()
	if !open {
		return nil
	}
	return e.OnTouchEnd(ctx, ev)
}
