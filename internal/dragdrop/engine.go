package dragdrop

import (
	"context"
	"errors"
	"io"
	"sync"

	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/joinboard/internal/domain"
)

var (
	// ErrMissingStore reports an engine configured without a task store.
	ErrMissingStore = errors.New("dragdrop: task store is required")
	// ErrMissingZones reports an engine configured without a hit tester.
	ErrMissingZones = errors.New("dragdrop: zone hit tester is required")
)

// Event is one input sample forwarded by a front end.
type Event struct {
	Point  Point
	Target Element

	prevented bool
}

// PreventDefault marks the event as consumed by the engine.
func (e *Event) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.prevented
}

// Config wires an engine to its board.
type Config struct {
	Container  Container
	Zones      HitTester
	Highlights Highlighter
	Store      TaskStore
	Renderer   Renderer
	UserID     string

	// Cards lists the currently rendered cards for touch binding.
	Cards        func() []Card
	TouchEnabled bool
	// TapHandler receives the task id of a touch released before it became a drag.
	TapHandler func(taskID string)

	Tuning    Tuning
	Scheduler Scheduler
	Logger    Logger
}

// Engine serialises drag input, timers, and session state behind one mutex.
type Engine struct {
	mu sync.Mutex

	container  Container
	zones      HitTester
	highlights Highlighter
	cardsFn    func() []Card
	touch      bool
	onTap      func(string)
	tuning     Tuning
	sched      Scheduler
	logger     Logger

	resolver *Resolver
	scroller *Scroller
	session  Session

	cards       map[string]Card
	docListen   bool
	promoteGen  uint64
	rebindGen   uint64
	rebindTimer Timer
}

// New validates cfg and constructs an idle engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	if cfg.Zones == nil {
		return nil, ErrMissingZones
	}
	if cfg.Tuning == (Tuning{}) {
		cfg.Tuning = DefaultTuning()
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, err
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = SystemScheduler()
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if cfg.Highlights == nil {
		cfg.Highlights = noopHighlighter{}
	}

	e := &Engine{
		container:  cfg.Container,
		zones:      cfg.Zones,
		highlights: cfg.Highlights,
		cardsFn:    cfg.Cards,
		touch:      cfg.TouchEnabled,
		onTap:      cfg.TapHandler,
		tuning:     cfg.Tuning,
		logger:     cfg.Logger,
		cards:      map[string]Card{},
	}
	e.sched = lockedScheduler{inner: cfg.Scheduler, mu: &e.mu}
	e.scroller = NewScroller(e.sched, cfg.Tuning)
	e.resolver = NewResolver(cfg.Zones, cfg.Store, cfg.Renderer, cfg.UserID, cfg.Logger)
	return e, nil
}

// Commit persists a resolved move. It never holds the engine lock.
func (e *Engine) Commit(ctx context.Context, mv Move) error {
	return e.resolver.Commit(ctx, mv)
}

// State returns the current session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.State()
}

// DraggedTaskID returns the task id of the in-flight drag.
func (e *Engine) DraggedTaskID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.TaskID()
}

// ActiveTouchDrag reports whether a promoted touch gesture owns the session.
func (e *Engine) ActiveTouchDrag() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.ActiveTouch()
}

// Active reports whether a gesture is in progress or an axis is scrolling.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.State() != StateIdle || e.scroller.Active()
}

// ScrollDirection reports the auto-scroll direction for axis.
func (e *Engine) ScrollDirection(axis Axis) Direction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scroller.Direction(axis)
}

// Close cancels timers and resets any in-flight gesture.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rebindTimer != nil {
		e.rebindTimer.Stop()
		e.rebindTimer = nil
	}
	e.rebindGen++
	e.cleanupLocked()
}

func (e *Engine) zoneAt(p Point) (domain.ZoneID, bool) {
	return e.zones.ZoneAt(p)
}

// cleanupLocked drops the lift, highlights, scroll timers, and session.
func (e *Engine) cleanupLocked() {
	if e.session.origin != nil {
		e.session.origin.SetLifted(false)
	}
	e.highlights.ClearHighlights()
	e.scroller.Stop()
	e.docListen = false
	e.session.Reset()
}

type noopHighlighter struct{}

func (noopHighlighter) ClearHighlights()        {}
func (noopHighlighter) Highlight(domain.ZoneID) {}

func discardLogger() Logger {
	return charmLog.New(io.Discard)
}
