package tui

import (
	"strings"
	"time"

	"github.com/hylla/joinboard/internal/dragdrop"
)

// InputMode selects how mouse gestures reach the drag engine.
type InputMode string

const (
	// InputTouch treats a press as a finger: long-press or movement starts a drag, a quick release taps.
	InputTouch InputMode = "touch"
	// InputPointer treats a press as a mouse: the first motion starts a drag, a release without motion taps.
	InputPointer InputMode = "pointer"
)

type Option func(*Model)

type settings struct {
	userID       string
	inputMode    InputMode
	touchEnabled bool
	tuning       dragdrop.Tuning
	scheduler    dragdrop.Scheduler
	logger       dragdrop.Logger
	cellWidthPx  int
	cellHeightPx int
	now          func() time.Time
}

func defaultSettings() settings {
	return settings{
		userID:       "guest",
		inputMode:    InputTouch,
		touchEnabled: true,
		tuning:       dragdrop.DefaultTuning(),
		cellWidthPx:  10,
		cellHeightPx: 20,
		now:          time.Now,
	}
}

func WithUserID(userID string) Option {
	return func(m *Model) {
		if userID = strings.TrimSpace(userID); userID != "" {
			m.settings.userID = userID
		}
	}
}

func WithInputMode(mode InputMode) Option {
	return func(m *Model) {
		switch mode {
		case InputTouch, InputPointer:
			m.settings.inputMode = mode
		}
	}
}

func WithTouchEnabled(enabled bool) Option {
	return func(m *Model) {
		m.settings.touchEnabled = enabled
	}
}

func WithTuning(tuning dragdrop.Tuning) Option {
	return func(m *Model) {
		m.settings.tuning = tuning
	}
}

// WithScheduler replaces the engine's timer source. Tests pass a manual scheduler.
func WithScheduler(sched dragdrop.Scheduler) Option {
	return func(m *Model) {
		m.settings.scheduler = sched
	}
}

func WithLogger(logger dragdrop.Logger) Option {
	return func(m *Model) {
		m.settings.logger = logger
	}
}

func WithCellSize(widthPx, heightPx int) Option {
	return func(m *Model) {
		if widthPx > 0 && heightPx > 0 {
			m.settings.cellWidthPx = widthPx
			m.settings.cellHeightPx = heightPx
		}
	}
}

// WithClock sets the time source used for the due date of quick-added tasks.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.settings.now = now
		}
	}
}
