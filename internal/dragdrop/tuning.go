package dragdrop

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTuning reports a non-positive tuning value.
var ErrInvalidTuning = errors.New("invalid drag tuning")

// Tuning holds engine thresholds. Distances are logical pixels.
type Tuning struct {
	ScrollThreshold    float64
	ScrollSpeed        float64
	ScrollInterval     time.Duration
	TouchMoveThreshold float64
	LongPressDelay     time.Duration
	RebindDelay        time.Duration
}

// DefaultTuning returns the stock thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		ScrollThreshold:    50,
		ScrollSpeed:        10,
		ScrollInterval:     16 * time.Millisecond,
		TouchMoveThreshold: 10,
		LongPressDelay:     150 * time.Millisecond,
		RebindDelay:        100 * time.Millisecond,
	}
}

// Validate rejects any non-positive field.
func (t Tuning) Validate() error {
	switch {
	case t.ScrollThreshold <= 0:
		return fmt.Errorf("%w: scroll threshold must be positive", ErrInvalidTuning)
	case t.ScrollSpeed <= 0:
		return fmt.Errorf("%w: scroll speed must be positive", ErrInvalidTuning)
	case t.ScrollInterval <= 0:
		return fmt.Errorf("%w: scroll interval must be positive", ErrInvalidTuning)
	case t.TouchMoveThreshold <= 0:
		return fmt.Errorf("%w: touch move threshold must be positive", ErrInvalidTuning)
	case t.LongPressDelay <= 0:
		return fmt.Errorf("%w: long press delay must be positive", ErrInvalidTuning)
	case t.RebindDelay <= 0:
		return fmt.Errorf("%w: rebind delay must be positive", ErrInvalidTuning)
	}
	return nil
}
