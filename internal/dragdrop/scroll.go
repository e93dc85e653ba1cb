package dragdrop

// Container is the scrollable board viewport.
type Container interface {
	Bounds() Rect
	ScrollBy(dx, dy float64)
}

// Axis identifies a scroll axis.
type Axis int

const (
	AxisVertical Axis = iota
	AxisHorizontal
)

// Direction identifies which way an axis is scrolling.
type Direction int

const (
	DirectionNone Direction = iota
	// DirectionBackward scrolls up or left.
	DirectionBackward
	// DirectionForward scrolls down or right.
	DirectionForward
)

// String returns a log-friendly direction label.
func (d Direction) String() string {
	switch d {
	case DirectionBackward:
		return "backward"
	case DirectionForward:
		return "forward"
	default:
		return "none"
	}
}

// axisTimer is the running timer for one axis. A nil *axisTimer means the axis is idle.
type axisTimer struct {
	dir   Direction
	timer Timer
}

// Scroller drives edge auto-scroll. It is not safe for concurrent use; the engine serialises it.
type Scroller struct {
	sched  Scheduler
	tuning Tuning
	axes   [2]*axisTimer
}

// NewScroller constructs an idle scroller.
func NewScroller(sched Scheduler, tuning Tuning) *Scroller {
	return &Scroller{sched: sched, tuning: tuning}
}

// Evaluate starts, keeps, or stops each axis timer for a pointer at p.
func (s *Scroller) Evaluate(c Container, p Point) {
	if c == nil {
		return
	}
	r := c.Bounds()
	th := s.tuning.ScrollThreshold

	switch {
	case p.Y < r.Top+th:
		s.ensure(c, AxisVertical, DirectionBackward)
	case p.Y > r.Bottom-th:
		s.ensure(c, AxisVertical, DirectionForward)
	default:
		s.stopAxis(AxisVertical)
	}

	switch {
	case p.X < r.Left+th:
		s.ensure(c, AxisHorizontal, DirectionBackward)
	case p.X > r.Right-th:
		s.ensure(c, AxisHorizontal, DirectionForward)
	default:
		s.stopAxis(AxisHorizontal)
	}
}

// Direction reports the active direction for axis.
func (s *Scroller) Direction(axis Axis) Direction {
	if cur := s.axes[axis]; cur != nil {
		return cur.dir
	}
	return DirectionNone
}

// Active reports whether any axis is scrolling.
func (s *Scroller) Active() bool {
	return s.axes[AxisVertical] != nil || s.axes[AxisHorizontal] != nil
}

// Stop halts both axes.
func (s *Scroller) Stop() {
	s.stopAxis(AxisVertical)
	s.stopAxis(AxisHorizontal)
}

func (s *Scroller) ensure(c Container, axis Axis, dir Direction) {
	if cur := s.axes[axis]; cur != nil {
		if cur.dir == dir {
			return
		}
		s.stopAxis(axis)
	}
	step := s.tuning.ScrollSpeed
	if dir == DirectionBackward {
		step = -step
	}
	at := &axisTimer{dir: dir}
	at.timer = s.sched.Every(s.tuning.ScrollInterval, func() {
		// Ticks queued before Stop must not scroll.
		if s.axes[axis] != at {
			return
		}
		if axis == AxisVertical {
			c.ScrollBy(0, step)
			return
		}
		c.ScrollBy(step, 0)
	})
	s.axes[axis] = at
}

func (s *Scroller) stopAxis(axis Axis) {
	cur := s.axes[axis]
	if cur == nil {
		return
	}
	s.axes[axis] = nil
	cur.timer.Stop()
}
