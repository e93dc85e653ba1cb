package dragdrop

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancelable handle to a scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs delayed and repeating callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Every(d time.Duration, f func()) Timer
}

// SystemScheduler returns a Scheduler backed by the runtime timers.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemScheduler) Every(d time.Duration, f func()) Timer {
	t := &repeatingTimer{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				f()
			}
		}
	}()
	return t
}

type repeatingTimer struct {
	once sync.Once
	done chan struct{}
}

func (t *repeatingTimer) Stop() bool {
	stopped := false
	t.once.Do(func() {
		close(t.done)
		stopped = true
	})
	return stopped
}

// lockedScheduler runs every callback while holding mu.
type lockedScheduler struct {
	inner Scheduler
	mu    sync.Locker
}

func (s lockedScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return s.inner.AfterFunc(d, s.wrap(f))
}

func (s lockedScheduler) Every(d time.Duration, f func()) Timer {
	return s.inner.Every(d, s.wrap(f))
}

func (s lockedScheduler) wrap(f func()) func() {
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		f()
	}
}

// ManualScheduler is a deterministic Scheduler whose clock only moves on Advance.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	owner   *ManualScheduler
	due     time.Duration
	every   time.Duration
	seq     uint64
	f       func()
	stopped bool
}

// NewManualScheduler constructs a scheduler positioned at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc schedules f once, d after the current manual time.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return s.add(d, 0, f)
}

// Every schedules f repeatedly with period d.
func (s *ManualScheduler) Every(d time.Duration, f func()) Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	return s.add(d, d, f)
}

func (s *ManualScheduler) add(d, every time.Duration, f func()) *manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	task := &manualTask{owner: s, due: s.now + d, every: every, seq: s.seq, f: f}
	s.tasks = append(s.tasks, task)
	return task
}

// Stop cancels the task. It reports whether the task was still pending.
func (t *manualTask) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, firing due callbacks in due order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	for {
		task := s.nextDue(target)
		if task == nil {
			break
		}
		task.f()
	}
	s.mu.Lock()
	s.now = target
	s.compact()
	s.mu.Unlock()
}

// nextDue pops the earliest pending task due at or before target and reschedules repeats.
func (s *ManualScheduler) nextDue(target time.Duration) *manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compact()
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].due == s.tasks[j].due {
			return s.tasks[i].seq < s.tasks[j].seq
		}
		return s.tasks[i].due < s.tasks[j].due
	})
	if len(s.tasks) == 0 || s.tasks[0].due > target {
		return nil
	}
	task := s.tasks[0]
	s.now = task.due
	if task.every > 0 {
		task.due += task.every
	} else {
		task.stopped = true
	}
	return task
}

func (s *ManualScheduler) compact() {
	live := s.tasks[:0]
	for _, task := range s.tasks {
		if !task.stopped {
			live = append(live, task)
		}
	}
	s.tasks = live
}

// Pending returns the number of scheduled, unstopped callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compact()
	return len(s.tasks)
}
