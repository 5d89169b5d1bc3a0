package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler runs fn once after delay. Implementations must not run fn
// synchronously from within After.
type Scheduler interface {
	After(delay time.Duration, fn func())
}

// ClockScheduler schedules callbacks on a clockwork clock. Callbacks run on
// their own goroutine.
type ClockScheduler struct {
	clock clockwork.Clock
}

func NewClockScheduler(clock clockwork.Clock) *ClockScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockScheduler{clock: clock}
}

func (s *ClockScheduler) After(delay time.Duration, fn func()) {
	s.clock.AfterFunc(delay, fn)
}

// ManualScheduler keeps virtual time. Callbacks only run from Advance, on the
// caller's goroutine, in due order.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []manualTask
}

type manualTask struct {
	at  time.Duration
	seq uint64
	fn  func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) After(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.pending = append(s.pending, manualTask{at: s.now + delay, seq: s.seq, fn: fn})
}

// Advance moves virtual time forward by d, running every callback that falls
// due, including callbacks scheduled by earlier callbacks.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		i := s.nextDue(target)
		if i < 0 {
			s.now = target
			s.mu.Unlock()
			return
		}
		task := s.pending[i]
		s.pending = append(s.pending[:i], s.pending[i+1:]...)
		s.now = task.at
		s.mu.Unlock()

		task.fn()
	}
}

// Pending reports how many callbacks have not run yet.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *ManualScheduler) nextDue(target time.Duration) int {
	best := -1
	for i, task := range s.pending {
		if task.at > target {
			continue
		}
		if best < 0 || task.at < s.pending[best].at ||
			(task.at == s.pending[best].at && task.seq < s.pending[best].seq) {
			best = i
		}
	}
	return best
}
