package focus

import (
	"sync"
	"time"
)

// Scheduler arms a repeating callback. The returned cancel function must
// guarantee that fn is not invoked again once it returns, except for a call
// that is already in progress.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler drives callbacks from a time.Ticker on its own goroutine.
// Callbacks for one schedule never overlap.
type TickerScheduler struct{}

// Every implements Scheduler.
func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	stopCh := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				// Both cases can be ready at once; prefer the stop.
				select {
				case <-stopCh:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopCh) })
	}
}

// ManualScheduler fires callbacks only when told to. It is used by tests and
// by callers that drive the engine from their own loop.
type ManualScheduler struct {
	mu       sync.Mutex
	fn       func()
	interval time.Duration
	armed    int
}

// Every implements Scheduler. Only the most recent schedule is kept.
func (s *ManualScheduler) Every(interval time.Duration, fn func()) func() {
	s.mu.Lock()
	s.armed++
	token := s.armed
	s.fn = fn
	s.interval = interval
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if s.armed == token {
			s.fn = nil
		}
		s.mu.Unlock()
	}
}

// Armed reports whether a callback is currently scheduled.
func (s *ManualScheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn != nil
}

// Interval returns the interval of the last schedule.
func (s *ManualScheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Fire invokes the scheduled callback n times, stopping early if the
// schedule is cancelled. It returns the number of callbacks run.
func (s *ManualScheduler) Fire(n int) int {
	fired := 0
	for i := 0; i < n; i++ {
		s.mu.Lock()
		fn := s.fn
		s.mu.Unlock()
		if fn == nil {
			return fired
		}
		fn()
		fired++
	}
	return fired
}

// Capture returns the currently scheduled callback, or nil. Tests use it to
// simulate a tick that was already in flight when the schedule was cancelled.
func (s *ManualScheduler) Capture() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn
}
