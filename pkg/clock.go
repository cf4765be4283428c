package pkg

import (
	"fmt"
	"sync"
	"time"
)

// Clock schedules tracker timers and hands every expired callback to
// Dispatch, which runs it on the goroutine owning the tracker. It also keeps
// the session time shown next to the board.
type Clock struct {
	Dispatch func(func())
	Started  time.Time

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	paused bool
}

func NewClock(dispatch func(func())) *Clock {
	return &Clock{
		Dispatch: dispatch,
		Started:  time.Now(),
		timers:   make(map[*time.Timer]struct{}),
	}
}

func (cl *Clock) String() string {
	elapsed := cl.Elapsed()
	return fmt.Sprintf("%d:%02d", int(elapsed.Minutes()), int(elapsed.Seconds())%60)
}

func (cl *Clock) Elapsed() time.Duration {
	return time.Since(cl.Started)
}

// AfterFunc implements trainer.Scheduler.
func (cl *Clock) AfterFunc(d time.Duration, f func()) func() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.paused {
		return func() {}
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		cl.mu.Lock()
		_, live := cl.timers[t]
		delete(cl.timers, t)
		cl.mu.Unlock()
		if live {
			cl.Dispatch(f)
		}
	})
	cl.timers[t] = struct{}{}
	return func() {
		cl.mu.Lock()
		delete(cl.timers, t)
		cl.mu.Unlock()
		t.Stop()
	}
}

// Pending counts the callbacks that have not fired or been cancelled.
func (cl *Clock) Pending() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.timers)
}

// Pause cancels every pending callback and refuses new ones. Used when the
// session is torn down.
func (cl *Clock) Pause() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.paused = true
	for t := range cl.timers {
		t.Stop()
	}
	cl.timers = make(map[*time.Timer]struct{})
}

// Reset restarts the session time.
func (cl *Clock) Reset() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.Started = time.Now()
	cl.paused = false
}
