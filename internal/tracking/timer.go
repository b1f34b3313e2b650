package tracking

import (
	"fmt"
	"sync"
	"time"
)

type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// Timer is a one-second stopwatch. Each tick adds one to the elapsed count;
// there is no drift correction. Ticks are re-armed only after the previous
// tick's callback returns, and every arm carries a generation number so a
// callback armed before Pause or Stop has no effect.
type Timer struct {
	mu       sync.Mutex
	state    timerState
	elapsed  int
	gen      uint64
	pending  *time.Timer
	interval time.Duration
	onTick   func(elapsed int)
}

// NewTimer creates a stopped timer. onTick, if non-nil, runs on the timer's
// goroutine after every accepted tick.
func NewTimer(interval time.Duration, onTick func(elapsed int)) *Timer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Timer{interval: interval, onTick: onTick}
}

// Start zeroes elapsed time and begins ticking.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.elapsed = 0
	t.state = timerRunning
	t.armLocked()
}

// Pause halts ticking without touching elapsed time.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != timerRunning {
		return
	}
	t.cancelLocked()
	t.state = timerPaused
}

// Resume restarts ticking after Pause.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != timerPaused {
		return
	}
	t.state = timerRunning
	t.armLocked()
}

// Stop halts ticking. The final elapsed value stays queryable.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.state = timerStopped
}

// Reset is Stop under the name the tracking UI uses.
func (t *Timer) Reset() { t.Stop() }

// SetElapsed overwrites elapsed seconds, used when adopting a hand-off.
func (t *Timer) SetElapsed(n int) {
	if n < 0 {
		n = 0
	}
	t.mu.Lock()
	t.elapsed = n
	t.mu.Unlock()
}

// Elapsed returns whole seconds counted so far.
func (t *Timer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Running reports whether the timer was started and not stopped.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state != timerStopped
}

// Paused reports whether the timer is paused.
func (t *Timer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == timerPaused
}

// Tick applies one tick. It is a no-op unless the timer is running.
// Reports whether the tick was counted.
func (t *Timer) Tick() bool {
	return t.tick(nil)
}

// tick counts one second when running and, for scheduled callbacks, when
// gen still matches the current arm.
func (t *Timer) tick(gen *uint64) bool {
	t.mu.Lock()
	if t.state != timerRunning || (gen != nil && *gen != t.gen) {
		t.mu.Unlock()
		return false
	}
	t.elapsed++
	n := t.elapsed
	t.mu.Unlock()

	if t.onTick != nil {
		t.onTick(n)
	}
	return true
}

func (t *Timer) armLocked() {
	gen := t.gen
	t.pending = time.AfterFunc(t.interval, func() { t.fire(gen) })
}

func (t *Timer) cancelLocked() {
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func (t *Timer) fire(gen uint64) {
	if !t.tick(&gen) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen == t.gen && t.state == timerRunning {
		t.armLocked()
	}
}

// FormatElapsed renders whole seconds as HH:MM:SS.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
