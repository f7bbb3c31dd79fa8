// Package pomodoro implements the focus countdown. A Timer owns at most
// one tick source at a time: Start, Pause, Toggle, Reset and Close cancel
// the current source before a new one is made, and a source whose ticks
// arrive after it was replaced is ignored.
package pomodoro

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/studywithme/internal/client/notify"
	"github.com/dmitrijs2005/studywithme/internal/common"
	"github.com/dmitrijs2005/studywithme/internal/logging"
)

const (
	// DefaultSeconds is one 25-minute work interval.
	DefaultSeconds = 25 * 60
	TickInterval   = time.Second
)

type State struct {
	Remaining int
	Running   bool
}

func (s State) String() string {
	return FormatTime(s.Remaining)
}

// FormatTime renders seconds as MM:SS with both parts zero-padded.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

type Timer struct {
	clock    Clock
	notifier notify.Notifier
	logger   logging.Logger
	initial  int

	mu        sync.Mutex
	remaining int
	running   bool
	closed    bool
	stop      func()
	gen       uint64
}

type Option func(*Timer)

// WithSeconds overrides the interval length.
func WithSeconds(s int) Option {
	return func(t *Timer) {
		if s > 0 {
			t.initial = s
		}
	}
}

func New(clock Clock, notifier notify.Notifier, logger logging.Logger, opts ...Option) *Timer {
	t := &Timer{
		clock:    clock,
		notifier: notifier,
		logger:   logger.With("component", "pomodoro"),
		initial:  DefaultSeconds,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.remaining = t.initial
	return t
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{Remaining: t.remaining, Running: t.running}
}

// Toggle flips between running and paused without touching the remaining time.
func (t *Timer) Toggle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setRunningLocked(!t.running)
}

func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setRunningLocked(true)
}

func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setRunningLocked(false)
}

// Reset stops the countdown and restores the full interval.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.remaining = t.initial
	t.rescheduleLocked()
}

// Close releases the tick source. The timer stays readable but no longer
// counts down.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.running = false
	t.rescheduleLocked()
}

// setRunningLocked refuses to run at zero: an expired timer has to be
// reset first, so the expiry notice cannot fire again.
func (t *Timer) setRunningLocked(running bool) {
	if running && (t.remaining <= 0 || t.closed) {
		return
	}
	if t.running == running {
		return
	}
	t.running = running
	t.rescheduleLocked()
}

func (t *Timer) rescheduleLocked() {
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	t.gen++
	if !t.running || t.remaining <= 0 || t.closed {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	tk := t.clock.NewTicker(TickInterval)
	t.stop = func() {
		cancel()
		tk.Stop()
	}
	go t.run(ctx, tk, t.gen)
}

func (t *Timer) run(ctx context.Context, tk Ticker, gen uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C():
			if !t.tick(gen) {
				return
			}
		}
	}
}

// tick decrements once on behalf of source gen. It reports whether the
// source should keep going. Ticks from a replaced source are ignored.
func (t *Timer) tick(gen uint64) bool {
	t.mu.Lock()
	if gen != t.gen || !t.running || t.remaining <= 0 {
		t.mu.Unlock()
		return false
	}
	t.remaining--
	if t.remaining > 0 {
		t.mu.Unlock()
		return true
	}
	t.running = false
	t.rescheduleLocked()
	t.mu.Unlock()

	t.expire()
	return false
}

func (t *Timer) expire() {
	ctx := context.Background()
	t.logger.Info(ctx, "focus interval finished")
	if err := t.notifier.Notify(ctx, common.TimerExpiredTitle, common.TimerExpiredBody); err != nil {
		t.logger.Warn(ctx, "expiry notification failed", "error", err)
	}
}
