package pomodoro

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/studywithme/internal/common"
	"github.com/dmitrijs2005/studywithme/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTicker struct {
	c chan time.Time

	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.c }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// manualClock hands out unbuffered tickers, so each send in a test is
// received by the timer's loop before the next one can be made.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	tk := &manualTicker{c: make(chan time.Time)}
	c.tickers = append(c.tickers, tk)
	return tk
}

func (c *manualClock) last() *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

func (c *manualClock) created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *manualClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, tk := range c.tickers {
		if !tk.isStopped() {
			n++
		}
	}
	return n
}

func (c *manualClock) fire(t *testing.T, n int) {
	t.Helper()
	tk := c.last()
	require.NotNil(t, tk)
	for i := 0; i < n; i++ {
		select {
		case tk.c <- time.Now():
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d was not consumed", i+1)
		}
	}
}

type countingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *countingNotifier) Notify(_ context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, title+"|"+body)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func newTimer(opts ...Option) (*Timer, *manualClock, *countingNotifier) {
	clock := &manualClock{}
	n := &countingNotifier{}
	return New(clock, n, logging.Discard(), opts...), clock, n
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{65, "01:05"},
		{5, "00:05"},
		{1500, "25:00"},
		{0, "00:00"},
		{59, "00:59"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.in), "FormatTime(%d)", tt.in)
	}
}

func TestNew_InitialState(t *testing.T) {
	tm, clock, _ := newTimer()
	assert.Equal(t, State{Remaining: 1500, Running: false}, tm.State())
	assert.Equal(t, "25:00", tm.State().String())
	assert.Equal(t, 0, clock.created())
}

func TestTimer_RunsToZeroAndNotifiesOnce(t *testing.T) {
	tm, clock, n := newTimer()
	t.Cleanup(tm.Close)

	tm.Start()
	clock.fire(t, DefaultSeconds)

	require.Eventually(t, func() bool {
		return tm.State() == State{Remaining: 0, Running: false} && n.count() == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{common.TimerExpiredTitle + "|" + common.TimerExpiredBody}, n.calls)
	assert.Equal(t, 0, clock.active())

	tm.Toggle()
	tm.Start()
	assert.Equal(t, State{Remaining: 0, Running: false}, tm.State())
	assert.Equal(t, 1, clock.created())
	assert.Equal(t, 1, n.count())
}

func TestTimer_ToggleKeepsRemaining(t *testing.T) {
	tm, clock, _ := newTimer()
	t.Cleanup(tm.Close)

	tm.Toggle()
	clock.fire(t, 10)
	require.Eventually(t, func() bool { return tm.State().Remaining == 1490 }, time.Second, 5*time.Millisecond)

	tm.Toggle()
	assert.Equal(t, State{Remaining: 1490, Running: false}, tm.State())

	tm.Toggle()
	assert.Equal(t, State{Remaining: 1490, Running: true}, tm.State())
}

func TestTimer_RapidTogglesLeaveOneSource(t *testing.T) {
	tm, clock, _ := newTimer()
	t.Cleanup(tm.Close)

	for i := 0; i < 7; i++ {
		tm.Toggle()
	}
	require.True(t, tm.State().Running)
	assert.Equal(t, 4, clock.created())
	assert.Equal(t, 1, clock.active())

	clock.fire(t, 1)
	require.Eventually(t, func() bool { return tm.State().Remaining == 1499 }, time.Second, 5*time.Millisecond)
}

func TestTimer_StaleSourceIsIgnored(t *testing.T) {
	tm, _, _ := newTimer()
	t.Cleanup(tm.Close)

	tm.Start()
	tm.mu.Lock()
	oldGen := tm.gen
	tm.mu.Unlock()

	tm.Pause()
	tm.Start()

	assert.False(t, tm.tick(oldGen))
	assert.Equal(t, DefaultSeconds, tm.State().Remaining)
}

func TestTimer_Reset(t *testing.T) {
	tm, clock, _ := newTimer()
	t.Cleanup(tm.Close)

	tm.Start()
	clock.fire(t, 3)
	require.Eventually(t, func() bool { return tm.State().Remaining == 1497 }, time.Second, 5*time.Millisecond)

	tm.Reset()
	assert.Equal(t, State{Remaining: 1500, Running: false}, tm.State())
	assert.Equal(t, 0, clock.active())

	tm.Reset()
	assert.Equal(t, State{Remaining: 1500, Running: false}, tm.State())
}

func TestTimer_ResetAfterExpiryAllowsAnotherRound(t *testing.T) {
	tm, clock, n := newTimer(WithSeconds(2))
	t.Cleanup(tm.Close)

	tm.Start()
	clock.fire(t, 2)
	require.Eventually(t, func() bool { return n.count() == 1 }, time.Second, 5*time.Millisecond)

	tm.Reset()
	assert.Equal(t, State{Remaining: 2, Running: false}, tm.State())

	tm.Start()
	clock.fire(t, 2)
	require.Eventually(t, func() bool { return n.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestTimer_CloseStopsSource(t *testing.T) {
	tm, clock, _ := newTimer()
	tm.Start()
	tm.Close()

	assert.Equal(t, 0, clock.active())
	assert.False(t, tm.State().Running)

	tm.Start()
	assert.False(t, tm.State().Running)
	assert.Equal(t, 1, clock.created())
}
