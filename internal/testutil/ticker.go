package testutil

import (
	"sync"
	"time"
)

// ManualTicker is a ticker that fires only when told to. It satisfies
// the engine's Ticker interface.
type ManualTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

// NewManualTicker creates a ticker with an unbuffered channel, so Fire
// returns only once the loop has taken the tick.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{c: make(chan time.Time)}
}

// C returns the tick channel.
func (t *ManualTicker) C() <-chan time.Time { return t.c }

// Stop marks the ticker stopped. The channel stays open, like time.Ticker.
func (t *ManualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Stopped reports whether Stop has been called.
func (t *ManualTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Fire delivers one tick, waiting up to timeout for a receiver.
// Returns false if nobody took it.
func (t *ManualTicker) Fire(timeout time.Duration) bool {
	select {
	case t.c <- time.Now():
		return true
	case <-time.After(timeout):
		return false
	}
}

// ManualTickers hands out ManualTickers and remembers them, so a test
// can reach the ticker an engine created internally.
type ManualTickers struct {
	mu      sync.Mutex
	tickers []*ManualTicker
}

// New creates and records a ticker. The interval is ignored. Wrap it
// when passing it to the engine:
//
//	engine.WithTicker(func(d time.Duration) engine.Ticker { return f.New(d) })
func (f *ManualTickers) New(time.Duration) *ManualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := NewManualTicker()
	f.tickers = append(f.tickers, t)
	return t
}

// Count returns how many tickers have been created.
func (f *ManualTickers) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

// Latest returns the most recently created ticker, or nil.
func (f *ManualTickers) Latest() *ManualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}
