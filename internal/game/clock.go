package game

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the part of time.Ticker the loop needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// FakeClock is deterministic and test-friendly. Its tickers fire from
// Advance and Set, dropping ticks a slow reader misses like time.Ticker.
type FakeClock struct {
	mu      sync.Mutex
	t       time.Time
	tickers []*fakeTicker
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.fireLocked()
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.fireLocked()
	c.mu.Unlock()
}

func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("game: non-positive ticker interval")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTicker{clock: c, ch: make(chan time.Time, 1), every: d, next: c.t.Add(d)}
	c.tickers = append(c.tickers, ft)
	return ft
}

func (c *FakeClock) fireLocked() {
	live := c.tickers[:0]
	for _, ft := range c.tickers {
		if ft.stopped {
			continue
		}
		for !ft.next.After(c.t) {
			select {
			case ft.ch <- ft.next:
			default:
			}
			ft.next = ft.next.Add(ft.every)
		}
		live = append(live, ft)
	}
	c.tickers = live
}

type fakeTicker struct {
	clock   *FakeClock
	ch      chan time.Time
	every   time.Duration
	next    time.Time
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.clock.mu.Lock()
	f.stopped = true
	f.clock.mu.Unlock()
}

// Tickers reports how many tickers are live, so tests can wait for a
// goroutine to subscribe before advancing.
func (c *FakeClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ft := range c.tickers {
		if !ft.stopped {
			n++
		}
	}
	return n
}
