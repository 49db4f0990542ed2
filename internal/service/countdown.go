package service

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

type CountdownState int

const (
	CountdownIdle CountdownState = iota
	CountdownRunning
	CountdownExpired
	CountdownCancelled
)

func (s CountdownState) String() string {
	switch s {
	case CountdownIdle:
		return "idle"
	case CountdownRunning:
		return "running"
	case CountdownExpired:
		return "expired"
	case CountdownCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("CountdownState(%d)", int(s))
}

// Countdown ticks once per second from a budget down to zero.
//
// Remaining time is derived from the clock rather than from counting ticks, so a late or dropped tick
// never stretches the budget. onTick runs with the countdown locked and must not call Cancel.
// onExpire runs exactly once, after the state has moved to Expired.
type Countdown struct {
	clock clock.WithTicker

	mu      sync.Mutex
	state   CountdownState
	budget  int
	started time.Time
	stop    chan struct{}
	done    chan struct{}
}

func NewCountdown(clk clock.WithTicker) *Countdown {
	return &Countdown{
		clock: clk,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start runs the countdown. Starting a countdown that is not idle is a programming error and panics.
// A budget of zero or less expires without ticking.
func (c *Countdown) Start(budgetSeconds int, onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CountdownIdle {
		panic(fmt.Sprintf("countdown: Start called in state %s", c.state))
	}
	c.state = CountdownRunning
	c.budget = budgetSeconds
	c.started = c.clock.Now()

	if budgetSeconds <= 0 {
		c.state = CountdownExpired
		go c.expire(onExpire)
		return
	}

	// created before Start returns so a fake clock stepped right after sees the ticker
	ticker := c.clock.NewTicker(time.Second)
	go c.run(ticker, onTick, onExpire)
}

func (c *Countdown) run(ticker clock.Ticker, onTick func(int), onExpire func()) {
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			close(c.done)
			return
		case <-ticker.C():
		}

		c.mu.Lock()
		if c.state != CountdownRunning {
			c.mu.Unlock()
			close(c.done)
			return
		}
		remaining := c.remainingLocked()
		if onTick != nil {
			onTick(remaining)
		}
		if remaining > 0 {
			c.mu.Unlock()
			continue
		}
		c.state = CountdownExpired
		c.mu.Unlock()

		c.expire(onExpire)
		return
	}
}

func (c *Countdown) expire(onExpire func()) {
	defer close(c.done)
	if onExpire != nil {
		onExpire()
	}
}

// Cancel stops a running or idle countdown. It reports false, and does nothing, once the countdown has
// expired or was already cancelled.
func (c *Countdown) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case CountdownRunning:
		c.state = CountdownCancelled
		close(c.stop)
		return true
	case CountdownIdle:
		c.state = CountdownCancelled
		close(c.done)
		return true
	}
	return false
}

func (c *Countdown) State() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case CountdownIdle:
		return c.budget
	case CountdownRunning:
		return c.remainingLocked()
	}
	return 0
}

// Done is closed once the countdown can no longer fire any callback.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

func (c *Countdown) remainingLocked() int {
	elapsed := int(c.clock.Since(c.started) / time.Second)
	if left := c.budget - elapsed; left > 0 {
		return left
	}
	return 0
}
