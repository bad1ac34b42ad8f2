package sprint

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultTimerSeconds = 180
	MinTimerSeconds     = 30
	MaxTimerSeconds     = 1800
)

// Countdown is the idea-generation timer as a plain value. It does not
// keep time itself; something calls Tick once per second while it is active.
type Countdown struct {
	Duration  int  `json:"duration"`
	Remaining int  `json:"remaining"`
	Active    bool `json:"active"`
}

func NewCountdown(seconds int) Countdown {
	return Countdown{
		Duration:  seconds,
		Remaining: seconds,
	}
}

// Start resumes the countdown, rewinding it first if it already ran out.
func (c *Countdown) Start() {
	if c.Remaining <= 0 {
		c.Remaining = c.Duration
	}
	c.Active = true
}

func (c *Countdown) Stop() {
	c.Active = false
}

// Tick consumes one second and reports whether the countdown just expired.
// Expiry stops the countdown.
func (c *Countdown) Tick() bool {
	if !c.Active {
		return false
	}

	if c.Remaining <= 1 {
		c.Remaining = 0
		c.Active = false
		return true
	}

	c.Remaining--

	return false
}

// Clock renders the remaining time as m:ss.
func (c Countdown) Clock() string {
	return fmt.Sprintf("%d:%02d", c.Remaining/60, c.Remaining%60)
}

// Ticker calls a function on a fixed interval until stopped. The function
// receives a context that is canceled by Stop, so a send it is blocked on
// can be abandoned.
type Ticker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func StartTicker(ctx context.Context, interval time.Duration, fn func(context.Context)) *Ticker {
	ctx, cancel := context.WithCancel(ctx)

	t := &Ticker{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()

	return t
}

// Stop cancels the ticker and waits for its goroutine to exit.
func (t *Ticker) Stop() {
	t.cancel()
	<-t.done
}
