// Package countdown owns the lifecycle of the passcode expiry display:
// Hidden until a code exists, Active while it ticks down, Expired the
// instant the deadline passes. Remaining time is recomputed from the
// absolute expiry on every tick so the display never drifts.
package countdown

import (
	"fmt"
	"sync"
	"time"
)

// State of the countdown display.
type State int

const (
	// Hidden means no live or cached unexpired code exists.
	Hidden State = iota
	// Active means a code is live and the display ticks once a second.
	Active
	// Expired means the deadline passed; the timer is stopped for good.
	Expired
)

func (s State) String() string {
	switch s {
	case Active:
		return "Active"
	case Expired:
		return "Expired"
	default:
		return "Hidden"
	}
}

// ExpiredMessage replaces the remaining-time display at expiry.
const ExpiredMessage = "Code has expired."

// Options configures a Countdown. Zero values get defaults.
type Options struct {
	Interval time.Duration             // tick period, default 1s
	Now      func() time.Time          // clock, default time.Now
	OnTick   func(rem time.Duration)   // called each tick while Active
	OnExpire func()                    // called exactly once on expiry
}

// Countdown is a single owned timer handle. Starting it again cancels
// the previous run, so at most one timer is ever live.
type Countdown struct {
	mu        sync.Mutex
	state     State
	expiresAt time.Time
	stop      chan struct{}
	interval  time.Duration
	now       func() time.Time
	onTick    func(time.Duration)
	onExpire  func()
}

// New creates a countdown in the Hidden state.
func New(opts Options) *Countdown {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Countdown{
		state:    Hidden,
		interval: opts.Interval,
		now:      opts.Now,
		onTick:   opts.OnTick,
		onExpire: opts.OnExpire,
	}
}

// Start enters Active for the given expiry, cancelling any running
// timer first. An expiry at or before now goes straight to Expired.
func (c *Countdown) Start(expiresAt time.Time) {
	c.mu.Lock()
	c.cancelLocked()
	c.expiresAt = expiresAt

	if !c.now().Before(expiresAt) {
		c.state = Expired
		cb := c.onExpire
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
		return
	}

	c.state = Active
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(stop)
}

// Stop tears the timer down and returns the display to Hidden. Safe to
// call at any time, including after expiry.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.state = Hidden
}

// State returns the current display state.
func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining returns the time left, or zero once expired.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Active {
		return 0
	}
	rem := c.expiresAt.Sub(c.now())
	if rem < 0 {
		return 0
	}
	return rem
}

func (c *Countdown) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.tick(stop) {
				return
			}
		}
	}
}

// tick advances the display once; reports true when the run is over.
func (c *Countdown) tick(stop chan struct{}) bool {
	c.mu.Lock()
	if c.stop != stop || c.state != Active {
		c.mu.Unlock()
		return true
	}
	rem := c.expiresAt.Sub(c.now())
	if rem <= 0 {
		c.state = Expired
		c.stop = nil
		cb := c.onExpire
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
		return true
	}
	cb := c.onTick
	c.mu.Unlock()
	if cb != nil {
		cb(rem)
	}
	return false
}

func (c *Countdown) cancelLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// FormatRemaining renders a duration the way the display shows it,
// e.g. "Expires in: 12m 05s".
func FormatRemaining(rem time.Duration) string {
	if rem < 0 {
		rem = 0
	}
	total := int(rem / time.Second)
	return fmt.Sprintf("Expires in: %dm %02ds", total/60, total%60)
}
