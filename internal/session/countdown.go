package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/studywise/session-service/internal/models"
)

// WarningThreshold is the remaining-seconds boundary below which the display
// enters its warning state.
const WarningThreshold = 300

// Countdown drives the per-second timer of one session. It owns a single
// authoritative remaining counter; display formatting and the warning flag
// are derived from it rather than from wall-clock deltas.
//
// Phases: Stopped -> Running on Start, Running -> Expired on the tick that
// reaches zero, Running -> Stopped on Stop. Expired is terminal except for
// Resume after a failed submission, which may only re-enter Running with a
// positive remainder.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	phase     models.CountdownPhase
	ticker    *time.Ticker
	done      chan struct{}

	// onExpire fires exactly once, outside the countdown mutex, on the tick
	// that exhausts the clock.
	onExpire func()
}

// NewCountdown returns a stopped countdown holding the given number of seconds.
func NewCountdown(seconds int, onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		remaining: seconds,
		phase:     models.CountdownStopped,
		onExpire:  onExpire,
	}
}

// Start transitions Stopped -> Running and begins ticking once per second.
// Starting an already running or expired countdown is a no-op.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != models.CountdownStopped || c.remaining <= 0 {
		return
	}
	c.phase = models.CountdownRunning
	c.startTickerLocked()
}

// Stop halts ticking. A running countdown becomes Stopped; an expired one
// stays Expired. Stop is synchronous: once it returns no further tick will
// decrement the counter, which is what makes "stop ticking" and "begin
// submitting" a single logical step for the caller holding its own lock.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == models.CountdownRunning {
		c.phase = models.CountdownStopped
	}
	c.stopTickerLocked()
}

// Resume re-enters Running with a corrected remainder after a failed
// submission. A non-positive remainder leaves the countdown Expired without
// firing the expiry callback; the caller decides how to proceed.
func (c *Countdown) Resume(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seconds <= 0 {
		c.remaining = 0
		c.phase = models.CountdownExpired
		c.stopTickerLocked()
		return
	}
	c.remaining = seconds
	c.phase = models.CountdownRunning
	c.startTickerLocked()
}

// Tick applies one second. The production ticker calls this once per second;
// tests call it directly.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if c.phase != models.CountdownRunning {
		c.mu.Unlock()
		return
	}

	c.remaining--
	expired := false
	if c.remaining <= 0 {
		c.remaining = 0
		c.phase = models.CountdownExpired
		c.stopTickerLocked()
		expired = true
	}
	cb := c.onExpire
	c.mu.Unlock()

	if expired && cb != nil {
		cb()
	}
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) Phase() models.CountdownPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Countdown) IsExpired() bool {
	return c.Phase() == models.CountdownExpired
}

// IsWarning reports whether the display should enter its warning state. It is
// independent of the phase machine.
func (c *Countdown) IsWarning() bool {
	return c.Remaining() < WarningThreshold
}

// FormatRemaining renders the remaining time as zero-padded HH:MM:SS.
func (c *Countdown) FormatRemaining() string {
	r := c.Remaining()
	return fmt.Sprintf("%02d:%02d:%02d", r/3600, (r%3600)/60, r%60)
}

func (c *Countdown) startTickerLocked() {
	if c.ticker != nil {
		return
	}
	c.ticker = time.NewTicker(time.Second)
	c.done = make(chan struct{})
	go c.run(c.ticker, c.done)
}

func (c *Countdown) stopTickerLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.done)
	c.ticker = nil
	c.done = nil
}

func (c *Countdown) run(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}
