package daemon

import (
	"context"
	"sync"
	"time"

	derrors "github.com/docpress/docpress/internal/errors"
)

// DebouncerConfig tunes how webhook bursts are coalesced.
type DebouncerConfig struct {
	// QuietWindow is how long requests must stop arriving before a build
	// fires.
	QuietWindow time.Duration
	// MaxDelay caps how long a burst can postpone the build.
	MaxDelay time.Duration
}

// Debouncer coalesces bursts of build requests into single builds. A rapid
// series of pushes triggers one build after the quiet window, and a
// never-ending stream of pushes still builds at least every MaxDelay.
type Debouncer struct {
	cfg  DebouncerConfig
	fire func()

	mu       sync.Mutex
	pending  bool
	firstAt  time.Time
	lastAt   time.Time
	requests int
}

// NewDebouncer creates a debouncer that calls fire for each coalesced
// build request.
func NewDebouncer(cfg DebouncerConfig, fire func()) (*Debouncer, error) {
	if cfg.QuietWindow <= 0 {
		return nil, derrors.ValidationError("quiet window must be > 0")
	}
	if cfg.MaxDelay < cfg.QuietWindow {
		return nil, derrors.ValidationError("max delay must be >= quiet window")
	}
	if fire == nil {
		return nil, derrors.ValidationError("fire callback is required")
	}
	return &Debouncer{cfg: cfg, fire: fire}, nil
}

// Request registers one build request.
func (d *Debouncer) Request() {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	if !d.pending {
		d.pending = true
		d.firstAt = now
	}
	d.lastAt = now
	d.requests++
}

// Run drives the debouncer until ctx is canceled. It polls rather than
// re-arming timers, which keeps the locking trivial at the cost of firing
// up to one tick late.
func (d *Debouncer) Run(ctx context.Context) {
	tick := d.cfg.QuietWindow / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.takeReady() {
				d.fire()
			}
		}
	}
}

// takeReady reports whether a pending burst is due and resets it if so.
func (d *Debouncer) takeReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pending {
		return false
	}
	now := time.Now()
	quietOver := now.Sub(d.lastAt) >= d.cfg.QuietWindow
	delayExceeded := now.Sub(d.firstAt) >= d.cfg.MaxDelay
	if !quietOver && !delayExceeded {
		return false
	}
	d.pending = false
	d.requests = 0
	return true
}
