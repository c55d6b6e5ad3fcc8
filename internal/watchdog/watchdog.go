// Package watchdog provides a concrete collab.Watchdog that forwards each
// Pat to an external liveness monitor (e.g. systemd's sd_notify
// WATCHDOG=1, or a supervisor process) and logs, on an interval, if pats
// stop arriving from the caller.
package watchdog

import (
	"sync"
	"time"

	"github.com/telsis/ocpclient/internal/logging"
)

// PatFunc is invoked on Start and on every external Pat; callers wire in
// e.g. sd_notify here. A nil PatFunc makes Watchdog a pure liveness
// tracker with no external effect.
type PatFunc func()

// Watchdog tracks the time of the last Pat call and logs a warning if a
// caller falls silent past checkInterval. It is safe for concurrent use.
type Watchdog struct {
	checkInterval time.Duration
	onPat         PatFunc

	mu      sync.Mutex
	lastPat time.Time
	running bool
	stopC   chan struct{}
}

// New returns a Watchdog that warns if Pat is not called at least once
// per checkInterval while running.
func New(checkInterval time.Duration, onPat PatFunc) *Watchdog {
	return &Watchdog{checkInterval: checkInterval, onPat: onPat}
}

// Start begins the liveness check loop. Safe to call once; a second call
// before Stop is a no-op.
func (w *Watchdog) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.lastPat = time.Now()
	w.stopC = make(chan struct{})
	stop := w.stopC
	w.mu.Unlock()

	if w.onPat != nil {
		w.onPat()
	}

	go func() {
		ticker := time.NewTicker(w.checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				w.mu.Lock()
				since := time.Since(w.lastPat)
				w.mu.Unlock()
				if since > w.checkInterval {
					logging.L().Warn("watchdog_stale", "since", since)
				}
			}
		}
	}()
}

// Stop ends the liveness check loop. Idempotent.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop := w.stopC
	w.mu.Unlock()
	close(stop)
}

// Pat records liveness and invokes the configured PatFunc, if any.
func (w *Watchdog) Pat() {
	w.mu.Lock()
	w.lastPat = time.Now()
	w.mu.Unlock()
	if w.onPat != nil {
		w.onPat()
	}
}
