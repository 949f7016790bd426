package bridge

import (
	"sync"
	"time"
)

// DefaultWindow is the minimum interval between two forwarded readings.
const DefaultWindow = 5 * time.Second

// Limiter admits at most one forward per window.  By default the window is
// shared by every device; with perDevice set each MAC gets its own.
type Limiter struct {
	mu        sync.Mutex
	window    time.Duration
	perDevice bool
	now       func() time.Time

	last  time.Time
	byMAC map[string]time.Time
}

// NewLimiter returns a limiter with the given window.  A nil clock uses
// time.Now.
func NewLimiter(window time.Duration, perDevice bool, now func() time.Time) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{window: window, perDevice: perDevice, now: now, byMAC: map[string]time.Time{}}
}

// Allow reports whether a reading for mac may be forwarded now and, when
// it may, starts a new window.
func (l *Limiter) Allow(mac string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	last := l.last
	if l.perDevice {
		last = l.byMAC[mac]
	}
	if !last.IsZero() && now.Sub(last) < l.window {
		return false
	}
	if l.perDevice {
		l.byMAC[mac] = now
	} else {
		l.last = now
	}
	return true
}
