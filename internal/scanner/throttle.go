package scanner

import (
	"net/http"
	"sync"
	"time"

	"github.com/maxvaer/dirprobe/internal/logging"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Throttler owns the pause the feeder takes between words. With adaptive
// mode on, 429/503 responses and runs of transport errors double the pause;
// healthy responses halve it back toward the configured delay.
type Throttler struct {
	mu           sync.Mutex
	baseDelay    time.Duration
	currentDelay time.Duration
	maxDelay     time.Duration
	consecutive  int // consecutive throttle signals
	enabled      bool
	log          logging.Logger
}

// NewThrottler creates a throttler starting at baseDelay. When enabled is
// false the delay never changes.
func NewThrottler(baseDelay time.Duration, enabled bool, log logging.Logger) *Throttler {
	return &Throttler{
		baseDelay:    baseDelay,
		currentDelay: baseDelay,
		maxDelay:     maxBackoff,
		enabled:      enabled,
		log:          log,
	}
}

// Delay returns the current pause between words.
func (t *Throttler) Delay() time.Duration {
	if !t.enabled {
		return t.baseDelay
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentDelay
}

// RecordStatus updates the throttler based on a response status code.
func (t *Throttler) RecordStatus(statusCode int) {
	if !t.enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable {
		t.consecutive++
		if t.backOff() {
			t.log.Warnf("rate limited (HTTP %d), backing off to %s per word", statusCode, t.currentDelay)
		}
	} else {
		if t.consecutive > 0 {
			t.consecutive = 0
			// Gradually recover: halve delay toward base, but not below base.
			newDelay := t.currentDelay / 2
			if newDelay < t.baseDelay {
				newDelay = t.baseDelay
			}
			if newDelay != t.currentDelay {
				t.currentDelay = newDelay
				t.log.Infof("recovering, delay now %s per word", t.currentDelay)
			}
		}
	}
}

// RecordError flags a connection error (timeout, reset) as a possible
// rate limit signal.
func (t *Throttler) RecordError() {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutive++
	if t.consecutive >= 3 && t.backOff() {
		t.log.Warnf("repeated request errors, backing off to %s per word", t.currentDelay)
	}
}

// backOff doubles the current delay within [minBackoff, maxDelay] and
// reports whether it changed. Callers hold t.mu.
func (t *Throttler) backOff() bool {
	newDelay := t.currentDelay * 2
	if newDelay < minBackoff {
		newDelay = minBackoff
	}
	if newDelay > t.maxDelay {
		newDelay = t.maxDelay
	}
	if newDelay == t.currentDelay {
		return false
	}
	t.currentDelay = newDelay
	return true
}
