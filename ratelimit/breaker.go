package ratelimit

import (
	"sync"
	"time"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
)

func (s BreakerState) String() string {
	if s == BreakerOpen {
		return "open"
	}
	return "closed"
}

// Breaker stops calls to a failing backend for a cooldown. It has one transition
// out of Open: the first Allow at or after disabledUntil closes it again.
type Breaker struct {
	mu            sync.Mutex
	state         BreakerState
	disabledUntil time.Time
	cooldown      time.Duration
}

func NewBreaker(cooldown time.Duration) *Breaker {
	return &Breaker{cooldown: cooldown}
}

// Allow reports whether the backend may be called at now.
func (b *Breaker) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen {
		if now.Before(b.disabledUntil) {
			return false
		}
		b.state = BreakerClosed
	}
	return true
}

// Trip opens the breaker until now + cooldown.
func (b *Breaker) Trip(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerOpen
	b.disabledUntil = now.Add(b.cooldown)
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) DisabledUntil() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabledUntil
}
