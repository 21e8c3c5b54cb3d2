package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_CooldownCycle(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	b := NewBreaker(30 * time.Second)

	assert.Equal(t, BreakerClosed, b.State())
	assert.True(t, b.Allow(now))

	b.Trip(now)
	assert.Equal(t, BreakerOpen, b.State())
	assert.Equal(t, now.Add(30*time.Second), b.DisabledUntil())
	assert.False(t, b.Allow(now.Add(29*time.Second)))
	assert.Equal(t, BreakerOpen, b.State(), "a refused call does not change state")

	assert.True(t, b.Allow(now.Add(30*time.Second)), "cooldown elapsed at disabledUntil")
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_TripWhileOpenExtendsCooldown(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	b := NewBreaker(10 * time.Second)

	b.Trip(now)
	b.Trip(now.Add(5 * time.Second))

	assert.False(t, b.Allow(now.Add(12*time.Second)))
	assert.True(t, b.Allow(now.Add(15*time.Second)))
}

func TestBreakerState_String(t *testing.T) {
	assert.Equal(t, "open", BreakerOpen.String())
	assert.Equal(t, "closed", BreakerClosed.String())
}
