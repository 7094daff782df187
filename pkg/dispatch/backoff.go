package dispatch

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay before the next attempt.
// Implementations must be safe for concurrent use.
type Backoff interface {
	// NextInterval returns the wait after the given failed attempt (1-based).
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay geometrically with optional jitter:
// min(Base * Multiplier^(attempt-1) * (1 ± Jitter), Cap).
type ExponentialBackoff struct {
	Base       time.Duration
	Cap        time.Duration
	Multiplier float64
	Jitter     float64
}

// NextInterval returns Base * Multiplier^(attempt-1) with jitter applied,
// capped at Cap. Zero fields take the DefaultBackoff values.
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := e.Base
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	maxDelay := e.Cap
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	interval := float64(base) * math.Pow(multiplier, float64(attempt-1))
	if e.Jitter > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.Jitter
	}
	if interval > float64(maxDelay) {
		interval = float64(maxDelay)
	}
	if interval < 0 {
		interval = 0
	}
	return time.Duration(interval)
}

// FixedBackoff waits the same interval between every attempt.
type FixedBackoff struct {
	Interval time.Duration
}

// NextInterval returns Interval for any positive attempt number.
func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// DefaultBackoff doubles from 500ms up to 30s with 20% jitter.
func DefaultBackoff() Backoff {
	return ExponentialBackoff{
		Base:       500 * time.Millisecond,
		Cap:        30 * time.Second,
		Multiplier: 2,
		Jitter:     0.2,
	}
}
