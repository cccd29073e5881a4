// Package retry bounds wasted network traffic per track: an attempt
// ceiling with timed suspension, and jittered exponential backoff between
// retry batches.
package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/guilhermewolf/spotify-slsk/internal/store"
)

// Policy holds the governor's tunables.
type Policy struct {
	MaxAttempts int           // failures before suspension kicks in
	Cooldown    time.Duration // how long a suspended track stays out of rotation
	BackoffBase time.Duration // unit of the exponential backoff
	JitterMin   float64
	JitterMax   float64
}

// Eligible reports whether a track may be attempted now: not downloaded and
// not inside a suspension window.
func Eligible(t *store.Track, now time.Time) bool {
	if t.Downloaded {
		return false
	}
	return t.SuspendedUntil == nil || t.SuspendedUntil.Before(now)
}

// Failure computes the state change for one failed attempt. The returned
// suspension time is nil unless this failure reaches the ceiling; when set
// it is strictly in the future.
func Failure(t *store.Track, now time.Time, p Policy) (attempts int, suspendedUntil *time.Time) {
	attempts = t.Attempts + 1
	if attempts >= p.MaxAttempts {
		until := now.Add(p.Cooldown)
		suspendedUntil = &until
	}
	return attempts, suspendedUntil
}

// Backoff returns how long to sleep before retrying a track that has
// already failed attempts times: base·2^attempts scaled by a jitter drawn
// uniformly from [JitterMin, JitterMax]. Zero attempts means no wait.
func Backoff(attempts int, p Policy, rng *rand.Rand) time.Duration {
	if attempts <= 0 {
		return 0
	}
	jitter := p.JitterMin + rng.Float64()*(p.JitterMax-p.JitterMin)
	d := float64(p.BackoffBase) * math.Pow(2, float64(attempts)) * jitter
	return time.Duration(d)
}
