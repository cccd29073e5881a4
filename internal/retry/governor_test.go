package retry

import (
	"math/rand"
	"testing"
	"time"

	"github.com/guilhermewolf/spotify-slsk/internal/store"
)

func testPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Cooldown:    48 * time.Hour,
		BackoffBase: 5 * time.Second,
		JitterMin:   1.0,
		JitterMax:   1.5,
	}
}

func TestEligible(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		track store.Track
		want  bool
	}{
		{"fresh track", store.Track{}, true},
		{"downloaded", store.Track{Downloaded: true}, false},
		{"suspended", store.Track{SuspendedUntil: &future}, false},
		{"suspension elapsed", store.Track{SuspendedUntil: &past}, true},
		{"downloaded overrides elapsed suspension", store.Track{Downloaded: true, SuspendedUntil: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(&tt.track, now); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailureBelowCeiling(t *testing.T) {
	now := time.Now()
	track := store.Track{Attempts: 1}

	attempts, until := Failure(&track, now, testPolicy())
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if until != nil {
		t.Errorf("suspendedUntil = %v, want nil below ceiling", until)
	}
}

func TestFailureAtCeilingSuspends(t *testing.T) {
	p := testPolicy()
	now := time.Now()
	track := store.Track{Attempts: p.MaxAttempts - 1}

	attempts, until := Failure(&track, now, p)
	if attempts != p.MaxAttempts {
		t.Errorf("attempts = %d, want %d", attempts, p.MaxAttempts)
	}
	if until == nil {
		t.Fatal("expected suspension at ceiling")
	}
	if !until.After(now) {
		t.Errorf("suspendedUntil = %v, want strictly after now", until)
	}
	if got, want := until.Sub(now), p.Cooldown; got != want {
		t.Errorf("cooldown = %v, want %v", got, want)
	}

	// Eligibility flips back once the window elapses.
	suspended := store.Track{Attempts: attempts, SuspendedUntil: until}
	if Eligible(&suspended, now) {
		t.Error("track should not be eligible right after suspension")
	}
	if !Eligible(&suspended, until.Add(time.Second)) {
		t.Error("track should be eligible after the window elapses")
	}
}

func TestBackoffScalesWithAttempts(t *testing.T) {
	p := testPolicy()
	rng := rand.New(rand.NewSource(1))

	if d := Backoff(0, p, rng); d != 0 {
		t.Errorf("Backoff(0) = %v, want 0", d)
	}

	for attempts := 1; attempts <= 4; attempts++ {
		d := Backoff(attempts, p, rng)
		lo := time.Duration(float64(p.BackoffBase) * float64(int(1)<<attempts) * p.JitterMin)
		hi := time.Duration(float64(p.BackoffBase) * float64(int(1)<<attempts) * p.JitterMax)
		if d < lo || d > hi {
			t.Errorf("Backoff(%d) = %v, want within [%v, %v]", attempts, d, lo, hi)
		}
	}
}
