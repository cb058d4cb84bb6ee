package server

import (
	"testing"
	"time"

	"github.com/lawnchairsociety/dungen/internal/config"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(maxRequests int) (*RequestLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRequestLimiter(config.RateLimitConfig{
		MaxRequests:       maxRequests,
		WindowSeconds:     60,
		LockoutSeconds:    10,
		MaxLockoutSeconds: 30,
	})
	rl.now = clock.now
	return rl, clock
}

func TestRequestLimiter_LocksAfterMax(t *testing.T) {
	rl, clock := newTestLimiter(3)
	ip := "192.168.1.1"

	for i := 0; i < 3; i++ {
		if ok, _ := rl.Allow(ip); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, wait := rl.Allow(ip)
	if ok || wait != 10*time.Second {
		t.Fatalf("fourth request = %v, %v; want locked for 10s", ok, wait)
	}
	if ok, _ := rl.Allow("192.168.1.2"); !ok {
		t.Error("other IPs are not affected")
	}

	clock.advance(4 * time.Second)
	if ok, wait := rl.Allow(ip); ok || wait != 6*time.Second {
		t.Errorf("still locked: got %v, %v", ok, wait)
	}

	clock.advance(7 * time.Second)
	if ok, _ := rl.Allow(ip); !ok {
		t.Error("request should be allowed after the lockout")
	}
}

func TestRequestLimiter_WindowResets(t *testing.T) {
	rl, clock := newTestLimiter(2)
	ip := "10.0.0.1"

	rl.Allow(ip)
	rl.Allow(ip)
	clock.advance(61 * time.Second)
	if ok, _ := rl.Allow(ip); !ok {
		t.Error("a new window should allow requests again")
	}
}

func TestRequestLimiter_ExponentialBackoff(t *testing.T) {
	rl, clock := newTestLimiter(1)
	ip := "10.0.0.1"

	want := []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second, 30 * time.Second}
	for i, expected := range want {
		if ok, _ := rl.Allow(ip); !ok {
			t.Fatalf("round %d: first request should be allowed", i)
		}
		_, wait := rl.Allow(ip)
		if wait != expected {
			t.Errorf("lockout %d = %v, want %v", i+1, wait, expected)
		}
		clock.advance(wait)
	}
}

func TestRequestLimiter_Disabled(t *testing.T) {
	rl, _ := newTestLimiter(0)
	for i := 0; i < 1000; i++ {
		if ok, _ := rl.Allow("10.0.0.1"); !ok {
			t.Fatal("a zero limit allows everything")
		}
	}
	if rl.tracked() != 0 {
		t.Error("a disabled limiter tracks nothing")
	}
}

func TestRequestLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(5)
	rl.Allow("10.0.0.1")
	clock.advance(30 * time.Second)
	rl.Allow("10.0.0.2")

	clock.advance(100 * time.Second)
	rl.Cleanup()
	if n := rl.tracked(); n != 1 {
		t.Errorf("tracked = %d after cleanup, want 1", n)
	}
}
