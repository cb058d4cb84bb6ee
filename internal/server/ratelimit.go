package server

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/dungen/internal/config"
)

// RequestLimiter throttles level requests per IP. An IP that sends more
// than MaxRequests in one window is locked out; each repeat lockout doubles
// up to the configured maximum.
type RequestLimiter struct {
	mu          sync.Mutex
	clients     map[string]*requestWindow
	maxRequests int
	window      time.Duration
	lockout     time.Duration
	maxLockout  time.Duration
	now         func() time.Time
}

type requestWindow struct {
	start       time.Time
	count       int
	lockedUntil time.Time
	lockouts    int
}

// NewRequestLimiter creates a limiter. MaxRequests 0 allows everything.
func NewRequestLimiter(cfg config.RateLimitConfig) *RequestLimiter {
	rl := &RequestLimiter{
		clients:     make(map[string]*requestWindow),
		maxRequests: cfg.MaxRequests,
		window:      time.Duration(cfg.WindowSeconds) * time.Second,
		lockout:     time.Duration(cfg.LockoutSeconds) * time.Second,
		maxLockout:  time.Duration(cfg.MaxLockoutSeconds) * time.Second,
		now:         time.Now,
	}
	if rl.window <= 0 {
		rl.window = time.Minute
	}
	if rl.lockout <= 0 {
		rl.lockout = 30 * time.Second
	}
	if rl.maxLockout < rl.lockout {
		rl.maxLockout = rl.lockout
	}
	return rl
}

// Allow counts a request from ip. When the ip is locked out it returns
// false and the remaining lockout.
func (rl *RequestLimiter) Allow(ip string) (bool, time.Duration) {
	if rl.maxRequests <= 0 {
		return true, 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[ip]
	if !ok {
		w = &requestWindow{start: now}
		rl.clients[ip] = w
	}
	if now.Before(w.lockedUntil) {
		return false, w.lockedUntil.Sub(now)
	}
	if now.Sub(w.start) >= rl.window {
		w.start, w.count = now, 0
	}

	w.count++
	if w.count <= rl.maxRequests {
		return true, 0
	}

	w.lockouts++
	d := rl.lockout
	for i := 1; i < w.lockouts && d < rl.maxLockout; i++ {
		d *= 2
	}
	d = min(d, rl.maxLockout)
	w.lockedUntil = now.Add(d)
	w.start, w.count = w.lockedUntil, 0
	return false, d
}

// Cleanup forgets IPs that are neither locked nor active in the last two
// windows.
func (rl *RequestLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.window)
	for ip, w := range rl.clients {
		if w.lockedUntil.Before(cutoff) && w.start.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RequestLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}
