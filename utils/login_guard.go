package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type failEntry struct {
	count     int
	expiresAt time.Time
}

// LoginGuard counts failed logins per key and locks the key once maxFailures is reached
// until the window expires. Counters live in Redis when available, otherwise in memory
// (single-instance only). Redis errors fail open.
type LoginGuard struct {
	rdb         *redis.Client
	maxFailures int
	window      time.Duration

	mu  sync.Mutex
	mem map[string]failEntry
	now func() time.Time
}

// NewLoginGuard returns a guard; rdb may be nil. maxFailures <= 0 disables locking.
func NewLoginGuard(rdb *redis.Client, maxFailures int, window time.Duration) *LoginGuard {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginGuard{
		rdb:         rdb,
		maxFailures: maxFailures,
		window:      window,
		mem:         map[string]failEntry{},
		now:         time.Now,
	}
}

func loginKey(key string) string {
	return "login:fail:" + key
}

// Locked reports whether key has reached the failure limit.
func (g *LoginGuard) Locked(ctx context.Context, key string) bool {
	if g.maxFailures <= 0 {
		return false
	}
	if g.rdb != nil {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		n, err := g.rdb.Get(ctx, loginKey(key)).Int()
		if err != nil {
			return false
		}
		return n >= g.maxFailures
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.mem[key]
	if !ok {
		return false
	}
	if g.now().After(e.expiresAt) {
		delete(g.mem, key)
		return false
	}
	return e.count >= g.maxFailures
}

// RecordFailure increments the failure counter of key and returns the new count.
func (g *LoginGuard) RecordFailure(ctx context.Context, key string) int {
	if g.maxFailures <= 0 {
		return 0
	}
	if g.rdb != nil {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		n, err := g.rdb.Incr(ctx, loginKey(key)).Result()
		if err != nil {
			return 0
		}
		if n == 1 {
			_ = g.rdb.Expire(ctx, loginKey(key), g.window).Err()
		}
		return int(n)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.cleanupLocked()
	e := g.mem[key]
	if e.count == 0 {
		e.expiresAt = g.now().Add(g.window)
	}
	e.count++
	g.mem[key] = e
	return e.count
}

// Reset clears the counter of key after a successful login.
func (g *LoginGuard) Reset(ctx context.Context, key string) {
	if g.rdb != nil {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		_ = g.rdb.Del(ctx, loginKey(key)).Err()
		return
	}
	g.mu.Lock()
	delete(g.mem, key)
	g.mu.Unlock()
}

func (g *LoginGuard) cleanupLocked() {
	now := g.now()
	for k, e := range g.mem {
		if now.After(e.expiresAt) {
			delete(g.mem, k)
		}
	}
}
