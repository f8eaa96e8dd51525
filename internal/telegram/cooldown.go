package telegram

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CooldownGate throttles per-user message handling. Messages arriving inside
// the cooldown window are dropped, not queued: backpressure by design.
type CooldownGate struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	every    rate.Limit
}

func NewCooldownGate(cooldown time.Duration) *CooldownGate {
	every := rate.Inf
	if cooldown > 0 {
		every = rate.Every(cooldown)
	}
	return &CooldownGate{
		limiters: make(map[int64]*rate.Limiter),
		every:    every,
	}
}

// Allow reports whether the user's message may be handled now.
func (g *CooldownGate) Allow(userID int64) bool {
	g.mu.Lock()
	limiter, ok := g.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(g.every, 1)
		g.limiters[userID] = limiter
	}
	g.mu.Unlock()

	return limiter.Allow()
}
