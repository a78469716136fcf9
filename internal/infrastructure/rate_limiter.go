package infrastructure

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MessageRateLimiter throttles inbound messages per sender so a single chat
// cannot flood the model pipeline.
type MessageRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*senderLimiter
	rate     rate.Limit
	burst    int
}

type senderLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMessageRateLimiter allows r messages per second with the given burst
// capacity per sender.
func NewMessageRateLimiter(r float64, burst int) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		limiters: make(map[string]*senderLimiter),
		rate:     rate.Limit(r),
		burst:    burst,
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether the sender may submit another message now.
func (rl *MessageRateLimiter) Allow(sender string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[sender]
	if !ok {
		entry = &senderLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[sender] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup drops limiters for senders idle longer than ten minutes.
func (rl *MessageRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for sender, entry := range rl.limiters {
			if now.Sub(entry.lastSeen) > 10*time.Minute {
				delete(rl.limiters, sender)
			}
		}
		rl.mu.Unlock()
	}
}
