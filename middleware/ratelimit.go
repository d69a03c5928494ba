package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	sweepInterval = 5 * time.Minute
	bucketTTL     = 10 * time.Minute
)

// bucket tracks the remaining budget for one client IP. Tokens refill
// continuously rather than per window, so a client that backs off
// recovers gradually instead of all at once.
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*bucket
	burst    float64
	// tokens restored per second
	perSecond float64
}

// NewRateLimiter allows maxRequests per perDuration from each client IP,
// with maxRequests also serving as the burst size. Guest checkout means
// the auth endpoints are reachable without credentials, so they sit
// behind one of these.
func NewRateLimiter(maxRequests int, perDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors:  make(map[string]*bucket),
		burst:     float64(maxRequests),
		perSecond: float64(maxRequests) / perDuration.Seconds(),
	}
	go rl.sweep()
	return rl
}

// sweep drops buckets idle past bucketTTL so the visitor map does not
// grow without bound.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-bucketTTL)
		for ip, b := range rl.visitors {
			if b.lastSeen.Before(cutoff) {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b := rl.visitors[clientIP]
	if b == nil {
		b = &bucket{tokens: rl.burst, lastSeen: now}
		rl.visitors[clientIP] = b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * rl.perSecond
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
