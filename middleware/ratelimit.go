package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterSweep = 5 * time.Minute
	limiterIdle  = 10 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu       sync.Mutex
	r        rate.Limit
	b        int
	limiters map[string]*ipLimiter
	swept    time.Time
}

func (s *limiterSet) get(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.swept) > limiterSweep {
		cutoff := now.Add(-limiterIdle)
		for k, v := range s.limiters {
			if v.lastSeen.Before(cutoff) {
				delete(s.limiters, k)
			}
		}
		s.swept = now
	}
	il, ok := s.limiters[ip]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(s.r, s.b)}
		s.limiters[ip] = il
	}
	il.lastSeen = now
	return il.limiter
}

// RateLimit provides per-IP token-bucket rate limiting.
// r = requests per second, b = burst size. r <= 0 disables limiting.
// Idle entries are swept lazily on request.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	if r <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	set := &limiterSet{r: r, b: b, limiters: make(map[string]*ipLimiter), swept: time.Now()}

	return func(c *gin.Context) {
		if !set.get(c.ClientIP(), time.Now()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
