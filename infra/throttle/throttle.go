package throttle

import (
	"stocktrack/bizerror"
	"stocktrack/session"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key. Buckets idle longer than the configured
// duration are dropped.
type Limiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
}

func NewLimiter(limit rate.Limit, burst int, idle time.Duration) *Limiter {
	return &Limiter{buckets: cache.New(idle, idle), limit: limit, burst: burst}
}

func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, found := l.buckets.Get(key); found {
		l.buckets.Set(key, v, cache.DefaultExpiration)
		return v.(*rate.Limiter)
	}
	b := rate.NewLimiter(l.limit, l.burst)
	l.buckets.Set(key, b, cache.DefaultExpiration)
	return b
}

// PerSession throttles by session token, falling back to the client address for anonymous calls.
func PerSession(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if s := session.ExtractSessionFromGinContext(c); s.Token != "" {
			key = s.Token
		}
		if !l.Allow(key) {
			panic(bizerror.ErrTooManyRequests)
		}
		c.Next()
	}
}
