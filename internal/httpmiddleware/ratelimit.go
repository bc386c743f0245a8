package httpmiddleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c *gin.Context) string

// ClientIP charges every request of a client to one bucket.
func ClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// ClientWrites keeps a client's check-in submissions and its reads in separate buckets,
// so a burst of list or export calls from a kiosk does not block its next check-in.
func ClientWrites(c *gin.Context) string {
	kind := "read"
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		kind = "write"
	}
	return ClientIP(c) + "|" + kind
}

// idle buckets are dropped once the map grows past this
const maxBuckets = 4096

// Limiter is an in-memory token bucket per key, refilled continuously.
type Limiter struct {
	capacity  float64
	perMinute float64
	key       KeyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLimiter allows perMinute requests per key, with bursts of up to perMinute.
// A nil key charges by client IP.
func NewLimiter(perMinute int, key KeyFunc) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if key == nil {
		key = ClientIP
	}
	return &Limiter{
		capacity:  float64(perMinute),
		perMinute: float64(perMinute),
		key:       key,
		buckets:   make(map[string]*bucket),
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.take(l.key(c), time.Now())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests",
				"error":   "rate limit exceeded, retry later",
			})
			return
		}
		c.Next()
	}
}

// take spends one token of key, or reports how long until one is available.
func (l *Limiter) take(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxBuckets {
			l.prune(now)
		}
		b = &bucket{tokens: l.capacity, last: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+l.refill(elapsed))
		b.last = now
	}
	if b.tokens < 1 {
		missing := (1 - b.tokens) * 60 / l.perMinute
		return false, time.Duration(missing * float64(time.Second))
	}
	b.tokens--
	return true, 0
}

// prune drops buckets that would be full by now.
func (l *Limiter) prune(now time.Time) {
	for k, b := range l.buckets {
		if b.tokens+l.refill(now.Sub(b.last).Seconds()) >= l.capacity {
			delete(l.buckets, k)
		}
	}
}

func (l *Limiter) refill(seconds float64) float64 {
	return seconds * l.perMinute / 60
}
