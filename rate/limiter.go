package rate

import (
	"errors"
	"sync"
	"time"
)

// Config holds the bucket parameters shared by every key.
type Config struct {
	// Capacity is the burst ceiling per key.
	Capacity int
	// RefillPerMinute is the sustained admission rate per key.
	RefillPerMinute int
}

// Limiter is a per-key token bucket.
//
// Limiter is safe for concurrent use. The bucket map grows with the key
// space and is never evicted.
type Limiter struct {
	config Config
	now    func() time.Time

	mu      sync.RWMutex
	buckets map[string]*bucket
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewLimiter validates cfg and returns a ready limiter.
func NewLimiter(cfg Config) (*Limiter, error) {
	if cfg.Capacity <= 0 {
		return nil, errors.New("non-positive bucket capacity")
	}
	if cfg.RefillPerMinute <= 0 {
		return nil, errors.New("non-positive refill rate")
	}
	return &Limiter{
		config:  cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}, nil
}

// Allow reports whether one request for key is admitted, deducting a token
// if so. A denied call mutates nothing.
func (l *Limiter) Allow(key string) bool {
	b := l.bucket(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 {
		b.tokens += elapsed.Minutes() * float64(l.config.RefillPerMinute)
		if b.tokens > float64(l.config.Capacity) {
			b.tokens = float64(l.config.Capacity)
		}
		b.lastRefill = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) bucket(key string) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	b = &bucket{
		tokens:     float64(l.config.Capacity),
		lastRefill: l.now(),
	}
	l.buckets[key] = b
	return b
}
