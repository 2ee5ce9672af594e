// Package throttle limits request rates per client.
package throttle

import (
	"sync"

	"github.com/Laisky/errors/v2"
	"golang.org/x/time/rate"
)

// Config configuration for Throttle
type Config struct {
	// TotalNPerSec, TotalBurst limit requests of all clients
	TotalNPerSec, TotalBurst int
	// EachNPerSec, EachBurst limit requests of each key
	EachNPerSec, EachBurst int
	// MaxKeys drop all per-key limiters once exceeded, defaults to 10000
	MaxKeys int
}

// Throttle token bucket shared by all keys plus one bucket per key
type Throttle struct {
	mu    sync.RWMutex
	cfg   Config
	total *rate.Limiter
	keys  map[string]*rate.Limiter
}

// New create new Throttle
func New(cfg Config) (*Throttle, error) {
	if cfg.TotalNPerSec <= 0 || cfg.EachNPerSec <= 0 {
		return nil, errors.New("NPerSec must bigger than 0")
	}
	if cfg.TotalBurst < cfg.TotalNPerSec || cfg.EachBurst < cfg.EachNPerSec {
		return nil, errors.New("burst must not be less than NPerSec")
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}

	return &Throttle{
		cfg:   cfg,
		total: rate.NewLimiter(rate.Limit(cfg.TotalNPerSec), cfg.TotalBurst),
		keys:  map[string]*rate.Limiter{},
	}, nil
}

// Allow whether a request of key may proceed
func (t *Throttle) Allow(key string) bool {
	if !t.limiter(key).Allow() {
		return false
	}

	return t.total.Allow()
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	t.mu.RLock()
	l, ok := t.keys[key]
	t.mu.RUnlock()
	if ok {
		return l
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok = t.keys[key]; ok {
		return l
	}

	if len(t.keys) >= t.cfg.MaxKeys {
		t.keys = map[string]*rate.Limiter{}
	}

	l = rate.NewLimiter(rate.Limit(t.cfg.EachNPerSec), t.cfg.EachBurst)
	t.keys[key] = l
	return l
}

// Len number of tracked keys
func (t *Throttle) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys)
}
