package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const defaultRecoverAfter = time.Minute

// Failover serves from primary and switches to fallback while primary is
// failing. Primary is retried once recoverAfter has passed.
type Failover struct {
	primary      Cache
	fallback     Cache
	logger       zerolog.Logger
	recoverAfter time.Duration

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailover(primary, fallback Cache, logger zerolog.Logger) *Failover {
	return &Failover{
		primary:      primary,
		fallback:     fallback,
		logger:       logger.With().Str("component", "cache").Logger(),
		recoverAfter: defaultRecoverAfter,
	}
}

// usePrimary reports whether the next call should try primary.
func (f *Failover) usePrimary() bool {
	if !f.isDown.Load() {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return time.Since(f.lastCheck) > f.recoverAfter
}

func (f *Failover) markDown(err error) {
	if !f.isDown.Swap(true) {
		f.logger.Error().Err(err).Msg("primary cache failed, falling back to memory")
	}
	f.mu.Lock()
	f.lastCheck = time.Now()
	f.mu.Unlock()
}

func (f *Failover) markUp() {
	if f.isDown.Swap(false) {
		f.logger.Info().Msg("primary cache recovered")
	}
}

func (f *Failover) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.usePrimary() {
		val, ok, err := f.primary.Get(ctx, key)
		if err == nil {
			f.markUp()
			return val, ok, nil
		}
		f.markDown(err)
	}
	return f.fallback.Get(ctx, key)
}

func (f *Failover) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.usePrimary() {
		err := f.primary.Set(ctx, key, value, ttl)
		if err == nil {
			f.markUp()
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.Set(ctx, key, value, ttl)
}

// Delete always clears both layers so a recovered primary does not serve
// values invalidated while it was down.
func (f *Failover) Delete(ctx context.Context, keys ...string) error {
	_ = f.fallback.Delete(ctx, keys...)
	if f.usePrimary() {
		if err := f.primary.Delete(ctx, keys...); err != nil {
			f.markDown(err)
		}
	}
	return nil
}
