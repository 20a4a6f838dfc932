// Package lock implements the per-repository mutual exclusion used by every
// mutating git operation. Locks live in redis as SET NX PX keys holding a
// random token, so they survive process restarts only until their TTL runs out.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/config"
	"github.com/festy23/codeshelf/internal/metrics"
)

// ErrLockTimeout is returned when a lock could not be obtained within the wait timeout.
var ErrLockTimeout = errors.New("could not acquire the lock")

// releaseTimeout bounds the release round trip after the caller's context is gone.
const releaseTimeout = 5 * time.Second

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry forward only if the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RepoKey is the lock guarding repository-level operations.
func RepoKey(repoName string) string {
	return "repo:" + repoName
}

// FilesKey is the lock guarding file uploads. It is independent of RepoKey.
func FilesKey(repoName string) string {
	return "files:" + repoName
}

// Locker serializes work on a key.
type Locker interface {
	// WithLock runs fn while holding key and releases it on every exit path.
	// The lease is renewed until fn returns.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Manager hands out redis-backed locks.
type Manager struct {
	rdb     redis.UniversalClient
	cfg     config.LockConfig
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

// New creates a lock manager. m may be nil.
func New(rdb redis.UniversalClient, cfg config.LockConfig, m *metrics.Metrics, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		rdb:     rdb,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// Lock is a held lock. Release is idempotent and safe on a nil *Lock.
type Lock struct {
	manager  *Manager
	key      string
	token    string
	released atomic.Bool
}

// Key returns the unprefixed key.
func (l *Lock) Key() string {
	return l.key
}

func (m *Manager) redisKey(key string) string {
	return m.cfg.Prefix + key
}

// Acquire blocks until key is free, the wait timeout elapses (ErrLockTimeout)
// or ctx is done. A zero wait timeout makes a single attempt.
func (m *Manager) Acquire(ctx context.Context, key string) (*Lock, error) {
	token := uuid.NewString()
	scope := scopeOf(key)
	start := time.Now()
	deadline := start.Add(m.cfg.WaitTimeout)

	for {
		ok, err := m.rdb.SetNX(ctx, m.redisKey(key), token, m.cfg.TTL).Result()
		if err != nil {
			m.metrics.ObserveLock(scope, metrics.LockError, time.Since(start))
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			waited := time.Since(start)
			m.metrics.ObserveLock(scope, metrics.LockAcquired, waited)
			m.logger.Debugw("lock acquired", "lock_key", key, "waited", waited)
			return &Lock{manager: m, key: key, token: token}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			m.metrics.ObserveLock(scope, metrics.LockTimeout, time.Since(start))
			m.logger.Warnw("lock wait timed out", "lock_key", key, "wait_timeout", m.cfg.WaitTimeout)
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}

		timer := time.NewTimer(min(m.cfg.RetryInterval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Release frees the lock if it is still ours. Releasing twice, releasing a
// nil lock, or releasing after the TTL expired are all no-ops.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || !l.released.CompareAndSwap(false, true) {
		return nil
	}

	deleted, err := releaseScript.Run(ctx, l.manager.rdb, []string{l.manager.redisKey(l.key)}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	if deleted == 0 {
		l.manager.logger.Warnw("lock expired before release", "lock_key", l.key)
	}
	return nil
}

// Extend resets the TTL of a held lock. It reports false when the lock was
// released or its key no longer holds our token.
func (l *Lock) Extend(ctx context.Context) (bool, error) {
	if l == nil || l.released.Load() {
		return false, nil
	}

	ttl := l.manager.cfg.TTL.Milliseconds()
	extended, err := extendScript.Run(ctx, l.manager.rdb, []string{l.manager.redisKey(l.key)}, l.token, ttl).Int()
	if err != nil {
		return false, fmt.Errorf("extend lock %s: %w", l.key, err)
	}
	return extended == 1, nil
}

// keepAlive extends l every third of the TTL until stop is closed or the
// lease is lost.
func (m *Manager) keepAlive(ctx context.Context, l *Lock, stop <-chan struct{}) {
	interval := m.cfg.TTL / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		extendCtx, cancel := context.WithTimeout(ctx, releaseTimeout)
		ok, err := l.Extend(extendCtx)
		cancel()
		switch {
		case err != nil:
			m.logger.Warnw("failed to extend lock", "lock_key", l.key, "error", err)
		case !ok:
			m.logger.Warnw("lock lost before work finished", "lock_key", l.key)
			return
		}
	}
}

// WithLock implements Locker.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l, err := m.Acquire(ctx, key)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.keepAlive(context.WithoutCancel(ctx), l, stop)
	}()

	defer func() {
		close(stop)
		<-done
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := l.Release(releaseCtx); err != nil {
			m.logger.Errorw("failed to release lock", "lock_key", key, "error", err)
		}
	}()

	return fn(ctx)
}

func scopeOf(key string) string {
	scope, _, ok := strings.Cut(key, ":")
	if !ok {
		return "other"
	}
	return scope
}
