package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotahq/rota/internal/scheduling/domain"
)

// Locker serializes scoped critical sections. The state machine wraps every
// family transition in a per-family lock and every conflict-checked write in
// a per-(date,slot) lock, closing the read-then-write races between
// concurrent requests.
type Locker interface {
	// WithLock runs fn while holding the named lock. The lock is released on
	// every exit path, including panics and fn errors.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// FamilyLockKey builds the lock key guarding a family's state machine.
func FamilyLockKey(familyID uuid.UUID) string {
	return "rota:lock:family:" + familyID.String()
}

// SlotLockKey builds the lock key guarding a (date, slot) conflict check.
func SlotLockKey(date time.Time, slot domain.Slot) string {
	return fmt.Sprintf("rota:lock:slot:%s:%s", domain.NormalizeDate(date).Format("2006-01-02"), slot)
}

// WithFamilyLock runs fn under the family's lock.
func WithFamilyLock(ctx context.Context, locker Locker, familyID uuid.UUID, fn func(ctx context.Context) error) error {
	return locker.WithLock(ctx, FamilyLockKey(familyID), fn)
}

// WithSlotLock runs fn under the (date, slot) lock.
func WithSlotLock(ctx context.Context, locker Locker, date time.Time, slot domain.Slot, fn func(ctx context.Context) error) error {
	return locker.WithLock(ctx, SlotLockKey(date, slot), fn)
}

// RedisLocker implements Locker with Redis SET NX PX leases, so multiple
// engine processes sharing one Redis serialize against each other.
type RedisLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

// redisUnlockScript releases a lease only if the caller still owns it.
var redisUnlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: 50 * time.Millisecond,
		logger:        logger,
	}
}

// WithLock acquires the lease, runs fn, and releases the lease.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}

	defer func() {
		// Release with the detached context so a cancelled request still
		// frees the lease instead of waiting out the TTL.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := redisUnlockScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release lock, lease will expire",
				"key", key,
				"error", err,
			)
		}
	}()

	return fn(ctx)
}

// InProcessLocker implements Locker with per-key mutexes for single-process
// deployments without Redis.
type InProcessLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewInProcessLocker creates an in-memory locker.
func NewInProcessLocker() *InProcessLocker {
	return &InProcessLocker{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *InProcessLocker) lockFor(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// WithLock runs fn while holding the per-key mutex.
func (l *InProcessLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	m := l.lockFor(key)
	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
