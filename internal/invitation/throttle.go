package invitation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Verification throttle limits. Tokens are high entropy, so the throttle
// guards against noisy scripted guessing rather than a feasible brute force.
const (
	verifyAttemptLimit  = 10
	verifyAttemptWindow = 15 * time.Minute

	verifyAttemptKeyPrefix = "inv:verify:"
)

// VerifyThrottle counts failed verification attempts per email.
type VerifyThrottle interface {
	// Allow reports whether another attempt may proceed for the email.
	Allow(ctx context.Context, email string) (bool, error)
	// RecordFailure counts a failed attempt against the email.
	RecordFailure(ctx context.Context, email string) error
	// Reset clears the counter after a successful verification.
	Reset(ctx context.Context, email string) error
}

// RedisThrottle is a Redis-backed throttle shared across instances. Counters
// expire with the attempt window, so no sweep is needed.
type RedisThrottle struct {
	client *redis.Client
}

func NewRedisThrottle(client *redis.Client) *RedisThrottle {
	return &RedisThrottle{client: client}
}

func throttleKey(email string) string {
	return verifyAttemptKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func (t *RedisThrottle) Allow(ctx context.Context, email string) (bool, error) {
	count, err := t.client.Get(ctx, throttleKey(email)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle lookup: %w", err)
	}
	return count < verifyAttemptLimit, nil
}

func (t *RedisThrottle) RecordFailure(ctx context.Context, email string) error {
	key := throttleKey(email)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, verifyAttemptWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	return nil
}

func (t *RedisThrottle) Reset(ctx context.Context, email string) error {
	if err := t.client.Del(ctx, throttleKey(email)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

// MemoryThrottle is a process-local throttle for tests and single-instance
// deployments without Redis.
type MemoryThrottle struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	now      func() time.Time
}

func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{failures: make(map[string][]time.Time), now: time.Now}
}

func (t *MemoryThrottle) Allow(_ context.Context, email string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live(email)) < verifyAttemptLimit, nil
}

func (t *MemoryThrottle) RecordFailure(_ context.Context, email string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := throttleKey(email)
	t.failures[key] = append(t.live(email), t.now())
	return nil
}

func (t *MemoryThrottle) Reset(_ context.Context, email string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, throttleKey(email))
	return nil
}

func (t *MemoryThrottle) live(email string) []time.Time {
	cutoff := t.now().Add(-verifyAttemptWindow)
	var kept []time.Time
	for _, at := range t.failures[throttleKey(email)] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	return kept
}
