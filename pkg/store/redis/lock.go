// Package redis implements the diagram edit lock on Redis. One editor holds
// the lock per diagram; everyone else opens read-only. The lock is advisory
// and TTL-bound so a crashed editor never wedges a diagram.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EditLock describes the current holder of a diagram's edit lock.
type EditLock struct {
	DiagramID string        `json:"diagram_id"`
	HolderID  string        `json:"holder_id"`
	TTL       time.Duration `json:"ttl"`
}

type LockStore struct {
	client *redis.Client
}

func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func (s *LockStore) makeKey(diagramID string) string {
	return fmt.Sprintf("meterboard:editlock:%s", diagramID)
}

// Acquire tries to take the edit lock for a diagram. Returns true on success.
// Re-acquiring a lock already held by holderID renews it instead.
func (s *LockStore) Acquire(ctx context.Context, diagramID, holderID string, ttl time.Duration) (bool, error) {
	key := s.makeKey(diagramID)

	success, err := s.client.SetNX(ctx, key, holderID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire edit lock: %w", err)
	}
	if success {
		return true, nil
	}

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existing edit lock: %w", err)
	}
	if val == holderID {
		return true, s.Renew(ctx, diagramID, holderID, ttl)
	}

	return false, nil
}

// Renew extends the lock's TTL, but only while holderID still owns it.
func (s *LockStore) Renew(ctx context.Context, diagramID, holderID string, ttl time.Duration) error {
	key := s.makeKey(diagramID)

	// Ownership check and expiry extension must be atomic.
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`
	ttlMs := int64(ttl / time.Millisecond)

	res, err := s.client.Eval(ctx, script, []string{key}, holderID, ttlMs).Result()
	if err != nil {
		return fmt.Errorf("failed to execute renew script: %w", err)
	}

	success, ok := res.(int64)
	if !ok {
		return fmt.Errorf("unexpected return type from renew script")
	}
	if success != 1 {
		return fmt.Errorf("edit lock lost or stolen")
	}
	return nil
}

// Release drops the lock if holderID owns it. Releasing a lock that is
// already gone or stolen is not an error.
func (s *LockStore) Release(ctx context.Context, diagramID, holderID string) error {
	key := s.makeKey(diagramID)

	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	if _, err := s.client.Eval(ctx, script, []string{key}, holderID).Result(); err != nil {
		return fmt.Errorf("failed to execute release script: %w", err)
	}
	return nil
}

// Get returns the current lock state, or nil if the diagram is unlocked.
func (s *LockStore) Get(ctx context.Context, diagramID string) (*EditLock, error) {
	key := s.makeKey(diagramID)

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get edit lock: %w", err)
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get edit lock ttl: %w", err)
	}

	return &EditLock{
		DiagramID: diagramID,
		HolderID:  val,
		TTL:       ttl,
	}, nil
}
