/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package locking serializes validate-and-persist scheduling passes.
// The engine validates slices against a snapshot of existing bookings;
// without a lock spanning validate+persist, two concurrent submissions
// could each observe a stale snapshot and jointly exceed the daily cap.
// Locks are keyed by (installer, calendar day).
package locking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	lockKeyPrefix = "crewcal:lock:"

	// defaultLeaseDuration caps how long a crashed instance can hold
	// a booking lock.
	defaultLeaseDuration = 15 * time.Second

	defaultAcquireTimeout = 5 * time.Second
	acquireRetryInterval  = 100 * time.Millisecond
)

// Key identifies one installer-day.
func Key(installerID, day string) string {
	return installerID + ":" + day
}

// Locker serializes scheduling passes over installer-day keys.
type Locker interface {
	// AcquireAll takes every key or none, returning a release func.
	// Keys are sorted internally so two overlapping acquisitions
	// cannot deadlock.
	AcquireAll(ctx context.Context, keys []string) (release func(), err error)
}

// MemoryLocker is the single-instance implementation.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

// AcquireAll implements Locker.
func (l *MemoryLocker) AcquireAll(ctx context.Context, keys []string) (func(), error) {
	keys = dedupeSorted(keys)

	deadline := time.Now().Add(defaultAcquireTimeout)
	for {
		if l.tryAll(keys) {
			return func() { l.releaseAll(keys) }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("booking lock acquisition timed out")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquireRetryInterval):
		}
	}
}

func (l *MemoryLocker) tryAll(keys []string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		if _, taken := l.held[key]; taken {
			return false
		}
	}
	for _, key := range keys {
		l.held[key] = struct{}{}
	}
	return true
}

func (l *MemoryLocker) releaseAll(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		delete(l.held, key)
	}
}

// RedisLocker serializes scheduling passes across instances using
// SetNX leases, released by a compare-and-delete script so an expired
// lease is never deleted out from under its new holder.
type RedisLocker struct {
	client *redis.Client
	logger zerolog.Logger
	lease  time.Duration
	token  string
}

// releaseScript deletes a lock key only while we still own it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// NewRedisLocker connects to Redis and returns a distributed locker.
func NewRedisLocker(addr, password string, db int, logger zerolog.Logger) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLocker{
		client: client,
		logger: logger.With().Str("component", "booking_locks").Logger(),
		lease:  defaultLeaseDuration,
		token:  uuid.NewString(),
	}, nil
}

// AcquireAll implements Locker.
func (l *RedisLocker) AcquireAll(ctx context.Context, keys []string) (func(), error) {
	keys = dedupeSorted(keys)

	acquired := make([]string, 0, len(keys))
	rollback := func() {
		for _, key := range acquired {
			l.release(key)
		}
	}

	deadline := time.Now().Add(defaultAcquireTimeout)
	for _, key := range keys {
		for {
			ok, err := l.client.SetNX(ctx, lockKeyPrefix+key, l.token, l.lease).Result()
			if err != nil {
				rollback()
				return nil, fmt.Errorf("acquire booking lock %s: %w", key, err)
			}
			if ok {
				acquired = append(acquired, key)
				break
			}
			if time.Now().After(deadline) {
				rollback()
				return nil, fmt.Errorf("booking lock %s held elsewhere", key)
			}
			select {
			case <-ctx.Done():
				rollback()
				return nil, ctx.Err()
			case <-time.After(acquireRetryInterval):
			}
		}
	}

	return rollback, nil
}

func (l *RedisLocker) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{lockKeyPrefix + key}, l.token).Err(); err != nil && err != redis.Nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("failed to release booking lock")
	}
}

// Close releases the Redis connection.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

func dedupeSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
