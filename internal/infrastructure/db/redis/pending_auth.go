package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

const defaultPendingTTL = 15 * time.Minute

// PendingAuthStore keeps the open login dialog's continuation per browser context.
// Key format: pending_auth:<context_id>
type PendingAuthStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.PendingAuthStore = (*PendingAuthStore)(nil)

// NewPendingAuthStore creates a PendingAuthStore. Records expire after ttl
// so an abandoned dialog does not resume on a much later login.
func NewPendingAuthStore(client *redis.Client, ttl time.Duration) *PendingAuthStore {
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &PendingAuthStore{client: client, ttl: ttl}
}

// Put replaces the pending record and reports whether one was overwritten.
func (s *PendingAuthStore) Put(ctx context.Context, contextID string, p domain.PendingAuth) (bool, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("pending auth encode: %w", err)
	}
	prev, err := s.client.SetArgs(ctx, s.key(contextID), raw, redis.SetArgs{TTL: s.ttl, Get: true}).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pending auth put: %w", err)
	}
	return prev != "", nil
}

// Take reads and deletes the record in one round trip (GETDEL), so a
// continuation is handed out at most once.
func (s *PendingAuthStore) Take(ctx context.Context, contextID string) (*domain.PendingAuth, error) {
	raw, err := s.client.GetDel(ctx, s.key(contextID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pending auth take: %w", err)
	}
	return decodePending(raw)
}

// Peek reads the record without consuming it.
func (s *PendingAuthStore) Peek(ctx context.Context, contextID string) (*domain.PendingAuth, error) {
	raw, err := s.client.Get(ctx, s.key(contextID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pending auth peek: %w", err)
	}
	return decodePending(raw)
}

// Clear drops the record without handing it out.
func (s *PendingAuthStore) Clear(ctx context.Context, contextID string) error {
	if err := s.client.Del(ctx, s.key(contextID)).Err(); err != nil {
		return fmt.Errorf("pending auth clear: %w", err)
	}
	return nil
}

func (s *PendingAuthStore) key(contextID string) string {
	return "pending_auth:" + contextID
}

func decodePending(raw []byte) (*domain.PendingAuth, error) {
	var p domain.PendingAuth
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("pending auth decode: %w", err)
	}
	return &p, nil
}
