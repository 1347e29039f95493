package ports

import (
	"context"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// PendingAuthStore holds at most one pending continuation per browser context.
type PendingAuthStore interface {
	// Put stores p, replacing any existing record. replaced reports whether
	// an earlier continuation was overwritten.
	Put(ctx context.Context, contextID string, p domain.PendingAuth) (replaced bool, err error)
	// Take atomically reads and deletes the record. It returns nil, nil
	// when nothing is pending.
	Take(ctx context.Context, contextID string) (*domain.PendingAuth, error)
	Peek(ctx context.Context, contextID string) (*domain.PendingAuth, error)
	Clear(ctx context.Context, contextID string) error
}
