package ports

import (
	"context"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// SessionEventRepository persists session transitions to the audit trail.
type SessionEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.SessionEvent) error
}
