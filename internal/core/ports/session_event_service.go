package ports

import (
	"context"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// SessionEventService processes session events dequeued by the dispatcher.
type SessionEventService interface {
	Process(ctx context.Context, event domain.SessionEvent) error
}
