package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
	"github.com/heartspace/web-gateway/internal/pkg/metrics"
)

// EventEnqueuer hands session events to the asynchronous audit workers.
type EventEnqueuer interface {
	Enqueue(event domain.SessionEvent)
}

type sessionEventService struct {
	repo ports.SessionEventRepository
	log  zerolog.Logger
}

// NewSessionEventService returns the audit-trail writer run by the dispatcher workers.
func NewSessionEventService(repo ports.SessionEventRepository, log zerolog.Logger) ports.SessionEventService {
	return &sessionEventService{repo: repo, log: log}
}

// Process persists one session event.
func (s *sessionEventService) Process(ctx context.Context, event domain.SessionEvent) error {
	if event.ContextID == "" {
		metrics.AuditEventsTotal.WithLabelValues(string(event.Type), "invalid").Inc()
		return fmt.Errorf("process session event: missing context id")
	}

	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("process session event: %w", err)
	}
	metrics.AuditEventsTotal.WithLabelValues(string(event.Type), "stored").Inc()

	s.log.Debug().
		Str("context_id", event.ContextID).
		Str("type", string(event.Type)).
		Str("user_id", event.UserID).
		Str("from", string(event.From)).
		Str("to", string(event.To)).
		Msg("session event stored")
	return nil
}

// AuditSubscriber forwards store transitions to the audit queue. Restores
// happen on every request carrying a valid cookie and are not recorded.
func AuditSubscriber(q EventEnqueuer) Subscriber {
	return func(_ context.Context, event domain.SessionEvent) {
		if event.Type == domain.EventRestored {
			return
		}
		q.Enqueue(event)
	}
}
