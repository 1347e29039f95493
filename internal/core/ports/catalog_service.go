package ports

import (
	"context"
	"time"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// CatalogService covers consultant discovery and the caller's profile.
type CatalogService interface {
	Consultants(ctx context.Context, sess domain.Session, f domain.ConsultantFilter) domain.Envelope[[]domain.Consultant]
	ConsultantByID(ctx context.Context, sess domain.Session, id string) domain.Envelope[*domain.Consultant]
	Schedules(ctx context.Context, sess domain.Session, consultantID string, date time.Time) domain.Envelope[[]domain.ScheduleSlot]
	Profile(ctx context.Context, sess domain.Session) domain.Envelope[*domain.User]
}
