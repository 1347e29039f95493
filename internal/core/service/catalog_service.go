package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

const (
	pathConsultants = "/api/consultants"
	pathSchedules   = "/api/schedules"
	pathProfile     = "/api/users/profile"

	scheduleDateLayout = "2006-01-02"
)

// CatalogService implements ports.CatalogService.
type CatalogService struct {
	backend ports.Backend
}

var _ ports.CatalogService = (*CatalogService)(nil)

func NewCatalogService(backend ports.Backend) *CatalogService {
	return &CatalogService{backend: backend}
}

// Consultants lists bookable consultants. Browsing does not require a session.
func (s *CatalogService) Consultants(ctx context.Context, sess domain.Session, f domain.ConsultantFilter) domain.Envelope[[]domain.Consultant] {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Specialty != "" {
		q.Set("specialty", f.Specialty)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(f.PageSize))
	}
	req := ports.BackendRequest{Method: http.MethodGet, Path: pathConsultants, Query: q}
	return fetch(ctx, s.backend, sess, req, many[domain.Consultant])
}

func (s *CatalogService) ConsultantByID(ctx context.Context, sess domain.Session, id string) domain.Envelope[*domain.Consultant] {
	if id == "" {
		return domain.Fail[*domain.Consultant](http.StatusBadRequest, "consultant id is required")
	}
	req := ports.BackendRequest{Method: http.MethodGet, Path: pathConsultants + "/" + url.PathEscape(id)}
	return fetch(ctx, s.backend, sess, req, one[domain.Consultant])
}

// Schedules lists a consultant's slots on date. A zero date lists every
// upcoming slot.
func (s *CatalogService) Schedules(ctx context.Context, sess domain.Session, consultantID string, date time.Time) domain.Envelope[[]domain.ScheduleSlot] {
	if consultantID == "" {
		return domain.Fail[[]domain.ScheduleSlot](http.StatusBadRequest, "consultant id is required")
	}
	q := url.Values{"consultantId": {consultantID}}
	if !date.IsZero() {
		q.Set("date", date.Format(scheduleDateLayout))
	}
	req := ports.BackendRequest{Method: http.MethodGet, Path: pathSchedules, Query: q}
	return fetch(ctx, s.backend, sess, req, many[domain.ScheduleSlot])
}

// Profile returns the caller's own profile.
func (s *CatalogService) Profile(ctx context.Context, sess domain.Session) domain.Envelope[*domain.User] {
	if sess.AccessToken == "" {
		return unauthenticated[*domain.User]()
	}
	req := ports.BackendRequest{Method: http.MethodGet, Path: pathProfile}
	env := fetch(ctx, s.backend, sess, req, one[domain.User])
	if env.IsSuccess && env.Data != nil && env.Data.Role == "" {
		env.Data.Role = sess.Role()
	}
	return env
}
