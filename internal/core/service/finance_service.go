package service

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

const (
	pathRevenue         = "/api/admin/revenue"
	pathPaymentRequests = "/api/payment-requests"

	revenueDateLayout = "2006-01-02"
)

// FinanceService implements ports.FinanceService. Role checks mirror the
// dashboards: revenue and payment-request review are Admin only, payment
// requests are created by Consultants.
type FinanceService struct {
	backend     ports.Backend
	invalidator ports.QueryInvalidator
	log         zerolog.Logger
}

var _ ports.FinanceService = (*FinanceService)(nil)

func NewFinanceService(backend ports.Backend, invalidator ports.QueryInvalidator, log zerolog.Logger) *FinanceService {
	return &FinanceService{backend: backend, invalidator: invalidator, log: log}
}

func (s *FinanceService) Revenue(ctx context.Context, sess domain.Session, f domain.RevenueFilter) domain.Envelope[*domain.RevenueSummary] {
	if !sess.IsAuthenticated(time.Now()) {
		return unauthenticated[*domain.RevenueSummary]()
	}
	if sess.Role() != domain.RoleAdmin {
		return forbidden[*domain.RevenueSummary]()
	}
	q := url.Values{}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format(revenueDateLayout))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format(revenueDateLayout))
	}
	req := ports.BackendRequest{Method: http.MethodGet, Path: pathRevenue, Query: q}
	env := fetch(ctx, s.backend, sess, req, one[domain.RevenueSummary])
	if env.IsSuccess && env.Data != nil && env.Data.Points == nil {
		env.Data.Points = []domain.RevenuePoint{}
	}
	return env
}

// PaymentRequests lists payment requests, optionally filtered by status.
// The backend scopes the list to the caller for Consultants.
func (s *FinanceService) PaymentRequests(ctx context.Context, sess domain.Session, status string) domain.Envelope[[]domain.PaymentRequest] {
	if !sess.IsAuthenticated(time.Now()) {
		return unauthenticated[[]domain.PaymentRequest]()
	}
	if r := sess.Role(); r != domain.RoleAdmin && r != domain.RoleConsultant {
		return forbidden[[]domain.PaymentRequest]()
	}
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	req := ports.BackendRequest{Method: http.MethodGet, Path: pathPaymentRequests, Query: q, NoStore: true}
	return fetch(ctx, s.backend, sess, req, many[domain.PaymentRequest])
}

func (s *FinanceService) CreatePaymentRequest(ctx context.Context, sess domain.Session, in domain.NewPaymentRequest) domain.Envelope[*domain.PaymentRequest] {
	if !sess.IsAuthenticated(time.Now()) {
		return unauthenticated[*domain.PaymentRequest]()
	}
	if sess.Role() != domain.RoleConsultant {
		return forbidden[*domain.PaymentRequest]()
	}
	req := ports.BackendRequest{Method: http.MethodPost, Path: pathPaymentRequests, Body: in}
	env := fetch(ctx, s.backend, sess, req, one[domain.PaymentRequest])
	if env.IsSuccess {
		s.invalidate(ctx, sess.AccessToken, pathPaymentRequests)
		env.Message = "Payment request submitted"
	}
	return env
}

func (s *FinanceService) UpdatePaymentRequestStatus(ctx context.Context, sess domain.Session, id string, status domain.PaymentRequestStatus) domain.Envelope[*domain.PaymentRequest] {
	if !sess.IsAuthenticated(time.Now()) {
		return unauthenticated[*domain.PaymentRequest]()
	}
	if sess.Role() != domain.RoleAdmin {
		return forbidden[*domain.PaymentRequest]()
	}
	if id == "" {
		return domain.Fail[*domain.PaymentRequest](http.StatusBadRequest, "payment request id is required")
	}
	req := ports.BackendRequest{
		Method: http.MethodPut,
		Path:   pathPaymentRequests + "/" + url.PathEscape(id) + "/status",
		Body:   map[string]string{"status": string(status)},
	}
	env := fetch(ctx, s.backend, sess, req, one[domain.PaymentRequest])
	if env.IsSuccess {
		s.invalidate(ctx, sess.AccessToken, pathPaymentRequests)
		s.invalidate(ctx, sess.AccessToken, pathRevenue)
	}
	return env
}

func (s *FinanceService) invalidate(ctx context.Context, token, prefix string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, token, prefix); err != nil {
		s.log.Warn().Err(err).Str("prefix", prefix).Msg("query invalidation failed")
	}
}
