package ports

import (
	"context"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// FinanceService backs the revenue and payment-request dashboards.
type FinanceService interface {
	Revenue(ctx context.Context, sess domain.Session, f domain.RevenueFilter) domain.Envelope[*domain.RevenueSummary]
	PaymentRequests(ctx context.Context, sess domain.Session, status string) domain.Envelope[[]domain.PaymentRequest]
	CreatePaymentRequest(ctx context.Context, sess domain.Session, in domain.NewPaymentRequest) domain.Envelope[*domain.PaymentRequest]
	UpdatePaymentRequestStatus(ctx context.Context, sess domain.Session, id string, status domain.PaymentRequestStatus) domain.Envelope[*domain.PaymentRequest]
}
