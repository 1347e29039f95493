package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

// FinanceHandler serves the revenue dashboard and payment requests.
type FinanceHandler struct {
	service ports.FinanceService
}

func NewFinanceHandler(service ports.FinanceService) *FinanceHandler {
	return &FinanceHandler{service: service}
}

type revenueQuery struct {
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to"   validate:"omitempty,datetime=2006-01-02"`
}

type paymentRequestQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=Pending Approved Rejected Paid"`
}

type createPaymentRequest struct {
	Amount        float64 `json:"amount"        validate:"gt=0"`
	BankName      string  `json:"bankName"      validate:"required"`
	AccountNumber string  `json:"accountNumber" validate:"required"`
	Note          string  `json:"note"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Approved Rejected Paid"`
}

// Revenue returns the revenue summary for a date range.
//
// @Summary      Revenue dashboard
// @Tags         admin
// @Produce      json
// @Param        from  query     string  false  "Start day (YYYY-MM-DD)"
// @Param        to    query     string  false  "End day (YYYY-MM-DD)"
// @Success      200   {object}  domain.Envelope[domain.RevenueSummary]
// @Failure      403   {object}  domain.Envelope[any]
// @Router       /api/admin/revenue [get]
func (h *FinanceHandler) Revenue(c echo.Context) error {
	var q revenueQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	var f domain.RevenueFilter
	if q.From != "" {
		f.From, _ = time.Parse(dateLayout, q.From)
	}
	if q.To != "" {
		f.To, _ = time.Parse(dateLayout, q.To)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return echo.NewHTTPError(http.StatusBadRequest, "to must not be before from")
	}
	return respond(c, h.service.Revenue(c.Request().Context(), session(c), f))
}

// PaymentRequests lists payment requests. Consultants see their own.
//
// @Summary      Payment requests
// @Tags         payments
// @Produce      json
// @Param        status  query     string  false  "Pending, Approved, Rejected or Paid"
// @Success      200     {object}  domain.Envelope[[]domain.PaymentRequest]
// @Failure      403     {object}  domain.Envelope[any]
// @Router       /api/payment-requests [get]
func (h *FinanceHandler) PaymentRequests(c echo.Context) error {
	var q paymentRequestQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	return respond(c, h.service.PaymentRequests(c.Request().Context(), session(c), q.Status))
}

// Create files a consultant's payout request.
//
// @Summary      Request a payout
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body  body      createPaymentRequest  true  "Payout details"
// @Success      200   {object}  domain.Envelope[domain.PaymentRequest]
// @Failure      403   {object}  domain.Envelope[any]
// @Failure      422   {object}  domain.Envelope[any]
// @Router       /api/payment-requests [post]
func (h *FinanceHandler) Create(c echo.Context) error {
	var req createPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return respond(c, h.service.CreatePaymentRequest(c.Request().Context(), session(c), domain.NewPaymentRequest{
		Amount:        req.Amount,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		Note:          req.Note,
	}))
}

// UpdateStatus moves a payment request to a new status.
//
// @Summary      Review a payout
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Payment request id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.Envelope[domain.PaymentRequest]
// @Failure      403   {object}  domain.Envelope[any]
// @Failure      422   {object}  domain.Envelope[any]
// @Router       /api/admin/payment-requests/{id}/status [put]
func (h *FinanceHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return respond(c, h.service.UpdatePaymentRequestStatus(
		c.Request().Context(), session(c), c.Param("id"), domain.PaymentRequestStatus(req.Status),
	))
}
