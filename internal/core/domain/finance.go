package domain

import "time"

// RevenuePoint is one bucket of the admin revenue chart.
type RevenuePoint struct {
	Period       string  `json:"period"`
	Revenue      float64 `json:"revenue"`
	Appointments int     `json:"appointments"`
}

// RevenueSummary backs the admin revenue dashboard.
type RevenueSummary struct {
	TotalRevenue      float64        `json:"totalRevenue"`
	TotalAppointments int            `json:"totalAppointments"`
	Currency          string         `json:"currency,omitempty"`
	Points            []RevenuePoint `json:"points"`
}

// RevenueFilter bounds the revenue query.
type RevenueFilter struct {
	From time.Time
	To   time.Time
}

// PaymentRequestStatus is the review state of a consultant payout request.
type PaymentRequestStatus string

const (
	PaymentRequestPending  PaymentRequestStatus = "Pending"
	PaymentRequestApproved PaymentRequestStatus = "Approved"
	PaymentRequestRejected PaymentRequestStatus = "Rejected"
	PaymentRequestPaid     PaymentRequestStatus = "Paid"
)

// PaymentRequest is a consultant's request to be paid out.
type PaymentRequest struct {
	ID             string               `json:"id"`
	ConsultantID   string               `json:"consultantId"`
	ConsultantName string               `json:"consultantName,omitempty"`
	Amount         float64              `json:"amount"`
	Status         PaymentRequestStatus `json:"status"`
	BankName       string               `json:"bankName,omitempty"`
	AccountNumber  string               `json:"accountNumber,omitempty"`
	Note           string               `json:"note,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// NewPaymentRequest is the payload a consultant submits.
type NewPaymentRequest struct {
	Amount        float64 `json:"amount"`
	BankName      string  `json:"bankName"`
	AccountNumber string  `json:"accountNumber"`
	Note          string  `json:"note,omitempty"`
}
