package domain

import "time"

// AppointmentStatus mirrors the backend's appointment lifecycle.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "Pending"
	AppointmentConfirmed AppointmentStatus = "Confirmed"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

// Appointment is a booked consultation.
type Appointment struct {
	ID             string            `json:"id"`
	ClientID       string            `json:"clientId,omitempty"`
	ClientName     string            `json:"clientName,omitempty"`
	ConsultantID   string            `json:"consultantId,omitempty"`
	ConsultantName string            `json:"consultantName,omitempty"`
	ScheduleID     string            `json:"scheduleId,omitempty"`
	StartTime      time.Time         `json:"startTime"`
	EndTime        time.Time         `json:"endTime"`
	Status         AppointmentStatus `json:"status"`
	Notes          string            `json:"notes,omitempty"`
	Price          float64           `json:"price,omitempty"`
	PaymentStatus  string            `json:"paymentStatus,omitempty"`
	PaymentURL     string            `json:"paymentUrl,omitempty"`
	MeetingURL     string            `json:"meetingUrl,omitempty"`
}

// BookAppointment is the payload of a booking request.
type BookAppointment struct {
	ConsultantID string `json:"consultantId"`
	ScheduleID   string `json:"scheduleId"`
	Notes        string `json:"notes,omitempty"`
}
