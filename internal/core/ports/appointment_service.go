package ports

import (
	"context"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// AppointmentService defines the appointment queries and booking.
// Every method resolves to an envelope; none of them returns an error.
type AppointmentService interface {
	MyAppointments(ctx context.Context, sess domain.Session) domain.Envelope[[]domain.Appointment]
	AppointmentByID(ctx context.Context, sess domain.Session, id string) domain.Envelope[*domain.Appointment]
	Book(ctx context.Context, sess domain.Session, in domain.BookAppointment) domain.Envelope[*domain.Appointment]
}
