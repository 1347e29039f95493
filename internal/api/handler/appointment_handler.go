package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
	"github.com/heartspace/web-gateway/internal/core/service"
)

// AppointmentHandler serves the client's appointment pages.
type AppointmentHandler struct {
	service ports.AppointmentService
}

func NewAppointmentHandler(service ports.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

type bookRequest struct {
	ConsultantID string `json:"consultantId" validate:"required"`
	ScheduleID   string `json:"scheduleId"   validate:"required"`
	Notes        string `json:"notes"`
}

// Mine lists the caller's appointments.
//
// @Summary      My appointments
// @Tags         appointments
// @Produce      json
// @Success      200  {object}  domain.Envelope[[]domain.Appointment]
// @Failure      401  {object}  domain.Envelope[any]
// @Router       /api/appointments/mine [get]
func (h *AppointmentHandler) Mine(c echo.Context) error {
	return respond(c, h.service.MyAppointments(c.Request().Context(), session(c)))
}

// ByID returns one appointment. A slow backend resolves to a timeout
// envelope rather than hanging the page.
//
// @Summary      Appointment detail
// @Tags         appointments
// @Produce      json
// @Param        id   path      string  true  "Appointment id"
// @Success      200  {object}  domain.Envelope[domain.Appointment]
// @Failure      404  {object}  domain.Envelope[any]
// @Failure      500  {object}  domain.Envelope[any]
// @Router       /api/appointments/{id} [get]
func (h *AppointmentHandler) ByID(c echo.Context) error {
	return respond(c, h.service.AppointmentByID(c.Request().Context(), session(c), c.Param("id")))
}

// Book creates an appointment. Anonymous callers get the login dialog
// opened with the booking pending; it runs once they sign in.
//
// @Summary      Book an appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        body  body      bookRequest  true  "Slot to book"
// @Success      200   {object}  domain.Envelope[domain.Appointment]
// @Failure      401   {object}  domain.Envelope[any]
// @Failure      422   {object}  domain.Envelope[any]
// @Router       /api/appointments [post]
func (h *AppointmentHandler) Book(c echo.Context) error {
	ac, err := authContext(c)
	if err != nil {
		return err
	}
	var req bookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in := domain.BookAppointment{ConsultantID: req.ConsultantID, ScheduleID: req.ScheduleID, Notes: req.Notes}

	payload, err := rawBody(in)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	ok, err := ac.Gate.RequireAuth(ctx, &service.Continuation{Action: service.ActionBookAppointment, Payload: payload})
	if err != nil {
		return err
	}
	if !ok {
		env := domain.Fail[*domain.Appointment](http.StatusUnauthorized, "Please sign in to book this appointment").
			WithMeta("authRequired", true).
			WithMeta("pendingAction", service.ActionBookAppointment)
		return respond(c, env)
	}

	return respond(c, h.service.Book(ctx, ac.Store.Snapshot(), in))
}
