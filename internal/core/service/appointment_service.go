package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

const (
	pathAppointments     = "/api/appointments"
	pathMyAppointments   = "/api/appointments/my-appointments"
	chainMyAppointments  = "my_appointments"
	defaultDetailTimeout = 8 * time.Second
)

// AppointmentService implements ports.AppointmentService.
type AppointmentService struct {
	backend       ports.Backend
	invalidator   ports.QueryInvalidator
	detailTimeout time.Duration
	log           zerolog.Logger
}

var _ ports.AppointmentService = (*AppointmentService)(nil)

// NewAppointmentService returns an AppointmentService. invalidator may be
// nil when query caching is disabled.
func NewAppointmentService(backend ports.Backend, invalidator ports.QueryInvalidator, detailTimeout time.Duration, log zerolog.Logger) *AppointmentService {
	if detailTimeout <= 0 {
		detailTimeout = defaultDetailTimeout
	}
	return &AppointmentService{backend: backend, invalidator: invalidator, detailTimeout: detailTimeout, log: log}
}

// MyAppointments returns the caller's appointments. The backend has
// exposed this list under several shapes, so each is tried in order:
//
//  1. the dedicated endpoint, accepted when it returns a list (even empty);
//  2. the collection filtered by clientId, accepted when non-empty;
//  3. the collection filtered by clientID, accepted when non-empty;
//  4. the unfiltered collection scoped by the token, accepted on success.
//
// When nothing is accepted the result is an empty unsuccessful list.
func (s *AppointmentService) MyAppointments(ctx context.Context, sess domain.Session) domain.Envelope[[]domain.Appointment] {
	if sess.AccessToken == "" {
		return unauthenticated[[]domain.Appointment]()
	}
	userID := sess.UserID()

	strict := func(raw json.RawMessage) ([]domain.Appointment, error) {
		return decodeList[domain.Appointment](raw)
	}
	byClient := func(param string) func(ctx context.Context) (domain.Envelope[[]domain.Appointment], error) {
		return func(ctx context.Context) (domain.Envelope[[]domain.Appointment], error) {
			return s.list(ctx, sess, url.Values{param: {userID}}, many[domain.Appointment])
		}
	}
	nonEmpty := func(env domain.Envelope[[]domain.Appointment]) bool { return len(env.Data) > 0 }

	attempts := []Attempt[[]domain.Appointment]{
		{
			Name: "dedicated",
			Fetch: func(ctx context.Context) (domain.Envelope[[]domain.Appointment], error) {
				return s.get(ctx, sess, pathMyAppointments, nil, strict)
			},
		},
		{Name: "client_id", Fetch: byClient("clientId"), Accept: nonEmpty, Skip: userID == ""},
		{Name: "client_id_upper", Fetch: byClient("clientID"), Accept: nonEmpty, Skip: userID == ""},
		{
			Name: "token_scoped",
			Fetch: func(ctx context.Context) (domain.Envelope[[]domain.Appointment], error) {
				return s.list(ctx, sess, nil, many[domain.Appointment])
			},
		},
	}

	env, ok := RunChain(ctx, chainMyAppointments, attempts, s.log.With().Str("user_id", userID).Logger())
	if !ok {
		return domain.EmptyList[domain.Appointment]("Could not load your appointments")
	}
	return env
}

// AppointmentByID looks up one appointment, bounded by the detail timeout.
func (s *AppointmentService) AppointmentByID(ctx context.Context, sess domain.Session, id string) domain.Envelope[*domain.Appointment] {
	if id == "" {
		return domain.Fail[*domain.Appointment](http.StatusBadRequest, "appointment id is required")
	}
	req := ports.BackendRequest{Method: http.MethodGet, Path: pathAppointments + "/" + url.PathEscape(id)}
	return fetchWithTimeout(ctx, s.backend, sess, req, s.detailTimeout, "appointment", one[domain.Appointment])
}

// Book creates an appointment for the caller and drops their cached
// appointment queries.
func (s *AppointmentService) Book(ctx context.Context, sess domain.Session, in domain.BookAppointment) domain.Envelope[*domain.Appointment] {
	if !sess.IsAuthenticated(time.Now()) {
		return unauthenticated[*domain.Appointment]()
	}
	req := ports.BackendRequest{Method: http.MethodPost, Path: pathAppointments, Body: in}
	env := fetch(ctx, s.backend, sess, req, one[domain.Appointment])
	if env.IsSuccess {
		s.invalidate(ctx, sess.AccessToken, pathAppointments)
		env.Message = "Appointment booked"
	}
	return env
}

// BookContinuation resumes a booking interrupted by the login dialog.
func (s *AppointmentService) BookContinuation() ContinuationFunc {
	return func(ctx context.Context, sess domain.Session, payload json.RawMessage) (any, error) {
		var in domain.BookAppointment
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, fmt.Errorf("book continuation: decode payload: %w", err)
		}
		env := s.Book(ctx, sess, in)
		if !env.IsSuccess {
			return env, fmt.Errorf("book continuation: %s", env.Message)
		}
		return env, nil
	}
}

// get performs one chain step. An unsuccessful envelope or an undecodable
// payload is reported as an error so the chain advances.
func (s *AppointmentService) get(ctx context.Context, sess domain.Session, path string, q url.Values, decode func(json.RawMessage) ([]domain.Appointment, error)) (domain.Envelope[[]domain.Appointment], error) {
	env, err := s.backend.Do(ctx, ports.BackendRequest{Method: http.MethodGet, Path: path, Query: q, Token: sess.AccessToken})
	if err != nil {
		return domain.Envelope[[]domain.Appointment]{}, err
	}
	if !env.IsSuccess {
		return domain.Envelope[[]domain.Appointment]{}, fmt.Errorf("get %s: %s", path, env.Message)
	}
	out := typed(env, decode)
	if !out.IsSuccess {
		return out, fmt.Errorf("get %s: %s", path, out.Message)
	}
	return out, nil
}

func (s *AppointmentService) list(ctx context.Context, sess domain.Session, q url.Values, decode func(json.RawMessage) ([]domain.Appointment, error)) (domain.Envelope[[]domain.Appointment], error) {
	return s.get(ctx, sess, pathAppointments, q, decode)
}

func (s *AppointmentService) invalidate(ctx context.Context, token, prefix string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, token, prefix); err != nil {
		s.log.Warn().Err(err).Str("prefix", prefix).Msg("query invalidation failed")
	}
}
