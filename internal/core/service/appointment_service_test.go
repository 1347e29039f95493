package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

type step struct {
	env domain.Envelope[json.RawMessage]
	err error
}

// scriptedBackend answers the my-appointments shapes from a table keyed by
// path plus query.
func scriptedBackend(t *testing.T, script map[string]step) *stubBackend {
	return &stubBackend{fn: func(_ context.Context, req ports.BackendRequest) (domain.Envelope[json.RawMessage], error) {
		key := req.Path
		if len(req.Query) > 0 {
			key += "?" + req.Query.Encode()
		}
		s, ok := script[key]
		if !ok {
			t.Errorf("unexpected request %s", key)
			return failEnv(http.StatusNotFound, "not found"), errStub
		}
		return s.env, s.err
	}}
}

func newApptSvc(b ports.Backend) *AppointmentService {
	return NewAppointmentService(b, nil, 0, discardLogger)
}

func TestMyAppointments_FallbackOrder(t *testing.T) {
	appt := domain.Appointment{ID: "A", ClientID: "u1", Status: domain.AppointmentConfirmed}
	b := scriptedBackend(t, map[string]step{
		pathMyAppointments:                {failEnv(http.StatusMethodNotAllowed, "Method Not Allowed"), errStub},
		pathAppointments + "?clientId=u1": {okEnv(t, []domain.Appointment{}), nil},
		pathAppointments + "?clientID=u1": {okEnv(t, []domain.Appointment{appt}), nil},
	})
	sess := authenticatedSession(t, "u1", domain.RoleClient)

	env := newApptSvc(b).MyAppointments(context.Background(), sess)

	if !env.IsSuccess || len(env.Data) != 1 || env.Data[0].ID != "A" {
		t.Fatalf("expected [A], got %+v", env)
	}
	if b.callCount() != 3 {
		t.Errorf("expected 3 calls, got %d", b.callCount())
	}
	for i, want := range []string{pathMyAppointments, pathAppointments, pathAppointments} {
		if b.calls[i].Path != want {
			t.Errorf("call %d: expected %s, got %s", i, want, b.calls[i].Path)
		}
		if b.calls[i].Token != sess.AccessToken {
			t.Errorf("call %d: missing bearer token", i)
		}
	}
}

func TestMyAppointments_EmptyDedicatedListShortCircuits(t *testing.T) {
	b := scriptedBackend(t, map[string]step{
		pathMyAppointments: {okEnv(t, []domain.Appointment{}), nil},
	})

	env := newApptSvc(b).MyAppointments(context.Background(), authenticatedSession(t, "u1", domain.RoleClient))

	if !env.IsSuccess || env.Data == nil || len(env.Data) != 0 {
		t.Errorf("expected successful empty list, got %+v", env)
	}
	if b.callCount() != 1 {
		t.Errorf("expected only the dedicated call, got %d", b.callCount())
	}
}

func TestMyAppointments_NullDedicatedPayloadFallsThrough(t *testing.T) {
	appt := domain.Appointment{ID: "B"}
	b := scriptedBackend(t, map[string]step{
		pathMyAppointments:                {domain.Envelope[json.RawMessage]{Data: json.RawMessage("null"), IsSuccess: true, Code: 200}, nil},
		pathAppointments + "?clientId=u1": {okEnv(t, []domain.Appointment{appt}), nil},
	})

	env := newApptSvc(b).MyAppointments(context.Background(), authenticatedSession(t, "u1", domain.RoleClient))
	if len(env.Data) != 1 || env.Data[0].ID != "B" {
		t.Errorf("expected [B], got %+v", env)
	}
}

func TestMyAppointments_TokenScopedStep(t *testing.T) {
	appt := domain.Appointment{ID: "C"}
	b := scriptedBackend(t, map[string]step{
		pathMyAppointments:                {failEnv(http.StatusNotFound, ""), errStub},
		pathAppointments + "?clientId=u1": {failEnv(http.StatusBadRequest, ""), errStub},
		pathAppointments + "?clientID=u1": {okEnv(t, []domain.Appointment{}), nil},
		pathAppointments:                  {okEnv(t, map[string]any{"items": []domain.Appointment{appt}}), nil},
	})

	env := newApptSvc(b).MyAppointments(context.Background(), authenticatedSession(t, "u1", domain.RoleClient))
	if !env.IsSuccess || len(env.Data) != 1 || env.Data[0].ID != "C" {
		t.Errorf("expected [C] from the token-scoped step, got %+v", env)
	}
}

func TestMyAppointments_Exhausted(t *testing.T) {
	fail := step{failEnv(http.StatusInternalServerError, "boom"), errStub}
	b := scriptedBackend(t, map[string]step{
		pathMyAppointments:                fail,
		pathAppointments + "?clientId=u1": fail,
		pathAppointments + "?clientID=u1": fail,
		pathAppointments:                  fail,
	})

	env := newApptSvc(b).MyAppointments(context.Background(), authenticatedSession(t, "u1", domain.RoleClient))

	if env.IsSuccess {
		t.Error("expected isSuccess=false")
	}
	if env.Data == nil || len(env.Data) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", env.Data)
	}
	if b.callCount() != 4 {
		t.Errorf("expected 4 attempts, got %d", b.callCount())
	}
}

func TestMyAppointments_SkipsClientFiltersWithoutUserID(t *testing.T) {
	b := scriptedBackend(t, map[string]step{
		pathMyAppointments: {failEnv(http.StatusNotFound, ""), errStub},
		pathAppointments:   {okEnv(t, []domain.Appointment{}), nil},
	})
	sess := authenticatedSession(t, "u1", domain.RoleClient)
	sess.User = nil

	env := newApptSvc(b).MyAppointments(context.Background(), sess)
	if !env.IsSuccess || len(env.Data) != 0 {
		t.Errorf("expected successful empty list, got %+v", env)
	}
	if b.callCount() != 2 {
		t.Errorf("client filters must be skipped, got %d calls", b.callCount())
	}
}

func TestMyAppointments_Unauthenticated(t *testing.T) {
	b := &stubBackend{}
	env := newApptSvc(b).MyAppointments(context.Background(), domain.Session{State: domain.StateAnonymous})
	if env.IsSuccess || env.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 envelope, got %+v", env)
	}
	if b.callCount() != 0 {
		t.Error("backend must not be called")
	}
}

func TestAppointmentByID_Timeout(t *testing.T) {
	b := &stubBackend{fn: func(ctx context.Context, _ ports.BackendRequest) (domain.Envelope[json.RawMessage], error) {
		<-ctx.Done()
		return failEnv(0, "backend unavailable"), ctx.Err()
	}}
	svc := NewAppointmentService(b, nil, 20*time.Millisecond, discardLogger)

	env := svc.AppointmentByID(context.Background(), authenticatedSession(t, "u1", domain.RoleClient), "a1")

	if env.IsSuccess || env.Code != http.StatusInternalServerError || env.Message != domain.MessageTimeout {
		t.Errorf("expected timeout envelope, got %+v", env)
	}
	if env.Data != nil {
		t.Error("timeout must carry no data")
	}
}

func TestAppointmentByID_Success(t *testing.T) {
	b := &stubBackend{fn: func(_ context.Context, req ports.BackendRequest) (domain.Envelope[json.RawMessage], error) {
		if req.Path != pathAppointments+"/a1" {
			t.Errorf("unexpected path %s", req.Path)
		}
		return okEnv(t, domain.Appointment{ID: "a1", Status: domain.AppointmentPending}), nil
	}}

	env := newApptSvc(b).AppointmentByID(context.Background(), authenticatedSession(t, "u1", domain.RoleClient), "a1")
	if !env.IsSuccess || env.Data == nil || env.Data.ID != "a1" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestAppointmentByID_BackendFailureKeepsMessage(t *testing.T) {
	b := &stubBackend{fn: func(context.Context, ports.BackendRequest) (domain.Envelope[json.RawMessage], error) {
		return failEnv(http.StatusNotFound, "Appointment not found"), errStub
	}}

	env := newApptSvc(b).AppointmentByID(context.Background(), authenticatedSession(t, "u1", domain.RoleClient), "zz")
	if env.IsSuccess || env.Code != http.StatusNotFound || env.Message != "Appointment not found" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestBook_InvalidatesAppointments(t *testing.T) {
	b := &stubBackend{fn: func(_ context.Context, req ports.BackendRequest) (domain.Envelope[json.RawMessage], error) {
		if req.Method != http.MethodPost || req.Path != pathAppointments {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
		return okEnv(t, domain.Appointment{ID: "new", Status: domain.AppointmentPending}), nil
	}}
	inv := &stubInvalidator{}
	svc := NewAppointmentService(b, inv, 0, discardLogger)

	env := svc.Book(context.Background(), authenticatedSession(t, "u1", domain.RoleClient), domain.BookAppointment{ConsultantID: "c1", ScheduleID: "s1"})
	if !env.IsSuccess || env.Data.ID != "new" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if len(inv.prefixes) != 1 || inv.prefixes[0] != pathAppointments {
		t.Errorf("expected invalidation of %s, got %v", pathAppointments, inv.prefixes)
	}
}

func TestBookContinuation(t *testing.T) {
	b := &stubBackend{fn: func(_ context.Context, req ports.BackendRequest) (domain.Envelope[json.RawMessage], error) {
		in, ok := req.Body.(domain.BookAppointment)
		if !ok || in.ScheduleID != "s9" {
			t.Errorf("unexpected body %#v", req.Body)
		}
		return okEnv(t, domain.Appointment{ID: "resumed"}), nil
	}}
	fn := newApptSvc(b).BookContinuation()

	out, err := fn(context.Background(), authenticatedSession(t, "u1", domain.RoleClient), json.RawMessage(`{"consultantId":"c1","scheduleId":"s9"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env := out.(domain.Envelope[*domain.Appointment]); env.Data.ID != "resumed" {
		t.Errorf("unexpected result %+v", env)
	}

	if _, err := fn(context.Background(), authenticatedSession(t, "u1", domain.RoleClient), json.RawMessage(`nope`)); err == nil {
		t.Error("expected decode error")
	}
}
