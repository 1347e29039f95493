package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/api/middleware"
	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/service"
)

const (
	testSecret  = "handler-secret"
	testContext = "6f1c1d7e-6a43-4c1e-9d57-1f0b7c1f2a11"
)

// ---------------------------------------------------------------------------
// Pending store
// ---------------------------------------------------------------------------

type memPending struct {
	mu      sync.Mutex
	records map[string]domain.PendingAuth
}

func newMemPending() *memPending {
	return &memPending{records: make(map[string]domain.PendingAuth)}
}

func (m *memPending) Put(_ context.Context, id string, p domain.PendingAuth) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, replaced := m.records[id]
	m.records[id] = p
	return replaced, nil
}

func (m *memPending) Take(_ context.Context, id string) (*domain.PendingAuth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	delete(m.records, id)
	return &p, nil
}

func (m *memPending) Peek(_ context.Context, id string) (*domain.PendingAuth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memPending) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// ---------------------------------------------------------------------------
// Request harness
// ---------------------------------------------------------------------------

type harness struct {
	e        *echo.Echo
	pending  *memPending
	registry *service.ContinuationRegistry
	factory  *service.AuthContextFactory
}

func newHarness() *harness {
	e := echo.New()
	e.Validator = NewValidator()
	h := &harness{e: e, pending: newMemPending(), registry: service.NewContinuationRegistry()}
	h.factory = service.NewAuthContextFactory(
		service.NewCookiePolicy(service.CookieConfig{}),
		service.NewTokenDecoder(testSecret),
		h.pending,
		h.registry,
		zerolog.Nop(),
	)
	return h
}

// serve runs fn behind the Session middleware for a request from the
// test browser context. token, when set, is sent as the access cookie.
func (h *harness) serve(t *testing.T, req *http.Request, token string, fn echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: service.DefaultContextCookie, Value: testContext})
	if token != "" {
		req.AddCookie(&http.Cookie{Name: service.DefaultAccessCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	c := h.e.NewContext(req, rec)
	return rec, middleware.Session(h.factory)(fn)(c)
}

func jsonRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req
}

func signToken(t *testing.T, sub string, role domain.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@heartspace.test",
		"role":  string(role),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v (%s)", err, rec.Body.String())
	}
	return out
}
