package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

const testSecret = "test-secret"

// memJar is an in-memory cookie jar. Reads observe earlier writes.
type memJar struct {
	values map[string]string
	set    []*http.Cookie
}

func newMemJar(initial map[string]string) *memJar {
	j := &memJar{values: make(map[string]string)}
	for k, v := range initial {
		j.values[k] = v
	}
	return j
}

func (j *memJar) Cookie(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

func (j *memJar) SetCookie(c *http.Cookie) {
	j.set = append(j.set, c)
	if c.MaxAge < 0 {
		delete(j.values, c.Name)
		return
	}
	j.values[c.Name] = c.Value
}

// last returns the last cookie written under name, or nil.
func (j *memJar) last(name string) *http.Cookie {
	for i := len(j.set) - 1; i >= 0; i-- {
		if j.set[i].Name == name {
			return j.set[i]
		}
	}
	return nil
}

// stubBackend answers requests through fn and records every call.
type stubBackend struct {
	mu    sync.Mutex
	calls []ports.BackendRequest
	fn    func(ctx context.Context, req ports.BackendRequest) (domain.Envelope[json.RawMessage], error)
}

func (b *stubBackend) Do(ctx context.Context, req ports.BackendRequest) (domain.Envelope[json.RawMessage], error) {
	b.mu.Lock()
	b.calls = append(b.calls, req)
	b.mu.Unlock()
	if b.fn == nil {
		return failEnv(http.StatusNotFound, "not found"), errStub
	}
	return b.fn(ctx, req)
}

func (b *stubBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *stubBackend) called(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c.Path == path {
			return true
		}
	}
	return false
}

type stubError string

func (e stubError) Error() string { return string(e) }

const errStub = stubError("stub backend error")

// memPending is an in-memory PendingAuthStore.
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

type stubInvalidator struct {
	prefixes []string
}

func (s *stubInvalidator) Invalidate(_ context.Context, _ string, prefix string) error {
	s.prefixes = append(s.prefixes, prefix)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func okEnv(t *testing.T, data any) domain.Envelope[json.RawMessage] {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal stub data: %v", err)
	}
	return domain.Envelope[json.RawMessage]{Data: raw, IsSuccess: true, Code: http.StatusOK}
}

func failEnv(code int, msg string) domain.Envelope[json.RawMessage] {
	return domain.Envelope[json.RawMessage]{IsSuccess: false, Code: code, Message: msg}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func userToken(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{"sub": id, "role": string(role), "email": id + "@heartspace.test"})
}

func newTestStore(jar *memJar) *AuthStore {
	return NewAuthStore("ctx-1", jar, NewCookiePolicy(CookieConfig{}), NewTokenDecoder(testSecret))
}

// authenticatedSession builds a session the way SyncAuthState would restore it.
func authenticatedSession(t *testing.T, id string, role domain.Role) domain.Session {
	t.Helper()
	return domain.Session{
		State:           domain.StateAuthenticated,
		User:            &domain.User{ID: id, Role: role},
		AccessToken:     userToken(t, id, role),
		AccessExpiresAt: time.Now().Add(time.Hour),
	}
}

// recorder collects published session events.
type recorder struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (r *recorder) subscriber() Subscriber {
	return func(_ context.Context, ev domain.SessionEvent) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	}
}

func (r *recorder) types() []domain.SessionEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SessionEventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// signTokenNoID signs a token that carries no user id claim.
func signTokenNoID(t *testing.T) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{"email": "anon@heartspace.test"})
}
