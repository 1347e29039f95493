package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/ports"
)

func TestClient_Do_SendsTokenQueryAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tkn" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/api/appointments" || r.URL.Query().Get("clientId") != "u-1" {
			t.Errorf("unexpected url %s", r.URL)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["notes"] != "hi" {
			t.Errorf("unexpected body %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"a-1"},"isSuccess":true}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"}, zerolog.Nop())
	env, err := c.Do(context.Background(), ports.BackendRequest{
		Method: http.MethodPost,
		Path:   "/api/appointments",
		Query:  url.Values{"clientId": {"u-1"}},
		Body:   map[string]string{"notes": "hi"},
		Token:  "tkn",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.IsSuccess || string(env.Data) != `{"id":"a-1"}` {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestClient_Do_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, zerolog.Nop())
	env, err := c.Do(context.Background(), ports.BackendRequest{Path: "/api/appointments/my-appointments"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if StatusCode(err) != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", StatusCode(err))
	}
	if env.IsSuccess || env.Code != http.StatusMethodNotAllowed {
		t.Fatalf("envelope must still describe the failure: %+v", env)
	}
}

func TestClient_Do_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: base, Timeout: time.Second}, zerolog.Nop())
	env, err := c.Do(context.Background(), ports.BackendRequest{Path: "/api/consultants"})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if env.IsSuccess || env.Code != 0 {
		t.Fatalf("transport failure must carry code 0: %+v", env)
	}
	if StatusCode(err) != 0 {
		t.Fatalf("transport failure is not an APIError")
	}
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(Config{BaseURL: srv.URL}, zerolog.Nop())
	if _, err := c.Do(ctx, ports.BackendRequest{Path: "/slow"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
