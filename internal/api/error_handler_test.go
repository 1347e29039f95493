package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/api/handler"
	"github.com/heartspace/web-gateway/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantErrors int
	}{
		{"unauthenticated", fmt.Errorf("GET /x: %w", domain.ErrUnauthenticated), http.StatusUnauthorized, 0},
		{"no refresh token", fmt.Errorf("refresh: %w", domain.ErrNoRefreshToken), http.StatusUnauthorized, 0},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, 0},
		{"not found", domain.ErrNotFound, http.StatusNotFound, 0},
		{"already signed in", fmt.Errorf("begin login: %w", domain.ErrAlreadyAuthenticated), http.StatusConflict, 0},
		{"login in progress", domain.ErrLoginInProgress, http.StatusConflict, 0},
		{"unknown continuation", domain.ErrUnknownContinuation, http.StatusBadRequest, 0},
		{"validation", &handler.ValidationError{Fields: []string{"email is required", "password is required"}}, http.StatusUnprocessableEntity, 2},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, 0},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var env domain.Envelope[any]
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if env.IsSuccess || env.Code != tt.wantStatus {
				t.Fatalf("unexpected envelope: %+v", env)
			}
			if len(env.Errors) != tt.wantErrors {
				t.Fatalf("expected %d field errors, got %v", tt.wantErrors, env.Errors)
			}
		})
	}
}

func TestHTTPErrorHandler_UnexpectedErrorHidesCause(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("mongo: connection string leaked"), c)

	var env domain.Envelope[any]
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Message != "internal server error" {
		t.Fatalf("internal cause leaked: %q", env.Message)
	}
}
