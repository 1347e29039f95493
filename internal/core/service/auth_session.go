package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
	"github.com/heartspace/web-gateway/internal/pkg/metrics"
)

const (
	pathLogin    = "/api/auth/login"
	pathRegister = "/api/auth/register"
	pathLogout   = "/api/auth/logout"
	pathRefresh  = "/api/auth/refresh-token"
)

// ToastKind is the severity of a user-facing notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a notification the browser shows after an auth operation.
type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// AuthResult is the outcome of a login, registration, logout or refresh.
type AuthResult struct {
	Success  bool         `json:"success"`
	Redirect string       `json:"redirect,omitempty"`
	User     *domain.User `json:"user,omitempty"`
	Message  string       `json:"message,omitempty"`
	Toast    *Toast       `json:"toast,omitempty"`
}

// authPayload is the login/refresh data. The backend has used both
// "token" and "accessToken" for the access token.
type authPayload struct {
	Token        string       `json:"token"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *domain.User `json:"user"`
}

func (p authPayload) pair() domain.TokenPair {
	access := p.AccessToken
	if access == "" {
		access = p.Token
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: p.RefreshToken}
}

// SessionService orchestrates the auth calls against the backend and
// drives the per-context AuthStore.
type SessionService struct {
	backend ports.Backend
	tokens  *TokenDecoder
	log     zerolog.Logger
}

func NewSessionService(backend ports.Backend, tokens *TokenDecoder, log zerolog.Logger) *SessionService {
	return &SessionService{backend: backend, tokens: tokens, log: log}
}

// Login authenticates creds. A backend rejection or transport failure is
// not an error: the result carries Success=false and the message, and no
// cookie is written. An error is returned only when the store refuses to
// start a login (already authenticated or a login in flight).
func (s *SessionService) Login(ctx context.Context, store *AuthStore, creds domain.Credentials) (*AuthResult, error) {
	if err := store.BeginLogin(); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	env, err := s.backend.Do(ctx, ports.BackendRequest{
		Method: http.MethodPost,
		Path:   pathLogin,
		Body:   map[string]string{"email": creds.Email, "password": creds.Password},
	})
	if err != nil || !env.IsSuccess {
		result := "rejected"
		if err != nil && env.Code == 0 {
			result = "error"
		}
		metrics.LoginsTotal.WithLabelValues(result).Inc()
		s.log.Info().Err(err).Str("context_id", store.ContextID()).Str("result", result).Msg("login failed")
		store.FailLogin(ctx)
		return failed(loginMessage(env.Message)), nil
	}

	payload, err := s.decodeAuthPayload(env.Data)
	pair := payload.pair()
	if err != nil || pair.AccessToken == "" {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		s.log.Warn().Err(err).Str("context_id", store.ContextID()).Msg("login response carried no token")
		store.FailLogin(ctx)
		return failed("Login failed: the server did not return a session"), nil
	}

	user := s.resolveUser(ctx, payload.User, pair.AccessToken)
	if err := store.Login(ctx, user, pair, creds.RememberMe); err != nil {
		store.FailLogin(ctx)
		return nil, fmt.Errorf("login: %w", err)
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	sess := store.Snapshot()
	msg := env.Message
	if msg == "" {
		msg = "Signed in successfully"
	}
	return &AuthResult{
		Success:  true,
		Redirect: sess.Role().RedirectPath(),
		User:     sess.User,
		Message:  msg,
		Toast:    &Toast{Kind: ToastSuccess, Message: msg},
	}, nil
}

// Register creates an account. It never logs the user in; on success the
// browser is sent to the login page.
func (s *SessionService) Register(ctx context.Context, in domain.Registration) *AuthResult {
	env, err := s.backend.Do(ctx, ports.BackendRequest{Method: http.MethodPost, Path: pathRegister, Body: in})
	if err != nil || !env.IsSuccess {
		msg := env.Message
		if msg == "" {
			msg = "Registration failed"
		}
		return failed(msg)
	}
	msg := env.Message
	if msg == "" {
		msg = "Account created, please sign in"
	}
	return &AuthResult{
		Success:  true,
		Redirect: domain.RedirectLogin,
		Message:  msg,
		Toast:    &Toast{Kind: ToastSuccess, Message: msg},
	}
}

// Logout ends the session. The backend is told on a best-effort basis;
// the local session is cleared regardless and the caller always lands on
// the login page.
func (s *SessionService) Logout(ctx context.Context, store *AuthStore) *AuthResult {
	sess := store.Snapshot()
	if sess.AccessToken != "" {
		_, err := s.backend.Do(ctx, ports.BackendRequest{
			Method: http.MethodPost,
			Path:   pathLogout,
			Token:  sess.AccessToken,
			Body:   map[string]string{"refreshToken": sess.RefreshToken},
		})
		if err != nil {
			s.log.Debug().Err(err).Str("context_id", store.ContextID()).Msg("backend logout failed")
		}
	}
	store.Logout(ctx)
	return &AuthResult{Success: true, Redirect: domain.RedirectLogin}
}

// Refresh exchanges the refresh token for a new access token, keeping the
// remember-me retention. A rejected refresh expires the session.
func (s *SessionService) Refresh(ctx context.Context, store *AuthStore) (*AuthResult, error) {
	sess := store.Snapshot()
	if sess.RefreshToken == "" {
		return nil, fmt.Errorf("refresh: %w", domain.ErrNoRefreshToken)
	}

	env, err := s.backend.Do(ctx, ports.BackendRequest{
		Method: http.MethodPost,
		Path:   pathRefresh,
		Body:   map[string]string{"accessToken": sess.AccessToken, "refreshToken": sess.RefreshToken},
	})
	var payload authPayload
	if err == nil && env.IsSuccess {
		payload, err = s.decodeAuthPayload(env.Data)
	}
	pair := payload.pair()
	if err != nil || !env.IsSuccess || pair.AccessToken == "" {
		s.log.Info().Err(err).Str("context_id", store.ContextID()).Msg("token refresh rejected")
		store.Expire(ctx)
		if env.Code != 0 && env.Code != http.StatusBadGateway {
			store.ForgetRefreshToken()
		}
		return failed("Your session has expired, please sign in again"), nil
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = sess.RefreshToken
	}

	user := payload.User
	if user == nil {
		user = sess.User
	}
	if user == nil {
		user = s.resolveUser(ctx, nil, pair.AccessToken)
	}
	if err := store.Refreshed(ctx, pair, user); err != nil {
		return nil, err
	}
	snap := store.Snapshot()
	return &AuthResult{Success: true, User: snap.User}, nil
}

// decodeAuthPayload accepts an object payload or a bare token string.
func (s *SessionService) decodeAuthPayload(raw json.RawMessage) (authPayload, error) {
	var p authPayload
	if len(raw) > 0 && raw[0] == '"' {
		var token string
		if err := json.Unmarshal(raw, &token); err != nil {
			return p, err
		}
		inner := unquote(raw)
		if len(inner) == 0 || inner[0] != '{' {
			p.Token = token
			return p, nil
		}
		raw = inner
	}
	p, err := decodeData[authPayload](raw)
	if err != nil {
		return p, fmt.Errorf("decode auth payload: %w", err)
	}
	return p, nil
}

// resolveUser derives the caller's identity: the login payload first, then
// the token claims, then the profile endpoint.
func (s *SessionService) resolveUser(ctx context.Context, fromPayload *domain.User, token string) *domain.User {
	claims, claimsErr := s.tokens.Decode(token)

	user := fromPayload
	if user == nil && claimsErr == nil && claims.UserID != "" {
		user = claims.User()
	}
	if user == nil || user.ID == "" {
		env, _ := s.backend.Do(ctx, ports.BackendRequest{Method: http.MethodGet, Path: pathProfile, Token: token})
		if profile := typed(env, one[domain.User]); profile.IsSuccess && profile.Data != nil {
			user = profile.Data
		}
	}
	if user == nil {
		user = &domain.User{Role: domain.RoleClient}
	}

	if user.Role == "" {
		user.Role = domain.RoleClient
		if claimsErr == nil && claims.HasRole {
			user.Role = claims.Role
		}
	} else {
		user.Role = domain.ParseRole(string(user.Role))
	}
	return user
}

func loginMessage(msg string) string {
	if msg == "" {
		return "Invalid email or password"
	}
	return msg
}

func failed(msg string) *AuthResult {
	return &AuthResult{Success: false, Message: msg, Toast: &Toast{Kind: ToastError, Message: msg}}
}
