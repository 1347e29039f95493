package domain

import (
	"errors"
	"time"
)

// SessionState is the lifecycle state of a browser context's session.
type SessionState string

const (
	StateAnonymous      SessionState = "anonymous"
	StateAuthenticating SessionState = "authenticating"
	StateAuthenticated  SessionState = "authenticated"
	StateExpired        SessionState = "expired"
)

// validTransitions defines the allowed session state machine transitions.
// Authenticated → Authenticated is a token refresh; Anonymous →
// Authenticated is a restore from a persisted cookie, and Anonymous →
// Expired loads a persisted cookie that is unreadable or past its expiry.
var validTransitions = map[SessionState][]SessionState{
	StateAnonymous:      {StateAuthenticating, StateAuthenticated, StateExpired},
	StateAuthenticating: {StateAuthenticated, StateAnonymous},
	StateAuthenticated:  {StateAnonymous, StateExpired, StateAuthenticated},
	StateExpired:        {StateAnonymous},
}

var (
	ErrInvalidTransition    = errors.New("invalid session transition")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrLoginInProgress      = errors.New("login already in progress")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("access forbidden")
	ErrTokenUnreadable      = errors.New("token unreadable")
	ErrNoRefreshToken       = errors.New("no refresh token")
	ErrUnknownContinuation  = errors.New("unknown continuation action")
	ErrNotFound             = errors.New("resource not found")
)

// CanTransitionTo reports whether a transition from the current state to next is valid.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is the single owned session value of a browser context.
type Session struct {
	State            SessionState `json:"state"`
	User             *User        `json:"user,omitempty"`
	AccessToken      string       `json:"-"`
	RefreshToken     string       `json:"-"`
	AccessExpiresAt  time.Time    `json:"accessExpiresAt,omitempty"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt,omitempty"`
	RememberMe       bool         `json:"rememberMe"`
}

// IsAuthenticated is true iff the session holds a non-expired access token.
func (s Session) IsAuthenticated(now time.Time) bool {
	if s.State != StateAuthenticated || s.AccessToken == "" {
		return false
	}
	return s.AccessExpiresAt.IsZero() || s.AccessExpiresAt.After(now)
}

// UserID returns the caller's id or "" for anonymous sessions.
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Role returns the caller's role; anonymous sessions report "".
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Clone returns a copy that shares no pointers with s.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// TokenPair is what the backend hands back on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
