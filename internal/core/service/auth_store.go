package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

// Subscriber observes session transitions. Subscribers run synchronously
// on the goroutine that caused the transition, after the store lock has
// been released, so they may call back into the store.
type Subscriber func(ctx context.Context, event domain.SessionEvent)

// AuthStore owns the session of one browser context. The session is
// rebuilt from cookies at the start of each request and every change is
// written back through the cookie jar.
type AuthStore struct {
	mu        sync.Mutex
	contextID string
	session   domain.Session
	jar       ports.CookieJar
	cookies   CookiePolicy
	tokens    *TokenDecoder
	subs      []Subscriber
	now       func() time.Time
}

// NewAuthStore returns an anonymous store for contextID.
func NewAuthStore(contextID string, jar ports.CookieJar, cookies CookiePolicy, tokens *TokenDecoder) *AuthStore {
	return &AuthStore{
		contextID: contextID,
		session:   domain.Session{State: domain.StateAnonymous},
		jar:       jar,
		cookies:   cookies,
		tokens:    tokens,
		now:       time.Now,
	}
}

// ContextID returns the browser context the store belongs to.
func (s *AuthStore) ContextID() string { return s.contextID }

// Snapshot returns a copy of the current session.
func (s *AuthStore) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// IsAuthenticated reports whether the session holds a live access token.
func (s *AuthStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.IsAuthenticated(s.now())
}

// Subscribe registers fn for every subsequent transition.
func (s *AuthStore) Subscribe(fn Subscriber) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// BeginLogin moves an anonymous session to Authenticating.
func (s *AuthStore) BeginLogin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.session.State {
	case domain.StateAuthenticated:
		if s.session.IsAuthenticated(s.now()) {
			return fmt.Errorf("begin login: %w", domain.ErrAlreadyAuthenticated)
		}
	case domain.StateAuthenticating:
		return fmt.Errorf("begin login: %w", domain.ErrLoginInProgress)
	}
	if s.session.State != domain.StateAnonymous {
		s.resetLocked()
	}
	return s.transitionLocked(domain.StateAuthenticating)
}

// Login installs an authenticated session: cookies are written per the
// cookie policy and the login event is published. It accepts an
// Authenticating session, or an Anonymous one which passes through
// Authenticating implicitly.
func (s *AuthStore) Login(ctx context.Context, user *domain.User, pair domain.TokenPair, rememberMe bool) error {
	if pair.AccessToken == "" {
		return fmt.Errorf("login: %w", domain.ErrTokenUnreadable)
	}

	s.mu.Lock()
	if s.session.IsAuthenticated(s.now()) {
		s.mu.Unlock()
		return fmt.Errorf("login: %w", domain.ErrAlreadyAuthenticated)
	}
	if s.session.State != domain.StateAuthenticating {
		s.resetLocked()
	}
	if s.session.State == domain.StateAnonymous {
		if err := s.transitionLocked(domain.StateAuthenticating); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("login: %w", err)
		}
	}
	from := s.session.State
	if err := s.transitionLocked(domain.StateAuthenticated); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("login: %w", err)
	}
	s.session.RememberMe = rememberMe
	s.setTokenLocked(pair.AccessToken)
	if pair.RefreshToken != "" {
		s.setRefreshLocked(pair.RefreshToken)
	}
	s.jar.SetCookie(s.cookies.RememberCookie(rememberMe))
	if user != nil {
		u := *user
		s.session.User = &u
	}
	ev := s.eventLocked(domain.EventLogin, from)
	s.mu.Unlock()

	s.publish(ctx, ev)
	return nil
}

// FailLogin returns an Authenticating session to Anonymous. No cookie is
// written.
func (s *AuthStore) FailLogin(ctx context.Context) {
	s.mu.Lock()
	from := s.session.State
	if err := s.transitionLocked(domain.StateAnonymous); err != nil {
		s.mu.Unlock()
		return
	}
	ev := s.eventLocked(domain.EventLoginFailed, from)
	s.mu.Unlock()

	s.publish(ctx, ev)
}

// Logout clears the session and its cookies. It is idempotent and always
// publishes the logout event so that listeners can close any open dialog.
func (s *AuthStore) Logout(ctx context.Context) {
	s.mu.Lock()
	from := s.session.State
	user := s.session.User
	s.clearCookiesLocked()
	s.resetLocked()
	ev := s.eventLocked(domain.EventLogout, from)
	if user != nil {
		ev.UserID = user.ID
		ev.Role = user.Role
	}
	s.mu.Unlock()

	s.publish(ctx, ev)
}

// SetUser replaces the cached identity of an authenticated session.
func (s *AuthStore) SetUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.session.User = nil
		return
	}
	u := *user
	s.session.User = &u
}

// SetToken replaces the access token and rewrites its cookie with the
// retention of the current remember-me choice.
func (s *AuthStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTokenLocked(token)
}

// ForgetRefreshToken drops a refresh token the backend no longer honours.
func (s *AuthStore) ForgetRefreshToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.RefreshToken = ""
	s.session.RefreshExpiresAt = time.Time{}
	s.jar.SetCookie(s.cookies.Expire(s.cookies.RefreshName(), true))
}

// Refreshed installs a refreshed token pair. An Anonymous session is
// restored; an Authenticated one stays Authenticated.
func (s *AuthStore) Refreshed(ctx context.Context, pair domain.TokenPair, user *domain.User) error {
	s.mu.Lock()
	from := s.session.State
	if from == domain.StateExpired {
		s.resetLocked()
		from = domain.StateAnonymous
	}
	if err := s.transitionLocked(domain.StateAuthenticated); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("refresh: %w", err)
	}
	s.setTokenLocked(pair.AccessToken)
	if pair.RefreshToken != "" {
		s.setRefreshLocked(pair.RefreshToken)
	}
	if user != nil {
		u := *user
		s.session.User = &u
	}
	ev := s.eventLocked(domain.EventRefreshed, from)
	s.mu.Unlock()

	s.publish(ctx, ev)
	return nil
}

// Expire passively ends the session: Authenticated → Expired → Anonymous.
// The access cookie is cleared; the refresh cookie is kept so the caller
// can still attempt a refresh.
func (s *AuthStore) Expire(ctx context.Context) {
	s.mu.Lock()
	if s.session.State != domain.StateAuthenticated && s.session.State != domain.StateExpired {
		s.mu.Unlock()
		return
	}
	ev := s.expireLocked()
	s.mu.Unlock()

	s.publish(ctx, ev)
}

// SyncAuthState re-validates the persisted cookies and reconciles the
// session with them:
//   - no access cookie: an Authenticated session expires, otherwise nothing changes;
//   - unreadable or expired token: the session is loaded as Expired and
//     resets to Anonymous, clearing the access cookie;
//   - valid token on an Anonymous session: the session is restored.
func (s *AuthStore) SyncAuthState(ctx context.Context) domain.Session {
	s.mu.Lock()
	var events []domain.SessionEvent

	if v, ok := s.jar.Cookie(s.cookies.RememberName()); ok {
		s.session.RememberMe = v == "1"
	}
	if v, ok := s.jar.Cookie(s.cookies.RefreshName()); ok && v != "" {
		s.session.RefreshToken = v
	}

	token, ok := s.jar.Cookie(s.cookies.AccessName())
	switch {
	case !ok || token == "":
		if s.session.State == domain.StateAuthenticated {
			events = append(events, s.expireLocked())
		}
	default:
		claims, err := s.tokens.Decode(token)
		if err != nil || (!claims.ExpiresAt.IsZero() && !claims.ExpiresAt.After(s.now())) {
			if s.session.State != domain.StateExpired {
				if err := s.transitionLocked(domain.StateExpired); err != nil {
					break
				}
			}
			events = append(events, s.expireLocked())
			break
		}
		if s.session.State == domain.StateAnonymous {
			if err := s.transitionLocked(domain.StateAuthenticated); err == nil {
				s.session.AccessToken = token
				s.session.AccessExpiresAt = claims.ExpiresAt
				s.session.User = claims.User()
				events = append(events, s.eventLocked(domain.EventRestored, domain.StateAnonymous))
			}
		}
	}
	snap := s.session.Clone()
	s.mu.Unlock()

	for _, ev := range events {
		s.publish(ctx, ev)
	}
	return snap
}

// expireLocked walks the session to Anonymous through Expired and returns
// the expiry event.
func (s *AuthStore) expireLocked() domain.SessionEvent {
	from := s.session.State
	user := s.session.User
	if s.session.State == domain.StateAuthenticated {
		_ = s.transitionLocked(domain.StateExpired)
	}
	s.jar.SetCookie(s.cookies.Expire(s.cookies.AccessName(), false))
	refresh, remember := s.session.RefreshToken, s.session.RememberMe
	if err := s.transitionLocked(domain.StateAnonymous); err == nil {
		s.resetLocked()
	}
	s.session.RefreshToken, s.session.RememberMe = refresh, remember

	ev := s.eventLocked(domain.EventExpired, from)
	if user != nil {
		ev.UserID = user.ID
		ev.Role = user.Role
	}
	return ev
}

func (s *AuthStore) setTokenLocked(token string) {
	s.session.AccessToken = token
	s.session.AccessExpiresAt = time.Time{}
	if claims, err := s.tokens.Decode(token); err == nil {
		s.session.AccessExpiresAt = claims.ExpiresAt
	}
	s.jar.SetCookie(s.cookies.AccessCookie(token, s.session.RememberMe))
}

func (s *AuthStore) setRefreshLocked(token string) {
	s.session.RefreshToken = token
	s.session.RefreshExpiresAt = s.now().Add(Retention(s.session.RememberMe))
	s.jar.SetCookie(s.cookies.RefreshCookie(token, s.session.RememberMe))
}

func (s *AuthStore) clearCookiesLocked() {
	s.jar.SetCookie(s.cookies.Expire(s.cookies.AccessName(), false))
	s.jar.SetCookie(s.cookies.Expire(s.cookies.RefreshName(), true))
	s.jar.SetCookie(s.cookies.Expire(s.cookies.RememberName(), true))
}

func (s *AuthStore) resetLocked() {
	s.session = domain.Session{State: domain.StateAnonymous}
}

func (s *AuthStore) transitionLocked(next domain.SessionState) error {
	if !s.session.State.CanTransitionTo(next) {
		return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, s.session.State, next)
	}
	s.session.State = next
	return nil
}

func (s *AuthStore) eventLocked(typ domain.SessionEventType, from domain.SessionState) domain.SessionEvent {
	return domain.SessionEvent{
		Type:      typ,
		ContextID: s.contextID,
		UserID:    s.session.UserID(),
		Role:      s.session.Role(),
		From:      from,
		To:        s.session.State,
		At:        s.now().UTC(),
	}
}

func (s *AuthStore) publish(ctx context.Context, ev domain.SessionEvent) {
	s.mu.Lock()
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ctx, ev)
	}
}
