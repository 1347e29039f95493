package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/ports"
)

// AuthContext is the auth state of one request: the browser context's
// store and its login-dialog gate.
type AuthContext struct {
	Store *AuthStore
	Gate  *AuthGate
}

// AuthContextFactory builds an AuthContext per request.
type AuthContextFactory struct {
	cookies     CookiePolicy
	tokens      *TokenDecoder
	pending     ports.PendingAuthStore
	registry    *ContinuationRegistry
	subscribers []Subscriber
	log         zerolog.Logger
}

// NewAuthContextFactory returns a factory. subscribers are attached to
// every store it builds, after the gate.
func NewAuthContextFactory(
	cookies CookiePolicy,
	tokens *TokenDecoder,
	pending ports.PendingAuthStore,
	registry *ContinuationRegistry,
	log zerolog.Logger,
	subscribers ...Subscriber,
) *AuthContextFactory {
	return &AuthContextFactory{
		cookies:     cookies,
		tokens:      tokens,
		pending:     pending,
		registry:    registry,
		subscribers: subscribers,
		log:         log,
	}
}

// Cookies returns the policy for a request, Secure when it arrived over HTTPS.
func (f *AuthContextFactory) Cookies(https bool) CookiePolicy {
	return f.cookies.ForRequest(https)
}

// New builds the store and gate of contextID and syncs the store with
// the request's cookies.
func (f *AuthContextFactory) New(ctx context.Context, contextID string, jar ports.CookieJar, https bool) *AuthContext {
	store := NewAuthStore(contextID, jar, f.Cookies(https), f.tokens)
	gate := NewAuthGate(store, f.pending, f.registry, f.log)
	for _, sub := range f.subscribers {
		store.Subscribe(sub)
	}
	store.SyncAuthState(ctx)
	return &AuthContext{Store: store, Gate: gate}
}
