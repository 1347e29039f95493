package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
	"github.com/heartspace/web-gateway/internal/pkg/metrics"
)

// ActionBookAppointment resumes a booking that was interrupted by the
// login dialog.
const ActionBookAppointment = "book_appointment"

// ContinuationFunc is the work resumed after a successful login.
type ContinuationFunc func(ctx context.Context, sess domain.Session, payload json.RawMessage) (any, error)

// Continuation names a registered action and its arguments.
type Continuation struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ContinuationRegistry maps action names to the functions that resume
// them. Pending continuations are stored by name so they survive across
// requests.
type ContinuationRegistry struct {
	mu      sync.RWMutex
	actions map[string]ContinuationFunc
}

func NewContinuationRegistry() *ContinuationRegistry {
	return &ContinuationRegistry{actions: make(map[string]ContinuationFunc)}
}

// Register binds action to fn, replacing any earlier binding.
func (r *ContinuationRegistry) Register(action string, fn ContinuationFunc) {
	r.mu.Lock()
	r.actions[action] = fn
	r.mu.Unlock()
}

func (r *ContinuationRegistry) Lookup(action string) (ContinuationFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[action]
	return fn, ok
}

// Actions lists the registered action names in sorted order.
func (r *ContinuationRegistry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.actions))
	for name := range r.actions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ResumeResult is the outcome of a continuation resumed by a login.
type ResumeResult struct {
	Action string `json:"action"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// AuthGate is the login-dialog gate of one browser context. While the
// dialog is open at most one continuation is pending; it is resumed
// exactly once on the next login, or discarded on close or logout.
type AuthGate struct {
	store    *AuthStore
	pending  ports.PendingAuthStore
	registry *ContinuationRegistry
	log      zerolog.Logger

	mu      sync.Mutex
	resumed *ResumeResult
}

// NewAuthGate returns a gate bound to store's transitions.
func NewAuthGate(store *AuthStore, pending ports.PendingAuthStore, registry *ContinuationRegistry, log zerolog.Logger) *AuthGate {
	g := &AuthGate{store: store, pending: pending, registry: registry, log: log}
	store.Subscribe(g.onSessionEvent)
	return g
}

// RequireAuth returns true when the session is already authenticated.
// Otherwise it opens the dialog, records c as the pending continuation
// (c may be nil) and returns false. A continuation already pending is
// replaced.
func (g *AuthGate) RequireAuth(ctx context.Context, c *Continuation) (bool, error) {
	if g.store.IsAuthenticated() {
		return true, nil
	}

	p := domain.PendingAuth{CreatedAt: time.Now().UTC()}
	if c != nil && c.Action != "" {
		if _, ok := g.registry.Lookup(c.Action); !ok {
			return false, fmt.Errorf("require auth %q: %w", c.Action, domain.ErrUnknownContinuation)
		}
		p.Action = c.Action
		p.Payload = c.Payload
	}

	replaced, err := g.pending.Put(ctx, g.store.ContextID(), p)
	if err != nil {
		return false, fmt.Errorf("require auth: %w", err)
	}
	if replaced {
		metrics.ContinuationsTotal.WithLabelValues(p.Action, "replaced").Inc()
		g.log.Info().
			Str("context_id", g.store.ContextID()).
			Str("action", p.Action).
			Msg("pending continuation replaced")
	}
	return false, nil
}

// Close dismisses the dialog without running the pending continuation.
func (g *AuthGate) Close(ctx context.Context) error {
	p, err := g.pending.Take(ctx, g.store.ContextID())
	if err != nil {
		return fmt.Errorf("close auth dialog: %w", err)
	}
	if p != nil && p.Action != "" {
		metrics.ContinuationsTotal.WithLabelValues(p.Action, "cancelled").Inc()
	}
	return nil
}

// Pending returns the open dialog's record, or nil when it is closed.
func (g *AuthGate) Pending(ctx context.Context) (*domain.PendingAuth, error) {
	p, err := g.pending.Peek(ctx, g.store.ContextID())
	if err != nil {
		return nil, fmt.Errorf("peek auth dialog: %w", err)
	}
	return p, nil
}

// IsOpen reports whether the login dialog is open.
func (g *AuthGate) IsOpen(ctx context.Context) (bool, error) {
	p, err := g.Pending(ctx)
	return p != nil, err
}

// Resumed returns the outcome of the continuation run by the last login
// on this gate, or nil.
func (g *AuthGate) Resumed() *ResumeResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resumed
}

func (g *AuthGate) onSessionEvent(ctx context.Context, ev domain.SessionEvent) {
	switch ev.Type {
	case domain.EventLogin:
		g.resume(ctx)
	case domain.EventLogout:
		if err := g.pending.Clear(ctx, g.store.ContextID()); err != nil {
			g.log.Warn().Err(err).Str("context_id", g.store.ContextID()).Msg("failed to clear pending continuation on logout")
		}
	}
}

// resume takes the pending record atomically, so a concurrent login on
// another request of the same context cannot run it a second time.
func (g *AuthGate) resume(ctx context.Context) {
	p, err := g.pending.Take(ctx, g.store.ContextID())
	if err != nil {
		g.log.Error().Err(err).Str("context_id", g.store.ContextID()).Msg("failed to take pending continuation")
		return
	}
	if p == nil || p.Action == "" {
		return
	}

	out := &ResumeResult{Action: p.Action}
	fn, ok := g.registry.Lookup(p.Action)
	if !ok {
		out.Error = domain.ErrUnknownContinuation.Error()
		metrics.ContinuationsTotal.WithLabelValues(p.Action, "failed").Inc()
	} else if result, err := fn(ctx, g.store.Snapshot(), p.Payload); err != nil {
		out.Error = err.Error()
		metrics.ContinuationsTotal.WithLabelValues(p.Action, "failed").Inc()
		g.log.Warn().Err(err).Str("context_id", g.store.ContextID()).Str("action", p.Action).Msg("continuation failed")
	} else {
		out.Result = result
		metrics.ContinuationsTotal.WithLabelValues(p.Action, "resumed").Inc()
		g.log.Info().Str("context_id", g.store.ContextID()).Str("action", p.Action).Msg("continuation resumed")
	}

	g.mu.Lock()
	g.resumed = out
	g.mu.Unlock()
}
