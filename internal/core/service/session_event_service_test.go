package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

type stubEventRepo struct {
	insertErr error
	inserted  []*domain.SessionEvent
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.SessionEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

type stubQueue struct {
	events []domain.SessionEvent
}

func (q *stubQueue) Enqueue(e domain.SessionEvent) { q.events = append(q.events, e) }

func TestSessionEventService_Process(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewSessionEventService(repo, discardLogger)

	ev := domain.SessionEvent{Type: domain.EventLogin, ContextID: "ctx-1", UserID: "u1", At: time.Now()}
	if err := svc.Process(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].UserID != "u1" {
		t.Errorf("event not stored: %+v", repo.inserted)
	}
}

func TestSessionEventService_Process_Errors(t *testing.T) {
	repoErr := errors.New("mongo down")
	svc := NewSessionEventService(&stubEventRepo{insertErr: repoErr}, discardLogger)

	if err := svc.Process(context.Background(), domain.SessionEvent{Type: domain.EventLogout, ContextID: "ctx-1"}); !errors.Is(err, repoErr) {
		t.Errorf("expected wrapped repo error, got %v", err)
	}
	if err := svc.Process(context.Background(), domain.SessionEvent{Type: domain.EventLogout}); err == nil {
		t.Error("expected error for a missing context id")
	}
}

func TestAuditSubscriber_SkipsRestores(t *testing.T) {
	q := &stubQueue{}
	store := newTestStore(newMemJar(map[string]string{DefaultAccessCookie: userToken(t, "u1", domain.RoleClient)}))
	store.Subscribe(AuditSubscriber(q))

	store.SyncAuthState(context.Background())
	store.Logout(context.Background())

	if len(q.events) != 1 || q.events[0].Type != domain.EventLogout {
		t.Errorf("expected only the logout to be audited, got %+v", q.events)
	}
	if q.events[0].UserID != "u1" || q.events[0].ContextID != "ctx-1" {
		t.Errorf("audit event missing identity: %+v", q.events[0])
	}
}

func TestAuthContextFactory_New(t *testing.T) {
	q := &stubQueue{}
	var calls int
	f := NewAuthContextFactory(NewCookiePolicy(CookieConfig{}), NewTokenDecoder(testSecret), newMemPending(), countingRegistry(&calls), discardLogger, AuditSubscriber(q))

	jar := newMemJar(map[string]string{DefaultAccessCookie: userToken(t, "u1", domain.RoleAdmin)})
	ac := f.New(context.Background(), "ctx-9", jar, true)

	if !ac.Store.IsAuthenticated() || ac.Store.ContextID() != "ctx-9" {
		t.Fatalf("expected synced store, got %+v", ac.Store.Snapshot())
	}
	ac.Store.Logout(context.Background())
	if c := jar.last(DefaultAccessCookie); c == nil || !c.Secure {
		t.Errorf("https request must write Secure cookies: %+v", c)
	}
	if len(q.events) != 1 {
		t.Errorf("expected subscriber attached, got %d events", len(q.events))
	}
}
