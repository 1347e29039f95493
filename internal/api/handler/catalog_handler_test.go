package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

type stubCatalogService struct {
	consultantsFn func(ctx context.Context, sess domain.Session, f domain.ConsultantFilter) domain.Envelope[[]domain.Consultant]
	consultantFn  func(ctx context.Context, sess domain.Session, id string) domain.Envelope[*domain.Consultant]
	schedulesFn   func(ctx context.Context, sess domain.Session, consultantID string, date time.Time) domain.Envelope[[]domain.ScheduleSlot]
	profileFn     func(ctx context.Context, sess domain.Session) domain.Envelope[*domain.User]
}

func (s *stubCatalogService) Consultants(ctx context.Context, sess domain.Session, f domain.ConsultantFilter) domain.Envelope[[]domain.Consultant] {
	return s.consultantsFn(ctx, sess, f)
}

func (s *stubCatalogService) ConsultantByID(ctx context.Context, sess domain.Session, id string) domain.Envelope[*domain.Consultant] {
	return s.consultantFn(ctx, sess, id)
}

func (s *stubCatalogService) Schedules(ctx context.Context, sess domain.Session, consultantID string, date time.Time) domain.Envelope[[]domain.ScheduleSlot] {
	return s.schedulesFn(ctx, sess, consultantID, date)
}

func (s *stubCatalogService) Profile(ctx context.Context, sess domain.Session) domain.Envelope[*domain.User] {
	return s.profileFn(ctx, sess)
}

func TestCatalogHandler_Consultants_Filter(t *testing.T) {
	h := newHarness()
	stub := &stubCatalogService{
		consultantsFn: func(ctx context.Context, sess domain.Session, f domain.ConsultantFilter) domain.Envelope[[]domain.Consultant] {
			if f.Search != "anxiety" || f.Specialty != "CBT" || f.Page != 2 || f.PageSize != 10 {
				t.Fatalf("unexpected filter: %+v", f)
			}
			return domain.Ok([]domain.Consultant{{ID: "c-1", FullName: "Dr. Vega"}})
		},
	}
	handler := NewCatalogHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/consultants?search=anxiety&specialty=CBT&page=2&pageSize=10", nil)
	rec, err := h.serve(t, req, "", handler.Consultants)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCatalogHandler_Consultants_PageSizeTooLarge(t *testing.T) {
	h := newHarness()
	handler := NewCatalogHandler(&stubCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/consultants?pageSize=500", nil)
	_, err := h.serve(t, req, "", handler.Consultants)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCatalogHandler_Consultant_NotFound(t *testing.T) {
	h := newHarness()
	stub := &stubCatalogService{
		consultantFn: func(ctx context.Context, sess domain.Session, id string) domain.Envelope[*domain.Consultant] {
			return domain.Fail[*domain.Consultant](http.StatusNotFound, "Resource not found")
		},
	}
	handler := NewCatalogHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/consultants/missing", nil)
	rec := httptest.NewRecorder()
	c := h.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := handler.Consultant(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCatalogHandler_Schedules(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantDay string
		wantErr bool
	}{
		{"explicit date", "?date=2026-03-14", "2026-03-14", false},
		{"malformed date", "?date=14/03/2026", "", true},
		// 23:30 in Mexico City is already the next day in UTC.
		{"defaults to today in UTC", "", "2026-03-02", false},
	}
	evening := time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("CST", -6*3600))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			var gotDay string
			stub := &stubCatalogService{
				schedulesFn: func(ctx context.Context, sess domain.Session, consultantID string, date time.Time) domain.Envelope[[]domain.ScheduleSlot] {
					if consultantID != "c-1" {
						t.Fatalf("unexpected consultant %q", consultantID)
					}
					gotDay = date.Format(dateLayout)
					return domain.Ok([]domain.ScheduleSlot{})
				},
			}
			handler := NewCatalogHandler(stub)
			handler.now = func() time.Time { return evening }

			req := httptest.NewRequest(http.MethodGet, "/api/consultants/c-1/schedules"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := h.e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues("c-1")

			err := handler.Schedules(c)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if gotDay != tt.wantDay {
				t.Fatalf("expected day %s, got %s", tt.wantDay, gotDay)
			}
		})
	}
}

func TestCatalogHandler_Profile_Anonymous(t *testing.T) {
	h := newHarness()
	stub := &stubCatalogService{
		profileFn: func(ctx context.Context, sess domain.Session) domain.Envelope[*domain.User] {
			if sess.State != domain.StateAnonymous {
				t.Fatalf("expected anonymous session, got %s", sess.State)
			}
			return domain.Fail[*domain.User](http.StatusUnauthorized, "authentication required")
		},
	}
	handler := NewCatalogHandler(stub)

	rec, err := h.serve(t, httptest.NewRequest(http.MethodGet, "/api/profile", nil), "", handler.Profile)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
