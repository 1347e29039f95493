package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.Backend.DetailTimeout != 8*time.Second {
		t.Errorf("expected detail timeout 8s, got %s", cfg.Backend.DetailTimeout)
	}
	if cfg.Cookies.AccessName != "access_token" || cfg.Cookies.ContextName != "hs_ctx" {
		t.Errorf("unexpected cookie names: %+v", cfg.Cookies)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("expected development env by default")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"BACKEND_URL":       "https://api.heartspace.test",
		"COOKIE_CROSS_SITE": "true",
		"QUERY_CACHE_TTL":   "1m",
		"ENV":               "production",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.URL != "https://api.heartspace.test" {
		t.Errorf("backend url not applied: %q", cfg.Backend.URL)
	}
	if !cfg.Cookies.CrossSite {
		t.Errorf("cross-site flag not applied")
	}
	if cfg.Cache.QueryTTL != time.Minute {
		t.Errorf("expected 1m, got %s", cfg.Cache.QueryTTL)
	}
	if cfg.IsDevelopment() {
		t.Errorf("production env reported as development")
	}
}

func TestLoadFrom_RejectsZeroWorkers(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{"AUDIT_WORKERS": "0"}))
	if err == nil {
		t.Fatalf("expected error for zero workers")
	}
}
