package service

import (
	"net/http"
	"time"
)

const (
	// RememberMeRetention is how long session cookies live when the user
	// ticked "remember me".
	RememberMeRetention = 30 * 24 * time.Hour
	// DefaultRetention is the cookie lifetime otherwise.
	DefaultRetention = 7 * 24 * time.Hour
)

// Default cookie names.
const (
	DefaultAccessCookie   = "access_token"
	DefaultRefreshCookie  = "refresh_token"
	DefaultRememberCookie = "remember_me"
	DefaultContextCookie  = "hs_ctx"
)

// CookieConfig is the process-wide cookie configuration.
type CookieConfig struct {
	AccessName   string
	RefreshName  string
	RememberName string
	ContextName  string
	Domain       string
	// Secure forces the Secure attribute (production deployments).
	Secure bool
	// CrossSite is set when the frontend is served from another site than
	// the gateway. Cross-site cookies are always SameSite=None; Secure.
	CrossSite bool
}

// CookiePolicy computes cookie attributes for the session cookies.
type CookiePolicy struct {
	cfg CookieConfig
}

// NewCookiePolicy returns a policy, filling in default cookie names.
func NewCookiePolicy(cfg CookieConfig) CookiePolicy {
	if cfg.AccessName == "" {
		cfg.AccessName = DefaultAccessCookie
	}
	if cfg.RefreshName == "" {
		cfg.RefreshName = DefaultRefreshCookie
	}
	if cfg.RememberName == "" {
		cfg.RememberName = DefaultRememberCookie
	}
	if cfg.ContextName == "" {
		cfg.ContextName = DefaultContextCookie
	}
	return CookiePolicy{cfg: cfg}
}

// ForRequest returns a copy of the policy that also marks cookies Secure
// when the current request arrived over HTTPS.
func (p CookiePolicy) ForRequest(https bool) CookiePolicy {
	if https {
		p.cfg.Secure = true
	}
	return p
}

func (p CookiePolicy) AccessName() string   { return p.cfg.AccessName }
func (p CookiePolicy) RefreshName() string  { return p.cfg.RefreshName }
func (p CookiePolicy) RememberName() string { return p.cfg.RememberName }
func (p CookiePolicy) ContextName() string  { return p.cfg.ContextName }

// Retention returns the cookie lifetime for the remember-me choice.
func Retention(rememberMe bool) time.Duration {
	if rememberMe {
		return RememberMeRetention
	}
	return DefaultRetention
}

// AccessCookie is readable by client scripts (HttpOnly=false).
func (p CookiePolicy) AccessCookie(token string, rememberMe bool) *http.Cookie {
	return p.cookie(p.cfg.AccessName, token, Retention(rememberMe), false)
}

// RefreshCookie is never exposed to client scripts.
func (p CookiePolicy) RefreshCookie(token string, rememberMe bool) *http.Cookie {
	return p.cookie(p.cfg.RefreshName, token, Retention(rememberMe), true)
}

// RememberCookie persists the remember-me choice so refreshes keep the
// same retention.
func (p CookiePolicy) RememberCookie(rememberMe bool) *http.Cookie {
	value := "0"
	if rememberMe {
		value = "1"
	}
	return p.cookie(p.cfg.RememberName, value, Retention(rememberMe), true)
}

// ContextCookie identifies the browser context the pending-auth dialog
// belongs to.
func (p CookiePolicy) ContextCookie(id string) *http.Cookie {
	return p.cookie(p.cfg.ContextName, id, RememberMeRetention, true)
}

// Expire returns a cookie that deletes name in the browser.
func (p CookiePolicy) Expire(name string, httpOnly bool) *http.Cookie {
	c := p.cookie(name, "", 0, httpOnly)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

func (p CookiePolicy) cookie(name, value string, maxAge time.Duration, httpOnly bool) *http.Cookie {
	secure, sameSite := p.transport()
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.cfg.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		SameSite: sameSite,
		HttpOnly: httpOnly,
	}
}

// transport keeps Secure and SameSite jointly consistent: cross-site
// cookies require SameSite=None and Secure; same-site cookies use Lax.
func (p CookiePolicy) transport() (bool, http.SameSite) {
	if p.cfg.CrossSite {
		return true, http.SameSiteNoneMode
	}
	return p.cfg.Secure, http.SameSiteLaxMode
}
