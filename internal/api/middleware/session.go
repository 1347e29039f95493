package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/heartspace/web-gateway/internal/core/service"
)

const authContextKey = "auth_context"

// echoJar adapts an echo context to ports.CookieJar. Cookies written
// during the request shadow the ones the browser sent.
type echoJar struct {
	c       echo.Context
	written map[string]*http.Cookie
}

func newEchoJar(c echo.Context) *echoJar {
	return &echoJar{c: c, written: make(map[string]*http.Cookie)}
}

func (j *echoJar) Cookie(name string) (string, bool) {
	if ck, ok := j.written[name]; ok {
		if ck.MaxAge < 0 {
			return "", false
		}
		return ck.Value, true
	}
	ck, err := j.c.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

func (j *echoJar) SetCookie(ck *http.Cookie) {
	j.written[ck.Name] = ck
	j.c.SetCookie(ck)
}

// Session builds the request's AuthContext from its cookies. Browsers
// without a valid context cookie are issued a fresh one.
func Session(factory *service.AuthContextFactory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			https := c.Scheme() == "https"
			cookies := factory.Cookies(https)
			jar := newEchoJar(c)

			contextID, ok := jar.Cookie(cookies.ContextName())
			if _, err := uuid.Parse(contextID); !ok || err != nil {
				contextID = uuid.NewString()
				jar.SetCookie(cookies.ContextCookie(contextID))
			}

			ac := factory.New(c.Request().Context(), contextID, jar, https)
			c.Set(authContextKey, ac)
			return next(c)
		}
	}
}

// AuthContextFrom returns the AuthContext installed by Session, or nil.
func AuthContextFrom(c echo.Context) *service.AuthContext {
	ac, _ := c.Get(authContextKey).(*service.AuthContext)
	return ac
}

// SetAuthContext installs ac on c. Handler tests use it in place of Session.
func SetAuthContext(c echo.Context, ac *service.AuthContext) {
	c.Set(authContextKey, ac)
}
