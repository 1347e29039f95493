package ports

import "net/http"

// CookieJar is the browser cookie surface of one request/response pair.
// Reads observe cookies written earlier in the same request.
type CookieJar interface {
	Cookie(name string) (string, bool)
	SetCookie(c *http.Cookie)
}
