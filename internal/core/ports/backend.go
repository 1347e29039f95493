package ports

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// BackendRequest describes one outbound call to the HeartSpace REST API.
type BackendRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Token is the caller's access token; empty for anonymous calls.
	Token string
	// NoStore keeps the response out of the result cache. Invalidation
	// only reaches the mutating caller's entries, so data other callers
	// mutate must set it.
	NoStore bool
}

// Backend performs a request and normalizes the response into the
// canonical envelope. A non-nil error means transport failure or a
// non-2xx status; the envelope is still populated when a body was read.
type Backend interface {
	Do(ctx context.Context, req BackendRequest) (domain.Envelope[json.RawMessage], error)
}

// QueryInvalidator drops a caller's cached GET results under pathPrefix.
type QueryInvalidator interface {
	Invalidate(ctx context.Context, token, pathPrefix string) error
}
