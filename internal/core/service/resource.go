package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
	"github.com/heartspace/web-gateway/internal/pkg/metrics"
)

var (
	errEmptyPayload = errors.New("empty payload")
	errNotAList     = errors.New("payload is not a list")
)

// listKeys are the wrapper fields paged responses put their items under.
var listKeys = []string{"items", "data", "results", "records"}

// decodeData decodes a payload into T. A JSON string holding the payload
// is unquoted once.
func decodeData[T any](raw json.RawMessage) (T, error) {
	var out T
	raw = unquote(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return out, errEmptyPayload
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

// decodeList decodes a list payload. Paged wrappers such as {"items": [...]}
// are unwrapped. Empty or null payloads report errEmptyPayload.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = unquote(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errEmptyPayload
	}
	switch raw[0] {
	case '[':
		out := []T{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		for k, v := range fields {
			for _, want := range listKeys {
				if strings.EqualFold(k, want) {
					return decodeList[T](v)
				}
			}
		}
	}
	return nil, errNotAList
}

func unquote(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if json.Unmarshal(raw, &inner) == nil {
			return bytes.TrimSpace([]byte(inner))
		}
	}
	return raw
}

// typed converts a raw envelope into one carrying T. Unsuccessful
// envelopes keep their message, code and errors with zero data.
func typed[T any](env domain.Envelope[json.RawMessage], decode func(json.RawMessage) (T, error)) domain.Envelope[T] {
	code := env.Code
	if code == 0 {
		code = http.StatusBadGateway
	}
	if !env.IsSuccess {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(code)
		}
		out := domain.Fail[T](code, msg, env.Errors...)
		out.MetaData = env.MetaData
		return out
	}

	data, err := decode(env.Data)
	if errors.Is(err, errEmptyPayload) {
		return domain.Fail[T](http.StatusNotFound, "Resource not found")
	}
	if err != nil {
		return domain.Fail[T](http.StatusBadGateway, "unexpected response from server")
	}
	return domain.Envelope[T]{
		Data:      data,
		Message:   env.Message,
		IsSuccess: true,
		Code:      code,
		MetaData:  env.MetaData,
	}
}

// one decodes a single resource; an empty payload is a not-found.
func one[T any](raw json.RawMessage) (*T, error) {
	v, err := decodeData[T](raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// many decodes a list resource; an empty payload is an empty list.
func many[T any](raw json.RawMessage) ([]T, error) {
	items, err := decodeList[T](raw)
	if errors.Is(err, errEmptyPayload) {
		return []T{}, nil
	}
	return items, err
}

// fetch issues req with the caller's token and converts the result.
func fetch[T any](ctx context.Context, b ports.Backend, sess domain.Session, req ports.BackendRequest, decode func(json.RawMessage) (T, error)) domain.Envelope[T] {
	req.Token = sess.AccessToken
	env, _ := b.Do(ctx, req)
	return typed(env, decode)
}

// fetchWithTimeout is fetch bounded by timeout. A lookup that runs out of
// time resolves to the timeout envelope.
func fetchWithTimeout[T any](ctx context.Context, b ports.Backend, sess domain.Session, req ports.BackendRequest, timeout time.Duration, resource string, decode func(json.RawMessage) (T, error)) domain.Envelope[T] {
	if timeout <= 0 {
		return fetch(ctx, b, sess, req, decode)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req.Token = sess.AccessToken
	env, err := b.Do(tctx, req)
	if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		metrics.FetchTimeoutsTotal.WithLabelValues(resource).Inc()
		return domain.Timeout[T]()
	}
	return typed(env, decode)
}

func unauthenticated[T any]() domain.Envelope[T] {
	return domain.Fail[T](http.StatusUnauthorized, "Please sign in to continue")
}

func forbidden[T any]() domain.Envelope[T] {
	return domain.Fail[T](http.StatusForbidden, "You do not have access to this resource")
}
