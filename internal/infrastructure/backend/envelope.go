package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// ErrMalformedBody is returned when a successful response body is not JSON.
var ErrMalformedBody = errors.New("malformed response body")

// envelopeKeys are the fields that, next to "data", mark an object as an
// envelope rather than a bare payload.
var envelopeKeys = []string{"message", "code", "errors", "metadata"}

// Normalize turns a raw response body into the canonical envelope.
//
// Precedence:
//  1. parse-if-string: a JSON string body is unquoted once and re-read.
//  2. unwrap-if-enveloped: an object carrying isSuccess (or data plus one of
//     message/code/errors/metaData) is decoded field by field.
//  3. default-wrap-if-bare: anything else becomes the data of an envelope
//     with isSuccess derived from the HTTP status and code=status.
func Normalize(body []byte, status int) (domain.Envelope[json.RawMessage], error) {
	if status == 0 {
		status = http.StatusOK
	}
	ok := status >= 200 && status < 300

	raw := bytes.TrimSpace(body)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return failure(status, "unreadable response"), fmt.Errorf("normalize: %w", ErrMalformedBody)
		}
		trimmed := bytes.TrimSpace([]byte(inner))
		if len(trimmed) == 0 || json.Valid(trimmed) {
			raw = trimmed
		}
	}

	if len(raw) == 0 {
		env := domain.Envelope[json.RawMessage]{IsSuccess: ok, Code: status}
		if !ok {
			env.Message = http.StatusText(status)
		}
		return env, nil
	}

	if !json.Valid(raw) {
		if ok {
			return failure(status, "unreadable response"), fmt.Errorf("normalize: %w", ErrMalformedBody)
		}
		return failure(status, textMessage(raw, status)), nil
	}

	if raw[0] == '{' {
		fields, err := lowerKeys(raw)
		if err != nil {
			return failure(status, "unreadable response"), fmt.Errorf("normalize: %w", err)
		}
		if isEnvelope(fields) {
			return unwrap(fields, status, ok), nil
		}
	}

	env := domain.Envelope[json.RawMessage]{Data: json.RawMessage(raw), IsSuccess: ok, Code: status}
	if !ok {
		env.Message = http.StatusText(status)
	}
	return env, nil
}

func isEnvelope(fields map[string]json.RawMessage) bool {
	if _, has := fields["issuccess"]; has {
		return true
	}
	if _, has := fields["data"]; !has {
		return false
	}
	for _, k := range envelopeKeys {
		if _, has := fields[k]; has {
			return true
		}
	}
	return false
}

func unwrap(fields map[string]json.RawMessage, status int, ok bool) domain.Envelope[json.RawMessage] {
	env := domain.Envelope[json.RawMessage]{Data: fields["data"], IsSuccess: ok, Code: status}

	if v, has := fields["issuccess"]; has {
		var b bool
		if json.Unmarshal(v, &b) == nil {
			env.IsSuccess = b && ok
		}
	}
	if v, has := fields["message"]; has {
		_ = json.Unmarshal(v, &env.Message)
	}
	if v, has := fields["code"]; has {
		var code int
		if json.Unmarshal(v, &code) == nil && code != 0 {
			env.Code = code
		}
	}
	if v, has := fields["errors"]; has {
		env.Errors = flattenErrors(v)
	}
	if v, has := fields["metadata"]; has {
		var meta map[string]any
		if json.Unmarshal(v, &meta) == nil {
			env.MetaData = meta
		}
	}
	if !env.IsSuccess && env.Message == "" {
		if len(env.Errors) > 0 {
			env.Message = env.Errors[0]
		} else {
			env.Message = http.StatusText(status)
		}
	}
	return env
}

// flattenErrors accepts a string, a list of strings, or a field → messages
// map (ASP.NET validation problem shape).
func flattenErrors(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var single string
	if json.Unmarshal(raw, &single) == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var byField map[string][]string
	if json.Unmarshal(raw, &byField) == nil {
		out := make([]string, 0, len(byField))
		for field, msgs := range byField {
			for _, m := range msgs {
				out = append(out, field+": "+m)
			}
		}
		return out
	}
	return nil
}

func lowerKeys(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		out[strings.ToLower(k)] = v
	}
	return out, nil
}

func textMessage(raw []byte, status int) string {
	msg := strings.TrimSpace(string(raw))
	if msg == "" || len(msg) > 200 {
		return http.StatusText(status)
	}
	return msg
}

func failure(status int, message string) domain.Envelope[json.RawMessage] {
	return domain.Envelope[json.RawMessage]{IsSuccess: false, Code: status, Message: message}
}
