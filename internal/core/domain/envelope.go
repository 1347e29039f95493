package domain

import "net/http"

// Envelope is the canonical query result every backend call resolves to.
// Failures are represented with IsSuccess=false rather than Go errors.
type Envelope[T any] struct {
	Data      T              `json:"data"`
	Message   string         `json:"message,omitempty"`
	IsSuccess bool           `json:"isSuccess"`
	Code      int            `json:"code,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
	MetaData  map[string]any `json:"metaData,omitempty"`
}

const MessageTimeout = "API timeout - no data"

// Ok wraps data in a successful envelope.
func Ok[T any](data T) Envelope[T] {
	return Envelope[T]{Data: data, IsSuccess: true, Code: http.StatusOK}
}

// Fail builds a failure envelope with the zero value of T as data.
func Fail[T any](code int, message string, errs ...string) Envelope[T] {
	var zero T
	return Envelope[T]{Data: zero, Message: message, IsSuccess: false, Code: code, Errors: errs}
}

// Timeout is the envelope a timed-out lookup resolves to.
func Timeout[T any]() Envelope[T] {
	return Fail[T](http.StatusInternalServerError, MessageTimeout)
}

// EmptyList is the safe envelope returned when every strategy failed.
func EmptyList[T any](message string) Envelope[[]T] {
	return Envelope[[]T]{Data: []T{}, Message: message, IsSuccess: false}
}

// WithMeta returns a copy of e with key set in MetaData.
func (e Envelope[T]) WithMeta(key string, value any) Envelope[T] {
	meta := make(map[string]any, len(e.MetaData)+1)
	for k, v := range e.MetaData {
		meta[k] = v
	}
	meta[key] = value
	e.MetaData = meta
	return e
}
