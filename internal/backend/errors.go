package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type Kind string

const (
	KindNetwork      Kind = "network"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindServer       Kind = "server"
)

const (
	TooManyAttemptsMessage = "Too many attempts, please try again later."
	networkMessage         = "Could not reach the store. Check your connection and try again."
	serverMessage          = "Something went wrong. Please try again."
	unauthorizedMessage    = "Please sign in to continue."
	notFoundMessage        = "Not found."
)

// Error is the normalized form of every failed backend call
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Unauthorized() bool { return e.Kind == KindUnauthorized }

// Retryable reports whether a retry may succeed: connectivity failures and
// 5xx responses only
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || (e.Kind == KindServer && e.Status >= 500)
}

// UserMessage is the text shown to the shopper
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindRateLimited:
		return TooManyAttemptsMessage
	case KindNetwork:
		return networkMessage
	case KindValidation:
		if e.Message != "" {
			return e.Message
		}
		if combined := e.Combined(); combined != "" {
			return combined
		}
		return serverMessage
	case KindNotFound:
		if e.Message != "" {
			return e.Message
		}
		return notFoundMessage
	case KindUnauthorized:
		if e.Message != "" {
			return e.Message
		}
		return unauthorizedMessage
	}
	if e.Status >= 500 || e.Message == "" {
		return serverMessage
	}
	return e.Message
}

// Combined joins every field message into one line, for screens without
// inline field errors
func (e *Error) Combined() string {
	if len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msgs []string
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k]...)
	}
	return strings.Join(msgs, " ")
}

type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest || status == http.StatusConflict:
		return KindValidation
	}
	return KindServer
}

func parseError(status int, body []byte) *Error {
	e := &Error{Kind: kindForStatus(status), Status: status}

	var b errorBody
	if err := json.Unmarshal(body, &b); err == nil {
		e.Message = b.Message
		if e.Message == "" {
			e.Message = b.Error
		}
		if len(b.Errors) > 0 {
			e.Fields = b.Errors
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
