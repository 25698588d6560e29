package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindRemote        Kind = "remote"
	KindTransport     Kind = "transport"
)

// Sentinels for errors.Is against an *Error of the matching kind.
var (
	ErrAuthorization = errors.New("authorization rejected")
	ErrNotFound      = errors.New("not found")
	ErrRemote        = errors.New("remote service error")
	ErrTransport     = errors.New("transport failure")
)

const GenericReason = "something went wrong"

// Error is the single failure shape returned by every Client call.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Status > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Err != nil && e.Kind == KindTransport {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrAuthorization:
		return e.Kind == KindAuthorization
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrRemote:
		return e.Kind == KindRemote
	case ErrTransport:
		return e.Kind == KindTransport
	}
	return false
}

func KindOf(err error) (Kind, bool) {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind, true
	}
	return "", false
}

func classify(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuthorization
	case status == 404:
		return KindNotFound
	default:
		return KindRemote
	}
}

// reasonFromBody pulls a human-readable reason out of an error body. It
// understands {"detail": "..."}, {"detail": [{"msg": "..."}]}, {"error": ...}
// and {"message": ...}; anything else yields "".
func reasonFromBody(body []byte) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		var s string
		if json.Unmarshal(body, &s) == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}
	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		if r := reasonFromValue(raw); r != "" {
			return r
		}
	}
	return ""
}

func reasonFromValue(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &nested) == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}
