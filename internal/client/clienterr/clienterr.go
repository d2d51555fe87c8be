// Package clienterr classifies every failure that leaves the client core.
package clienterr

import (
	"errors"
	"fmt"
)

// Kind is the failure class a caller switches on.
type Kind string

const (
	// KindStorage is a read, write or delete failure of the credential store.
	KindStorage Kind = "storage"
	// KindNetwork means no response was received at all.
	KindNetwork Kind = "network"
	// KindTimeout means the request exceeded the configured ceiling.
	KindTimeout Kind = "timeout"
	// KindHTTP means a non-2xx response was received; Status and Body are set.
	KindHTTP Kind = "http"
	// KindDecode means a 2xx response could not be decoded.
	KindDecode Kind = "decode"
	// KindInvalid means the caller supplied unusable input.
	KindInvalid Kind = "invalid"
	// KindAuth means the operation needs a session that does not exist.
	KindAuth Kind = "auth"
)

// Error is the single error type returned by the client core.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Status and Body are only set for KindHTTP.
	Status int
	Body   []byte
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Kind == KindHTTP {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, msg, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an error without a cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err. Errors already classified keep their original kind.
// Wrap returns nil for a nil err.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// HTTP builds a KindHTTP error carrying the untouched response body.
func HTTP(op string, status int, body []byte) *Error {
	return &Error{Kind: KindHTTP, Op: op, Message: "unexpected response", Status: status, Body: body}
}

// KindOf returns the kind of the first classified error in the chain, or "".
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsUnreachable reports a missing response: network failure or timeout.
func IsUnreachable(err error) bool {
	k := KindOf(err)
	return k == KindNetwork || k == KindTimeout
}

// StatusOf returns the HTTP status of a KindHTTP error, or 0.
func StatusOf(err error) int {
	var typed *Error
	if errors.As(err, &typed) && typed.Kind == KindHTTP {
		return typed.Status
	}
	return 0
}
