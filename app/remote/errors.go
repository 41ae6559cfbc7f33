package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind splits remote failures into the two classes the sync engine
// cares about: transient failures feed retry/backoff, permanent failures
// are surfaced and never retried.
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindPermanent
)

// Error is a classified remote store failure.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("remote error (status %d)", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err should be retried with backoff.
// Unclassified errors count as transient: network-level failures never
// reach status classification.
func IsTransient(err error) bool {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr.Kind == KindTransient
	}
	return true
}

// IsPermanent reports whether err must be surfaced and never retried.
func IsPermanent(err error) bool {
	return err != nil && !IsTransient(err)
}

func transientError(err error) *Error {
	return &Error{Kind: KindTransient, Err: err}
}

func permanentError(message string, err error) *Error {
	return &Error{Kind: KindPermanent, Message: message, Err: err}
}

// classifyStatus maps an HTTP status to an error class: rate limits and
// server trouble are transient, client-side rejections are permanent.
func classifyStatus(statusCode int, message string) *Error {
	kind := KindPermanent
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		kind = KindTransient
	}
	if message == "" {
		message = fmt.Sprintf("remote returned status %d", statusCode)
	}
	return &Error{Kind: kind, StatusCode: statusCode, Message: message}
}
