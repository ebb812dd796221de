package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lshigami/quizsync/internal/auth"
)

type ErrorKind int

const (
	// KindTransient failures are retried later from the queue.
	KindTransient ErrorKind = iota
	KindValidation
	KindAuthentication
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// APIError is a non-2xx answer of the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s returned %d", e.Method, e.Path, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return auth.ErrSessionExpired
	}
	return nil
}

// TransportError wraps failures that never produced a response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Classify sorts a client error into the taxonomy used by the gateway and
// the synchronizer. Unknown errors count as transient.
func Classify(err error) ErrorKind {
	if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, auth.ErrNoCredential) {
		return KindAuthentication
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return KindTransient
	}
	switch {
	case apiErr.StatusCode >= 500,
		apiErr.StatusCode == http.StatusRequestTimeout,
		apiErr.StatusCode == http.StatusTooManyRequests:
		return KindTransient
	case apiErr.StatusCode == http.StatusUnauthorized:
		return KindAuthentication
	case apiErr.StatusCode == http.StatusConflict:
		return KindConflict
	default:
		return KindValidation
	}
}

func IsTransient(err error) bool {
	return err != nil && Classify(err) == KindTransient
}

// ExistingAttemptID returns the attempt id carried by a 409 on start.
func ExistingAttemptID(err error) (int64, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		return 0, false
	}
	var body struct {
		AttemptID int64 `json:"attemptId"`
	}
	if json.Unmarshal(apiErr.Body, &body) != nil || body.AttemptID == 0 {
		return 0, false
	}
	return body.AttemptID, true
}
