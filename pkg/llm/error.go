package llm

import "fmt"

// ErrorKind classifies backend failures for the caller. Transport details stay
// out of user-facing messages; the kind is what the session acts on.
type ErrorKind string

const (
	// KindUnavailable covers transient failures: network errors, timeouts,
	// authentication problems, and rate limiting. The same request may be
	// retried.
	KindUnavailable ErrorKind = "backend_unavailable"

	// KindRejected covers requests the backend refused outright (content
	// policy, malformed request). Retrying without changing the request is
	// pointless.
	KindRejected ErrorKind = "backend_rejected"
)

// BackendError is returned by a Client when a generation call fails.
type BackendError struct {
	Kind ErrorKind
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("generation backend: %s: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a transient backend failure.
func Unavailable(err error) *BackendError {
	return &BackendError{Kind: KindUnavailable, Err: err}
}

// Rejected wraps err as a non-retryable backend refusal.
func Rejected(err error) *BackendError {
	return &BackendError{Kind: KindRejected, Err: err}
}
