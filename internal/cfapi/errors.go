package cfapi

import (
	"errors"
	"fmt"
	"strings"
)

// The error taxonomy for remote calls. Callers branch on these types to
// decide whether a failed batch may be re-submitted:
//
//   - TransientError: timeouts, connection resets, 5xx/429 after retries.
//     Re-submitting the whole batch is safe (upsert idempotency).
//   - IntegrityError: staging checksum mismatch. Fatal for the import job;
//     never retried automatically, the payload must be re-verified first.
//   - RejectionError: the control plane reported a malformed request or
//     payload. Fatal; requires a payload fix.
//   - DecodeError: malformed response body. Fatal for that call.

// TransientError wraps a network-level failure that is safe to retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// IntegrityError reports a checksum mismatch between the locally computed
// payload checksum and the integrity tag echoed by the staging storage.
type IntegrityError struct {
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("staging integrity tag mismatch: want %s, got %s", e.Want, e.Got)
}

// RejectionError reports a request the remote service refused.
type RejectionError struct {
	Op       string
	Status   int
	Messages []string
}

func (e *RejectionError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s: rejected with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: rejected with status %d: %s", e.Op, e.Status, strings.Join(e.Messages, "; "))
}

// DecodeError reports a response body that could not be decoded.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or anything it wraps) is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
