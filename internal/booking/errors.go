// Package booking implements the seat reservation engine: the transaction
// that turns a validated booking request into a confirmed order without
// ever double-booking a seat.  Failures are classified into a small fixed
// taxonomy so that callers can decide whether to retry, change the
// request, or re-authenticate.
package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// FailureKind enumerates the machine-readable reasons a booking attempt
// can be rejected.
type FailureKind string

const (
	// Unauthorized: no role context at all; the attempt never reached
	// the inventory.
	Unauthorized FailureKind = "UNAUTHORIZED"
	// InvalidGuestSession: the caller claims the guest role but carries
	// no valid guest token.
	InvalidGuestSession FailureKind = "INVALID_GUEST_SESSION"
	// ExpiredMemberSession: the caller claims the member role but the
	// underlying session is missing or expired.
	ExpiredMemberSession FailureKind = "EXPIRED_MEMBER_SESSION"
	// MalformedRequest: the selection payload does not match the active
	// mode, the count is non-positive, or the explicit seat list is empty.
	MalformedRequest FailureKind = "MALFORMED_REQUEST"
	// InsufficientInventory: the required number of seats could not be
	// assembled under the requested constraints.  Retrying without
	// changing the request will not help.
	InsufficientInventory FailureKind = "INSUFFICIENT_INVENTORY"
	// TransientStorageFailure: the durability layer was unreachable.
	// The only kind for which a blind retry is appropriate.
	TransientStorageFailure FailureKind = "TRANSIENT_STORAGE_FAILURE"
)

// Rejection is the terminal failure of a booking attempt.  It carries the
// request context (explicit seats, or preference and count) so the caller
// can decide how to proceed.  No partial mutation survives a rejection.
type Rejection struct {
	Kind       FailureKind        `json:"error"`
	Message    string             `json:"message"`
	SeatIDs    []string           `json:"seat_ids,omitempty"`
	Preference model.SeatCategory `json:"preference,omitempty"`
	Count      int                `json:"count,omitempty"`
}

func (r *Rejection) Error() string {
	if len(r.SeatIDs) > 0 {
		return fmt.Sprintf("%s: %s (seats %s)", r.Kind, r.Message, strings.Join(r.SeatIDs, ","))
	}
	if r.Preference != "" {
		return fmt.Sprintf("%s: %s (preference=%s count=%d)", r.Kind, r.Message, r.Preference, r.Count)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// Retryable reports whether the caller may retry the identical request.
func (r *Rejection) Retryable() bool { return r.Kind == TransientStorageFailure }

// As extracts a *Rejection from err, or nil when err is of another type.
func As(err error) *Rejection {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej
	}
	return nil
}

// SeatUnavailableError is returned by an inventory backend when a claim
// targets seats that are not free: already booked, unknown, or locked by
// another in-flight transaction.  The offending seats are listed so that
// automatic mode can recompute candidates without them.
type SeatUnavailableError struct {
	SeatIDs []string
}

func (e *SeatUnavailableError) Error() string {
	return "seats unavailable: " + strings.Join(e.SeatIDs, ",")
}
