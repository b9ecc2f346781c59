// Package services defines the business logic for collision messages. This
// file centralizes the service-level error values so they can be returned
// consistently by service methods and checked by callers.
//
// Two classes are distinguished:
//   - Rejections (*Rejection) are expected outcomes: malformed payloads,
//     validation-rule failures and state conflicts. They carry a
//     human-readable reason and wrap one of the sentinels below.
//   - Everything else is a store failure and should surface as such.
//
// Translation into HTTP status codes is performed by the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Format errors.
var (
	// ErrMissingField is returned when a required field is blank.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidCollisionDate is returned when collision_date does not match
	// the wire format.
	ErrInvalidCollisionDate = errors.New("invalid collision date")
)

// Validation-rule errors.
var (
	// ErrProbabilityOutOfRange is returned when probability_of_collision lies
	// outside [0,1].
	ErrProbabilityOutOfRange = errors.New("probability of collision out of range")

	// ErrOperatorMismatch is returned when the payload's operator_id differs
	// from the requesting operator.
	ErrOperatorMismatch = errors.New("operator mismatch")

	// ErrCollisionDateNotFuture is returned when collision_date is not
	// strictly after the evaluation time.
	ErrCollisionDateNotFuture = errors.New("collision date is not in the future")
)

// State-conflict errors.
var (
	// ErrDuplicateMessage is returned by Save when an active record with the
	// same (satellite_id, message_id) already exists.
	ErrDuplicateMessage = errors.New("duplicate message")

	// ErrCollisionNotFound is returned by Cancel when no active record carries
	// the message_id, and by GetByID when the id is unknown.
	ErrCollisionNotFound = errors.New("collision not found")
)

// Rejection is an expected refusal of a Save or Cancel request. Err is one of
// the package sentinels, so errors.Is works on a *Rejection.
type Rejection struct {
	Err    error
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func (r *Rejection) Unwrap() error { return r.Err }

func reject(err error, format string, args ...any) *Rejection {
	return &Rejection{Err: err, Reason: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is an expected refusal rather than a store
// failure.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}
