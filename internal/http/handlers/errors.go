// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings carried in the `code` field
// of ErrorResponse. Generic codes mirror HTTP status semantics; the rejection
// codes name the acceptance rule a collision message failed so that clients
// can branch on them without parsing the message.
//
// Example response:
//
//	HTTP/1.1 422 Unprocessable Entity
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "operator_mismatch",
//	  "message": "operator \"002\" is not the same as operator_id \"001\" in the message"
//	}
package handlers

import (
	"errors"

	"github.com/tbourn/go-collision-alerts/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Rejections (422):
	ErrCodeMissingField           = "missing_field"
	ErrCodeInvalidCollisionDate   = "invalid_collision_date"
	ErrCodeProbabilityOutOfRange  = "probability_out_of_range"
	ErrCodeOperatorMismatch       = "operator_mismatch"
	ErrCodeCollisionDateNotFuture = "collision_date_not_future"
	ErrCodeDuplicateMessage       = "duplicate_message"
	ErrCodeUnprocessable          = "unprocessable"

	// Store failures (500):
	ErrCodeSaveFailed   = "save_failed"
	ErrCodeCancelFailed = "cancel_failed"
	ErrCodeListFailed   = "list_failed"
)

// rejectionCode maps a service rejection to its stable code.
func rejectionCode(err error) string {
	switch {
	case errors.Is(err, services.ErrMissingField):
		return ErrCodeMissingField
	case errors.Is(err, services.ErrInvalidCollisionDate):
		return ErrCodeInvalidCollisionDate
	case errors.Is(err, services.ErrProbabilityOutOfRange):
		return ErrCodeProbabilityOutOfRange
	case errors.Is(err, services.ErrOperatorMismatch):
		return ErrCodeOperatorMismatch
	case errors.Is(err, services.ErrCollisionDateNotFuture):
		return ErrCodeCollisionDateNotFuture
	case errors.Is(err, services.ErrDuplicateMessage):
		return ErrCodeDuplicateMessage
	case errors.Is(err, services.ErrCollisionNotFound):
		return ErrCodeNotFound
	default:
		return ErrCodeUnprocessable
	}
}
