package services

import (
	"strings"
	"time"

	"github.com/tbourn/go-collision-alerts/internal/domain"
)

// ValidateMessage applies the stateless acceptance rules to a collision
// message submitted by operatorID and returns the parsed collision date.
//
// Format checks run first (required fields, date wire format). The rules then
// run in order and the first failure wins:
//  1. probability_of_collision must lie in [0,1];
//  2. operator_id must equal operatorID exactly;
//  3. collision_date must be strictly after now.
//
// Failures are returned as *Rejection. The function touches no store.
func ValidateMessage(operatorID string, msg domain.CollisionMessage, now time.Time) (time.Time, error) {
	switch {
	case strings.TrimSpace(msg.MessageID) == "":
		return time.Time{}, reject(ErrMissingField, "message_id is required")
	case strings.TrimSpace(msg.OperatorID) == "":
		return time.Time{}, reject(ErrMissingField, "operator_id is required")
	case strings.TrimSpace(msg.CollisionDate) == "":
		return time.Time{}, reject(ErrMissingField, "collision_date is required")
	}

	at, err := domain.ParseCollisionDate(msg.CollisionDate)
	if err != nil {
		return time.Time{}, reject(ErrInvalidCollisionDate,
			"collision_date %q must match %s", msg.CollisionDate, domain.CollisionDateLayout)
	}

	// Written as a positive range check so NaN is rejected too.
	if p := msg.ProbabilityOfCollision; !(p >= 0 && p <= 1) {
		return time.Time{}, reject(ErrProbabilityOutOfRange,
			"probability_of_collision %v must be between 0 and 1", p)
	}

	if msg.OperatorID != operatorID {
		return time.Time{}, reject(ErrOperatorMismatch,
			"operator %q is not the same as operator_id %q in the message", operatorID, msg.OperatorID)
	}

	if !at.After(now) {
		return time.Time{}, reject(ErrCollisionDateNotFuture,
			"collision_date %s is not later than current time %s",
			domain.FormatCollisionDate(at), domain.FormatCollisionDate(now))
	}

	return at, nil
}
