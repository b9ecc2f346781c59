// Package repo implements the record store for collision messages.
//
// The service layer depends only on the CollisionStore interface declared
// here. Two implementations are provided:
//
//   - GormStore: backed by GORM (SQLite via the pure-Go glebarez driver, or
//     Postgres). Uniqueness of active (satellite_id, message_id) pairs is
//     enforced by a partial unique index created in AutoMigrate.
//   - MemoryStore: a process-local store with the same semantics, used for
//     demos and fast tests.
//
// Error semantics:
//   - A missing record is reported as ErrNotFound (aliases gorm.ErrRecordNotFound).
//   - A violated uniqueness constraint is reported as ErrDuplicate.
//   - Anything else (connectivity, missing tables, canceled context) is
//     returned as-is and should be treated as a store failure.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-collision-alerts/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist, or when a
// conditional update matched no row.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an insert would violate a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate")

// CollisionQuery selects collision records by message identifier.
type CollisionQuery struct {
	// MessageID must match exactly.
	MessageID string
	// SatelliteID restricts the match to one satellite when non-nil. The empty
	// string selects records submitted without a satellite.
	SatelliteID *string
	// ActiveOnly excludes canceled records.
	ActiveOnly bool
	// ForUpdate locks the matched rows until the enclosing transaction ends.
	// Postgres takes row locks (SELECT ... FOR UPDATE); SQLite and the memory
	// store already serialize writers and ignore it.
	ForUpdate bool
}

// CollisionStore is the typed record store consumed by the service layer.
// All methods honor ctx cancellation.
type CollisionStore interface {
	// Find returns records matching q in insertion order.
	Find(ctx context.Context, q CollisionQuery) ([]domain.Collision, error)

	// Insert persists a new record, assigning a UUID when c.ID is empty.
	// Returns ErrDuplicate when an active record with the same
	// (SatelliteID, MessageID) already exists.
	Insert(ctx context.Context, c *domain.Collision) error

	// Update persists the lifecycle fields (IsCanceled, UpdatedDate) of a
	// record that is still active. Returns ErrNotFound when the record is
	// missing or was canceled concurrently.
	Update(ctx context.Context, c *domain.Collision) error

	// ListByOperator returns every record owned by operatorID, active or
	// canceled, in insertion order.
	ListByOperator(ctx context.Context, operatorID string) ([]domain.Collision, error)

	// GetByID fetches one record across all operators, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Collision, error)

	// Transaction runs fn atomically. Writes made through tx are discarded
	// when fn returns an error or ctx is canceled.
	Transaction(ctx context.Context, fn func(tx CollisionStore) error) error
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite: "UNIQUE constraint failed" / "constraint failed: UNIQUE".
	// Postgres: "duplicate key value violates unique constraint".
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
