// Package repo implements the record store for collision messages. This file
// provides repository helpers for the Idempotency model used to implement
// safe-retry semantics for collision submissions.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-collision-alerts/internal/domain"
)

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, operatorID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("operator_id = ? AND key = ? AND expires_at > ?", operatorID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique
// violation. An expired row for the same (operator_id, key) is replaced.
func CreateIdempotency(ctx context.Context, db *gorm.DB, operatorID, key, collisionID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:          uuid.NewString(),
		OperatorID:  operatorID,
		Key:         key,
		CollisionID: collisionID,
		Status:      status,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("operator_id = ? AND key = ? AND expires_at <= ?", operatorID, key, now).
			Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// IdempotencyStore binds the idempotency helpers to a DB handle and TTL so
// the HTTP layer can consume them through a small interface.
type IdempotencyStore struct {
	DB  *gorm.DB
	TTL time.Duration
}

// Get returns the stored outcome for (operatorID, key) if it has not expired.
func (s *IdempotencyStore) Get(ctx context.Context, operatorID, key string, now time.Time) (*domain.Idempotency, error) {
	return GetIdempotency(ctx, s.DB, operatorID, key, now)
}

// Put records the outcome of a successful submission.
func (s *IdempotencyStore) Put(ctx context.Context, operatorID, key, collisionID string, status int) error {
	_, err := CreateIdempotency(ctx, s.DB, operatorID, key, collisionID, status, s.TTL)
	return err
}
