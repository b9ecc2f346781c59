// Package repo implements the record store for collision messages. This file
// provides the GORM-backed CollisionStore.
//
// GormStore follows the "thin repository" approach: no business rules, only
// persistence and query composition. Ranking and filtering of alerts happen
// in the services package so behavior is identical across backends.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-collision-alerts/internal/domain"
)

// GormStore is a CollisionStore backed by a *gorm.DB handle. The handle may
// be a plain connection pool or a transaction-bound handle.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps db as a CollisionStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

var _ CollisionStore = (*GormStore)(nil)

// Find returns records matching q ordered by creation (created_date ASC, id ASC).
//
// With q.ForUpdate on Postgres, a concurrent transaction holding the same rows
// makes Find wait; once it commits, rows it canceled no longer match
// ActiveOnly and are left out of the result.
func (s *GormStore) Find(ctx context.Context, q CollisionQuery) ([]domain.Collision, error) {
	var out []domain.Collision
	tx := s.DB.WithContext(ctx).Where("message_id = ?", q.MessageID)
	if q.ForUpdate && s.DB.Dialector.Name() == DriverPostgres {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if q.SatelliteID != nil {
		tx = tx.Where("satellite_id = ?", *q.SatelliteID)
	}
	if q.ActiveOnly {
		tx = tx.Where("is_canceled = ?", false)
	}
	err := tx.Order("created_date ASC, id ASC").Find(&out).Error
	return out, err
}

// Insert creates a new row. A unique violation on the active-message index
// is reported as ErrDuplicate.
func (s *GormStore) Insert(ctx context.Context, c *domain.Collision) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Update writes IsCanceled and UpdatedDate for a record that is still active.
// If no row is affected (missing, or already canceled by a concurrent
// request), it returns ErrNotFound.
func (s *GormStore) Update(ctx context.Context, c *domain.Collision) error {
	res := s.DB.WithContext(ctx).
		Model(&domain.Collision{}).
		Where("id = ? AND is_canceled = ?", c.ID, false).
		Updates(map[string]any{
			"is_canceled":  c.IsCanceled,
			"updated_date": c.UpdatedDate,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOperator returns all records owned by operatorID, including canceled
// ones. It returns an empty slice when the operator has none.
func (s *GormStore) ListByOperator(ctx context.Context, operatorID string) ([]domain.Collision, error) {
	out := []domain.Collision{}
	err := s.DB.WithContext(ctx).
		Where("operator_id = ?", operatorID).
		Order("created_date ASC, id ASC").
		Find(&out).Error
	return out, err
}

// GetByID fetches a single record by its ID, or ErrNotFound.
func (s *GormStore) GetByID(ctx context.Context, id string) (*domain.Collision, error) {
	var c domain.Collision
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Transaction runs fn inside a database transaction. The transaction is
// rolled back when fn fails or ctx is canceled before commit.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx CollisionStore) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}
