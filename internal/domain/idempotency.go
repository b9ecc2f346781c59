package domain

import "time"

// Idempotency records the outcome of a collision submission keyed by
// (operator_id, key). A retried POST carrying the same Idempotency-Key is
// answered from this row instead of running Save again.
type Idempotency struct {
	ID          string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	OperatorID  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_operator_key,priority:1"`
	Key         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_operator_key,priority:2"`
	CollisionID string    `gorm:"type:TEXT NOT NULL"`
	Status      int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
