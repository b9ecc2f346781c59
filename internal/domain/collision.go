// Package domain defines the persistence models and value types for
// collision-risk messages submitted by satellite operators. The entity types
// are mapped with GORM and form the core data layer of the service.
package domain

import (
	"time"
)

// Collision is a persisted collision-risk message reported by an operator.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), assigned at creation.
//   - MessageID: caller-supplied message identifier. At most one active
//     (non-canceled) row may exist per (SatelliteID, MessageID); the partial
//     unique index is created in repo.AutoMigrate.
//   - CollisionEventID / ChaserObjectID: informational.
//   - SatelliteID: groups records for alert aggregation. Stored NOT NULL,
//     the empty string means "not supplied".
//   - OperatorID: owning operator, always equal to the writer's identity.
//   - ProbabilityOfCollision: in [0,1], checked at write time only.
//   - CollisionDate: predicted time of closest approach (UTC).
//   - IsCanceled / UpdatedDate: flipped and stamped together, exactly once.
//   - CreatedDate: set once at creation.
type Collision struct {
	ID                     string     `json:"id"                       gorm:"type:char(36);primaryKey"`
	MessageID              string     `json:"message_id"               gorm:"type:varchar(128);not null;index:idx_collisions_message"`
	CollisionEventID       string     `json:"collision_event_id"       gorm:"type:varchar(128);not null;default:''"`
	SatelliteID            string     `json:"satellite_id"             gorm:"type:varchar(128);not null;default:''"`
	OperatorID             string     `json:"operator_id"              gorm:"type:varchar(64);not null;index:idx_collisions_operator"`
	ProbabilityOfCollision float64    `json:"probability_of_collision" gorm:"not null"`
	CollisionDate          time.Time  `json:"collision_date"           gorm:"not null"`
	ChaserObjectID         string     `json:"chaser_object_id"         gorm:"type:varchar(128);not null;default:''"`
	IsCanceled             bool       `json:"is_canceled"              gorm:"not null;default:false"`
	CreatedDate            time.Time  `json:"created_date"             gorm:"not null"`
	UpdatedDate            *time.Time `json:"updated_date,omitempty"`
}

// TableName returns the database table name for Collision.
func (Collision) TableName() string { return "collisions" }

// Active reports whether the record still takes part in duplicate checks and
// alert aggregation.
func (c Collision) Active() bool { return !c.IsCanceled }

// CollisionMessage is the payload an operator submits to report or cancel a
// collision. CollisionDate is kept in its wire form (see ParseCollisionDate)
// so that a malformed value is rejected by validation rather than by decoding.
// Required fields are enforced by services.ValidateMessage, not by gin binding,
// so that a missing field is a rejection (422) rather than a decode error.
type CollisionMessage struct {
	MessageID              string  `json:"message_id"               validate:"required" example:"M42-00111"`
	CollisionEventID       string  `json:"collision_event_id"                          example:"11"`
	SatelliteID            string  `json:"satellite_id"                                example:"42-001"`
	OperatorID             string  `json:"operator_id"              validate:"required" example:"001"`
	ProbabilityOfCollision float64 `json:"probability_of_collision"                    example:"0.85"`
	CollisionDate          string  `json:"collision_date"           validate:"required" example:"20271211T21000100Z"`
	ChaserObjectID         string  `json:"chaser_object_id"                            example:"2016-11"`
}

// CollisionAlert summarizes the highest-risk active collision for one
// satellite. EarliestCollisionDate carries the date of the representative
// record (highest probability, then latest date), not the minimum date.
type CollisionAlert struct {
	SatelliteID                   string
	HighestProbabilityOfCollision float64
	EarliestCollisionDate         time.Time
	ChaserObjectID                string
}
