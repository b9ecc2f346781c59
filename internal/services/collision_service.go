// Package services – CollisionService
//
// This file implements CollisionService, the application-level component that
// owns the lifecycle of collision records. It validates incoming messages,
// enforces "one active message per satellite" on save, resolves cancellations
// to the most recent active report, and reduces raw records into the ranked
// per-satellite alert view.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include operator and message identifiers where applicable. Rejections are
// logged at warn level with their reason and counted in Prometheus.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-collision-alerts/internal/domain"
	"github.com/tbourn/go-collision-alerts/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	opSave   = "save"
	opCancel = "cancel"
)

// CollisionService coordinates validation and persistence of collision
// messages and builds alert projections. It holds no locks of its own;
// atomicity comes from Store.Transaction and the store's uniqueness rule.
type CollisionService struct {
	// Store is the record store used for all reads and writes.
	Store repo.CollisionStore

	// AlertThreshold is the minimum probability for alert aggregation.
	AlertThreshold float64

	// Now is the clock used for date rules and audit stamps.
	Now func() time.Time
}

// NewCollisionService constructs a CollisionService over store with the
// default alert threshold and the system clock.
func NewCollisionService(store repo.CollisionStore) *CollisionService {
	return &CollisionService{
		Store:          store,
		AlertThreshold: DefaultAlertThreshold,
		Now:            func() time.Time { return time.Now().UTC() },
	}
}

// Save validates msg on behalf of operatorID and persists it as a new active
// record. It returns the new record ID.
//
// A *Rejection is returned when validation fails or an active record with the
// same (satellite_id, message_id) exists; nothing is written in that case.
// Any other error is a store failure.
func (s *CollisionService) Save(ctx context.Context, operatorID string, msg domain.CollisionMessage) (string, error) {
	ctx, span := s.tracer().Start(ctx, "Save",
		trace.WithAttributes(
			attribute.String("operator.id", operatorID),
			attribute.String("satellite.id", msg.SatelliteID),
			attribute.String("message.id", msg.MessageID),
		),
	)
	defer span.End()

	now := s.now()
	at, err := ValidateMessage(operatorID, msg, now)
	if err != nil {
		return "", s.finish(ctx, span, opSave, err)
	}

	rec := &domain.Collision{
		MessageID:              msg.MessageID,
		CollisionEventID:       msg.CollisionEventID,
		SatelliteID:            msg.SatelliteID,
		OperatorID:             msg.OperatorID,
		ProbabilityOfCollision: msg.ProbabilityOfCollision,
		CollisionDate:          at,
		ChaserObjectID:         msg.ChaserObjectID,
		CreatedDate:            now,
	}

	err = s.Store.Transaction(ctx, func(tx repo.CollisionStore) error {
		existing, err := tx.Find(ctx, repo.CollisionQuery{
			MessageID:   msg.MessageID,
			SatelliteID: &msg.SatelliteID,
			ActiveOnly:  true,
		})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return duplicateRejection(msg)
		}
		if err := tx.Insert(ctx, rec); err != nil {
			// A concurrent writer won the race; the unique index caught it.
			if errors.Is(err, repo.ErrDuplicate) {
				return duplicateRejection(msg)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", s.finish(ctx, span, opSave, err)
	}

	span.SetAttributes(attribute.String("collision.id", rec.ID))
	s.finish(ctx, span, opSave, nil)
	return rec.ID, nil
}

// Cancel validates msg on behalf of operatorID, then cancels the active record
// carrying msg.MessageID with the latest collision date. Matching spans all
// satellites. It returns the canceled record ID.
//
// A *Rejection is returned when validation fails or no active record carries
// the message ID (including when a concurrent cancel got there first).
func (s *CollisionService) Cancel(ctx context.Context, operatorID string, msg domain.CollisionMessage) (string, error) {
	ctx, span := s.tracer().Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("operator.id", operatorID),
			attribute.String("message.id", msg.MessageID),
		),
	)
	defer span.End()

	now := s.now()
	if _, err := ValidateMessage(operatorID, msg, now); err != nil {
		return "", s.finish(ctx, span, opCancel, err)
	}

	var canceledID string
	err := s.Store.Transaction(ctx, func(tx repo.CollisionStore) error {
		matches, err := tx.Find(ctx, repo.CollisionQuery{
			MessageID:  msg.MessageID,
			ActiveOnly: true,
			ForUpdate:  true,
		})
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return notFoundRejection(msg)
		}

		target := mostRecent(matches)
		target.IsCanceled = true
		target.UpdatedDate = &now
		if err := tx.Update(ctx, &target); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFoundRejection(msg)
			}
			return err
		}
		canceledID = target.ID
		return nil
	})
	if err != nil {
		return "", s.finish(ctx, span, opCancel, err)
	}

	span.SetAttributes(attribute.String("collision.id", canceledID))
	s.finish(ctx, span, opCancel, nil)
	return canceledID, nil
}

// ListAlertsForOperator returns one alert per satellite of operatorID, built
// from active records with probability >= AlertThreshold whose collision date
// is still in the future. The result is never nil.
func (s *CollisionService) ListAlertsForOperator(ctx context.Context, operatorID string) ([]domain.CollisionAlert, error) {
	ctx, span := s.tracer().Start(ctx, "ListAlertsForOperator",
		trace.WithAttributes(attribute.String("operator.id", operatorID)),
	)
	defer span.End()

	records, err := s.Store.ListByOperator(ctx, operatorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	alerts := buildAlerts(records, s.AlertThreshold, s.now())
	alertsReturned.Observe(float64(len(alerts)))
	span.SetAttributes(attribute.Int("alerts.count", len(alerts)))
	return alerts, nil
}

// ListAllForOperator returns every record owned by operatorID, active and
// canceled, without filtering or ranking.
func (s *CollisionService) ListAllForOperator(ctx context.Context, operatorID string) ([]domain.Collision, error) {
	ctx, span := s.tracer().Start(ctx, "ListAllForOperator",
		trace.WithAttributes(attribute.String("operator.id", operatorID)),
	)
	defer span.End()

	return s.Store.ListByOperator(ctx, operatorID)
}

// GetByID fetches a record by ID across all operators. An unknown ID yields
// ErrCollisionNotFound, which callers should treat as a normal outcome.
func (s *CollisionService) GetByID(ctx context.Context, id string) (*domain.Collision, error) {
	ctx, span := s.tracer().Start(ctx, "GetByID",
		trace.WithAttributes(attribute.String("collision.id", id)),
	)
	defer span.End()

	c, err := s.Store.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCollisionNotFound
	}
	return c, err
}

func (s *CollisionService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *CollisionService) tracer() trace.Tracer {
	return otel.Tracer("services/CollisionService")
}

// finish records the outcome of a write on the span, logs and counts it, and
// returns err unchanged.
func (s *CollisionService) finish(ctx context.Context, span trace.Span, op string, err error) error {
	lg := loggerFrom(ctx)
	switch {
	case err == nil:
		collisionMessages.WithLabelValues(op, outcomeAccepted).Inc()
	case IsRejection(err):
		reason := reasonLabel(err)
		collisionMessages.WithLabelValues(op, outcomeRejected).Inc()
		collisionRejections.WithLabelValues(op, reason).Inc()
		span.SetAttributes(attribute.String("rejection.reason", reason))
		lg.Warn().Str("operation", op).Str("reason", reason).Msg(err.Error())
	case errors.Is(err, context.Canceled):
		// The caller went away; nothing was committed and nobody is listening.
		span.SetStatus(codes.Error, err.Error())
		lg.Debug().Str("operation", op).Msg("request canceled")
	default:
		collisionMessages.WithLabelValues(op, outcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		lg.Error().Err(err).Str("operation", op).Msg("collision store failure")
	}
	return err
}

func duplicateRejection(msg domain.CollisionMessage) *Rejection {
	return reject(ErrDuplicateMessage,
		"collision message %s is already present for satellite %q", msg.MessageID, msg.SatelliteID)
}

func notFoundRejection(msg domain.CollisionMessage) *Rejection {
	return reject(ErrCollisionNotFound,
		"no active collision message %s present, cannot cancel", msg.MessageID)
}

// loggerFrom returns the request-scoped logger attached to ctx by the HTTP
// middleware, or the global logger.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
