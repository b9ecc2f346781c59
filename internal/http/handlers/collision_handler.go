// Collision HTTP handlers.
//
// This file exposes REST endpoints for collision messages:
//   - GET   /collisions/{operatorid}         (all records of an operator)
//   - GET   /collision/{id}                  (point lookup)
//   - GET   /collisions/alerts/{operatorid}  (ranked per-satellite alerts)
//   - POST  /collision/{operatorid}          (report a collision)
//   - PATCH /collision/{operatorid}          (cancel a reported collision)
//
// Handlers are transport-thin: they decode input, call CollisionService and
// translate outcomes into status codes. Rejections become 422 with a stable
// code, store failures 500, and a client that went away 499 with no body.
//
// Idempotency:
// If the client supplies an Idempotency-Key on POST and the operator already
// completed a submission under that key, the stored 201 is replayed with
// `Idempotency-Replayed: true` and Save is not run again.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-collision-alerts/internal/domain"
	"github.com/tbourn/go-collision-alerts/internal/http/middleware"
	"github.com/tbourn/go-collision-alerts/internal/services"
)

//
// Service contracts (context-aware)
//

// CollisionService defines the collision operations consumed by the handlers.
// Implementations must be safe for concurrent use and honor ctx cancellation.
type CollisionService interface {
	Save(ctx context.Context, operatorID string, msg domain.CollisionMessage) (string, error)
	Cancel(ctx context.Context, operatorID string, msg domain.CollisionMessage) (string, error)
	ListAlertsForOperator(ctx context.Context, operatorID string) ([]domain.CollisionAlert, error)
	ListAllForOperator(ctx context.Context, operatorID string) ([]domain.Collision, error)
	GetByID(ctx context.Context, id string) (*domain.Collision, error)
}

// IdempotencyStore persists the outcome of POST submissions per operator and
// key. Get returns an error when nothing valid is stored.
type IdempotencyStore interface {
	Get(ctx context.Context, operatorID, key string, now time.Time) (*domain.Idempotency, error)
	Put(ctx context.Context, operatorID, key, collisionID string, status int) error
}

//
// Handler wiring
//

// Handlers groups the collision endpoints.
type Handlers struct {
	svc      CollisionService
	idem     IdempotencyStore
	basePath string
}

// New constructs Handlers. idem may be nil, which disables replays. basePath
// prefixes Location headers and defaults to "/".
func New(svc CollisionService, idem IdempotencyStore, basePath string) *Handlers {
	if basePath == "" {
		basePath = "/"
	}
	return &Handlers{svc: svc, idem: idem, basePath: basePath}
}

//
// DTOs
//

// CollisionIDResponse carries the identifier of a created or canceled record.
type CollisionIDResponse struct {
	ID string `json:"id" example:"5b0f6c1e-7a53-4f4e-9f0e-2a6b1d8c9e10"`
}

// CollisionRecordResponse is a stored collision record as returned by the API.
// CollisionDate uses the yyyyMMdd'T'HHmmssff'Z' wire format.
type CollisionRecordResponse struct {
	ID                     string     `json:"id"                       example:"5b0f6c1e-7a53-4f4e-9f0e-2a6b1d8c9e10"`
	MessageID              string     `json:"message_id"               example:"M42-00111"`
	CollisionEventID       string     `json:"collision_event_id"       example:"11"`
	SatelliteID            string     `json:"satellite_id"             example:"42-001"`
	OperatorID             string     `json:"operator_id"              example:"001"`
	ProbabilityOfCollision float64    `json:"probability_of_collision" example:"0.85"`
	CollisionDate          string     `json:"collision_date"           example:"20271211T21000100Z"`
	ChaserObjectID         string     `json:"chaser_object_id"         example:"2016-11"`
	IsCanceled             bool       `json:"is_canceled"              example:"false"`
	CreatedDate            time.Time  `json:"created_date"`
	UpdatedDate            *time.Time `json:"updated_date,omitempty"`
}

// CollisionAlertResponse is one row of the per-satellite alert view.
type CollisionAlertResponse struct {
	SatelliteID                   string  `json:"satellite_id"                     example:"42-001"`
	HighestProbabilityOfCollision float64 `json:"highest_probability_of_collision" example:"0.9"`
	EarliestCollisionDate         string  `json:"earliest_collision_date"          example:"20271211T21000100Z"`
	ChaserObjectID                string  `json:"chaser_object_id"                 example:"2016-11"`
}

func toRecordResponse(c domain.Collision) CollisionRecordResponse {
	return CollisionRecordResponse{
		ID:                     c.ID,
		MessageID:              c.MessageID,
		CollisionEventID:       c.CollisionEventID,
		SatelliteID:            c.SatelliteID,
		OperatorID:             c.OperatorID,
		ProbabilityOfCollision: c.ProbabilityOfCollision,
		CollisionDate:          domain.FormatCollisionDate(c.CollisionDate),
		ChaserObjectID:         c.ChaserObjectID,
		IsCanceled:             c.IsCanceled,
		CreatedDate:            c.CreatedDate.UTC(),
		UpdatedDate:            c.UpdatedDate,
	}
}

func toAlertResponse(a domain.CollisionAlert) CollisionAlertResponse {
	return CollisionAlertResponse{
		SatelliteID:                   a.SatelliteID,
		HighestProbabilityOfCollision: a.HighestProbabilityOfCollision,
		EarliestCollisionDate:         domain.FormatCollisionDate(a.EarliestCollisionDate),
		ChaserObjectID:                a.ChaserObjectID,
	}
}

//
// Handlers
//

// ListCollisions godoc
// @ID          listCollisions
// @Summary     List all collisions of an operator
// @Description Returns every record owned by the operator, active and canceled, unranked.
// @Tags        Collisions
// @Produce     json
//
// @Param       api-version  header  string  false "API version"  default(1.0)
// @Param       operatorid   path    string  true  "Operator ID"  example(001)
//
// @Success     200  {array}   handlers.CollisionRecordResponse
// @Success     204  "No records"
// @Failure     400  {object}  handlers.ErrorResponse "Unsupported API version"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /collisions/{operatorid} [get]
func (h *Handlers) ListCollisions(c *gin.Context) {
	records, err := h.svc.ListAllForOperator(c.Request.Context(), middleware.OperatorID(c))
	if err != nil {
		h.storeFailure(c, ErrCodeListFailed, err)
		return
	}
	if len(records) == 0 {
		noContent(c)
		return
	}
	out := make([]CollisionRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	ok(c, http.StatusOK, out)
}

// GetCollision godoc
// @ID          getCollision
// @Summary     Get a collision by id
// @Description Point lookup across all operators, active or canceled. An unknown id yields 204.
// @Tags        Collisions
// @Produce     json
//
// @Param       api-version  header  string  false "API version"  default(1.0)
// @Param       id           path    string  true  "Collision ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.CollisionRecordResponse
// @Success     204  "Not found"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /collision/{id} [get]
func (h *Handlers) GetCollision(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a UUID")
		return
	}

	rec, err := h.svc.GetByID(c.Request.Context(), id.String())
	switch {
	case errors.Is(err, services.ErrCollisionNotFound):
		noContent(c)
	case err != nil:
		h.storeFailure(c, ErrCodeInternal, err)
	default:
		ok(c, http.StatusOK, toRecordResponse(*rec))
	}
}

// ListAlerts godoc
// @ID          listAlerts
// @Summary     List collision alerts of an operator
// @Description One row per satellite with an active, future collision of probability >= the alert threshold.
// @Description Rows are ordered by probability, then collision date, both descending.
// @Tags        Collisions
// @Produce     json
//
// @Param       api-version  header  string  false "API version"  default(1.0)
// @Param       operatorid   path    string  true  "Operator ID"  example(001)
//
// @Success     200  {array}   handlers.CollisionAlertResponse
// @Success     204  "No alerts"
// @Failure     400  {object}  handlers.ErrorResponse "Unsupported API version"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /collisions/alerts/{operatorid} [get]
func (h *Handlers) ListAlerts(c *gin.Context) {
	alerts, err := h.svc.ListAlertsForOperator(c.Request.Context(), middleware.OperatorID(c))
	if err != nil {
		h.storeFailure(c, ErrCodeListFailed, err)
		return
	}
	if len(alerts) == 0 {
		noContent(c)
		return
	}
	out := make([]CollisionAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	ok(c, http.StatusOK, out)
}

// PostCollision godoc
// @ID          postCollision
// @Summary     Report a collision
// @Description Validates and stores a collision message. At most one active message per (satellite_id, message_id).
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Collisions
// @Accept      json
// @Produce     json
//
// @Param       api-version      header  string  false "API version"  default(1.0)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       operatorid       path    string  true  "Operator ID"  example(001)
// @Param       body             body    domain.CollisionMessage  true  "Collision message"
//
// @Success     201  {object}  handlers.CollisionIDResponse
// @Header      201  {string}  Location  "/collision/{id}"
// @Failure     400  {object}  handlers.ErrorResponse "Malformed JSON"
// @Failure     422  {object}  handlers.ErrorResponse "Rejected"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /collision/{operatorid} [post]
func (h *Handlers) PostCollision(c *gin.Context) {
	ctx := c.Request.Context()
	operatorID := middleware.OperatorID(c)
	idemKey, _ := middleware.GetIdempotencyKey(c)

	if idemKey != "" && h.idem != nil && middleware.IsReplay(c) {
		if rec, err := h.idem.Get(ctx, operatorID, idemKey, time.Now().UTC()); err == nil {
			h.replay(c, rec)
			return
		}
	}

	var msg domain.CollisionMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed collision message")
		return
	}

	id, err := h.svc.Save(ctx, operatorID, msg)
	if err != nil {
		h.writeFailure(c, ErrCodeSaveFailed, err)
		return
	}

	if idemKey != "" && h.idem != nil {
		if err := h.idem.Put(ctx, operatorID, idemKey, id, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("idempotency_key", idemKey).Msg("idempotency record not stored")
		}
	}

	if clientGone(c, nil) {
		aborted(c)
		return
	}
	h.created(c, id)
}

// PatchCollision godoc
// @ID          patchCollision
// @Summary     Cancel a collision
// @Description Cancels the active record carrying message_id with the latest collision date.
// @Description The payload is validated with the same rules as a report.
// @Tags        Collisions
// @Accept      json
// @Produce     json
//
// @Param       api-version  header  string  false "API version"  default(1.0)
// @Param       operatorid   path    string  true  "Operator ID"  example(001)
// @Param       body         body    domain.CollisionMessage  true  "Collision message"
//
// @Success     202  {object}  handlers.CollisionIDResponse
// @Header      202  {string}  Location  "/collision/{id}"
// @Failure     400  {object}  handlers.ErrorResponse "Malformed JSON"
// @Failure     422  {object}  handlers.ErrorResponse "Rejected"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /collision/{operatorid} [patch]
func (h *Handlers) PatchCollision(c *gin.Context) {
	var msg domain.CollisionMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed collision message")
		return
	}

	id, err := h.svc.Cancel(c.Request.Context(), middleware.OperatorID(c), msg)
	if err != nil {
		h.writeFailure(c, ErrCodeCancelFailed, err)
		return
	}
	if clientGone(c, nil) {
		aborted(c)
		return
	}
	c.Header("Location", h.location(id))
	ok(c, http.StatusAccepted, CollisionIDResponse{ID: id})
}

//
// Helpers
//

func (h *Handlers) created(c *gin.Context, id string) {
	c.Header("Location", h.location(id))
	ok(c, http.StatusCreated, CollisionIDResponse{ID: id})
}

// replay answers a retried POST with the outcome stored under its key.
// Records written before statuses were stored read back as 0 and replay 201.
func (h *Handlers) replay(c *gin.Context, rec *domain.Idempotency) {
	status := rec.Status
	if status == 0 {
		status = http.StatusCreated
	}
	c.Header("Idempotency-Replayed", "true")
	c.Header("Location", h.location(rec.CollisionID))
	ok(c, status, CollisionIDResponse{ID: rec.CollisionID})
}

func (h *Handlers) location(id string) string {
	return path.Join(h.basePath, "collision", id)
}

// writeFailure maps a Save/Cancel error: rejection → 422, client gone → 499,
// anything else → 500 with storeCode.
func (h *Handlers) writeFailure(c *gin.Context, storeCode string, err error) {
	var rej *services.Rejection
	if errors.As(err, &rej) {
		fail(c, http.StatusUnprocessableEntity, rejectionCode(err), rej.Reason)
		return
	}
	h.storeFailure(c, storeCode, err)
}

func (h *Handlers) storeFailure(c *gin.Context, code string, err error) {
	if clientGone(c, err) {
		aborted(c)
		return
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, code, "collision store unavailable")
}
