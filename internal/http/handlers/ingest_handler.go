// Ingestion HTTP handlers.
//
// Upstream producers write the records the watchers react to:
//   - PUT    /users/{id}            (profile + push token)
//   - POST   /friend-requests
//   - POST   /event-invitations
//   - POST   /activity-updates
//   - POST   /notifications
//   - POST   /activities
//   - DELETE /activities/{id}
//
// Idempotency:
// POSTs accept an Idempotency-Key header. A retry with the same key (same
// caller, same collection, within the TTL) creates nothing and answers 200
// with the id created the first time and `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/http/middleware"
)

//
// DTOs
//

// PutUserRequest registers a profile and its device token. An empty token
// clears it.
type PutUserRequest struct {
	DisplayName string `json:"display_name" example:"Ana"`
	FCMToken    string `json:"fcm_token"    example:"dQw4w9WgXcQ:APA91bH..."`
}

// CreateFriendRequestRequest is the payload of POST /friend-requests.
type CreateFriendRequestRequest struct {
	FromUserID   string `json:"from_user_id"   binding:"required" example:"u2"`
	FromUserName string `json:"from_user_name"                    example:"Ana"`
	ToUserID     string `json:"to_user_id"     binding:"required" example:"u1"`
}

// CreateEventInvitationRequest is the payload of POST /event-invitations.
type CreateEventInvitationRequest struct {
	ActivityID        string `json:"activity_id"                            example:"a1"`
	ActivityTitle     string `json:"activity_title"                         example:"Trilha"`
	ActivityType      string `json:"activity_type"                          example:"hiking"`
	ParticipantUserID string `json:"participant_user_id" binding:"required" example:"u1"`
	ParticipantRole   string `json:"participant_role"                       example:"guest"`
}

// CreateActivityUpdateRequest is the payload of POST /activity-updates.
type CreateActivityUpdateRequest struct {
	ActivityID        string `json:"activity_id"                            example:"a1"`
	ActivityTitle     string `json:"activity_title"                         example:"Trilha"`
	ParticipantUserID string `json:"participant_user_id" binding:"required" example:"u1"`
	UpdateMessage     string `json:"update_message"                         example:"Horário alterado"`
}

// CreateNotificationRequest is the payload of POST /notifications. Either
// recipient_id or fcm_token is required.
type CreateNotificationRequest struct {
	Type        string         `json:"type"         example:"reminder"`
	RecipientID string         `json:"recipient_id" example:"u1"`
	FCMToken    string         `json:"fcm_token"`
	Title       string         `json:"title"        example:"Lembrete"`
	Body        string         `json:"body"         example:"Sua atividade começa em 1 hora"`
	Data        map[string]any `json:"data"`
}

// CreateActivityRequest is the payload of POST /activities.
type CreateActivityRequest struct {
	Title          string   `json:"title"                              example:"Trilha"`
	ActivityType   string   `json:"activity_type"                      example:"hiking"`
	OwnerID        string   `json:"owner_id"        binding:"required" example:"u9"`
	ParticipantIDs []string `json:"participant_ids"`
}

// CreatedResponse identifies the record a POST created (or replayed).
type CreatedResponse struct {
	ID         string `json:"id"         example:"3f1c0d7e-5a4b-4c2d-9e8f-7a6b5c4d3e2f"`
	Collection string `json:"collection" example:"friend_requests"`
}

//
// Helpers
//

// create runs fn unless the request replays an earlier one, and records the
// idempotency key afterwards. Storing the key is best effort: a failure only
// costs the replay, not the record.
func (h *Handlers) create(c *gin.Context, collection string, fn func(ctx context.Context) (string, error)) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	key, _ := middleware.GetIdempotencyKey(c)

	if key != "" {
		if id, found := h.ingest.Replayed(ctx, uid, collection, key); found {
			created(c, collection, id, true)
			return
		}
	}

	id, err := fn(ctx)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}

	if key != "" {
		if err := h.ingest.Remember(ctx, uid, collection, key, id, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).
				Str("collection", collection).
				Str("document_id", id).
				Msg("store idempotency key")
		}
	}
	created(c, collection, id, false)
}

//
// Handlers
//

// PutUser godoc
// @ID          putUser
// @Summary     Register a user profile and device token
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       id    path  string                   true  "User ID"
// @Param       body  body  handlers.PutUserRequest  true  "Profile"
// @Success     200   {object}  domain.UserProfile
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [put]
func (h *Handlers) PutUser(c *gin.Context) {
	var req PutUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.ingest.UpsertProfile(c.Request.Context(), c.Param("id"), req.DisplayName, req.FCMToken)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusOK, p)
}

// CreateFriendRequest godoc
// @ID          createFriendRequest
// @Summary     Create a friend request
// @Description The recipient is notified once. Supports Idempotency-Key.
// @Tags        Ingestion
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false  "Caller identity (scopes idempotency keys)"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateFriendRequestRequest  true  "Friend request"
// @Success     201  {object}  handlers.CreatedResponse
// @Success     200  {object}  handlers.CreatedResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse    "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse    "Internal error"
// @Router      /friend-requests [post]
func (h *Handlers) CreateFriendRequest(c *gin.Context) {
	var req CreateFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from_user_id and to_user_id are required")
		return
	}
	h.create(c, domain.CollectionFriendRequests, func(ctx context.Context) (string, error) {
		r := &domain.FriendRequest{
			FromUserID:   strings.TrimSpace(req.FromUserID),
			FromUserName: strings.TrimSpace(req.FromUserName),
			ToUserID:     strings.TrimSpace(req.ToUserID),
		}
		err := h.ingest.CreateFriendRequest(ctx, r)
		return r.ID, err
	})
}

// CreateEventInvitation godoc
// @ID          createEventInvitation
// @Summary     Invite a participant to an activity
// @Tags        Ingestion
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false  "Caller identity (scopes idempotency keys)"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateEventInvitationRequest  true  "Invitation"
// @Success     201  {object}  handlers.CreatedResponse
// @Success     200  {object}  handlers.CreatedResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse    "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse    "Internal error"
// @Router      /event-invitations [post]
func (h *Handlers) CreateEventInvitation(c *gin.Context) {
	var req CreateEventInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "participant_user_id is required")
		return
	}
	h.create(c, domain.CollectionEventInvitations, func(ctx context.Context) (string, error) {
		r := &domain.EventInvitation{
			ActivityID:        req.ActivityID,
			ActivityTitle:     req.ActivityTitle,
			ActivityType:      req.ActivityType,
			ParticipantUserID: strings.TrimSpace(req.ParticipantUserID),
			ParticipantRole:   req.ParticipantRole,
		}
		err := h.ingest.CreateEventInvitation(ctx, r)
		return r.ID, err
	})
}

// CreateActivityUpdate godoc
// @ID          createActivityUpdate
// @Summary     Announce a change to an activity
// @Tags        Ingestion
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false  "Caller identity (scopes idempotency keys)"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateActivityUpdateRequest  true  "Update"
// @Success     201  {object}  handlers.CreatedResponse
// @Success     200  {object}  handlers.CreatedResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse    "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse    "Internal error"
// @Router      /activity-updates [post]
func (h *Handlers) CreateActivityUpdate(c *gin.Context) {
	var req CreateActivityUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "participant_user_id is required")
		return
	}
	h.create(c, domain.CollectionActivityUpdates, func(ctx context.Context) (string, error) {
		r := &domain.ActivityUpdate{
			ActivityID:        req.ActivityID,
			ActivityTitle:     req.ActivityTitle,
			ParticipantUserID: strings.TrimSpace(req.ParticipantUserID),
			UpdateMessage:     req.UpdateMessage,
		}
		err := h.ingest.CreateActivityUpdate(ctx, r)
		return r.ID, err
	})
}

// CreateNotification godoc
// @ID          createNotification
// @Summary     Request a generic push notification
// @Description The token on the request wins over the recipient's profile token.
// @Tags        Ingestion
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false  "Caller identity (scopes idempotency keys)"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateNotificationRequest  true  "Notification"
// @Success     201  {object}  handlers.CreatedResponse
// @Success     200  {object}  handlers.CreatedResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse    "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse    "Internal error"
// @Router      /notifications [post]
func (h *Handlers) CreateNotification(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	h.create(c, domain.CollectionNotifications, func(ctx context.Context) (string, error) {
		n := &domain.Notification{
			Type:        req.Type,
			RecipientID: strings.TrimSpace(req.RecipientID),
			FCMToken:    strings.TrimSpace(req.FCMToken),
			Title:       req.Title,
			Body:        req.Body,
			Data:        req.Data,
		}
		err := h.ingest.CreateNotification(ctx, n)
		return n.ID, err
	})
}

// CreateActivity godoc
// @ID          createActivity
// @Summary     Create an activity
// @Description Activities notify nobody on creation; deleting one notifies its participants.
// @Tags        Ingestion
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false  "Caller identity (scopes idempotency keys)"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateActivityRequest  true  "Activity"
// @Success     201  {object}  handlers.CreatedResponse
// @Success     200  {object}  handlers.CreatedResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse    "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse    "Internal error"
// @Router      /activities [post]
func (h *Handlers) CreateActivity(c *gin.Context) {
	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "owner_id is required")
		return
	}
	h.create(c, domain.CollectionActivities, func(ctx context.Context) (string, error) {
		a := &domain.Activity{
			Title:          req.Title,
			ActivityType:   req.ActivityType,
			OwnerID:        strings.TrimSpace(req.OwnerID),
			ParticipantIDs: req.ParticipantIDs,
		}
		err := h.ingest.CreateActivity(ctx, a)
		return a.ID, err
	})
}

// DeleteActivity godoc
// @ID          deleteActivity
// @Summary     Delete an activity
// @Description Every participant except the owner is notified of the cancellation.
// @Tags        Ingestion
// @Param       id  path  string  true  "Activity ID"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse  "Activity not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /activities/{id} [delete]
func (h *Handlers) DeleteActivity(c *gin.Context) {
	if _, err := h.ingest.DeleteActivity(c.Request.Context(), c.Param("id")); err != nil {
		failService(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}
