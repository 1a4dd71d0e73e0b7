package relationships

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/middleware"
	"github.com/mwork/socialgraph/internal/pkg/errorhandler"
	"github.com/mwork/socialgraph/internal/pkg/response"
)

// Transitions is the state machine surface used by the handler
type Transitions interface {
	SendFollowRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*SendResult, error)
	AcceptFollowRequest(ctx context.Context, senderID, recipientID uuid.UUID) error
	DeclineFollowRequest(ctx context.Context, senderID, recipientID uuid.UUID) error
	CancelFollowRequest(ctx context.Context, senderID, recipientID uuid.UUID) error
	UnfollowUser(ctx context.Context, senderID, recipientID uuid.UUID) error
	RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error
	BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error
	UnblockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error
	GetFollowStatus(ctx context.Context, viewerID, targetID uuid.UUID) (*Relationship, error)
}

// Handler handles relationship HTTP requests
type Handler struct {
	service Transitions
}

// NewHandler creates relationship handler
func NewHandler(service Transitions) *Handler {
	return &Handler{service: service}
}

// Follow handles POST /users/{id}/follow
// @Summary Follow a user
// @Description Public accounts are followed immediately, private accounts receive a pending request.
// @Tags Relationships
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 201 {object} response.Response{data=FollowResponse}
// @Failure 400,409,503 {object} response.Response
// @Router /users/{id}/follow [post]
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseTarget(w, r)
	if !ok {
		return
	}

	result, err := h.service.SendFollowRequest(r.Context(), middleware.GetUserID(r.Context()), targetID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, &FollowResponse{UserID: targetID, Status: result.Status})
}

// Unfollow handles DELETE /users/{id}/follow
// @Summary Unfollow a user
// @Tags Relationships
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 400,404,409,503 {object} response.Response
// @Router /users/{id}/follow [delete]
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, me, target uuid.UUID) error {
		return h.service.UnfollowUser(ctx, me, target)
	})
}

// CancelRequest handles DELETE /users/{id}/follow-request
// @Summary Cancel a pending follow request
// @Tags Relationships
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 400,404,503 {object} response.Response
// @Router /users/{id}/follow-request [delete]
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, me, target uuid.UUID) error {
		return h.service.CancelFollowRequest(ctx, me, target)
	})
}

// AcceptRequest handles POST /follow-requests/{id}/accept
// @Summary Accept a follow request
// @Tags Relationships
// @Produce json
// @Security BearerAuth
// @Param id path string true "Requesting user ID"
// @Success 200 {object} response.Response
// @Failure 400,404,503 {object} response.Response
// @Router /follow-requests/{id}/accept [post]
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, me, sender uuid.UUID) error {
		return h.service.AcceptFollowRequest(ctx, sender, me)
	})
}

// DeclineRequest handles POST /follow-requests/{id}/decline
// @Summary Decline a follow request
// @Tags Relationships
// @Produce json
// @Security BearerAuth
// @Param id path string true "Requesting user ID"
// @Success 200 {object} response.Response
// @Failure 400,404,503 {object} response.Response
// @Router /follow-requests/{id}/decline [post]
func (h *Handler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, me, sender uuid.UUID) error {
		return h.service.DeclineFollowRequest(ctx, sender, me)
	})
}

// RemoveFollower handles DELETE /users/{id}/follower
// @Summary Remove a follower
// @Tags Relationships
// @Produce json
// @Security BearerAuth
// @Param id path string true "Follower user ID"
// @Success 200 {object} response.Response
// @Failure 400,404,503 {object} response.Response
// @Router /users/{id}/follower [delete]
func (h *Handler) RemoveFollower(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, me, follower uuid.UUID) error {
		return h.service.RemoveFollower(ctx, me, follower)
	})
}

// BlockUser handles POST /users/{id}/block
// @Summary Block a user
// @Description Removes every follow and friend edge between the two users.
// @Tags Relationships
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 400,503 {object} response.Response
// @Router /users/{id}/block [post]
func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, me, target uuid.UUID) error {
		return h.service.BlockUser(ctx, me, target)
	})
}

// UnblockUser handles DELETE /users/{id}/block
// @Summary Unblock a user
// @Tags Relationships
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 400,404,503 {object} response.Response
// @Router /users/{id}/block [delete]
func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, me, target uuid.UUID) error {
		return h.service.UnblockUser(ctx, me, target)
	})
}

// GetRelationship handles GET /users/{id}/relationship
// @Summary Relationship with a user
// @Tags Relationships
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=RelationshipResponse}
// @Failure 400,503 {object} response.Response
// @Router /users/{id}/relationship [get]
func (h *Handler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseTarget(w, r)
	if !ok {
		return
	}

	rel, err := h.service.GetFollowStatus(r.Context(), middleware.GetUserID(r.Context()), targetID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, RelationshipFromEntity(targetID, rel))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, me, target uuid.UUID) error) {
	targetID, ok := parseTarget(w, r)
	if !ok {
		return
	}

	if err := fn(r.Context(), middleware.GetUserID(r.Context()), targetID); err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, statusOK)
}

func parseTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return uuid.Nil, false
	}
	return targetID, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		response.Conflict(w, "ALREADY_EXISTS", "Relationship already exists")
	case errors.Is(err, ErrAlreadyBlocked):
		response.Conflict(w, "ALREADY_BLOCKED", "A block exists between these users")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(w, "INVALID_TRANSITION", "Transition is not allowed from the current state")
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Relationship not found")
	case errors.Is(err, ErrTransientStore):
		response.ServiceUnavailable(w, "Please retry the request")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(w, "Request was cancelled")
	default:
		errorhandler.Internal(r.Context(), w, err)
	}
}
