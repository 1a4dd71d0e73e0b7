package pagination

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/middleware"
	"github.com/mwork/socialgraph/internal/pkg/errorhandler"
	"github.com/mwork/socialgraph/internal/pkg/response"
	"github.com/mwork/socialgraph/internal/pkg/validator"
)

// Paginator serves list pages
type Paginator interface {
	Paginate(ctx context.Context, req Request) (*Page, error)
}

// Handler handles list HTTP requests
type Handler struct {
	service Paginator
}

// NewHandler creates pagination handler
func NewHandler(service Paginator) *Handler {
	return &Handler{service: service}
}

// Followers handles GET /users/{id}/followers
// @Summary List followers
// @Tags Lists
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID or me"
// @Param cursor query string false "Cursor from the previous page"
// @Param limit query int false "Page size (1-100, default 20)"
// @Success 200 {object} response.Response{data=[]ItemResponse}
// @Router /users/{id}/followers [get]
func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListFollowers)
}

// Following handles GET /users/{id}/following
func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListFollowing)
}

// Friends handles GET /users/{id}/friends
func (h *Handler) Friends(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListFriends)
}

// Blocked handles GET /users/{id}/blocked. Owner only.
func (h *Handler) Blocked(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListBlocked)
}

// FollowRequests handles GET /users/{id}/follow-requests. Owner only.
func (h *Handler) FollowRequests(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListFollowRequests)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, kind ListKind) {
	viewerID := middleware.GetUserID(r.Context())

	subjectID := viewerID
	if raw := chi.URLParam(r, "id"); raw != "me" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid user ID")
			return
		}
		subjectID = id
	}

	query := ListQuery{Cursor: r.URL.Query().Get("cursor")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.ValidationError(w, map[string]string{"limit": "Must be an integer"})
			return
		}
		query.Limit = limit
	}
	if errs := validator.Validate(query); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	page, err := h.service.Paginate(r.Context(), Request{
		Kind:      kind,
		SubjectID: subjectID,
		ViewerID:  viewerID,
		Cursor:    query.Cursor,
		PageSize:  query.Limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCursor):
			response.BadRequest(w, "Invalid cursor")
		case errors.Is(err, ErrForbidden):
			response.Forbidden(w, "This list is only visible to its owner")
		case errors.Is(err, ErrTransientStore):
			response.ServiceUnavailable(w, "Please retry the request")
		default:
			errorhandler.Internal(r.Context(), w, err)
		}
		return
	}

	limit := query.Limit
	if limit == 0 {
		limit = DefaultPageSize
	}
	meta := response.CursorMeta{Limit: limit, HasNext: page.NextCursor != nil}
	if page.NextCursor != nil {
		token := page.NextCursor.Encode()
		meta.NextCursor = &token
	}

	response.WithCursor(w, ItemsFromPage(page), meta)
}
