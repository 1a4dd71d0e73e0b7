package contactsync

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwork/socialgraph/internal/domain/contactgraph"
	"github.com/mwork/socialgraph/internal/domain/relationships"
	"github.com/mwork/socialgraph/internal/middleware"
	"github.com/mwork/socialgraph/internal/pkg/errorhandler"
	"github.com/mwork/socialgraph/internal/pkg/response"
	"github.com/mwork/socialgraph/internal/pkg/validator"
)

// Submitter accepts contact sync jobs
type Submitter interface {
	Submit(ctx context.Context, job *Job) (*SubmitResult, error)
}

// Handler handles contact sync HTTP requests
type Handler struct {
	service Submitter
}

// NewHandler creates contact sync handler
func NewHandler(service Submitter) *Handler {
	return &Handler{service: service}
}

// Sync handles POST /contacts/sync
// @Summary Upload contact list
// @Description Replaces the caller's contacts in the contact graph. Queued when a worker is configured.
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SyncRequest true "Hashed contacts"
// @Success 202 {object} response.Response{data=SyncResponse}
// @Success 200 {object} response.Response{data=SyncResponse}
// @Router /contacts/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	job := NewJob(middleware.GetUserID(r.Context()), req.PhoneNumberHash, req.ContactHashes)
	result, err := h.service.Submit(r.Context(), job)
	if err != nil {
		switch {
		case errors.Is(err, ErrQueueUnavailable), errors.Is(err, contactgraph.ErrGraphUnavailable), relationships.IsTransient(err):
			response.ServiceUnavailable(w, "Contact sync is temporarily unavailable")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			response.ServiceUnavailable(w, "Request cancelled")
		default:
			errorhandler.Internal(r.Context(), w, err)
		}
		return
	}

	if result.Queued {
		response.Accepted(w, &SyncResponse{JobID: result.JobID, Status: statusQueued})
		return
	}
	response.OK(w, &SyncResponse{JobID: result.JobID, Status: statusSynced})
}

// RegisterRoutes mounts contact sync endpoints on an authenticated router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/contacts/sync", h.Sync)
}
