package recommendation

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/middleware"
	"github.com/mwork/socialgraph/internal/pkg/response"
)

// Provider serves recommendations for a user
type Provider interface {
	GetRecommendations(ctx context.Context, userID uuid.UUID) []Candidate
}

// CandidateResponse represents a recommended user in API response
type CandidateResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Tier        int       `json:"tier"`
	MutualCount int       `json:"mutual_count,omitempty"`
}

// Handler handles recommendation HTTP requests
type Handler struct {
	service Provider
}

// NewHandler creates recommendation handler
func NewHandler(service Provider) *Handler {
	return &Handler{service: service}
}

// List handles GET /recommendations
// @Summary People you may know
// @Description Best effort. Returns an empty list when the contact graph is unavailable.
// @Tags Recommendations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]CandidateResponse}
// @Router /recommendations [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	candidates := h.service.GetRecommendations(r.Context(), middleware.GetUserID(r.Context()))

	items := make([]*CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, &CandidateResponse{
			UserID:      c.UserID,
			Tier:        int(c.Tier),
			MutualCount: c.MutualCount,
		})
	}

	response.OK(w, items)
}

// RegisterRoutes mounts recommendation endpoints on an authenticated router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/recommendations", h.List)
}
