package pagination

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts list endpoints on an authenticated router.
// {id} accepts "me" for the caller.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users/{id}/followers", h.Followers)
	r.Get("/users/{id}/following", h.Following)
	r.Get("/users/{id}/friends", h.Friends)

	// Owner only
	r.Get("/users/{id}/blocked", h.Blocked)
	r.Get("/users/{id}/follow-requests", h.FollowRequests)
}
