package relationships

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts relationship transitions on an authenticated router
func (h *Handler) RegisterRoutes(r chi.Router) {
	// Follow lifecycle
	r.Post("/users/{id}/follow", h.Follow)
	r.Delete("/users/{id}/follow", h.Unfollow)
	r.Delete("/users/{id}/follow-request", h.CancelRequest)
	r.Post("/follow-requests/{id}/accept", h.AcceptRequest)
	r.Post("/follow-requests/{id}/decline", h.DeclineRequest)
	r.Delete("/users/{id}/follower", h.RemoveFollower)

	// Block/unblock operations
	r.Post("/users/{id}/block", h.BlockUser)
	r.Delete("/users/{id}/block", h.UnblockUser)

	r.Get("/users/{id}/relationship", h.GetRelationship)
}
