package relationships

import (
	"github.com/google/uuid"
)

// FollowResponse is returned by POST /users/{id}/follow
type FollowResponse struct {
	UserID uuid.UUID    `json:"user_id"`
	Status FollowStatus `json:"status"`
}

// RelationshipResponse represents the viewer's relationship with a user
type RelationshipResponse struct {
	UserID    uuid.UUID    `json:"user_id"`
	Outgoing  FollowStatus `json:"outgoing"`
	Incoming  FollowStatus `json:"incoming"`
	IsFriend  bool         `json:"is_friend"`
	Blocking  bool         `json:"blocking"`
	BlockedBy bool         `json:"blocked_by"`
}

// RelationshipFromEntity converts entity to response
func RelationshipFromEntity(userID uuid.UUID, rel *Relationship) *RelationshipResponse {
	return &RelationshipResponse{
		UserID:    userID,
		Outgoing:  rel.Outgoing,
		Incoming:  rel.Incoming,
		IsFriend:  rel.IsFriend,
		Blocking:  rel.Blocking,
		BlockedBy: rel.BlockedBy,
	}
}

// StatusResponse acknowledges a transition without a payload
type StatusResponse struct {
	Status string `json:"status"`
}

var statusOK = StatusResponse{Status: "ok"}
