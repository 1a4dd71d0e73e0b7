package pagination

import (
	"time"

	"github.com/google/uuid"
)

// ListQuery is the query string of a list request
type ListQuery struct {
	Cursor string `json:"cursor" validate:"omitempty,max=512"`
	Limit  int    `json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// ItemResponse represents one list row in API response
type ItemResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt string    `json:"created_at"`
}

// ItemsFromPage converts a page to response rows
func ItemsFromPage(page *Page) []*ItemResponse {
	items := make([]*ItemResponse, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, &ItemResponse{
			ID:        it.EdgeID,
			UserID:    it.UserID,
			CreatedAt: it.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return items
}
