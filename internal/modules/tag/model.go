package tag

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a product tag a merchant created inside the app, before any product carries it.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Shop      string    `json:"shop"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TagList is one page of tags offered by the tag picker.
type TagList struct {
	Tags       []string `json:"tags"`
	NextCursor string   `json:"next_cursor,omitempty"`
	HasNext    bool     `json:"has_next"`
}

type CreateTagRequest struct {
	Name string `json:"name"`
}
