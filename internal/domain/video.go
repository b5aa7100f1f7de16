package domain

import (
	"time"

	"github.com/google/uuid"
)

// Video is a tutorial or guide. VideoURL is always stored in embeddable form.
type Video struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	VideoURL    string    `json:"video_url" db:"video_url"`
	Thumbnail   string    `json:"thumbnail" db:"thumbnail"`
	Date        time.Time `json:"date" db:"date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
