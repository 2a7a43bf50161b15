package book

import (
	"time"

	bookDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/book"
)

type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   *string   `json:"created_by,omitempty"`
}

func FromDataModel(b *bookDatamodel.Book) *Book {
	return &Book{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		CreatedBy:   b.CreatedBy,
	}
}
