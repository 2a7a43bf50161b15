package book

import (
	errors "github.com/gfmoura/book-management/internal"
	"github.com/gfmoura/book-management/internal/core/common/validation"
)

type CreateBookDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (d *CreateBookDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(validation.TitleMaxLength)
	v.Field("description", d.Description).MaxLength(validation.DescMaxLength)
	return v.Validate()
}

type UpdateBookDTO struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (d *UpdateBookDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if d.Title != nil {
		v.Field("title", *d.Title).Required().MaxLength(validation.TitleMaxLength)
	}
	if d.Description != nil {
		v.Field("description", *d.Description).MaxLength(validation.DescMaxLength)
	}
	return v.Validate()
}

type BooksResponse struct {
	Books []Book `json:"books"`
	Total int    `json:"total"`
}
