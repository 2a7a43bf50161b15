package book

import "github.com/gfmoura/book-management/internal/core/datamodel"

type Book struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"column:title;not null"`
	Description string `gorm:"column:description"`

	datamodel.AuditInfo      `gorm:"embedded"`
	datamodel.SoftDeleteInfo `gorm:"embedded"`
}

func (Book) TableName() string {
	return "books"
}
