package postgres

import (
	"github.com/gfmoura/book-management/internal/book"
	bookDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/book"
	"gorm.io/gorm"
)

type BookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) book.RepositoryAPI {
	return &BookRepository{db: db}
}

func (r *BookRepository) GetAll() ([]*bookDatamodel.Book, error) {
	var books []*bookDatamodel.Book
	err := r.db.
		Where("deleted_at IS NULL").
		Order("created_at DESC").
		Find(&books).Error
	return books, err
}

func (r *BookRepository) GetByID(id string) (*bookDatamodel.Book, error) {
	var b bookDatamodel.Book
	err := r.db.
		Where("id = ? AND deleted_at IS NULL", id).
		First(&b).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookRepository) Create(b *bookDatamodel.Book) error {
	return r.db.Create(b).Error
}

func (r *BookRepository) Update(b *bookDatamodel.Book) error {
	return r.db.Save(b).Error
}
