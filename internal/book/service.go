package book

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	errors "github.com/gfmoura/book-management/internal"
	bookDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/book"
)

type RepositoryAPI interface {
	GetAll() ([]*bookDatamodel.Book, error)
	GetByID(id string) (*bookDatamodel.Book, error)
	Create(b *bookDatamodel.Book) error
	Update(b *bookDatamodel.Book) error
}

type ServiceAPI interface {
	CreateBook(dto CreateBookDTO, actorID string) (*Book, error)
	GetAllBooks() (*BooksResponse, error)
	GetBook(id string) (*Book, error)
	UpdateBook(id string, dto UpdateBookDTO, actorID string) (*Book, error)
	DeleteBook(id, actorID string) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) CreateBook(dto CreateBookDTO, actorID string) (*Book, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &bookDatamodel.Book{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(dto.Title),
		Description: strings.TrimSpace(dto.Description),
	}
	if actorID != "" {
		row.CreatedBy = &actorID
	}

	if err := s.repo.Create(row); err != nil {
		s.logger.Error("failed to create book", "error", err)
		return nil, errors.NewInternalError("failed to create book", err)
	}

	s.logger.Info("book created", "book_id", row.ID, "actor_id", actorID)
	return FromDataModel(row), nil
}

func (s *Service) GetAllBooks() (*BooksResponse, error) {
	rows, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to list books", "error", err)
		return nil, errors.NewInternalError("failed to list books", err)
	}

	books := make([]Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, *FromDataModel(row))
	}
	return &BooksResponse{Books: books, Total: len(books)}, nil
}

func (s *Service) GetBook(id string) (*Book, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		return nil, errors.NewInternalError("failed to get book", err)
	}
	if row == nil {
		return nil, errors.ErrBookNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) UpdateBook(id string, dto UpdateBookDTO, actorID string) (*Book, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(id)
	if err != nil {
		return nil, errors.NewInternalError("failed to get book", err)
	}
	if row == nil {
		return nil, errors.ErrBookNotFound
	}

	if dto.Title != nil {
		row.Title = strings.TrimSpace(*dto.Title)
	}
	if dto.Description != nil {
		row.Description = strings.TrimSpace(*dto.Description)
	}
	row.UpdatedAt = time.Now()
	if actorID != "" {
		row.UpdatedBy = &actorID
	}

	if err := s.repo.Update(row); err != nil {
		s.logger.Error("failed to update book", "book_id", id, "error", err)
		return nil, errors.NewInternalError("failed to update book", err)
	}

	return FromDataModel(row), nil
}

// DeleteBook soft-deletes: the row stays for audit, default lookups skip it.
func (s *Service) DeleteBook(id, actorID string) error {
	row, err := s.repo.GetByID(id)
	if err != nil {
		return errors.NewInternalError("failed to get book", err)
	}
	if row == nil {
		return errors.ErrBookNotFound
	}

	row.MarkDeleted(time.Now(), actorID)
	if err := s.repo.Update(row); err != nil {
		s.logger.Error("failed to delete book", "book_id", id, "error", err)
		return errors.NewInternalError("failed to delete book", err)
	}

	s.logger.Info("book deleted", "book_id", id, "actor_id", actorID)
	return nil
}
