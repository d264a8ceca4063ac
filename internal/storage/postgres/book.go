package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/book"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/validation"
	"github.com/VitaminP8/bookery/models"
	"github.com/jinzhu/gorm"
)

type BookPostgresStorage struct {
	validator *validation.Validator
}

func NewBookPostgresStorage() *BookPostgresStorage {
	return &BookPostgresStorage{validator: validation.New()}
}

func toBookModel(row *models.Book) *model.Book {
	b := &model.Book{
		ID:        row.ID,
		Title:     row.Title,
		Published: row.Published,
		AuthorID:  row.AuthorID,
		Genres:    make([]string, 0, len(row.Genres)),
	}
	for _, g := range row.Genres {
		b.Genres = append(b.Genres, g.Genre)
	}
	return b
}

func orderedGenres(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// filtered применяет фильтр к запросу по книгам. ok=false - заведомо пустая выборка
func filtered(db *gorm.DB, filter book.Filter) (query *gorm.DB, ok bool, err error) {
	query = db.Model(&models.Book{})
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if len(filter.Genres) > 0 {
		var ids []string
		err = db.Model(&models.BookGenre{}).Where("genre IN (?)", filter.Genres).Pluck("book_id", &ids).Error
		if err != nil {
			return nil, false, fmt.Errorf("could not filter books by genre: %w", err)
		}
		if len(ids) == 0 {
			return nil, false, nil
		}
		query = query.Where("id IN (?)", ids)
	}
	return query, true, nil
}

func (s *BookPostgresStorage) CountBooks(_ context.Context, filter book.Filter) (int, error) {
	query, ok, err := filtered(DB, filter)
	if err != nil || !ok {
		return 0, err
	}

	var count int
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("could not count books: %w", err)
	}
	return count, nil
}

func (s *BookPostgresStorage) FindBooks(_ context.Context, filter book.Filter) ([]*model.Book, error) {
	query, ok, err := filtered(DB, filter)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*model.Book{}, nil
	}

	var rows []models.Book
	err = query.Preload("Genres", orderedGenres).Order("created_at").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not get books: %w", err)
	}

	books := make([]*model.Book, 0, len(rows))
	for i := range rows {
		books = append(books, toBookModel(&rows[i]))
	}
	return books, nil
}

func (s *BookPostgresStorage) GetBookByID(_ context.Context, id string) (*model.Book, error) {
	var row models.Book
	err := DB.Preload("Genres", orderedGenres).Where("id = ?", id).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("book %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get book by id: %w", err)
	}
	return toBookModel(&row), nil
}

func (s *BookPostgresStorage) SaveBook(_ context.Context, b *model.Book) error {
	if err := s.validator.Validate(b); err != nil {
		return err
	}

	return inTx(func(tx *gorm.DB) error {
		var existing models.Book
		err := tx.Where("id = ?", b.ID).First(&existing).Error
		switch {
		case gorm.IsRecordNotFoundError(err):
			row := &models.Book{ID: b.ID, Title: b.Title, Published: b.Published, AuthorID: b.AuthorID}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("could not create book: %w", err)
			}
		case err != nil:
			return fmt.Errorf("could not get book: %w", err)
		default:
			err = tx.Model(&existing).Updates(map[string]interface{}{
				"title":     b.Title,
				"published": b.Published,
				"author_id": b.AuthorID,
			}).Error
			if err != nil {
				return fmt.Errorf("could not update book: %w", err)
			}
		}

		err = tx.Where("book_id = ?", b.ID).Delete(&models.BookGenre{}).Error
		if err != nil {
			return fmt.Errorf("could not reset book genres: %w", err)
		}

		for i, genre := range model.UniqueGenres(b.Genres) {
			err = tx.Create(&models.BookGenre{BookID: b.ID, Genre: genre, Position: i}).Error
			if err != nil {
				return fmt.Errorf("could not save genre %s: %w", genre, err)
			}
		}
		return nil
	})
}
