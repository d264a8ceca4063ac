package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/author"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/validation"
	"github.com/VitaminP8/bookery/models"
	"github.com/jinzhu/gorm"
)

type AuthorPostgresStorage struct {
	validator *validation.Validator
}

func NewAuthorPostgresStorage() *AuthorPostgresStorage {
	return &AuthorPostgresStorage{validator: validation.New()}
}

func toAuthorModel(row *models.Author) *model.Author {
	a := &model.Author{
		ID:      row.ID,
		Name:    row.Name,
		Born:    row.Born,
		BookIDs: make([]string, 0, len(row.Books)),
	}
	for _, ab := range row.Books {
		a.BookIDs = append(a.BookIDs, ab.BookID)
	}
	return a
}

func orderedBooks(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (s *AuthorPostgresStorage) CountAuthors(_ context.Context) (int, error) {
	var count int
	err := DB.Model(&models.Author{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("could not count authors: %w", err)
	}
	return count, nil
}

func (s *AuthorPostgresStorage) FindAuthors(_ context.Context, filter author.Filter) ([]*model.Author, error) {
	query := DB.Preload("Books", orderedBooks).Order("created_at")
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}

	var rows []models.Author
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not get authors: %w", err)
	}

	authors := make([]*model.Author, 0, len(rows))
	for i := range rows {
		authors = append(authors, toAuthorModel(&rows[i]))
	}
	return authors, nil
}

func (s *AuthorPostgresStorage) FindAuthorByName(_ context.Context, name string) (*model.Author, error) {
	var row models.Author
	err := DB.Preload("Books", orderedBooks).Where("name = ?", name).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("author %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get author by name: %w", err)
	}
	return toAuthorModel(&row), nil
}

func (s *AuthorPostgresStorage) GetAuthorByID(_ context.Context, id string) (*model.Author, error) {
	var row models.Author
	err := DB.Preload("Books", orderedBooks).Where("id = ?", id).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("author %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get author by id: %w", err)
	}
	return toAuthorModel(&row), nil
}

// SaveAuthor создает или обновляет автора и целиком перезаписывает список его книг
func (s *AuthorPostgresStorage) SaveAuthor(_ context.Context, a *model.Author) error {
	if err := s.validator.Validate(a); err != nil {
		return err
	}

	return inTx(func(tx *gorm.DB) error {
		var count int
		err := tx.Model(&models.Author{}).Where("name = ? AND id <> ?", a.Name, a.ID).Count(&count).Error
		if err != nil {
			return fmt.Errorf("could not check author name: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("author %q: %w", a.Name, storage.ErrDuplicate)
		}

		var existing models.Author
		err = tx.Where("id = ?", a.ID).First(&existing).Error
		switch {
		case gorm.IsRecordNotFoundError(err):
			row := &models.Author{ID: a.ID, Name: a.Name, Born: a.Born}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("could not create author: %w", err)
			}
		case err != nil:
			return fmt.Errorf("could not get author: %w", err)
		default:
			err = tx.Model(&existing).Updates(map[string]interface{}{"name": a.Name, "born": a.Born}).Error
			if err != nil {
				return fmt.Errorf("could not update author: %w", err)
			}
		}

		err = tx.Where("author_id = ?", a.ID).Delete(&models.AuthorBook{}).Error
		if err != nil {
			return fmt.Errorf("could not reset author books: %w", err)
		}
		for i, bookID := range a.BookIDs {
			err = tx.Create(&models.AuthorBook{AuthorID: a.ID, BookID: bookID, Position: i}).Error
			if err != nil {
				return fmt.Errorf("could not link book %s to author: %w", bookID, err)
			}
		}
		return nil
	})
}

func (s *AuthorPostgresStorage) DeleteAuthor(_ context.Context, id string) error {
	return inTx(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Author{})
		if res.Error != nil {
			return fmt.Errorf("could not delete author: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("author %s: %w", id, storage.ErrNotFound)
		}

		err := tx.Where("author_id = ?", id).Delete(&models.AuthorBook{}).Error
		if err != nil {
			return fmt.Errorf("could not delete author books: %w", err)
		}
		return nil
	})
}
