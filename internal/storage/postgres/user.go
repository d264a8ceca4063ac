package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/validation"
	"github.com/VitaminP8/bookery/models"
	"github.com/jinzhu/gorm"
)

type UserPostgresStorage struct {
	validator *validation.Validator
}

func NewUserPostgresStorage() *UserPostgresStorage {
	return &UserPostgresStorage{validator: validation.New()}
}

func toUserModel(row *models.User) *model.User {
	return &model.User{
		ID:            row.ID,
		Username:      row.Username,
		FavoriteGenre: row.FavoriteGenre,
	}
}

func (s *UserPostgresStorage) FindUserByUsername(_ context.Context, username string) (*model.User, error) {
	var row models.User
	err := DB.Where("username = ?", username).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get user by username: %w", err)
	}
	return toUserModel(&row), nil
}

func (s *UserPostgresStorage) GetUserByID(_ context.Context, id string) (*model.User, error) {
	var row models.User
	err := DB.Where("id = ?", id).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get user by id: %w", err)
	}
	return toUserModel(&row), nil
}

func (s *UserPostgresStorage) SaveUser(_ context.Context, u *model.User) error {
	if err := s.validator.Validate(u); err != nil {
		return err
	}

	return inTx(func(tx *gorm.DB) error {
		// проверка - существует ли пользователь с таким username
		var count int
		err := tx.Model(&models.User{}).Where("username = ? AND id <> ?", u.Username, u.ID).Count(&count).Error
		if err != nil {
			return fmt.Errorf("could not check username: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("user %q: %w", u.Username, storage.ErrDuplicate)
		}

		row := &models.User{ID: u.ID, Username: u.Username, FavoriteGenre: u.FavoriteGenre}
		var existing models.User
		err = tx.Where("id = ?", u.ID).First(&existing).Error
		switch {
		case gorm.IsRecordNotFoundError(err):
			err = tx.Create(row).Error
		case err != nil:
			return fmt.Errorf("could not get user: %w", err)
		default:
			err = tx.Model(&existing).Updates(map[string]interface{}{
				"username":       u.Username,
				"favorite_genre": u.FavoriteGenre,
			}).Error
		}
		if err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		return nil
	})
}
