package user

import (
	"context"

	"github.com/VitaminP8/bookery/graph/model"
)

type UserStorage interface {
	// FindUserByUsername возвращает storage.ErrNotFound, если пользователя нет.
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// SaveUser создает пользователя; занятый username - storage.ErrDuplicate.
	SaveUser(ctx context.Context, user *model.User) error
}
