package author

import (
	"context"

	"github.com/VitaminP8/bookery/graph/model"
)

// Filter - условие выборки авторов; nil Name означает "все авторы".
type Filter struct {
	Name *string
}

type AuthorStorage interface {
	CountAuthors(ctx context.Context) (int, error)
	FindAuthors(ctx context.Context, filter Filter) ([]*model.Author, error)
	// FindAuthorByName возвращает storage.ErrNotFound, если автора нет.
	FindAuthorByName(ctx context.Context, name string) (*model.Author, error)
	GetAuthorByID(ctx context.Context, id string) (*model.Author, error)
	// SaveAuthor создает или обновляет автора; дубликат имени - storage.ErrDuplicate.
	SaveAuthor(ctx context.Context, author *model.Author) error
	DeleteAuthor(ctx context.Context, id string) error
}
