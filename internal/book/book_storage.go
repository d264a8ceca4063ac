package book

import (
	"context"

	"github.com/VitaminP8/bookery/graph/model"
)

// Filter - условие выборки книг. Пустые поля не ограничивают выборку;
// Genres совпадает, если у книги есть хотя бы один из жанров.
type Filter struct {
	AuthorID *string
	Genres   []string
}

type BookStorage interface {
	CountBooks(ctx context.Context, filter Filter) (int, error)
	FindBooks(ctx context.Context, filter Filter) ([]*model.Book, error)
	GetBookByID(ctx context.Context, id string) (*model.Book, error)
	SaveBook(ctx context.Context, book *model.Book) error
}

// Match проверяет книгу на соответствие фильтру (для хранилищ без языка запросов).
func (f Filter) Match(b *model.Book) bool {
	if f.AuthorID != nil && b.AuthorID != *f.AuthorID {
		return false
	}
	if len(f.Genres) > 0 && !b.HasGenre(f.Genres) {
		return false
	}
	return true
}
