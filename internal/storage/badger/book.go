package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/book"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/validation"
	"github.com/dgraph-io/badger/v4"
)

type BookBadgerStorage struct {
	db        *badger.DB
	validator *validation.Validator
}

func NewBookBadgerStorage(db *badger.DB) *BookBadgerStorage {
	return &BookBadgerStorage{db: db, validator: validation.New()}
}

func (s *BookBadgerStorage) CountBooks(ctx context.Context, filter book.Filter) (int, error) {
	books, err := s.FindBooks(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(books), nil
}

func (s *BookBadgerStorage) FindBooks(_ context.Context, filter book.Filter) ([]*model.Book, error) {
	var books []*model.Book
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		books, err = scan[*model.Book](txn, prefixBook)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not get books: %w", err)
	}

	out := make([]*model.Book, 0, len(books))
	for _, b := range books {
		if filter.Match(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *BookBadgerStorage) GetBookByID(_ context.Context, id string) (*model.Book, error) {
	var b *model.Book
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := get[*model.Book](txn, key(prefixBook, id))
		if err != nil {
			return err
		}
		b = rec.Entity
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("book %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get book by id: %w", err)
	}
	return b, nil
}

func (s *BookBadgerStorage) SaveBook(_ context.Context, b *model.Book) error {
	if err := s.validator.Validate(b); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		stored := b.Clone()
		stored.Genres = model.UniqueGenres(stored.Genres)
		if err := put(txn, key(prefixBook, b.ID), stored); err != nil {
			return fmt.Errorf("could not save book: %w", err)
		}
		return nil
	})
}
