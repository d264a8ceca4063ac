package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/author"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/validation"
	"github.com/dgraph-io/badger/v4"
)

type AuthorBadgerStorage struct {
	db        *badger.DB
	validator *validation.Validator
}

func NewAuthorBadgerStorage(db *badger.DB) *AuthorBadgerStorage {
	return &AuthorBadgerStorage{db: db, validator: validation.New()}
}

func (s *AuthorBadgerStorage) all() ([]*model.Author, error) {
	var authors []*model.Author
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		authors, err = scan[*model.Author](txn, prefixAuthor)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not get authors: %w", err)
	}
	return authors, nil
}

func (s *AuthorBadgerStorage) CountAuthors(_ context.Context) (int, error) {
	authors, err := s.all()
	if err != nil {
		return 0, err
	}
	return len(authors), nil
}

func (s *AuthorBadgerStorage) FindAuthors(_ context.Context, filter author.Filter) ([]*model.Author, error) {
	authors, err := s.all()
	if err != nil {
		return nil, err
	}

	out := make([]*model.Author, 0, len(authors))
	for _, a := range authors {
		if filter.Name == nil || a.Name == *filter.Name {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *AuthorBadgerStorage) FindAuthorByName(_ context.Context, name string) (*model.Author, error) {
	var a *model.Author
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := lookupID(txn, key(prefixAuthorName, name))
		if err != nil {
			return err
		}
		rec, err := get[*model.Author](txn, key(prefixAuthor, id))
		if err != nil {
			return err
		}
		a = rec.Entity
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("author %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get author by name: %w", err)
	}
	return a, nil
}

func (s *AuthorBadgerStorage) GetAuthorByID(_ context.Context, id string) (*model.Author, error) {
	var a *model.Author
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := get[*model.Author](txn, key(prefixAuthor, id))
		if err != nil {
			return err
		}
		a = rec.Entity
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("author %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get author by id: %w", err)
	}
	return a, nil
}

// SaveAuthor проверяет уникальность имени внутри той же транзакции, что и запись;
// конкурентная запись того же имени завершится badger.ErrConflict.
func (s *AuthorBadgerStorage) SaveAuthor(_ context.Context, a *model.Author) error {
	if err := s.validator.Validate(a); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		ownerID, err := lookupID(txn, key(prefixAuthorName, a.Name))
		switch {
		case err == nil && ownerID != a.ID:
			return fmt.Errorf("author %q: %w", a.Name, storage.ErrDuplicate)
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("could not check author name: %w", err)
		}

		existing, err := get[*model.Author](txn, key(prefixAuthor, a.ID))
		switch {
		case err == nil && existing.Entity.Name != a.Name:
			if err := txn.Delete(key(prefixAuthorName, existing.Entity.Name)); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("could not get author: %w", err)
		}

		if err := put(txn, key(prefixAuthor, a.ID), a.Clone()); err != nil {
			return fmt.Errorf("could not save author: %w", err)
		}
		return txn.Set(key(prefixAuthorName, a.Name), []byte(a.ID))
	})
}

func (s *AuthorBadgerStorage) DeleteAuthor(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := get[*model.Author](txn, key(prefixAuthor, id))
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("author %s: %w", id, storage.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if err := txn.Delete(key(prefixAuthorName, rec.Entity.Name)); err != nil {
			return err
		}
		return txn.Delete(key(prefixAuthor, id))
	})
}
