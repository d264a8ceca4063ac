package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/validation"
	"github.com/dgraph-io/badger/v4"
)

type UserBadgerStorage struct {
	db        *badger.DB
	validator *validation.Validator
}

func NewUserBadgerStorage(db *badger.DB) *UserBadgerStorage {
	return &UserBadgerStorage{db: db, validator: validation.New()}
}

func (s *UserBadgerStorage) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		id, err = lookupID(txn, key(prefixUserName, username))
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get user by username: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *UserBadgerStorage) GetUserByID(_ context.Context, id string) (*model.User, error) {
	var u *model.User
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := get[*model.User](txn, key(prefixUser, id))
		if err != nil {
			return err
		}
		u = rec.Entity
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get user by id: %w", err)
	}
	return u, nil
}

func (s *UserBadgerStorage) SaveUser(_ context.Context, u *model.User) error {
	if err := s.validator.Validate(u); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		ownerID, err := lookupID(txn, key(prefixUserName, u.Username))
		switch {
		case err == nil && ownerID != u.ID:
			return fmt.Errorf("user %q: %w", u.Username, storage.ErrDuplicate)
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("could not check username: %w", err)
		}

		existing, err := get[*model.User](txn, key(prefixUser, u.ID))
		switch {
		case err == nil && existing.Entity.Username != u.Username:
			if err := txn.Delete(key(prefixUserName, existing.Entity.Username)); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("could not get user: %w", err)
		}

		if err := put(txn, key(prefixUser, u.ID), u.Clone()); err != nil {
			return fmt.Errorf("could not save user: %w", err)
		}
		return txn.Set(key(prefixUserName, u.Username), []byte(u.ID))
	})
}
