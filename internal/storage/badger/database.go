// Package badger - хранилище сущностей во встроенной KV-базе badger.
//
// Раскладка ключей:
//
//	author/<id>          -> JSON автора
//	author-name/<name>   -> id автора
//	book/<id>            -> JSON книги
//	user/<id>            -> JSON пользователя
//	user-name/<username> -> id пользователя
package badger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/VitaminP8/bookery/internal/config"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	prefixAuthor     = "author/"
	prefixAuthorName = "author-name/"
	prefixBook       = "book/"
	prefixUser       = "user/"
	prefixUserName   = "user-name/"
)

// Open открывает базу в каталоге cfg.Dir или в памяти.
func Open(cfg config.BadgerConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return db, nil
}

// record - обертка над сущностью с моментом создания для стабильного порядка выдачи.
type record[T any] struct {
	CreatedAt int64 `json:"createdAt"`
	Entity    T     `json:"entity"`
}

func key(prefix, id string) []byte {
	return []byte(prefix + id)
}

func get[T any](txn *badger.Txn, k []byte) (*record[T], error) {
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec record[T]
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", k, err)
	}
	return &rec, nil
}

// put сохраняет сущность, сохраняя исходный момент создания при обновлении.
func put[T any](txn *badger.Txn, k []byte, entity T) error {
	createdAt := time.Now().UnixNano()
	existing, err := get[T](txn, k)
	switch {
	case err == nil:
		createdAt = existing.CreatedAt
	case !errors.Is(err, storage.ErrNotFound):
		return err
	}

	val, err := json.Marshal(record[T]{CreatedAt: createdAt, Entity: entity})
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	return txn.Set(k, val)
}

// scan читает все записи с префиксом в порядке создания.
func scan[T any](txn *badger.Txn, prefix string) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var recs []record[T]
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		var rec record[T]
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt < recs[j].CreatedAt
	})

	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Entity)
	}
	return out, nil
}

func lookupID(txn *badger.Txn, indexKey []byte) (string, error) {
	item, err := txn.Get(indexKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}
