// Package storage содержит общие для всех реализаций хранилища ошибки.
package storage

import "errors"

var (
	// ErrNotFound - сущность с таким идентификатором или ключом отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate - нарушена уникальность бизнес-ключа (Author.name, User.username).
	ErrDuplicate = errors.New("duplicate key")
)
