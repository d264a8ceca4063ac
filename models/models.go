package models

import "time"

// Строки PostgreSQL. Идентификаторы генерируются приложением (internal/id),
// поэтому первичные ключи строковые.

type Author struct {
	ID        string `gorm:"primary_key"`
	Name      string `gorm:"unique_index;not null"`
	Born      *int
	Books     []AuthorBook `gorm:"foreignkey:AuthorID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthorBook - денормализованный список книг автора (Author.books) с порядком добавления.
type AuthorBook struct {
	AuthorID string `gorm:"primary_key"`
	BookID   string `gorm:"primary_key"`
	Position int
}

type Book struct {
	ID        string `gorm:"primary_key"`
	Title     string `gorm:"not null"`
	Published int
	AuthorID  string      `gorm:"index;not null"`
	Genres    []BookGenre `gorm:"foreignkey:BookID"`
	CreatedAt time.Time
}

type BookGenre struct {
	BookID   string `gorm:"primary_key"`
	Genre    string `gorm:"primary_key;index"`
	Position int
}

type User struct {
	ID            string `gorm:"primary_key"`
	Username      string `gorm:"unique_index;not null"`
	FavoriteGenre *string
	CreatedAt     time.Time
}

// All - список моделей для AutoMigrate.
func All() []interface{} {
	return []interface{}{&Author{}, &AuthorBook{}, &Book{}, &BookGenre{}, &User{}}
}
