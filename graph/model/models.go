package model

// Author - автор книг. BookIDs дублирует связь Book.AuthorID и поддерживается
// резолверами при каждом добавлении книги.
type Author struct {
	ID      string   `json:"id" validate:"required"`
	Name    string   `json:"name" validate:"required"`
	Born    *int     `json:"born,omitempty"`
	BookIDs []string `json:"books"`
}

// Book - книга. Author заполняется только после populate (повторного чтения с автором).
type Book struct {
	ID        string   `json:"id" validate:"required"`
	Title     string   `json:"title" validate:"required"`
	Published int      `json:"published"`
	AuthorID  string   `json:"authorId" validate:"required"`
	Genres    []string `json:"genres"`
	Author    *Author  `json:"-"`
}

type User struct {
	ID            string  `json:"id" validate:"required"`
	Username      string  `json:"username" validate:"required,min=3"`
	FavoriteGenre *string `json:"favoriteGenre,omitempty"`
}

type Token struct {
	Value string `json:"value"`
}

// HasGenre сообщает, есть ли у книги хотя бы один жанр из списка.
func (b *Book) HasGenre(genres []string) bool {
	for _, g := range b.Genres {
		for _, want := range genres {
			if g == want {
				return true
			}
		}
	}
	return false
}

// UniqueGenres убирает повторы жанров, сохраняя порядок первого вхождения.
func UniqueGenres(genres []string) []string {
	if genres == nil {
		return nil
	}
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Clone возвращает копию автора, чтобы хранилища не раздавали общие срезы.
func (a *Author) Clone() *Author {
	if a == nil {
		return nil
	}
	c := *a
	if a.Born != nil {
		born := *a.Born
		c.Born = &born
	}
	c.BookIDs = append([]string(nil), a.BookIDs...)
	return &c
}

func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	c := *b
	c.Genres = append([]string(nil), b.Genres...)
	c.Author = b.Author.Clone()
	return &c
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.FavoriteGenre != nil {
		genre := *u.FavoriteGenre
		c.FavoriteGenre = &genre
	}
	return &c
}
