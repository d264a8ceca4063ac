package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	PrefixAuthor = "author"
	PrefixBook   = "book"
	PrefixUser   = "user"
)

// Generate создает идентификатор вида prefix-nanoid (например "book-V1StGXR8_Z5jdHi6B-myT").
// Идентификатор известен до сохранения, поэтому книгу можно связать с еще не сохраненным автором.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}
