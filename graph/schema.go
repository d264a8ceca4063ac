package graph

import (
	_ "embed"
	"sync"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphqls
var SchemaSDL string

var (
	parsedSchemaOnce sync.Once
	parsedSchema     *ast.Schema
)

// ParsedSchema разбирает SDL один раз; ошибка в схеме - паника при старте.
func ParsedSchema() *ast.Schema {
	parsedSchemaOnce.Do(func() {
		parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: SchemaSDL})
	})
	return parsedSchema
}
