// Package schema holds the GraphQL read-side schema.
package schema

import (
	_ "embed"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphqls
var source string

// Load parses the embedded schema. It panics on a malformed schema, which
// can only happen at build time.
func Load() *ast.Schema {
	return gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: source})
}
