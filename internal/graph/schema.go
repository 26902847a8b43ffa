package graph

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// SchemaSDL is the recipebox GraphQL schema.
//
//go:embed schema.graphql
var SchemaSDL string

// DefaultMaxDepth limits query nesting.
const DefaultMaxDepth = 12

// NewSchema parses the schema and binds it to r.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	s, err := graphql.ParseSchema(SchemaSDL, r,
		graphql.UseFieldResolvers(),
		graphql.MaxDepth(DefaultMaxDepth),
		graphql.Logger(panicLogger{logger: r.logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return s, nil
}

var (
	astOnce   sync.Once
	astSchema *ast.Schema
	astErr    error
)

func loadParsedSchema() (*ast.Schema, error) {
	astOnce.Do(func() {
		astSchema, astErr = gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: SchemaSDL})
	})
	if astErr != nil {
		return nil, fmt.Errorf("load schema: %w", astErr)
	}
	return astSchema, nil
}

// ValidateOperation checks an operation document against the schema without
// executing it. The client package uses it to keep its queries in sync.
func ValidateOperation(doc string) error {
	parsed, err := loadParsedSchema()
	if err != nil {
		return err
	}
	if _, errs := gqlparser.LoadQuery(parsed, doc); len(errs) > 0 {
		return errs
	}
	return nil
}
