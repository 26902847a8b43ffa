package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/99designs/gqlgen/graphql"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Config wires the executable schema.
type Config struct {
	Resolvers *Resolver
}

// ExecutableSchema serves the recipebox schema through the gqlgen handler.
// Requests arrive parsed and validated by gqlgen; execution is delegated to
// the resolver-bound schema.
type ExecutableSchema struct {
	schema *graphqlgo.Schema
	parsed *ast.Schema
}

var _ graphql.ExecutableSchema = (*ExecutableSchema)(nil)

// NewExecutableSchema binds cfg.Resolvers to the schema.
func NewExecutableSchema(cfg Config) (*ExecutableSchema, error) {
	if cfg.Resolvers == nil {
		return nil, fmt.Errorf("executable schema: resolvers are required")
	}
	s, err := NewSchema(cfg.Resolvers)
	if err != nil {
		return nil, err
	}
	parsed, err := loadParsedSchema()
	if err != nil {
		return nil, err
	}
	return &ExecutableSchema{schema: s, parsed: parsed}, nil
}

// Schema returns the parsed SDL.
func (e *ExecutableSchema) Schema() *ast.Schema {
	return e.parsed
}

// Complexity reports no per-field costs; depth is bounded by DefaultMaxDepth.
func (e *ExecutableSchema) Complexity(context.Context, string, string, int, map[string]any) (int, bool) {
	return 0, false
}

// Exec runs the operation in ctx. Queries and mutations yield one response;
// subscriptions yield one response per event until the stream ends.
func (e *ExecutableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	vars, err := plainVariables(opCtx.Variables)
	if err != nil {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "invalid variables: %v", err))
	}

	if opCtx.Operation != nil && opCtx.Operation.Operation == ast.Subscription {
		return e.subscribe(ctx, opCtx, vars)
	}

	var once sync.Once
	return func(ctx context.Context) *graphql.Response {
		var resp *graphql.Response
		once.Do(func() {
			resp = toResponse(e.schema.Exec(ctx, opCtx.RawQuery, opCtx.OperationName, vars))
		})
		return resp
	}
}

func (e *ExecutableSchema) subscribe(ctx context.Context, opCtx *graphql.OperationContext, vars map[string]any) graphql.ResponseHandler {
	stream, err := e.schema.Subscribe(ctx, opCtx.RawQuery, opCtx.OperationName, vars)
	if err != nil {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "%s", err))
	}
	return func(ctx context.Context) *graphql.Response {
		select {
		case raw, ok := <-stream:
			if !ok {
				return nil
			}
			resp, ok := raw.(*graphqlgo.Response)
			if !ok {
				return graphql.ErrorResponse(ctx, "unexpected subscription payload %T", raw)
			}
			return toResponse(resp)
		case <-ctx.Done():
			return nil
		}
	}
}

// plainVariables re-encodes coerced variables into the JSON shapes the
// resolver schema unpacks (float64 numbers, plain maps).
func plainVariables(vars map[string]any) (map[string]any, error) {
	if len(vars) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(vars)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toResponse(r *graphqlgo.Response) *graphql.Response {
	out := &graphql.Response{Data: r.Data, Extensions: r.Extensions}
	for _, qe := range r.Errors {
		out.Errors = append(out.Errors, toGQLError(qe))
	}
	return out
}

func toGQLError(qe *errors.QueryError) *gqlerror.Error {
	err := &gqlerror.Error{
		Err:        qe.Err,
		Message:    qe.Message,
		Extensions: qe.Extensions,
		Rule:       qe.Rule,
	}
	for _, loc := range qe.Locations {
		err.Locations = append(err.Locations, gqlerror.Location{Line: loc.Line, Column: loc.Column})
	}
	for _, p := range qe.Path {
		switch v := p.(type) {
		case string:
			err.Path = append(err.Path, ast.PathName(v))
		case int:
			err.Path = append(err.Path, ast.PathIndex(v))
		}
	}
	return err
}
