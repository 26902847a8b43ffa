package graph

import (
	"context"
	"errors"

	"github.com/graph-gophers/graphql-go"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/models"
)

// Metadata returns every reference list.
func (r *Resolver) Metadata(ctx context.Context) (*Metadata, error) {
	md, err := r.metaSvc.FetchMetadata(ctx)
	if err != nil {
		return nil, r.toPublic(ctx, "metadata", err)
	}
	return metadataToGraphQL(md), nil
}

type recipesArgs struct {
	Category *string
	Label    *string
	AuthorID *graphql.ID
	Limit    *int32
	Offset   *int32
}

// Recipes lists recipes newest first.
func (r *Resolver) Recipes(ctx context.Context, args recipesArgs) ([]*Recipe, error) {
	filter := models.RecipeFilter{Category: args.Category, Label: args.Label}
	if args.AuthorID != nil {
		id, err := parseID(*args.AuthorID)
		if err != nil {
			return nil, err
		}
		filter.AuthorID = &id
	}
	if args.Limit != nil {
		filter.Limit = int(*args.Limit)
	}
	if args.Offset != nil {
		filter.Offset = int(*args.Offset)
	}

	recipes, err := r.recipeSvc.List(ctx, filter)
	if err != nil {
		return nil, r.toPublic(ctx, "recipes", err)
	}
	out := make([]*Recipe, len(recipes))
	for i := range recipes {
		out[i] = recipeToGraphQL(&recipes[i])
	}
	return out, nil
}

// Recipe returns one recipe, or null when it does not exist.
func (r *Resolver) Recipe(ctx context.Context, args struct{ ID graphql.ID }) (*Recipe, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}
	rec, err := r.recipeSvc.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.toPublic(ctx, "recipe", err)
	}
	return recipeToGraphQL(rec), nil
}

// Me returns the signed-in user, or null for anonymous requests.
func (r *Resolver) Me(ctx context.Context) (*User, error) {
	id, ok := UserFromContext(ctx)
	if !ok {
		return nil, nil
	}
	u, err := r.userSvc.Me(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		// Token outlived its account.
		return nil, nil
	}
	if err != nil {
		return nil, r.toPublic(ctx, "me", err)
	}
	return userToGraphQL(u), nil
}

// ServerStats returns runtime statistics.
func (r *Resolver) ServerStats() *ServerStats {
	snap := r.stats.Snapshot()
	return &ServerStats{
		UptimeSeconds: snap.UptimeSeconds,
		DBQuery:       opStatsToGraphQL(snap.DBQuery),
		DBTx:          opStatsToGraphQL(snap.DBTx),
		GraphQL:       opStatsToGraphQL(snap.GraphQL),
		PasswordHash:  opStatsToGraphQL(snap.PasswordHash),
	}
}
