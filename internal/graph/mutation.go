package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"
	"github.com/raphaelgruber/recipebox/internal/models"
)

// CreateRecipe publishes a new recipe owned by the caller.
func (r *Resolver) CreateRecipe(ctx context.Context, args struct{ Input RecipeInput }) (*Recipe, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, r.toPublic(ctx, "createRecipe", err)
	}
	rec, err := r.recipeSvc.Create(ctx, userID, recipeInputToModel(args.Input))
	if err != nil {
		return nil, r.toPublic(ctx, "createRecipe", err)
	}
	return recipeToGraphQL(rec), nil
}

// EditRecipe replaces a recipe the caller owns.
func (r *Resolver) EditRecipe(ctx context.Context, args struct {
	ID    graphql.ID
	Input RecipeInput
}) (*Recipe, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, r.toPublic(ctx, "editRecipe", err)
	}
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}
	rec, err := r.recipeSvc.Edit(ctx, userID, id, recipeInputToModel(args.Input))
	if err != nil {
		return nil, r.toPublic(ctx, "editRecipe", err)
	}
	return recipeToGraphQL(rec), nil
}

// DeleteRecipe removes a recipe the caller owns.
func (r *Resolver) DeleteRecipe(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return false, r.toPublic(ctx, "deleteRecipe", err)
	}
	id, err := parseID(args.ID)
	if err != nil {
		return false, err
	}
	deleted, err := r.recipeSvc.Delete(ctx, userID, id)
	if err != nil {
		return false, r.toPublic(ctx, "deleteRecipe", err)
	}
	return deleted, nil
}

// Register creates an account and signs it in.
func (r *Resolver) Register(ctx context.Context, args struct{ Input RegisterInput }) (*AuthPayload, error) {
	res, err := r.userSvc.Register(ctx, models.RegisterInput{
		Email:       args.Input.Email,
		Password:    args.Input.Password,
		DisplayName: args.Input.DisplayName,
	})
	if err != nil {
		return nil, r.toPublic(ctx, "register", err)
	}
	return &AuthPayload{Token: res.Token, User: userToGraphQL(res.User)}, nil
}

// Login exchanges credentials for a session token.
func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*AuthPayload, error) {
	res, err := r.userSvc.Login(ctx, args.Email, args.Password)
	if err != nil {
		return nil, r.toPublic(ctx, "login", err)
	}
	return &AuthPayload{Token: res.Token, User: userToGraphQL(res.User)}, nil
}

// RequestPasswordReset always reports true for well-formed requests.
func (r *Resolver) RequestPasswordReset(ctx context.Context, args struct{ Email string }) (bool, error) {
	if err := r.userSvc.RequestPasswordReset(ctx, args.Email); err != nil {
		return false, r.toPublic(ctx, "requestPasswordReset", err)
	}
	return true, nil
}

func (r *Resolver) ResetPassword(ctx context.Context, args struct {
	Token    string
	Password string
}) (bool, error) {
	if err := r.userSvc.ResetPassword(ctx, args.Token, args.Password); err != nil {
		return false, r.toPublic(ctx, "resetPassword", err)
	}
	return true, nil
}

// UpdateProfile changes the caller's display name, bio or password.
func (r *Resolver) UpdateProfile(ctx context.Context, args struct{ Input ProfileInput }) (*User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, r.toPublic(ctx, "updateProfile", err)
	}
	u, err := r.userSvc.UpdateProfile(ctx, userID, models.ProfileUpdate{
		DisplayName:     args.Input.DisplayName,
		Bio:             args.Input.Bio,
		Password:        args.Input.Password,
		CurrentPassword: args.Input.CurrentPassword,
	})
	if err != nil {
		return nil, r.toPublic(ctx, "updateProfile", err)
	}
	return userToGraphQL(u), nil
}
