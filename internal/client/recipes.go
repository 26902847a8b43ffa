package client

import (
	"context"

	"github.com/raphaelgruber/recipebox/internal/models"
)

const recipeFields = `
	id authorId title description imgSrc cookingTime servings
	difficultyLevel { value label }
	category { value label }
	labels { value label }
	youtubeLink
	ingredients { localId name quantity unit }
	preparationSteps { description order }
	createdAt updatedAt
`

// =============================================================================
// RECIPE OPERATIONS
// =============================================================================

// CreateRecipe publishes a new recipe.
func (c *Client) CreateRecipe(ctx context.Context, input models.RecipeInput) (*Recipe, error) {
	const query = `
		mutation CreateRecipe($input: RecipeInput!) {
			createRecipe(input: $input) {` + recipeFields + `}
		}
	`

	var result struct {
		CreateRecipe Recipe `json:"createRecipe"`
	}
	if err := c.Execute(ctx, query, map[string]any{"input": input}, &result); err != nil {
		return nil, err
	}
	return &result.CreateRecipe, nil
}

// EditRecipe replaces an existing recipe.
func (c *Client) EditRecipe(ctx context.Context, id string, input models.RecipeInput) (*Recipe, error) {
	const query = `
		mutation EditRecipe($id: ID!, $input: RecipeInput!) {
			editRecipe(id: $id, input: $input) {` + recipeFields + `}
		}
	`

	var result struct {
		EditRecipe Recipe `json:"editRecipe"`
	}
	if err := c.Execute(ctx, query, map[string]any{"id": id, "input": input}, &result); err != nil {
		return nil, err
	}
	return &result.EditRecipe, nil
}

// DeleteRecipe deletes a recipe by ID.
func (c *Client) DeleteRecipe(ctx context.Context, id string) (bool, error) {
	const query = `
		mutation DeleteRecipe($id: ID!) {
			deleteRecipe(id: $id)
		}
	`

	var result struct {
		DeleteRecipe bool `json:"deleteRecipe"`
	}
	if err := c.Execute(ctx, query, map[string]any{"id": id}, &result); err != nil {
		return false, err
	}
	return result.DeleteRecipe, nil
}

// GetRecipe retrieves a recipe by ID. Returns nil when it does not exist.
func (c *Client) GetRecipe(ctx context.Context, id string) (*Recipe, error) {
	const query = `
		query GetRecipe($id: ID!) {
			recipe(id: $id) {` + recipeFields + `}
		}
	`

	var result struct {
		Recipe *Recipe `json:"recipe"`
	}
	if err := c.Execute(ctx, query, map[string]any{"id": id}, &result); err != nil {
		return nil, err
	}
	return result.Recipe, nil
}

// ListRecipesOptions configures recipe listing.
type ListRecipesOptions struct {
	Category *string
	Label    *string
	AuthorID *string
	Limit    *int
	Offset   *int
}

// ListRecipes returns recipes newest first with optional filtering.
func (c *Client) ListRecipes(ctx context.Context, opts ListRecipesOptions) ([]Recipe, error) {
	const query = `
		query ListRecipes($category: String, $label: String, $authorId: ID, $limit: Int, $offset: Int) {
			recipes(category: $category, label: $label, authorId: $authorId, limit: $limit, offset: $offset) {` + recipeFields + `}
		}
	`

	vars := map[string]any{}
	if opts.Category != nil {
		vars["category"] = *opts.Category
	}
	if opts.Label != nil {
		vars["label"] = *opts.Label
	}
	if opts.AuthorID != nil {
		vars["authorId"] = *opts.AuthorID
	}
	if opts.Limit != nil {
		vars["limit"] = *opts.Limit
	}
	if opts.Offset != nil {
		vars["offset"] = *opts.Offset
	}

	var result struct {
		Recipes []Recipe `json:"recipes"`
	}
	if err := c.Execute(ctx, query, vars, &result); err != nil {
		return nil, err
	}
	return result.Recipes, nil
}

// =============================================================================
// METADATA & STATS
// =============================================================================

// FetchMetadata returns the reference lists used by the composer.
func (c *Client) FetchMetadata(ctx context.Context) (*models.Metadata, error) {
	const query = `
		query Metadata {
			metadata {
				categories { key label }
				levels { key label }
				labels { key label }
				units { key label }
			}
		}
	`

	var result struct {
		Metadata models.Metadata `json:"metadata"`
	}
	if err := c.Execute(ctx, query, nil, &result); err != nil {
		return nil, err
	}
	return &result.Metadata, nil
}

// GetServerStats returns in-memory runtime statistics.
func (c *Client) GetServerStats(ctx context.Context) (*ServerStats, error) {
	const query = `
		query GetServerStats {
			serverStats {
				uptimeSeconds
				dbQuery { count errors totalTimeMs avgTimeMs minTimeMs maxTimeMs }
				dbTx { count errors totalTimeMs avgTimeMs minTimeMs maxTimeMs }
				graphql { count errors totalTimeMs avgTimeMs minTimeMs maxTimeMs }
				passwordHash { count errors totalTimeMs avgTimeMs minTimeMs maxTimeMs }
			}
		}
	`

	var result struct {
		ServerStats ServerStats `json:"serverStats"`
	}
	if err := c.Execute(ctx, query, nil, &result); err != nil {
		return nil, err
	}
	return &result.ServerStats, nil
}
