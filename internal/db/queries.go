package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/models"
)

const recipeColumns = `id, author_id, title, description, img_src, cooking_time, servings,
	difficulty_key, difficulty_label, category_key, category_label, labels, youtube_link,
	created_at, updated_at`

// DefaultListLimit caps listings when the caller passes no limit.
const DefaultListLimit = 50

// CreateRecipe inserts a recipe with its ingredients and steps in one transaction.
func (c *Client) CreateRecipe(ctx context.Context, authorID *uuid.UUID, in models.RecipeInput) (*models.Recipe, error) {
	var out models.Recipe
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		labels := in.Labels
		if labels == nil {
			labels = []models.OptionInput{}
		}
		err := pgxscan.Get(ctx, tx, &out, `
			INSERT INTO recipes (id, author_id, title, description, img_src, cooking_time, servings,
				difficulty_key, difficulty_label, category_key, category_label, labels, youtube_link)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING `+recipeColumns,
			uuid.New(), authorID, in.Title, in.Description, in.ImgSrc, in.CookingTime, in.Servings,
			in.DifficultyLevel.Value, in.DifficultyLevel.Label, in.Category.Value, in.Category.Label,
			labels, in.YoutubeLink,
		)
		if err != nil {
			return fmt.Errorf("insert recipe: %w", wrapQueryError(err))
		}
		if err := insertChildren(ctx, tx, out.ID, in); err != nil {
			return err
		}
		out.Ingredients, out.Steps = childrenFromInput(out.ID, in)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("recipe created", "id", out.ID, "ingredients", len(out.Ingredients), "steps", len(out.Steps))
	return &out, nil
}

// UpdateRecipe replaces a recipe's fields and child rows in one transaction.
// Returns ErrNotFound if the recipe does not exist.
func (c *Client) UpdateRecipe(ctx context.Context, id uuid.UUID, in models.RecipeInput) (*models.Recipe, error) {
	var out models.Recipe
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		labels := in.Labels
		if labels == nil {
			labels = []models.OptionInput{}
		}
		err := pgxscan.Get(ctx, tx, &out, `
			UPDATE recipes SET
				title = $2, description = $3, img_src = $4, cooking_time = $5, servings = $6,
				difficulty_key = $7, difficulty_label = $8, category_key = $9, category_label = $10,
				labels = $11, youtube_link = $12, updated_at = now()
			WHERE id = $1
			RETURNING `+recipeColumns,
			id, in.Title, in.Description, in.ImgSrc, in.CookingTime, in.Servings,
			in.DifficultyLevel.Value, in.DifficultyLevel.Label, in.Category.Value, in.Category.Label,
			labels, in.YoutubeLink,
		)
		if err != nil {
			return fmt.Errorf("update recipe: %w", wrapQueryError(err))
		}

		if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, id); err != nil {
			return fmt.Errorf("delete ingredients: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM recipe_steps WHERE recipe_id = $1`, id); err != nil {
			return fmt.Errorf("delete steps: %w", err)
		}
		if err := insertChildren(ctx, tx, id, in); err != nil {
			return err
		}
		out.Ingredients, out.Steps = childrenFromInput(id, in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// insertChildren queues every ingredient and step insert in a single batch.
func insertChildren(ctx context.Context, tx pgx.Tx, recipeID uuid.UUID, in models.RecipeInput) error {
	batch := &pgx.Batch{}
	for i, ing := range in.Ingredients {
		batch.Queue(`
			INSERT INTO recipe_ingredients (recipe_id, position, local_id, name, quantity, unit)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			recipeID, i, ing.LocalID, ing.Name, ing.Quantity, ing.Unit)
	}
	for _, st := range in.PreparationSteps {
		batch.Queue(`
			INSERT INTO recipe_steps (recipe_id, step_order, description)
			VALUES ($1, $2, $3)`,
			recipeID, st.Order, st.Description)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert child row %d: %w", i, wrapQueryError(err))
		}
	}
	return br.Close()
}

func childrenFromInput(recipeID uuid.UUID, in models.RecipeInput) ([]models.RecipeIngredient, []models.RecipeStep) {
	ings := make([]models.RecipeIngredient, len(in.Ingredients))
	for i, ing := range in.Ingredients {
		ings[i] = models.RecipeIngredient{
			RecipeID: recipeID,
			Position: i,
			LocalID:  ing.LocalID,
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		}
	}
	steps := make([]models.RecipeStep, len(in.PreparationSteps))
	for i, st := range in.PreparationSteps {
		steps[i] = models.RecipeStep{RecipeID: recipeID, StepOrder: st.Order, Description: st.Description}
	}
	return ings, steps
}

// GetRecipe loads a recipe with its children. Returns ErrNotFound if absent.
func (c *Client) GetRecipe(ctx context.Context, id uuid.UUID) (_ *models.Recipe, err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	var r models.Recipe
	if err := pgxscan.Get(ctx, c.pool, &r, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id); err != nil {
		return nil, wrapQueryError(err)
	}
	if err := c.loadChildren(ctx, []*models.Recipe{&r}); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecipes returns recipes newest first, optionally filtered.
func (c *Client) ListRecipes(ctx context.Context, filter models.RecipeFilter) (_ []models.Recipe, err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	var (
		where []string
		args  []any
	)
	if filter.Category != nil {
		args = append(args, *filter.Category)
		where = append(where, fmt.Sprintf("category_key = $%d", len(args)))
	}
	if filter.Label != nil {
		args = append(args, fmt.Sprintf(`[{"value":%q}]`, *filter.Label))
		where = append(where, fmt.Sprintf("labels @> $%d::jsonb", len(args)))
	}
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		where = append(where, fmt.Sprintf("author_id = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit, max(filter.Offset, 0))

	sql := `SELECT ` + recipeColumns + ` FROM recipes`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var recipes []models.Recipe
	if err := pgxscan.Select(ctx, c.pool, &recipes, sql, args...); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	ptrs := make([]*models.Recipe, len(recipes))
	for i := range recipes {
		ptrs[i] = &recipes[i]
	}
	if err := c.loadChildren(ctx, ptrs); err != nil {
		return nil, err
	}
	return recipes, nil
}

// loadChildren fills ingredients and steps for the given recipes with two queries.
func (c *Client) loadChildren(ctx context.Context, recipes []*models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(recipes))
	byID := make(map[uuid.UUID]*models.Recipe, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		byID[r.ID] = r
		r.Ingredients = []models.RecipeIngredient{}
		r.Steps = []models.RecipeStep{}
	}

	var ings []models.RecipeIngredient
	if err := pgxscan.Select(ctx, c.pool, &ings, `
		SELECT recipe_id, position, local_id, name, quantity, unit
		FROM recipe_ingredients WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, position`, ids); err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	for _, ing := range ings {
		r := byID[ing.RecipeID]
		r.Ingredients = append(r.Ingredients, ing)
	}

	var steps []models.RecipeStep
	if err := pgxscan.Select(ctx, c.pool, &steps, `
		SELECT recipe_id, step_order, description
		FROM recipe_steps WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, step_order`, ids); err != nil {
		return fmt.Errorf("load steps: %w", err)
	}
	for _, st := range steps {
		r := byID[st.RecipeID]
		r.Steps = append(r.Steps, st)
	}
	return nil
}

// RecipeAuthor returns the author of a recipe (nil for anonymous recipes).
// Returns ErrNotFound if the recipe does not exist.
func (c *Client) RecipeAuthor(ctx context.Context, id uuid.UUID) (_ *uuid.UUID, err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	var author *uuid.UUID
	if err := c.pool.QueryRow(ctx, `SELECT author_id FROM recipes WHERE id = $1`, id).Scan(&author); err != nil {
		return nil, wrapQueryError(err)
	}
	return author, nil
}

// DeleteRecipe deletes a recipe; children cascade. Reports whether a row was removed.
func (c *Client) DeleteRecipe(ctx context.Context, id uuid.UUID) (_ bool, err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	tag, err := c.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete recipe: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
