// Package models defines data structures shared by the recipebox server, client and composer.
package models

import (
	"time"

	"github.com/google/uuid"
)

// OptionInput is the {value,label} pair used in mutation payloads.
type OptionInput struct {
	Value string `json:"value" validate:"required,max=64"`
	Label string `json:"label" validate:"max=120"`
}

// IngredientInput is an ingredient row in a mutation payload.
type IngredientInput struct {
	LocalID  string  `json:"localId"`
	Name     string  `json:"name" validate:"notblank,max=120"`
	Quantity float64 `json:"quantity" validate:"gte=0,lte=100000"`
	Unit     string  `json:"unit" validate:"max=32"`
}

// StepInput is a preparation step in a mutation payload.
type StepInput struct {
	Description string `json:"description" validate:"notblank,max=2000"`
	Order       int    `json:"order" validate:"gte=1"`
}

// RecipeInput is the create/edit mutation payload.
type RecipeInput struct {
	Title            string            `json:"title" validate:"notblank,max=120"`
	Description      string            `json:"description" validate:"notblank,max=2000"`
	ImgSrc           string            `json:"imgSrc" validate:"omitempty,url"`
	CookingTime      int               `json:"cookingTime" validate:"gt=0"`
	Servings         int               `json:"servings" validate:"gt=0"`
	DifficultyLevel  OptionInput       `json:"difficultyLevel"`
	Category         OptionInput       `json:"category"`
	Labels           []OptionInput     `json:"labels" validate:"dive"`
	YoutubeLink      string            `json:"youtubeLink" validate:"omitempty,url"`
	Ingredients      []IngredientInput `json:"ingredients" validate:"min=1,dive"`
	PreparationSteps []StepInput       `json:"preparationSteps" validate:"min=1,dive"`
}

// Recipe is a persisted recipe.
type Recipe struct {
	ID              uuid.UUID     `db:"id"`
	AuthorID        *uuid.UUID    `db:"author_id"`
	Title           string        `db:"title"`
	Description     string        `db:"description"`
	ImgSrc          string        `db:"img_src"`
	CookingTime     int           `db:"cooking_time"`
	Servings        int           `db:"servings"`
	DifficultyKey   string        `db:"difficulty_key"`
	DifficultyLabel string        `db:"difficulty_label"`
	CategoryKey     string        `db:"category_key"`
	CategoryLabel   string        `db:"category_label"`
	Labels          []OptionInput `db:"labels"`
	YoutubeLink     string        `db:"youtube_link"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`

	Ingredients []RecipeIngredient `db:"-"`
	Steps       []RecipeStep       `db:"-"`
}

// RecipeIngredient is a stored ingredient row.
type RecipeIngredient struct {
	RecipeID uuid.UUID `db:"recipe_id"`
	Position int       `db:"position"`
	LocalID  string    `db:"local_id"`
	Name     string    `db:"name"`
	Quantity float64   `db:"quantity"`
	Unit     string    `db:"unit"`
}

// RecipeStep is a stored preparation step.
type RecipeStep struct {
	RecipeID    uuid.UUID `db:"recipe_id"`
	StepOrder   int       `db:"step_order"`
	Description string    `db:"description"`
}

// RecipeFilter narrows recipe listings.
type RecipeFilter struct {
	Category *string
	Label    *string
	AuthorID *uuid.UUID
	Limit    int
	Offset   int
}

// ToFormValues seeds the composer from a stored recipe (edit mode).
// Local IDs are regenerated because stored rows only carry positions.
func (r *Recipe) ToFormValues() FormValues {
	v := DefaultFormValues()
	v.Title = r.Title
	v.Description = r.Description
	v.ImgSrc = r.ImgSrc
	v.CookingTime = NumberOf(float64(r.CookingTime))
	v.Servings = NumberOf(float64(r.Servings))
	v.DifficultyLevel = &Option{Key: r.DifficultyKey, Label: r.DifficultyLabel}
	v.Category = &Option{Key: r.CategoryKey, Label: r.CategoryLabel}
	for _, l := range r.Labels {
		v.Labels = append(v.Labels, l.Value)
	}
	v.YoutubeLink = r.YoutubeLink
	for _, ing := range r.Ingredients {
		localID := ing.LocalID
		if localID == "" {
			localID = uuid.NewString()
		}
		v.Ingredients = append(v.Ingredients, Ingredient{
			LocalID:  localID,
			Name:     ing.Name,
			Quantity: NumberOf(ing.Quantity),
			Unit:     ing.Unit,
		})
	}
	for _, st := range r.Steps {
		v.PreparationSteps = append(v.PreparationSteps, PreparationStep{
			LocalID:     uuid.NewString(),
			Description: st.Description,
			Order:       st.StepOrder,
		})
	}
	NormalizeStepOrder(v.PreparationSteps)
	return v
}
