package client

import (
	"time"

	"github.com/raphaelgruber/recipebox/internal/models"
)

// =============================================================================
// TYPES (matching GraphQL schema)
// =============================================================================

// Recipe is a published recipe.
type Recipe struct {
	ID               string                   `json:"id"`
	AuthorID         *string                  `json:"authorId,omitempty"`
	Title            string                   `json:"title"`
	Description      string                   `json:"description"`
	ImgSrc           string                   `json:"imgSrc"`
	CookingTime      int                      `json:"cookingTime"`
	Servings         int                      `json:"servings"`
	DifficultyLevel  models.OptionInput       `json:"difficultyLevel"`
	Category         models.OptionInput       `json:"category"`
	Labels           []models.OptionInput     `json:"labels"`
	YoutubeLink      string                   `json:"youtubeLink"`
	Ingredients      []models.IngredientInput `json:"ingredients"`
	PreparationSteps []models.StepInput       `json:"preparationSteps"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// FormValues seeds the composer with the recipe for editing.
func (r *Recipe) FormValues() models.FormValues {
	stored := models.Recipe{
		Title:           r.Title,
		Description:     r.Description,
		ImgSrc:          r.ImgSrc,
		CookingTime:     r.CookingTime,
		Servings:        r.Servings,
		DifficultyKey:   r.DifficultyLevel.Value,
		DifficultyLabel: r.DifficultyLevel.Label,
		CategoryKey:     r.Category.Value,
		CategoryLabel:   r.Category.Label,
		Labels:          r.Labels,
		YoutubeLink:     r.YoutubeLink,
	}
	for i, ing := range r.Ingredients {
		stored.Ingredients = append(stored.Ingredients, models.RecipeIngredient{
			Position: i,
			LocalID:  ing.LocalID,
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}
	for _, st := range r.PreparationSteps {
		stored.Steps = append(stored.Steps, models.RecipeStep{StepOrder: st.Order, Description: st.Description})
	}
	return stored.ToFormValues()
}

// User is an account as seen by its owner.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Bio         *string   `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AuthPayload is returned by register and login.
type AuthPayload struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RecipeEvent is a change notification from the recipe feed.
type RecipeEvent struct {
	Type     string    `json:"type"`
	RecipeID string    `json:"recipeId"`
	Title    string    `json:"title"`
	At       time.Time `json:"at"`
}

// OperationStats holds metrics for a single operation type.
type OperationStats struct {
	Count       int     `json:"count"`
	Errors      int     `json:"errors"`
	TotalTimeMs int     `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int     `json:"minTimeMs"`
	MaxTimeMs   int     `json:"maxTimeMs"`
}

// ServerStats holds in-memory runtime statistics (resets on server restart).
type ServerStats struct {
	UptimeSeconds float64         `json:"uptimeSeconds"`
	DBQuery       *OperationStats `json:"dbQuery,omitempty"`
	DBTx          *OperationStats `json:"dbTx,omitempty"`
	GraphQL       *OperationStats `json:"graphql,omitempty"`
	PasswordHash  *OperationStats `json:"passwordHash,omitempty"`
}
