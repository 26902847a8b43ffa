// Package graph provides GraphQL types and resolvers for recipebox.
package graph

import (
	"github.com/graph-gophers/graphql-go"
)

// Option is a metadata reference option.
type Option struct {
	Key   string
	Label string
}

// Metadata holds every reference list.
type Metadata struct {
	Categories []*Option
	Levels     []*Option
	Labels     []*Option
	Units      []*Option
}

// OptionValue is a stored {value,label} pair.
type OptionValue struct {
	Value string
	Label string
}

// Ingredient is a recipe ingredient.
type Ingredient struct {
	LocalID  string
	Name     string
	Quantity float64
	Unit     string
}

// PreparationStep is a recipe step.
type PreparationStep struct {
	Description string
	Order       int32
}

// Recipe is a published recipe.
type Recipe struct {
	ID               graphql.ID
	AuthorID         *graphql.ID
	Title            string
	Description      string
	ImgSrc           string
	CookingTime      int32
	Servings         int32
	DifficultyLevel  *OptionValue
	Category         *OptionValue
	Labels           []*OptionValue
	YoutubeLink      string
	Ingredients      []*Ingredient
	PreparationSteps []*PreparationStep
	CreatedAt        graphql.Time
	UpdatedAt        graphql.Time
}

// RecipeEvent is pushed to recipeEvents subscribers.
type RecipeEvent struct {
	Type     string
	RecipeID graphql.ID
	Title    string
	At       graphql.Time
}

// User is a public account view. The password hash never leaves the service layer.
type User struct {
	ID          graphql.ID
	Email       string
	DisplayName string
	Bio         *string
	CreatedAt   graphql.Time
}

// AuthPayload is returned by register and login.
type AuthPayload struct {
	Token string
	User  *User
}

// OperationStats summarizes one operation type.
type OperationStats struct {
	Count       int32
	Errors      int32
	TotalTimeMs int32
	AvgTimeMs   float64
	MinTimeMs   int32
	MaxTimeMs   int32
}

// ServerStats is the runtime statistics snapshot.
type ServerStats struct {
	UptimeSeconds float64
	DBQuery       *OperationStats
	DBTx          *OperationStats
	GraphQL       *OperationStats
	PasswordHash  *OperationStats
}

// =============================================================================
// INPUTS
// =============================================================================

// OptionInput is a {value,label} argument.
type OptionInput struct {
	Value string
	Label string
}

// IngredientInput is an ingredient argument.
type IngredientInput struct {
	LocalID  *string
	Name     string
	Quantity float64
	Unit     string
}

// StepInput is a step argument.
type StepInput struct {
	Description string
	Order       int32
}

// RecipeInput is the createRecipe/editRecipe argument.
type RecipeInput struct {
	Title            string
	Description      string
	ImgSrc           string
	CookingTime      int32
	Servings         int32
	DifficultyLevel  OptionInput
	Category         OptionInput
	Labels           []OptionInput
	YoutubeLink      string
	Ingredients      []IngredientInput
	PreparationSteps []StepInput
}

// RegisterInput is the register argument.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// ProfileInput is the updateProfile argument.
type ProfileInput struct {
	DisplayName     *string
	Bio             *string
	Password        *string
	CurrentPassword *string
}
