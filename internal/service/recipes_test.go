package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() models.RecipeInput {
	return models.RecipeInput{
		Title:           "  Shakshuka ",
		Description:     "Eggs in sauce",
		CookingTime:     25,
		Servings:        2,
		DifficultyLevel: models.OptionInput{Value: "easy"},
		Category:        models.OptionInput{Value: "dinner", Label: "whatever"},
		Labels: []models.OptionInput{
			{Value: "vegetarian", Label: "Vegetarian"},
			{Value: "brunch"},
			{Value: "vegetarian", Label: "dup"},
		},
		Ingredients: []models.IngredientInput{{LocalID: "i1", Name: "Eggs", Quantity: 4, Unit: "pcs"}},
		PreparationSteps: []models.StepInput{
			{Description: "Serve", Order: 7},
			{Description: "Simmer", Order: 2},
		},
	}
}

func newRecipeService(t *testing.T) (*RecipeService, *fakeRepo, *Hub) {
	t.Helper()
	repo := newFakeRepo()
	hub := NewHub(8, nil)
	meta := NewMetadataService(repo, time.Minute, nil)
	return NewRecipeService(repo, meta, hub, nil), repo, hub
}

func TestNormalizeInput(t *testing.T) {
	got := NormalizeInput(validInput())

	assert.Equal(t, "Shakshuka", got.Title)
	assert.Equal(t, []models.OptionInput{
		{Value: "vegetarian", Label: "Vegetarian"},
		{Value: "brunch", Label: "brunch"},
	}, got.Labels)
	assert.Equal(t, []models.StepInput{
		{Description: "Simmer", Order: 1},
		{Description: "Serve", Order: 2},
	}, got.PreparationSteps)

	blank := NormalizeInput(models.RecipeInput{Ingredients: []models.IngredientInput{{Name: "Salt"}}})
	assert.NotEmpty(t, blank.Ingredients[0].LocalID)
	assert.NotNil(t, blank.PreparationSteps)
}

func TestCreateRecipe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, _, hub := newRecipeService(t)
	events := hub.Subscribe(ctx)
	author := uuid.New()

	r, err := svc.Create(ctx, author, validInput())
	require.NoError(t, err)

	assert.Equal(t, &author, r.AuthorID)
	assert.Equal(t, "Dinner", r.CategoryLabel, "labels come from metadata")
	assert.Equal(t, "Easy", r.DifficultyLabel)
	if diff := cmp.Diff([]models.RecipeStep{
		{RecipeID: r.ID, StepOrder: 1, Description: "Simmer"},
		{RecipeID: r.ID, StepOrder: 2, Description: "Serve"},
	}, r.Steps); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}

	select {
	case ev := <-events:
		assert.Equal(t, EventCreated, ev.Type)
		assert.Equal(t, r.ID, ev.RecipeID)
		assert.Equal(t, "Shakshuka", ev.Title)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestCreateRecipeRejectsInvalidInput(t *testing.T) {
	svc, repo, _ := newRecipeService(t)

	tests := []struct {
		name  string
		edit  func(*models.RecipeInput)
		field string
	}{
		{"no ingredients", func(in *models.RecipeInput) { in.Ingredients = nil }, "ingredients"},
		{"blank title", func(in *models.RecipeInput) { in.Title = "   " }, "title"},
		{"bad image url", func(in *models.RecipeInput) { in.ImgSrc = "nope" }, "imgSrc"},
		{"zero servings", func(in *models.RecipeInput) { in.Servings = 0 }, "servings"},
		{"missing category", func(in *models.RecipeInput) { in.Category = models.OptionInput{} }, "category.value"},
		{"unknown category", func(in *models.RecipeInput) { in.Category.Value = "brunch" }, "category.value"},
		{"unknown level", func(in *models.RecipeInput) { in.DifficultyLevel.Value = "expert" }, "difficultyLevel.value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.edit(&in)

			_, err := svc.Create(context.Background(), uuid.New(), in)
			require.ErrorIs(t, err, ErrInvalidInput)

			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.Contains(t, ie.Fields, tt.field)
		})
	}
	assert.Empty(t, repo.recipes)
}

func TestEditRecipeOwnerOnly(t *testing.T) {
	svc, _, _ := newRecipeService(t)
	ctx := context.Background()
	owner := uuid.New()

	r, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Title = "Green shakshuka"

	_, err = svc.Edit(ctx, uuid.New(), r.ID, in)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Edit(ctx, owner, r.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Green shakshuka", updated.Title)

	_, err = svc.Edit(ctx, owner, uuid.New(), in)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, _, hub := newRecipeService(t)
	owner := uuid.New()

	r, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	events := hub.Subscribe(ctx)

	_, err = svc.Delete(ctx, uuid.New(), r.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	ok, err := svc.Delete(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ev := <-events
	assert.Equal(t, EventDeleted, ev.Type)
	assert.Equal(t, "Shakshuka", ev.Title)

	_, err = svc.Get(ctx, r.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestListRecipesClampsPaging(t *testing.T) {
	svc, repo, _ := newRecipeService(t)
	for range 3 {
		_, err := repo.CreateRecipe(context.Background(), nil, NormalizeInput(validInput()))
		require.NoError(t, err)
	}

	got, err := svc.List(context.Background(), models.RecipeFilter{Limit: 1000, Offset: -4})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = svc.List(context.Background(), models.RecipeFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
