// Package service provides business logic for recipebox operations.
package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/metadata"
	"github.com/raphaelgruber/recipebox/internal/models"
)

// MaxListLimit caps a single listing page.
const MaxListLimit = 100

// RecipeRepository persists recipes. *db.Client implements it.
type RecipeRepository interface {
	CreateRecipe(ctx context.Context, authorID *uuid.UUID, in models.RecipeInput) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, id uuid.UUID, in models.RecipeInput) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error)
	RecipeAuthor(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
	DeleteRecipe(ctx context.Context, id uuid.UUID) (bool, error)
}

var _ RecipeRepository = (*db.Client)(nil)

// RecipeService handles recipe writes and reads.
type RecipeService struct {
	repo   RecipeRepository
	meta   metadata.Source
	hub    *Hub
	now    func() time.Time
	logger *slog.Logger
}

// NewRecipeService creates a recipe service. meta resolves category and
// difficulty keys; hub may be nil.
func NewRecipeService(repo RecipeRepository, meta metadata.Source, hub *Hub, log *slog.Logger) *RecipeService {
	if log == nil {
		log = slog.Default()
	}
	return &RecipeService{
		repo:   repo,
		meta:   meta,
		hub:    hub,
		now:    time.Now,
		logger: log.With("component", "recipes"),
	}
}

// Create stores a new recipe owned by authorID.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, in models.RecipeInput) (*models.Recipe, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	r, err := s.repo.CreateRecipe(ctx, &authorID, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("recipe created", "recipe_id", r.ID, "author_id", authorID)
	s.publish(EventCreated, r.ID, r.Title)
	return r, nil
}

// Edit replaces a recipe. Only the author may edit.
func (s *RecipeService) Edit(ctx context.Context, userID, id uuid.UUID, in models.RecipeInput) (*models.Recipe, error) {
	author, err := s.repo.RecipeAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(userID, author) {
		return nil, ErrForbidden
	}

	in, err = s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	r, err := s.repo.UpdateRecipe(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("recipe updated", "recipe_id", id)
	s.publish(EventUpdated, r.ID, r.Title)
	return r, nil
}

// Get returns a recipe; db.ErrNotFound if absent.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	return s.repo.GetRecipe(ctx, id)
}

// List returns recipes newest first. The limit is clamped to MaxListLimit.
func (s *RecipeService) List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error) {
	if filter.Limit <= 0 {
		filter.Limit = db.DefaultListLimit
	}
	filter.Limit = min(filter.Limit, MaxListLimit)
	filter.Offset = max(filter.Offset, 0)
	return s.repo.ListRecipes(ctx, filter)
}

// Delete removes a recipe. Only the author may delete.
func (s *RecipeService) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	r, err := s.repo.GetRecipe(ctx, id)
	if err != nil {
		return false, err
	}
	if !owns(userID, r.AuthorID) {
		return false, ErrForbidden
	}

	deleted, err := s.repo.DeleteRecipe(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("recipe deleted", "recipe_id", id)
		s.publish(EventDeleted, id, r.Title)
	}
	return deleted, nil
}

func owns(userID uuid.UUID, author *uuid.UUID) bool {
	return author != nil && *author == userID
}

func (s *RecipeService) publish(t EventType, id uuid.UUID, title string) {
	s.hub.Publish(RecipeEvent{Type: t, RecipeID: id, Title: title, At: s.now()})
}

// prepare normalizes, validates and resolves the classification of in.
func (s *RecipeService) prepare(ctx context.Context, in models.RecipeInput) (models.RecipeInput, error) {
	in = NormalizeInput(in)
	if err := validateStruct(in); err != nil {
		return in, err
	}

	md, err := s.meta.FetchMetadata(ctx)
	if err != nil {
		return in, err
	}
	cat, ok := md.Find(models.KindCategory, in.Category.Value)
	if !ok {
		return in, fieldError("category.value", "failed oneof")
	}
	lvl, ok := md.Find(models.KindLevel, in.DifficultyLevel.Value)
	if !ok {
		return in, fieldError("difficultyLevel.value", "failed oneof")
	}
	in.Category.Label = cat.Label
	in.DifficultyLevel.Label = lvl.Label
	return in, nil
}

// NormalizeInput trims text, drops duplicate labels, fills blank label
// names with their value and renumbers steps 1..N in submitted order.
func NormalizeInput(in models.RecipeInput) models.RecipeInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ImgSrc = strings.TrimSpace(in.ImgSrc)
	in.YoutubeLink = strings.TrimSpace(in.YoutubeLink)

	labels := make([]models.OptionInput, 0, len(in.Labels))
	seen := make(map[string]bool, len(in.Labels))
	for _, l := range in.Labels {
		if seen[l.Value] {
			continue
		}
		seen[l.Value] = true
		if l.Label == "" {
			l.Label = l.Value
		}
		labels = append(labels, l)
	}
	in.Labels = labels

	ings := make([]models.IngredientInput, len(in.Ingredients))
	for i, ing := range in.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.LocalID == "" {
			ing.LocalID = uuid.NewString()
		}
		ings[i] = ing
	}
	in.Ingredients = ings

	steps := slices.Clone(in.PreparationSteps)
	slices.SortStableFunc(steps, func(a, b models.StepInput) int { return cmp.Compare(a.Order, b.Order) })
	for i := range steps {
		steps[i].Description = strings.TrimSpace(steps[i].Description)
		steps[i].Order = i + 1
	}
	if steps == nil {
		steps = []models.StepInput{}
	}
	in.PreparationSteps = steps
	return in
}
