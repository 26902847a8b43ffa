package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/models"
)

var testMetadata = &models.Metadata{
	Categories: []models.Option{{Key: "dinner", Label: "Dinner"}},
	Levels:     []models.Option{{Key: "easy", Label: "Easy"}},
	Labels:     []models.Option{{Key: "vegetarian", Label: "Vegetarian"}},
	Units:      []models.Option{{Key: "g", Label: "Gram"}},
}

// fakeRepo is an in-memory stand-in for *db.Client.
type fakeRepo struct {
	mu      sync.Mutex
	recipes map[uuid.UUID]*models.Recipe
	users   map[uuid.UUID]*models.User
	md      *models.Metadata
	mdCalls int
	upserts []models.Option
}

var (
	_ RecipeRepository   = (*fakeRepo)(nil)
	_ UserRepository     = (*fakeRepo)(nil)
	_ MetadataRepository = (*fakeRepo)(nil)
)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		recipes: map[uuid.UUID]*models.Recipe{},
		users:   map[uuid.UUID]*models.User{},
		md:      testMetadata,
	}
}

func recipeFromInput(id uuid.UUID, author *uuid.UUID, in models.RecipeInput) *models.Recipe {
	r := &models.Recipe{
		ID:              id,
		AuthorID:        author,
		Title:           in.Title,
		Description:     in.Description,
		ImgSrc:          in.ImgSrc,
		CookingTime:     in.CookingTime,
		Servings:        in.Servings,
		DifficultyKey:   in.DifficultyLevel.Value,
		DifficultyLabel: in.DifficultyLevel.Label,
		CategoryKey:     in.Category.Value,
		CategoryLabel:   in.Category.Label,
		Labels:          in.Labels,
		YoutubeLink:     in.YoutubeLink,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	for i, ing := range in.Ingredients {
		r.Ingredients = append(r.Ingredients, models.RecipeIngredient{
			RecipeID: id, Position: i, LocalID: ing.LocalID, Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit,
		})
	}
	for _, st := range in.PreparationSteps {
		r.Steps = append(r.Steps, models.RecipeStep{RecipeID: id, StepOrder: st.Order, Description: st.Description})
	}
	return r
}

func (f *fakeRepo) CreateRecipe(_ context.Context, authorID *uuid.UUID, in models.RecipeInput) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := recipeFromInput(uuid.New(), authorID, in)
	f.recipes[r.ID] = r
	return r, nil
}

func (f *fakeRepo) UpdateRecipe(_ context.Context, id uuid.UUID, in models.RecipeInput) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.recipes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	r := recipeFromInput(id, old.AuthorID, in)
	f.recipes[id] = r
	return r, nil
}

func (f *fakeRepo) GetRecipe(_ context.Context, id uuid.UUID) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) ListRecipes(_ context.Context, filter models.RecipeFilter) ([]models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Recipe{}
	for _, r := range f.recipes {
		out = append(out, *r)
	}
	if filter.Offset >= len(out) {
		return []models.Recipe{}, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeRepo) RecipeAuthor(_ context.Context, id uuid.UUID) (*uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return r.AuthorID, nil
}

func (f *fakeRepo) DeleteRecipe(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.recipes[id]
	delete(f.recipes, id)
	return ok, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, email, passwordHash, displayName string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return nil, db.ErrAlreadyExists
		}
	}
	u := &models.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, DisplayName: displayName, CreatedAt: time.Now()}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) UpdateUser(_ context.Context, id uuid.UUID, displayName, bio, passwordHash *string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *u
	if displayName != nil {
		cp.DisplayName = *displayName
	}
	if bio != nil {
		cp.Bio = bio
	}
	if passwordHash != nil {
		cp.PasswordHash = *passwordHash
	}
	f.users[id] = &cp
	return &cp, nil
}

func (f *fakeRepo) GetMetadata(_ context.Context) (*models.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mdCalls++
	return f.md, nil
}

func (f *fakeRepo) UpsertOption(_ context.Context, _ models.OptionKind, opt models.Option, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, opt)
	return nil
}

func (f *fakeRepo) metadataCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mdCalls
}

// captureMailer records reset tokens.
type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string]string{}
	}
	m.tokens[email] = token
	return nil
}

func (m *captureMailer) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}
