// Package servicetest provides in-memory fakes for exercising the service
// layer without PostgreSQL.
package servicetest

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// Metadata is the reference data Repo serves by default.
var Metadata = &models.Metadata{
	Categories: []models.Option{{Key: "dinner", Label: "Dinner"}},
	Levels:     []models.Option{{Key: "easy", Label: "Easy"}},
	Labels:     []models.Option{{Key: "vegetarian", Label: "Vegetarian"}},
	Units:      []models.Option{{Key: "g", Label: "Gram"}},
}

// Repo is an in-memory stand-in for *db.Client.
type Repo struct {
	mu      sync.Mutex
	recipes map[uuid.UUID]*models.Recipe
	users   map[uuid.UUID]*models.User
	md      *models.Metadata
	mdCalls int
	upserts []models.Option
}

var (
	_ service.RecipeRepository   = (*Repo)(nil)
	_ service.UserRepository     = (*Repo)(nil)
	_ service.MetadataRepository = (*Repo)(nil)
)

// NewRepo returns an empty repository serving Metadata.
func NewRepo() *Repo {
	return &Repo{
		recipes: map[uuid.UUID]*models.Recipe{},
		users:   map[uuid.UUID]*models.User{},
		md:      Metadata,
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

func (f *Repo) CreateRecipe(_ context.Context, authorID *uuid.UUID, in models.RecipeInput) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := recipeFromInput(uuid.New(), authorID, in)
	f.recipes[r.ID] = r
	return r, nil
}

func (f *Repo) UpdateRecipe(_ context.Context, id uuid.UUID, in models.RecipeInput) (*models.Recipe, error) {
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

func (f *Repo) GetRecipe(_ context.Context, id uuid.UUID) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return r, nil
}

func (f *Repo) ListRecipes(_ context.Context, filter models.RecipeFilter) ([]models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Recipe{}
	for _, r := range f.recipes {
		if filter.Category != nil && r.CategoryKey != *filter.Category {
			continue
		}
		if filter.AuthorID != nil && (r.AuthorID == nil || *r.AuthorID != *filter.AuthorID) {
			continue
		}
		if filter.Label != nil && !slices.ContainsFunc(r.Labels, func(l models.OptionInput) bool { return l.Value == *filter.Label }) {
			continue
		}
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b models.Recipe) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if filter.Offset >= len(out) {
		return []models.Recipe{}, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *Repo) RecipeAuthor(_ context.Context, id uuid.UUID) (*uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return r.AuthorID, nil
}

func (f *Repo) DeleteRecipe(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.recipes[id]
	delete(f.recipes, id)
	return ok, nil
}

func (f *Repo) CreateUser(_ context.Context, email, passwordHash, displayName string) (*models.User, error) {
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

func (f *Repo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *Repo) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (f *Repo) UpdateUser(_ context.Context, id uuid.UUID, displayName, bio, passwordHash *string) (*models.User, error) {
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

func (f *Repo) GetMetadata(_ context.Context) (*models.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mdCalls++
	return f.md, nil
}

func (f *Repo) UpsertOption(_ context.Context, _ models.OptionKind, opt models.Option, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, opt)
	return nil
}

// MetadataCalls reports how often GetMetadata hit the repository.
func (f *Repo) MetadataCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mdCalls
}

// Upserts returns the options written through UpsertOption.
func (f *Repo) Upserts() []models.Option {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.upserts)
}

// Mailer records reset tokens by email.
type Mailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *Mailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string]string{}
	}
	m.tokens[email] = token
	return nil
}

// Token returns the last token sent to email.
func (m *Mailer) Token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

// Stack is a fully wired service layer over a Repo.
type Stack struct {
	Repo     *Repo
	Recipes  *service.RecipeService
	Metadata *service.MetadataService
	Users    *service.UserService
	Hub      *service.Hub
	Mailer   *Mailer
}

// NewStack wires every service against a fresh Repo. Passwords are hashed
// with bcrypt.MinCost.
func NewStack(tb testing.TB) *Stack {
	tb.Helper()

	log := slog.New(slog.DiscardHandler)
	repo := NewRepo()
	mailer := &Mailer{}
	users, err := service.NewUserService(repo, service.UserConfig{
		Tokens:     service.NewTokenIssuer("test-secret", time.Hour),
		Mailer:     mailer,
		BcryptCost: bcrypt.MinCost,
		Logger:     log,
	})
	if err != nil {
		tb.Fatalf("new user service: %v", err)
	}
	hub := service.NewHub(service.DefaultSubscriberBuffer, log)
	meta := service.NewMetadataService(repo, 0, log)

	return &Stack{
		Repo:     repo,
		Recipes:  service.NewRecipeService(repo, meta, hub, log),
		Metadata: meta,
		Users:    users,
		Hub:      hub,
		Mailer:   mailer,
	}
}
