package composer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/draft"
	"github.com/raphaelgruber/recipebox/internal/metadata"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMetadata = &models.Metadata{
	Categories: []models.Option{{Key: "dinner", Label: "Dinner"}, {Key: "dessert", Label: "Dessert"}},
	Levels:     []models.Option{{Key: "easy", Label: "Easy"}, {Key: "hard", Label: "Hard"}},
	Labels:     testLabels,
	Units:      []models.Option{{Key: "g", Label: "Gram"}, {Key: "pcs", Label: "Pieces"}},
}

// =============================================================================
// FAKES
// =============================================================================

type editCall struct {
	id    string
	input models.RecipeInput
}

type fakeMutator struct {
	mu      sync.Mutex
	creates []models.RecipeInput
	edits   []editCall
	err     error
	// block, when set, holds every call until closed.
	block chan struct{}
}

func (m *fakeMutator) CreateRecipe(ctx context.Context, input models.RecipeInput) (*client.Recipe, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, input)
	if m.err != nil {
		return nil, m.err
	}
	return &client.Recipe{ID: "r-new", Title: input.Title}, nil
}

func (m *fakeMutator) EditRecipe(ctx context.Context, id string, input models.RecipeInput) (*client.Recipe, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, editCall{id: id, input: input})
	if m.err != nil {
		return nil, m.err
	}
	return &client.Recipe{ID: id, Title: input.Title}, nil
}

func (m *fakeMutator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creates) + len(m.edits)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

// harness records every callback the controller makes.
type harness struct {
	c     *Controller
	store *draft.MemoryStore
	mut   *fakeMutator
	clock *fakeClock

	mu       sync.Mutex
	notices  []Notice
	paths    []string
	sections []Section
}

func newHarness(t *testing.T, mode Mode, opts ...func(*Config)) *harness {
	t.Helper()
	h := &harness{
		store: draft.NewMemoryStore(),
		mut:   &fakeMutator{},
		clock: &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	cfg := Config{
		Mode:     mode,
		Store:    h.store,
		Metadata: metadata.NewStatic(testMetadata),
		Mutator:  h.mut,
		Notifier: NotifierFunc(func(n Notice) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.notices = append(h.notices, n)
		}),
		Router: RouterFunc(func(path string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.paths = append(h.paths, path)
		}),
		OnSectionChange: func(s Section) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.sections = append(h.sections, s)
		},
		Clock:    h.clock.Now,
		Debounce: 20 * time.Millisecond,
	}
	if mode == ModeEdit {
		cfg.RecipeID = "r-1"
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if s, ok := cfg.Store.(*draft.MemoryStore); ok {
		h.store = s
	}

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	h.c = c
	return h
}

func (h *harness) lastNotice() Notice {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.notices) == 0 {
		return Notice{}
	}
	return h.notices[len(h.notices)-1]
}

func (h *harness) navigations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

func (h *harness) lastSection() Section {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sections) == 0 {
		return Section(-1)
	}
	return h.sections[len(h.sections)-1]
}

// fill enters a complete recipe through the controller API.
func fill(t *testing.T, c *Controller) {
	t.Helper()
	c.SetTitle("Shakshuka")
	c.SetDescription("Eggs poached in spiced tomato sauce")
	c.SetCookingTime(models.NumberOf(25))
	c.SetServings(models.NumberOf(2))
	require.NoError(t, c.SetCategory("dinner"))
	require.NoError(t, c.SetDifficulty("easy"))
	c.SetLabels([]string{"vegetarian", "brunch"})
	c.SetImage("https://img.example.com/shakshuka.jpg")

	c.AddIngredient()
	require.True(t, c.UpdateIngredient(0, func(i *models.Ingredient) {
		i.Name = "Eggs"
		i.Quantity = models.NumberOf(4)
		i.Unit = "pcs"
	}))
	c.AddIngredient()
	require.True(t, c.UpdateIngredient(1, func(i *models.Ingredient) {
		i.Name = "Tomatoes"
		i.Quantity = models.NumberOf(400)
		i.Unit = "g"
	}))

	c.AddStep()
	require.True(t, c.UpdateStep(0, "Simmer the sauce"))
	c.AddStep()
	require.True(t, c.UpdateStep(1, "Crack in the eggs"))
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNewValidatesConfig(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{Mutator: &fakeMutator{}})
	assert.ErrorContains(t, err, "store")

	_, err = New(ctx, Config{Store: draft.NewMemoryStore()})
	assert.ErrorContains(t, err, "mutator")

	_, err = New(ctx, Config{Mode: ModeEdit, Store: draft.NewMemoryStore(), Mutator: &fakeMutator{}})
	assert.ErrorContains(t, err, "recipe id")
}

func TestNewRestoresDraft(t *testing.T) {
	store := draft.NewMemoryStore()
	saved := time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)
	values := completeValues()
	require.NoError(t, store.Set(context.Background(), draft.NewState(saved, values)))

	h := newHarness(t, ModeCreate, func(cfg *Config) { cfg.Store = store })

	if diff := cmp.Diff(values, h.c.Values()); diff != "" {
		t.Errorf("restored values mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, saved.Equal(h.c.SavedAt()))
	assert.Equal(t, SectionBasics, h.c.Active())
}

func TestEditModeIgnoresDraft(t *testing.T) {
	store := draft.NewMemoryStore()
	stale := models.DefaultFormValues()
	stale.Title = "Stale draft"
	require.NoError(t, store.Set(context.Background(), draft.NewState(time.Now(), stale)))

	initial := completeValues()
	h := newHarness(t, ModeEdit, func(cfg *Config) {
		cfg.Store = store
		cfg.InitialValues = &initial
	})

	assert.Equal(t, "Shakshuka", h.c.Values().Title)
	assert.True(t, h.c.SavedAt().IsZero())
	assert.Equal(t, "unsaved", h.c.LastSavedLabel())
}

func TestSetSourceReinitializesOnNewKey(t *testing.T) {
	initial := completeValues()
	h := newHarness(t, ModeEdit, func(cfg *Config) { cfg.InitialValues = &initial })

	h.c.SetTitle("Edited locally")

	other := completeValues()
	other.Title = "Other recipe"

	h.c.SetSource("r-1", other)
	assert.Equal(t, "Edited locally", h.c.Values().Title, "same key keeps local edits")

	h.c.SetSource("r-2", other)
	assert.Equal(t, "Other recipe", h.c.Values().Title)
	assert.Empty(t, h.c.Touched())
}

// =============================================================================
// FIELDS
// =============================================================================

func TestSetOptionsResolveMetadata(t *testing.T) {
	h := newHarness(t, ModeCreate)

	require.NoError(t, h.c.SetCategory("dessert"))
	assert.Equal(t, &models.Option{Key: "dessert", Label: "Dessert"}, h.c.Values().Category)

	err := h.c.SetDifficulty("impossible")
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Nil(t, h.c.Values().DifficultyLevel)

	require.NoError(t, h.c.SetCategory(""))
	assert.Nil(t, h.c.Values().Category)
}

func TestToggleLabel(t *testing.T) {
	h := newHarness(t, ModeCreate)

	h.c.ToggleLabel("quick")
	h.c.ToggleLabel("vegetarian")
	assert.Equal(t, []string{"quick", "vegetarian"}, h.c.Values().Labels)

	h.c.ToggleLabel("quick")
	assert.Equal(t, []string{"vegetarian"}, h.c.Values().Labels)
}

func TestUpdateIngredientKeepsLocalID(t *testing.T) {
	h := newHarness(t, ModeCreate)

	id := h.c.AddIngredient()
	require.NotEmpty(t, id)
	require.True(t, h.c.UpdateIngredient(0, func(i *models.Ingredient) {
		i.LocalID = "hijacked"
		i.Name = "Flour"
	}))

	ing := h.c.Values().Ingredients[0]
	assert.Equal(t, id, ing.LocalID)
	assert.Equal(t, "Flour", ing.Name)

	assert.False(t, h.c.UpdateIngredient(3, func(*models.Ingredient) {}))
	assert.False(t, h.c.RemoveIngredient(-1))
	assert.True(t, h.c.RemoveIngredient(0))
	assert.Empty(t, h.c.Values().Ingredients)
}

func stepOrders(v models.FormValues) []int {
	out := make([]int, len(v.PreparationSteps))
	for i, st := range v.PreparationSteps {
		out[i] = st.Order
	}
	return out
}

func stepDescriptions(v models.FormValues) []string {
	out := make([]string, len(v.PreparationSteps))
	for i, st := range v.PreparationSteps {
		out[i] = st.Description
	}
	return out
}

func TestStepsStayContiguous(t *testing.T) {
	h := newHarness(t, ModeCreate)
	for i, desc := range []string{"a", "b", "c", "d"} {
		h.c.AddStep()
		require.True(t, h.c.UpdateStep(i, desc))
	}
	assert.Equal(t, []int{1, 2, 3, 4}, stepOrders(h.c.Values()))

	require.True(t, h.c.RemoveStep(1))
	v := h.c.Values()
	assert.Equal(t, []int{1, 2, 3}, stepOrders(v))
	assert.Equal(t, []string{"a", "c", "d"}, stepDescriptions(v))

	require.True(t, h.c.MoveStep(2, Up))
	v = h.c.Values()
	assert.Equal(t, []int{1, 2, 3}, stepOrders(v))
	assert.Equal(t, []string{"a", "d", "c"}, stepDescriptions(v))
}

func TestMoveStepAtEdgesIsNoop(t *testing.T) {
	h := newHarness(t, ModeCreate)
	h.c.AddStep()
	h.c.UpdateStep(0, "first")
	h.c.AddStep()
	h.c.UpdateStep(1, "last")
	before := h.c.Values()

	assert.False(t, h.c.MoveStep(0, Up))
	assert.False(t, h.c.MoveStep(1, Down))
	assert.False(t, h.c.MoveStep(5, Up))

	if diff := cmp.Diff(before, h.c.Values()); diff != "" {
		t.Errorf("values changed (-before +after):\n%s", diff)
	}
}

func TestVisibleErrorsFollowTouched(t *testing.T) {
	h := newHarness(t, ModeCreate)

	assert.NotEmpty(t, h.c.Errors(), "defaults are invalid")
	assert.Empty(t, h.c.VisibleErrors(), "nothing touched yet")

	h.c.Touch("title")
	assert.Equal(t, map[string]string{"title": "is required"}, h.c.VisibleErrors())

	h.c.AddIngredient()
	h.c.UpdateIngredient(0, func(i *models.Ingredient) { i.Unit = "g" })
	visible := h.c.VisibleErrors()
	assert.Equal(t, "is required", visible["ingredients[0].name"])
	assert.Equal(t, "is required", visible["ingredients[0].quantity"])

	h.c.SetTitle("Soup")
	assert.NotContains(t, h.c.VisibleErrors(), "title")
}

// =============================================================================
// COMPLETION AND NAVIGATION
// =============================================================================

func TestControllerCompletion(t *testing.T) {
	h := newHarness(t, ModeCreate)
	assert.Equal(t, 0, h.c.Completion().Percent)
	assert.Equal(t, Completion{Done: 0, Total: 1}, h.c.SectionCompletion(SectionIngredients))

	fill(t, h.c)
	assert.Equal(t, 100, h.c.Completion().Percent)
	assert.True(t, h.c.SectionCompletion(SectionSteps).Complete())
	assert.True(t, h.c.SectionCompletion(SectionMedia).Complete())
}

func TestNavigationIsAdvisory(t *testing.T) {
	h := newHarness(t, ModeCreate)

	require.NoError(t, h.c.GoTo(SectionSteps))
	assert.Equal(t, SectionSteps, h.c.Active(), "incomplete sections do not block")
	assert.Equal(t, SectionSteps, h.lastSection())

	require.NoError(t, h.c.Next())
	assert.Equal(t, SectionSteps, h.c.Active())

	require.NoError(t, h.c.Prev())
	assert.Equal(t, SectionIngredients, h.c.Active())

	assert.Error(t, h.c.GoTo(Section(42)))
}

func TestTransitionTableRestrictsGoTo(t *testing.T) {
	h := newHarness(t, ModeCreate, func(cfg *Config) { cfg.Transitions = ForwardOnly() })

	err := h.c.GoTo(SectionSteps)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
	assert.Equal(t, SectionBasics, h.c.Active())

	require.NoError(t, h.c.Next())
	assert.Equal(t, SectionMedia, h.c.Active())
}

// =============================================================================
// AUTOSAVE
// =============================================================================

func TestAutosaveWritesOnceAfterQuietPeriod(t *testing.T) {
	h := newHarness(t, ModeCreate)

	for _, title := range []string{"S", "Sh", "Sha", "Shak"} {
		h.c.SetTitle(title)
	}
	assert.True(t, h.c.AutosavePending())
	assert.Equal(t, 0, h.store.Writes())

	require.Eventually(t, func() bool { return h.store.Writes() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, h.store.Writes(), "a burst of edits produces one write")

	st, err := h.store.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "Shak", st.Values.Title)
	assert.Equal(t, h.clock.Now().UnixMilli(), st.UpdatedAt)

	assert.Equal(t, "just saved", h.c.LastSavedLabel())
	h.clock.Advance(10 * time.Second)
	assert.Equal(t, "saved recently", h.c.LastSavedLabel())
	h.clock.Advance(3 * time.Minute)
	assert.Equal(t, "saved 3m ago", h.c.LastSavedLabel())
}

func TestAutosaveWaitsForMetadata(t *testing.T) {
	release := make(chan struct{})
	provider := metadata.NewProvider(metadata.SourceFunc(func(ctx context.Context) (*models.Metadata, error) {
		<-release
		return testMetadata, nil
	}), nil)
	h := newHarness(t, ModeCreate, func(cfg *Config) { cfg.Metadata = provider })

	h.c.SetTitle("Before metadata")
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, h.store.Writes())

	close(release)
	require.NoError(t, provider.Load(context.Background()))

	require.Eventually(t, func() bool { return h.store.Writes() == 1 }, time.Second, 5*time.Millisecond)
	st, err := h.store.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "Before metadata", st.Values.Title, "the deferred edit is saved without another change")
}

func TestAutosaveSkipsCleanFormWhenMetadataArrives(t *testing.T) {
	release := make(chan struct{})
	provider := metadata.NewProvider(metadata.SourceFunc(func(ctx context.Context) (*models.Metadata, error) {
		<-release
		return testMetadata, nil
	}), nil)
	h := newHarness(t, ModeCreate, func(cfg *Config) { cfg.Metadata = provider })

	close(release)
	require.NoError(t, provider.Load(context.Background()))
	time.Sleep(60 * time.Millisecond)
	assert.False(t, h.c.AutosavePending())
	assert.Equal(t, 0, h.store.Writes())
}

func TestSavingCoversRunningAutosave(t *testing.T) {
	store := &blockingStore{MemoryStore: draft.NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, ModeCreate, func(cfg *Config) { cfg.Store = store })
	unblock := sync.OnceFunc(func() { close(store.release) })
	t.Cleanup(unblock)

	h.c.SetTitle("Slow disk")
	<-store.entered
	assert.False(t, h.c.AutosavePending())
	assert.True(t, h.c.Saving())

	unblock()
	require.Eventually(t, func() bool { return !h.c.Saving() }, time.Second, 5*time.Millisecond)
}

// blockingStore holds the first Set until release is closed.
type blockingStore struct {
	*draft.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Set(ctx context.Context, st draft.State) error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.MemoryStore.Set(ctx, st)
}

func TestEditModeNeverAutosaves(t *testing.T) {
	initial := completeValues()
	h := newHarness(t, ModeEdit, func(cfg *Config) { cfg.InitialValues = &initial })

	h.c.SetTitle("Changed")
	assert.False(t, h.c.AutosavePending())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, h.store.Writes())
}

func TestSaveDraftNow(t *testing.T) {
	h := newHarness(t, ModeCreate, func(cfg *Config) { cfg.Debounce = time.Hour })

	h.c.SetTitle("Manual")
	require.NoError(t, h.c.SaveDraftNow(context.Background()))
	assert.False(t, h.c.AutosavePending())
	assert.Equal(t, 1, h.store.Writes())
	assert.Equal(t, Notice{Kind: NoticeInfo, Message: MsgDraftSaved}, h.lastNotice())
	assert.False(t, h.c.SavedAt().IsZero())
}

func TestResetDraft(t *testing.T) {
	h := newHarness(t, ModeCreate, func(cfg *Config) { cfg.Debounce = time.Hour })
	fill(t, h.c)
	require.NoError(t, h.c.SaveDraftNow(context.Background()))
	require.NoError(t, h.c.GoTo(SectionSteps))

	require.NoError(t, h.c.ResetDraft(context.Background()))

	st, err := h.store.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)
	if diff := cmp.Diff(models.DefaultFormValues(), h.c.Values()); diff != "" {
		t.Errorf("values not reset (-want +got):\n%s", diff)
	}
	assert.Equal(t, SectionBasics, h.c.Active())
	assert.Equal(t, SectionBasics, h.lastSection())
	assert.True(t, h.c.SavedAt().IsZero())
	assert.Equal(t, MsgDraftCleared, h.lastNotice().Message)
}

func TestReloadPicksUpExternalDraft(t *testing.T) {
	h := newHarness(t, ModeCreate)

	external := completeValues()
	external.Title = "Written elsewhere"
	require.NoError(t, h.store.Set(context.Background(), draft.NewState(h.clock.Now(), external)))

	require.NoError(t, h.c.Reload(context.Background()))
	assert.Equal(t, "Written elsewhere", h.c.Values().Title)

	require.NoError(t, h.store.Clear(context.Background()))
	require.NoError(t, h.c.Reload(context.Background()))
	assert.Equal(t, "", h.c.Values().Title)
	assert.True(t, h.c.SavedAt().IsZero())
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestPublishEndToEnd(t *testing.T) {
	h := newHarness(t, ModeCreate, func(cfg *Config) { cfg.Debounce = time.Hour })
	require.NoError(t, h.store.Set(context.Background(), draft.NewState(h.clock.Now(), models.DefaultFormValues())))

	fill(t, h.c)
	require.True(t, h.c.AutosavePending())
	ingredients := h.c.Values().Ingredients

	recipe, err := h.c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r-new", recipe.ID)

	require.Len(t, h.mut.creates, 1)
	assert.Empty(t, h.mut.edits)

	want := models.RecipeInput{
		Title:           "Shakshuka",
		Description:     "Eggs poached in spiced tomato sauce",
		ImgSrc:          "https://img.example.com/shakshuka.jpg",
		CookingTime:     25,
		Servings:        2,
		DifficultyLevel: models.OptionInput{Value: "easy", Label: "Easy"},
		Category:        models.OptionInput{Value: "dinner", Label: "Dinner"},
		Labels: []models.OptionInput{
			{Value: "vegetarian", Label: "Vegetarian"},
			{Value: "brunch", Label: "brunch"},
		},
		Ingredients: []models.IngredientInput{
			{LocalID: ingredients[0].LocalID, Name: "Eggs", Quantity: 4, Unit: "pcs"},
			{LocalID: ingredients[1].LocalID, Name: "Tomatoes", Quantity: 400, Unit: "g"},
		},
		PreparationSteps: []models.StepInput{
			{Description: "Simmer the sauce", Order: 1},
			{Description: "Crack in the eggs", Order: 2},
		},
	}
	if diff := cmp.Diff(want, h.mut.creates[0]); diff != "" {
		t.Errorf("mutation payload mismatch (-want +got):\n%s", diff)
	}

	st, err := h.store.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st, "draft cleared after publish")
	assert.False(t, h.c.AutosavePending())
	assert.Equal(t, []string{RecipesPath}, h.navigations())
	assert.Equal(t, Notice{Kind: NoticeSuccess, Message: MsgPublished}, h.lastNotice())
	assert.False(t, h.c.Submitting())
}

func TestSubmitRequiresClassification(t *testing.T) {
	h := newHarness(t, ModeCreate)
	fill(t, h.c)
	require.NoError(t, h.c.SetCategory(""))
	require.NoError(t, h.c.GoTo(SectionSteps))

	_, err := h.c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrMissingClassification)
	assert.Zero(t, h.mut.calls())
	assert.Equal(t, SectionBasics, h.c.Active())
	assert.Equal(t, SectionBasics, h.lastSection())
	assert.Equal(t, Notice{Kind: NoticeError, Message: MsgMissingClass}, h.lastNotice())
	assert.True(t, h.c.Touched()["category"])
	assert.Empty(t, h.navigations())
}

func TestSubmitInvalidJumpsToFirstInvalidSection(t *testing.T) {
	h := newHarness(t, ModeCreate)
	fill(t, h.c)
	require.True(t, h.c.UpdateStep(1, ""))

	_, err := h.c.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "preparationSteps[1].description", verr.First)

	assert.Zero(t, h.mut.calls())
	assert.Equal(t, SectionSteps, h.lastSection())
	assert.Contains(t, h.c.VisibleErrors(), "preparationSteps[1].description")
}

func TestSubmitFailureKeepsForm(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message is shown",
			err:  &client.GraphQLError{Message: "Title already taken"},
			want: "Title already taken",
		},
		{
			name: "transport errors use the generic message",
			err:  errors.New("dial tcp: connection refused"),
			want: MsgGenericFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, ModeCreate, func(cfg *Config) { cfg.Debounce = time.Hour })
			fill(t, h.c)
			require.NoError(t, h.c.SaveDraftNow(context.Background()))
			h.mut.err = tt.err

			_, err := h.c.Submit(context.Background())
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, Notice{Kind: NoticeError, Message: tt.want}, h.lastNotice())
			assert.Empty(t, h.navigations())
			assert.Equal(t, "Shakshuka", h.c.Values().Title)

			st, err := h.store.Get(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, st, "draft survives a failed publish")
			assert.False(t, h.c.Submitting())
		})
	}
}

func TestSubmitRejectsWhileInFlight(t *testing.T) {
	h := newHarness(t, ModeCreate)
	fill(t, h.c)
	h.mut.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.c.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, h.c.Submitting, time.Second, time.Millisecond)

	_, err := h.c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(h.mut.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.mut.calls())
}

func TestEditSubmitNavigatesToRecipe(t *testing.T) {
	initial := completeValues()
	h := newHarness(t, ModeEdit, func(cfg *Config) { cfg.InitialValues = &initial })

	h.c.SetTitle("Shakshuka deluxe")
	recipe, err := h.c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r-1", recipe.ID)

	require.Len(t, h.mut.edits, 1)
	assert.Empty(t, h.mut.creates)
	assert.Equal(t, "r-1", h.mut.edits[0].id)
	assert.Equal(t, "Shakshuka deluxe", h.mut.edits[0].input.Title)

	assert.Equal(t, []string{"/recipes/r-1"}, h.navigations())
	assert.Equal(t, Notice{Kind: NoticeSuccess, Message: MsgUpdated}, h.lastNotice())
	assert.Equal(t, 0, h.store.Writes())
}
