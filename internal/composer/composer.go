// Package composer holds the state machine behind the multi-section recipe
// editor: form values, validation, completion, section navigation, draft
// autosave and submission.
//
// A Controller is safe for concurrent use. Callbacks (notifier, router,
// section change) are invoked without internal locks held, so they may call
// back into the controller.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/draft"
	"github.com/raphaelgruber/recipebox/internal/metadata"
	"github.com/raphaelgruber/recipebox/internal/models"
)

// Mode selects between publishing a new recipe and editing an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Direction moves a step up or down the list.
type Direction int

const (
	Up Direction = iota
	Down
)

// NoticeKind classifies user-facing notices.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is a transient message for the user.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Notifier receives user-facing notices.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Router performs post-submit navigation.
type Router interface {
	Navigate(path string)
}

// RouterFunc adapts a function to Router.
type RouterFunc func(path string)

func (f RouterFunc) Navigate(path string) { f(path) }

// Mutator issues the create and edit mutations.
type Mutator interface {
	CreateRecipe(ctx context.Context, input models.RecipeInput) (*client.Recipe, error)
	EditRecipe(ctx context.Context, id string, input models.RecipeInput) (*client.Recipe, error)
}

// Metadata is the read-only reference data the composer consults.
type Metadata interface {
	Loaded() bool
	Ready() <-chan struct{}
	Labels() []models.Option
	Find(kind models.OptionKind, key string) (models.Option, bool)
}

// Notice texts.
const (
	MsgDraftSaved     = "Draft saved"
	MsgDraftCleared   = "Draft cleared"
	MsgPublished      = "Recipe published"
	MsgUpdated        = "Recipe updated"
	MsgGenericFailure = "Something went wrong. Please try again."
	MsgMissingClass   = "Choose a category and a difficulty level before publishing"
)

// Post-submit destinations.
const (
	RecipesPath = "/recipes"
)

// RecipePath returns the destination for a single recipe.
func RecipePath(id string) string {
	return RecipesPath + "/" + id
}

var (
	// ErrSubmitInProgress is returned when Submit is called while a mutation is in flight.
	ErrSubmitInProgress = errors.New("submit already in progress")

	// ErrMissingClassification is returned when category or difficulty level is unset.
	ErrMissingClassification = errors.New("category and difficulty level are required")

	// ErrTransitionNotAllowed is returned by GoTo when the transition table forbids a move.
	ErrTransitionNotAllowed = errors.New("section transition not allowed")

	// ErrUnknownOption is returned when a metadata key does not resolve.
	ErrUnknownOption = errors.New("unknown option")
)

// Config wires a Controller.
type Config struct {
	Mode Mode
	// RecipeID is the recipe being edited (edit mode only).
	RecipeID string

	Store    draft.Store
	Metadata Metadata
	Mutator  Mutator
	Notifier Notifier
	Router   Router
	// OnSectionChange is called whenever the active section is set,
	// including validation-triggered jumps.
	OnSectionChange func(Section)

	// InitialValues seeds edit mode.
	InitialValues *models.FormValues
	Transitions   Transitions

	Clock    func() time.Time
	Debounce time.Duration
	Logger   *slog.Logger
}

// Controller owns the composer state.
type Controller struct {
	mode     Mode
	recipeID string

	store    draft.Store
	meta     Metadata
	mutator  Mutator
	notifier Notifier
	router   Router
	onSect   func(Section)
	trans    Transitions
	now      func() time.Time
	logger   *slog.Logger

	autosave *debouncer
	ctx      context.Context
	cancel   context.CancelFunc

	// draftMu serializes store writes and clears.
	draftMu sync.Mutex

	mu         sync.Mutex
	values     models.FormValues
	touched    map[string]bool
	errs       map[string]string
	active     Section
	savedAt    time.Time
	dirty      bool
	submitting bool
	sourceKey  string
}

// New creates a controller. In create mode an existing draft seeds the form;
// edit mode ignores drafts and starts from cfg.InitialValues.
func New(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("composer: store is required")
	}
	if cfg.Mutator == nil {
		return nil, fmt.Errorf("composer: mutator is required")
	}
	if cfg.Mode == ModeEdit && cfg.RecipeID == "" {
		return nil, fmt.Errorf("composer: edit mode requires a recipe id")
	}
	if cfg.Metadata == nil {
		cfg.Metadata = metadata.NewStatic(&models.Metadata{})
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFunc(func(Notice) {})
	}
	if cfg.Router == nil {
		cfg.Router = RouterFunc(func(string) {})
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &Controller{
		mode:     cfg.Mode,
		recipeID: cfg.RecipeID,
		store:    cfg.Store,
		meta:     cfg.Metadata,
		mutator:  cfg.Mutator,
		notifier: cfg.Notifier,
		router:   cfg.Router,
		onSect:   cfg.OnSectionChange,
		trans:    cfg.Transitions,
		now:      cfg.Clock,
		logger:   cfg.Logger.With("component", "composer", "mode", cfg.Mode.String()),
		ctx:      base,
		cancel:   cancel,
		values:   models.DefaultFormValues(),
		touched:  map[string]bool{},
		active:   SectionBasics,
	}
	c.autosave = newDebouncer(cfg.Debounce, c.runAutosave)

	switch cfg.Mode {
	case ModeCreate:
		st, err := c.store.Get(ctx)
		if err != nil {
			c.logger.Warn("ignoring unreadable draft", "error", err)
		} else if st != nil {
			c.values = st.Values.Clone()
			c.savedAt = st.SavedAt()
			c.logger.Debug("restored draft", "updatedAt", st.UpdatedAt)
		}
	case ModeEdit:
		if cfg.InitialValues != nil {
			c.values = cfg.InitialValues.Clone()
			c.sourceKey = cfg.RecipeID
		}
	}
	c.revalidateLocked()

	if c.mode == ModeCreate {
		select {
		case <-c.meta.Ready():
		default:
			go c.autosaveWhenReady()
		}
	}
	return c, nil
}

// autosaveWhenReady schedules the autosave that was skipped while metadata
// was loading.
func (c *Controller) autosaveWhenReady() {
	select {
	case <-c.meta.Ready():
	case <-c.ctx.Done():
		return
	}
	c.mu.Lock()
	dirty := c.dirty
	c.mu.Unlock()
	if dirty {
		c.logger.Debug("metadata loaded, rescheduling autosave")
		c.scheduleAutosave()
	}
}

// Close stops autosave. A pending save is dropped.
func (c *Controller) Close() {
	c.autosave.Close()
	c.cancel()
}

// Mode returns the controller mode.
func (c *Controller) Mode() Mode { return c.mode }

// RecipeID returns the edited recipe id (edit mode).
func (c *Controller) RecipeID() string { return c.recipeID }

// Values returns a copy of the current form values.
func (c *Controller) Values() models.FormValues {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.Clone()
}

// SetSource re-initializes edit-mode values when the source identity changes.
// Repeating the current key is a no-op.
func (c *Controller) SetSource(key string, values models.FormValues) {
	c.mu.Lock()
	if c.mode != ModeEdit || key == c.sourceKey {
		c.mu.Unlock()
		return
	}
	c.sourceKey = key
	c.values = values.Clone()
	c.touched = map[string]bool{}
	c.dirty = false
	c.revalidateLocked()
	c.mu.Unlock()
}

// =============================================================================
// FIELD MUTATORS
// =============================================================================

// change applies fn, marks field touched, revalidates and schedules autosave.
func (c *Controller) change(field string, fn func(v *models.FormValues) bool) bool {
	c.mu.Lock()
	if !fn(&c.values) {
		c.mu.Unlock()
		return false
	}
	if field != "" {
		c.touched[field] = true
	}
	c.dirty = true
	c.revalidateLocked()
	c.mu.Unlock()

	c.scheduleAutosave()
	return true
}

func (c *Controller) SetTitle(s string) {
	c.change("title", func(v *models.FormValues) bool { v.Title = s; return true })
}

func (c *Controller) SetDescription(s string) {
	c.change("description", func(v *models.FormValues) bool { v.Description = s; return true })
}

func (c *Controller) SetImage(url string) {
	c.change("imgSrc", func(v *models.FormValues) bool { v.ImgSrc = url; return true })
}

func (c *Controller) SetVideo(url string) {
	c.change("youtubeLink", func(v *models.FormValues) bool { v.YoutubeLink = url; return true })
}

func (c *Controller) SetCookingTime(n models.Number) {
	c.change("cookingTime", func(v *models.FormValues) bool { v.CookingTime = n; return true })
}

func (c *Controller) SetServings(n models.Number) {
	c.change("servings", func(v *models.FormValues) bool { v.Servings = n; return true })
}

// SetCategory selects a category by key. An empty key clears it.
func (c *Controller) SetCategory(key string) error {
	opt, err := c.resolve(models.KindCategory, key)
	if err != nil {
		return err
	}
	c.change("category", func(v *models.FormValues) bool { v.Category = opt; return true })
	return nil
}

// SetDifficulty selects a difficulty level by key. An empty key clears it.
func (c *Controller) SetDifficulty(key string) error {
	opt, err := c.resolve(models.KindLevel, key)
	if err != nil {
		return err
	}
	c.change("difficultyLevel", func(v *models.FormValues) bool { v.DifficultyLevel = opt; return true })
	return nil
}

func (c *Controller) resolve(kind models.OptionKind, key string) (*models.Option, error) {
	if key == "" {
		return nil, nil
	}
	opt, ok := c.meta.Find(kind, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownOption, kind, key)
	}
	return &opt, nil
}

// SetLabels replaces the selected label keys. Unknown keys are kept and
// submitted with the key as their label.
func (c *Controller) SetLabels(keys []string) {
	keys = slices.Clone(keys)
	if keys == nil {
		keys = []string{}
	}
	c.change("labels", func(v *models.FormValues) bool { v.Labels = keys; return true })
}

// ToggleLabel adds key if absent, otherwise removes it.
func (c *Controller) ToggleLabel(key string) {
	c.change("labels", func(v *models.FormValues) bool {
		if i := slices.Index(v.Labels, key); i >= 0 {
			v.Labels = slices.Delete(slices.Clone(v.Labels), i, i+1)
		} else {
			v.Labels = append(slices.Clone(v.Labels), key)
		}
		return true
	})
}

// SetValues replaces every value, e.g. after an import.
func (c *Controller) SetValues(values models.FormValues) {
	values = values.Clone()
	models.NormalizeStepOrder(values.PreparationSteps)
	c.change("", func(v *models.FormValues) bool { *v = values; return true })
}

// AddIngredient appends an empty ingredient and returns its local ID.
func (c *Controller) AddIngredient() string {
	id := uuid.NewString()
	c.change("", func(v *models.FormValues) bool {
		v.Ingredients = append(slices.Clone(v.Ingredients), models.Ingredient{LocalID: id})
		return true
	})
	return id
}

// UpdateIngredient edits the ingredient at index. Returns false when out of range.
func (c *Controller) UpdateIngredient(index int, fn func(*models.Ingredient)) bool {
	return c.change(fmt.Sprintf("ingredients[%d]", index), func(v *models.FormValues) bool {
		if index < 0 || index >= len(v.Ingredients) {
			return false
		}
		v.Ingredients = slices.Clone(v.Ingredients)
		localID := v.Ingredients[index].LocalID
		fn(&v.Ingredients[index])
		v.Ingredients[index].LocalID = localID
		return true
	})
}

// RemoveIngredient drops the ingredient at index. Returns false when out of range.
func (c *Controller) RemoveIngredient(index int) bool {
	return c.change("", func(v *models.FormValues) bool {
		if index < 0 || index >= len(v.Ingredients) {
			return false
		}
		v.Ingredients = slices.Delete(slices.Clone(v.Ingredients), index, index+1)
		return true
	})
}

// AddStep appends an empty step with order len+1 and returns its local ID.
func (c *Controller) AddStep() string {
	id := uuid.NewString()
	c.change("", func(v *models.FormValues) bool {
		v.PreparationSteps = append(slices.Clone(v.PreparationSteps), models.PreparationStep{
			LocalID: id,
			Order:   len(v.PreparationSteps) + 1,
		})
		return true
	})
	return id
}

// UpdateStep sets the description of the step at index. Returns false when out of range.
func (c *Controller) UpdateStep(index int, description string) bool {
	return c.change(fmt.Sprintf("preparationSteps[%d].description", index), func(v *models.FormValues) bool {
		if index < 0 || index >= len(v.PreparationSteps) {
			return false
		}
		v.PreparationSteps = slices.Clone(v.PreparationSteps)
		v.PreparationSteps[index].Description = description
		return true
	})
}

// RemoveStep drops the step at index and renumbers the rest 1..N.
// Returns false when out of range.
func (c *Controller) RemoveStep(index int) bool {
	return c.change("", func(v *models.FormValues) bool {
		if index < 0 || index >= len(v.PreparationSteps) {
			return false
		}
		v.PreparationSteps = models.NormalizeStepOrder(
			slices.Delete(slices.Clone(v.PreparationSteps), index, index+1))
		return true
	})
}

// MoveStep swaps the step at index with its neighbour. Moving past either
// end is a silent no-op and returns false.
func (c *Controller) MoveStep(index int, dir Direction) bool {
	return c.change("", func(v *models.FormValues) bool {
		target := index - 1
		if dir == Down {
			target = index + 1
		}
		if index < 0 || index >= len(v.PreparationSteps) || target < 0 || target >= len(v.PreparationSteps) {
			return false
		}
		steps := slices.Clone(v.PreparationSteps)
		steps[index], steps[target] = steps[target], steps[index]
		v.PreparationSteps = models.NormalizeStepOrder(steps)
		return true
	})
}

// =============================================================================
// VALIDATION
// =============================================================================

func (c *Controller) revalidateLocked() {
	c.errs = map[string]string{}
	if verr := Validate(c.values); verr != nil {
		c.errs = verr.Fields
	}
}

// Touch marks a field as visited.
func (c *Controller) Touch(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched[field] = true
}

// Touched returns a copy of the touched map.
func (c *Controller) Touched() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.touched)
}

// Errors returns every current field error, touched or not.
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.errs)
}

// VisibleErrors returns errors for touched fields only. A touched list entry
// such as "ingredients[0]" reveals errors of its sub-fields.
func (c *Controller) VisibleErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]string{}
	for path, msg := range c.errs {
		if c.isTouchedLocked(path) {
			out[path] = msg
		}
	}
	return out
}

func (c *Controller) isTouchedLocked(path string) bool {
	for p := path; p != ""; p = parentPath(p) {
		if c.touched[p] {
			return true
		}
	}
	return false
}

// parentPath trims the last path element: "a[0].b" -> "a[0]" -> "a" -> "".
func parentPath(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		switch p[i] {
		case '.', '[':
			return p[:i]
		}
	}
	return ""
}

// touchAllLocked marks every field with an error plus the top-level fields touched.
func (c *Controller) touchAllLocked() {
	for _, f := range []string{
		"title", "description", "imgSrc", "cookingTime", "servings",
		"difficultyLevel", "category", "labels", "youtubeLink",
		"ingredients", "preparationSteps",
	} {
		c.touched[f] = true
	}
	for path := range c.errs {
		c.touched[path] = true
	}
}

// =============================================================================
// COMPLETION
// =============================================================================

// Completion returns overall completion of the current values.
func (c *Controller) Completion() Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Compute(c.values)
}

// SectionCompletion returns completion for one section.
func (c *Controller) SectionCompletion(s Section) Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SectionCompletion(s, c.values)
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Active returns the active section.
func (c *Controller) Active() Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// GoTo activates s. Navigation is advisory: incomplete sections never block
// a move, only the optional transition table does.
func (c *Controller) GoTo(s Section) error {
	if !s.Valid() {
		return fmt.Errorf("goto: invalid section %d", int(s))
	}
	c.mu.Lock()
	if !c.trans.Allowed(c.active, s) {
		from := c.active
		c.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, s)
	}
	c.active = s
	c.mu.Unlock()

	c.sectionChanged(s)
	return nil
}

// Next moves along the forward path.
func (c *Controller) Next() error {
	return c.GoTo(c.Active().Next())
}

// Prev moves back along the forward path.
func (c *Controller) Prev() error {
	return c.GoTo(c.Active().Prev())
}

// jump activates s regardless of the transition table.
func (c *Controller) jump(s Section) {
	c.mu.Lock()
	c.active = s
	c.mu.Unlock()
	c.sectionChanged(s)
}

func (c *Controller) sectionChanged(s Section) {
	if c.onSect != nil {
		c.onSect(s)
	}
}

// =============================================================================
// DRAFT
// =============================================================================

// SavedAt returns the last draft save time; zero when unsaved.
func (c *Controller) SavedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.savedAt
}

// LastSavedLabel describes the last save relative to the controller clock.
func (c *Controller) LastSavedLabel() string {
	return LastSavedLabel(c.SavedAt(), c.now())
}

// AutosavePending reports whether an autosave is scheduled.
func (c *Controller) AutosavePending() bool {
	return c.autosave.Pending()
}

// Saving reports whether a fired autosave is still running.
func (c *Controller) Saving() bool {
	return c.autosave.Running()
}

// scheduleAutosave restarts the debounce window. Drafts only exist before a
// recipe is created, so edit mode never autosaves.
func (c *Controller) scheduleAutosave() {
	if c.mode != ModeCreate {
		return
	}
	c.autosave.Trigger()
}

func (c *Controller) runAutosave() {
	// Saving before metadata arrives would persist placeholder state.
	// autosaveWhenReady reschedules once it does.
	if !c.meta.Loaded() {
		c.logger.Debug("autosave deferred: metadata not loaded")
		return
	}
	if err := c.writeDraft(c.ctx, false); err != nil {
		c.logger.Warn("autosave failed", "error", err)
	}
}

// writeDraft snapshots and stores the values. Unless force is set, values
// unchanged since the last write or clear are skipped.
func (c *Controller) writeDraft(ctx context.Context, force bool) error {
	c.draftMu.Lock()
	defer c.draftMu.Unlock()

	c.mu.Lock()
	if !force && !c.dirty {
		c.mu.Unlock()
		return nil
	}
	st := draft.NewState(c.now(), c.values)
	c.dirty = false
	c.mu.Unlock()

	if err := c.store.Set(ctx, st); err != nil {
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return fmt.Errorf("save draft: %w", err)
	}

	c.mu.Lock()
	c.savedAt = st.SavedAt()
	c.mu.Unlock()
	c.logger.Debug("draft saved", "updatedAt", st.UpdatedAt)
	return nil
}

// clearDraft removes the stored draft. A save that was already running
// finishes first and is removed with it.
func (c *Controller) clearDraft(ctx context.Context) error {
	c.draftMu.Lock()
	defer c.draftMu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	c.mu.Lock()
	c.dirty = false
	c.savedAt = time.Time{}
	c.mu.Unlock()
	return nil
}

// SaveDraftNow persists the current values immediately.
func (c *Controller) SaveDraftNow(ctx context.Context) error {
	c.autosave.Cancel()
	if err := c.writeDraft(ctx, true); err != nil {
		c.notifier.Notify(Notice{Kind: NoticeError, Message: MsgGenericFailure})
		return err
	}
	c.notifier.Notify(Notice{Kind: NoticeInfo, Message: MsgDraftSaved})
	return nil
}

// ResetDraft clears the stored draft, resets the form and returns to basics.
func (c *Controller) ResetDraft(ctx context.Context) error {
	c.autosave.Cancel()
	if err := c.clearDraft(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.values = models.DefaultFormValues()
	c.touched = map[string]bool{}
	c.revalidateLocked()
	c.mu.Unlock()

	c.jump(SectionBasics)
	c.notifier.Notify(Notice{Kind: NoticeInfo, Message: MsgDraftCleared})
	return nil
}

// Reload replaces the values with the stored draft, e.g. after another
// process rewrote it. A missing draft resets to defaults. Create mode only.
func (c *Controller) Reload(ctx context.Context) error {
	if c.mode != ModeCreate {
		return nil
	}
	st, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("reload draft: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = false
	if st == nil {
		c.values = models.DefaultFormValues()
		c.savedAt = time.Time{}
	} else {
		c.values = st.Values.Clone()
		c.savedAt = st.SavedAt()
	}
	c.revalidateLocked()
	return nil
}
