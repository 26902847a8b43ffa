package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/composer"
	"github.com/raphaelgruber/recipebox/internal/metadata"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/parser"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	ingredientQty  string
	ingredientUnit string

	resetForce  bool
	importForce bool

	editSets []string
	editFile string
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Write a recipe draft and publish it",
	Long: `Edit the local recipe draft section by section, then publish it.

Every change is saved to the draft immediately. The draft lives in
$RECIPEBOX_DRAFT_DIR (or Redis with RECIPEBOX_DRAFT_BACKEND=redis).

Sections: basics, media, ingredients, steps.

Examples:
  recipebox compose set title "Shakshuka"
  recipebox compose set category breakfast
  recipebox compose ingredient add eggs --qty 4 --unit pcs
  recipebox compose step add "Simmer the tomatoes for 10 minutes"
  recipebox compose show
  recipebox compose publish
  recipebox compose tui`,
	Args: cobra.NoArgs,
	RunE: runComposeShow,
}

var composeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the draft with completion per section",
	Args:  cobra.NoArgs,
	RunE:  runComposeShow,
}

var composeSetCmd = &cobra.Command{
	Use:   "set <field> [value...]",
	Short: "Set a field of the draft",
	Long: `Set a draft field. An empty value clears it.

Fields:
  title, description, image, video, cooking-time, servings,
  category, difficulty     (keys from "recipebox metadata")
  labels                   (comma-separated keys, replaces the selection)
  label                    (toggles one key)

Examples:
  recipebox compose set title "Shakshuka"
  recipebox compose set cooking-time 25
  recipebox compose set labels vegetarian,quick
  recipebox compose set category ""`,
	Args: cobra.MinimumNArgs(1),
	RunE: runComposeSet,
}

var composeIngredientCmd = &cobra.Command{
	Use:   "ingredient",
	Short: "Add, change or remove ingredients",
}

var composeIngredientAddCmd = &cobra.Command{
	Use:   "add <name...>",
	Short: "Append an ingredient",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngredientAdd,
}

var composeIngredientRmCmd = &cobra.Command{
	Use:   "rm <n>",
	Short: "Remove ingredient n (1-based)",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngredientRm,
}

var composeIngredientSetCmd = &cobra.Command{
	Use:   "set <n> <name|quantity|unit> <value...>",
	Short: "Change a field of ingredient n",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runIngredientSet,
}

var composeStepCmd = &cobra.Command{
	Use:   "step",
	Short: "Add, change, reorder or remove preparation steps",
}

var composeStepAddCmd = &cobra.Command{
	Use:   "add <description...>",
	Short: "Append a step",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStepAdd,
}

var composeStepRmCmd = &cobra.Command{
	Use:   "rm <n>",
	Short: "Remove step n; later steps are renumbered",
	Args:  cobra.ExactArgs(1),
	RunE:  runStepRm,
}

var composeStepSetCmd = &cobra.Command{
	Use:   "set <n> <description...>",
	Short: "Replace the description of step n",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runStepSet,
}

var composeStepMoveCmd = &cobra.Command{
	Use:   "move <n> <up|down>",
	Short: "Swap step n with its neighbour",
	Args:  cobra.ExactArgs(2),
	RunE:  runStepMove,
}

var composeSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the draft now",
	Args:  cobra.NoArgs,
	RunE:  runComposeSave,
}

var composeResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the draft",
	Args:  cobra.NoArgs,
	RunE:  runComposeReset,
}

var composePublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the draft as a new recipe",
	Long: `Publish the draft. Category and difficulty level must be chosen and every
section must be complete. On success the draft is cleared.`,
	Args: cobra.NoArgs,
	RunE: runComposePublish,
}

var composeEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a published recipe",
	Long: `Load a published recipe, apply changes and save it. The local draft is
not touched.

Examples:
  recipebox compose edit 3f1c... --set title="Green shakshuka"
  recipebox compose edit 3f1c... --file shakshuka.md`,
	Args: cobra.ExactArgs(1),
	RunE: runComposeEdit,
}

var composeImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the draft with a Markdown or YAML recipe",
	Long: `Replace the draft with the recipe in file. Markdown files (.md) use YAML
frontmatter plus "## Ingredients" and "## Steps" lists. Other files are read
as YAML in the format written by "compose export".

Examples:
  recipebox compose import shakshuka.md
  recipebox compose import draft.yaml --force`,
	Args: cobra.ExactArgs(1),
	RunE: runComposeImport,
}

var composeExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the draft to a Markdown or YAML file",
	Long: `Write the draft to file: Markdown for .md, YAML otherwise. Use "-" for stdout.

Examples:
  recipebox compose export shakshuka.md
  recipebox compose export - > draft.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runComposeExport,
}

func init() {
	composeIngredientAddCmd.Flags().StringVarP(&ingredientQty, "qty", "q", "", "quantity")
	composeIngredientAddCmd.Flags().StringVarP(&ingredientUnit, "unit", "u", "", "unit key")
	composeIngredientCmd.AddCommand(composeIngredientAddCmd, composeIngredientRmCmd, composeIngredientSetCmd)

	composeStepCmd.AddCommand(composeStepAddCmd, composeStepRmCmd, composeStepSetCmd, composeStepMoveCmd)

	composeResetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip confirmation")
	composeImportCmd.Flags().BoolVarP(&importForce, "force", "f", false, "replace a non-empty draft without asking")

	composeEditCmd.Flags().StringArrayVar(&editSets, "set", nil, "field=value to change (repeatable)")
	composeEditCmd.Flags().StringVar(&editFile, "file", "", "replace all values with a Markdown or YAML recipe")

	composeCmd.AddCommand(
		composeShowCmd,
		composeSetCmd,
		composeIngredientCmd,
		composeStepCmd,
		composeSaveCmd,
		composeResetCmd,
		composePublishCmd,
		composeEditCmd,
		composeImportCmd,
		composeExportCmd,
		composeTUICmd,
	)
}

// =============================================================================
// SESSION
// =============================================================================

// session is a composer controller wired to the configured draft store and
// the server's metadata.
type session struct {
	ctrl      *composer.Controller
	meta      *metadata.Provider
	watchPath string
	navigated string
	cleanup   func()
}

type sessionOptions struct {
	mode     composer.Mode
	recipeID string
	initial  *models.FormValues
	notifier composer.Notifier
	onSect   func(composer.Section)
}

func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	store, watchPath, cleanup, err := draftStore(ctx)
	if err != nil {
		return nil, err
	}

	meta := metadata.NewProvider(gqlClient, logger)
	if err := meta.Load(ctx); err != nil {
		// Free-text fields stay editable offline.
		logger.Warn("metadata unavailable", "error", err)
	}

	s := &session{meta: meta, watchPath: watchPath, cleanup: cleanup}
	ctrl, err := composer.New(ctx, composer.Config{
		Mode:            opts.mode,
		RecipeID:        opts.recipeID,
		Store:           store,
		Metadata:        meta,
		Mutator:         gqlClient,
		Notifier:        opts.notifier,
		Router:          composer.RouterFunc(func(path string) { s.navigated = path }),
		OnSectionChange: opts.onSect,
		InitialValues:   opts.initial,
		Debounce:        cfg.AutosaveDelay,
		Logger:          logger,
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	s.ctrl = ctrl
	return s, nil
}

func (s *session) Close() {
	s.ctrl.Close()
	s.cleanup()
}

// requireMetadata reports why category/level/label lookups cannot work.
func (s *session) requireMetadata() error {
	if s.meta.Loaded() {
		return nil
	}
	if err := s.meta.Err(); err != nil {
		return fmt.Errorf("metadata unavailable: %w", err)
	}
	return fmt.Errorf("metadata unavailable")
}

// printNotices writes composer notices to w.
func printNotices(w io.Writer) composer.Notifier {
	return composer.NotifierFunc(func(n composer.Notice) {
		switch n.Kind {
		case composer.NoticeError:
			fmt.Fprintf(w, "✗ %s\n", n.Message)
		case composer.NoticeSuccess:
			fmt.Fprintf(w, "✓ %s\n", n.Message)
		default:
			fmt.Fprintln(w, n.Message)
		}
	})
}

// withDraft opens a create-mode session, runs fn and saves the draft when fn
// reports a change.
func withDraft(cmd *cobra.Command, fn func(s *session) (changed bool, err error)) error {
	ctx := context.Background()
	s, err := openSession(ctx, sessionOptions{mode: composer.ModeCreate, notifier: printNotices(cmd.ErrOrStderr())})
	if err != nil {
		return err
	}
	defer s.Close()

	changed, err := fn(s)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.ctrl.SaveDraftNow(ctx); err != nil {
		return err
	}
	printFieldErrors(cmd.ErrOrStderr(), s.ctrl.VisibleErrors())
	return nil
}

func printFieldErrors(w io.Writer, errs map[string]string) {
	for _, path := range slices.Sorted(maps.Keys(errs)) {
		fmt.Fprintf(w, "  ! %s: %s\n", path, errs[path])
	}
}

// =============================================================================
// FIELDS
// =============================================================================

var fieldNames = []string{
	"title", "description", "image", "video", "cooking-time", "servings",
	"category", "difficulty", "labels", "label",
}

// applyField sets one form field from its textual value.
func applyField(s *session, field, value string) error {
	ctrl := s.ctrl
	switch field {
	case "title":
		ctrl.SetTitle(value)
	case "description", "desc":
		ctrl.SetDescription(value)
	case "image", "img", "imgSrc":
		ctrl.SetImage(value)
	case "video", "youtube", "youtubeLink":
		ctrl.SetVideo(value)
	case "cooking-time", "time", "cookingTime":
		n, err := models.ParseNumber(value)
		if err != nil {
			return err
		}
		ctrl.SetCookingTime(n)
	case "servings":
		n, err := models.ParseNumber(value)
		if err != nil {
			return err
		}
		ctrl.SetServings(n)
	case "category":
		if value != "" {
			if err := s.requireMetadata(); err != nil {
				return err
			}
		}
		return ctrl.SetCategory(value)
	case "difficulty", "level", "difficultyLevel":
		if value != "" {
			if err := s.requireMetadata(); err != nil {
				return err
			}
		}
		return ctrl.SetDifficulty(value)
	case "labels":
		ctrl.SetLabels(splitList(value))
	case "label":
		if value == "" {
			return fmt.Errorf("label: key is required")
		}
		ctrl.ToggleLabel(value)
	default:
		return fmt.Errorf("unknown field %q (want one of %s)", field, strings.Join(fieldNames, ", "))
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" && !slices.Contains(out, part) {
			out = append(out, part)
		}
	}
	return out
}

// parseIndex converts a 1-based position to an index into a list of n items.
func parseIndex(what, s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s number %q: %w", what, s, err)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("%s %d does not exist (have %d)", what, i, n)
	}
	return i - 1, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func runComposeShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, sessionOptions{mode: composer.ModeCreate})
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	printValues(out, s.ctrl.Values(), s.meta)
	fmt.Fprintln(out)
	printCompletion(out, s.ctrl)
	printErrors(out, s.ctrl.Errors())
	fmt.Fprintf(out, "\nDraft: %s\n", s.ctrl.LastSavedLabel())
	return nil
}

func runComposeSet(cmd *cobra.Command, args []string) error {
	field, value := args[0], strings.Join(args[1:], " ")
	return withDraft(cmd, func(s *session) (bool, error) {
		if err := applyField(s, field, value); err != nil {
			return false, err
		}
		return true, nil
	})
}

func runIngredientAdd(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")
	qty, err := models.ParseNumber(ingredientQty)
	if err != nil {
		return err
	}
	return withDraft(cmd, func(s *session) (bool, error) {
		s.ctrl.AddIngredient()
		n := len(s.ctrl.Values().Ingredients)
		s.ctrl.UpdateIngredient(n-1, func(ing *models.Ingredient) {
			ing.Name = name
			ing.Quantity = qty
			ing.Unit = ingredientUnit
		})
		fmt.Fprintf(cmd.OutOrStdout(), "Ingredient %d: %s\n", n, formatIngredient(qty.Float(), ingredientUnit, name))
		return true, nil
	})
}

func runIngredientRm(cmd *cobra.Command, args []string) error {
	return withDraft(cmd, func(s *session) (bool, error) {
		i, err := parseIndex("ingredient", args[0], len(s.ctrl.Values().Ingredients))
		if err != nil {
			return false, err
		}
		return s.ctrl.RemoveIngredient(i), nil
	})
}

func runIngredientSet(cmd *cobra.Command, args []string) error {
	field, value := args[1], strings.Join(args[2:], " ")
	return withDraft(cmd, func(s *session) (bool, error) {
		i, err := parseIndex("ingredient", args[0], len(s.ctrl.Values().Ingredients))
		if err != nil {
			return false, err
		}

		var update func(*models.Ingredient)
		switch field {
		case "name":
			update = func(ing *models.Ingredient) { ing.Name = value }
		case "quantity", "qty":
			n, err := models.ParseNumber(value)
			if err != nil {
				return false, err
			}
			update = func(ing *models.Ingredient) { ing.Quantity = n }
		case "unit":
			update = func(ing *models.Ingredient) { ing.Unit = value }
		default:
			return false, fmt.Errorf("unknown ingredient field %q (want name, quantity or unit)", field)
		}
		return s.ctrl.UpdateIngredient(i, update), nil
	})
}

func runStepAdd(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")
	return withDraft(cmd, func(s *session) (bool, error) {
		s.ctrl.AddStep()
		n := len(s.ctrl.Values().PreparationSteps)
		s.ctrl.UpdateStep(n-1, description)
		fmt.Fprintf(cmd.OutOrStdout(), "Step %d: %s\n", n, description)
		return true, nil
	})
}

func runStepRm(cmd *cobra.Command, args []string) error {
	return withDraft(cmd, func(s *session) (bool, error) {
		i, err := parseIndex("step", args[0], len(s.ctrl.Values().PreparationSteps))
		if err != nil {
			return false, err
		}
		return s.ctrl.RemoveStep(i), nil
	})
}

func runStepSet(cmd *cobra.Command, args []string) error {
	description := strings.Join(args[1:], " ")
	return withDraft(cmd, func(s *session) (bool, error) {
		i, err := parseIndex("step", args[0], len(s.ctrl.Values().PreparationSteps))
		if err != nil {
			return false, err
		}
		return s.ctrl.UpdateStep(i, description), nil
	})
}

func runStepMove(cmd *cobra.Command, args []string) error {
	var dir composer.Direction
	switch args[1] {
	case "up":
		dir = composer.Up
	case "down":
		dir = composer.Down
	default:
		return fmt.Errorf("direction must be up or down, got %q", args[1])
	}
	return withDraft(cmd, func(s *session) (bool, error) {
		i, err := parseIndex("step", args[0], len(s.ctrl.Values().PreparationSteps))
		if err != nil {
			return false, err
		}
		if !s.ctrl.MoveStep(i, dir) {
			edge := "top"
			if dir == composer.Down {
				edge = "bottom"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Step %s is already at the %s.\n", args[0], edge)
			return false, nil
		}
		return true, nil
	})
}

func runComposeSave(cmd *cobra.Command, args []string) error {
	return withDraft(cmd, func(s *session) (bool, error) { return true, nil })
}

func runComposeReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, sessionOptions{mode: composer.ModeCreate, notifier: printNotices(cmd.ErrOrStderr())})
	if err != nil {
		return err
	}
	defer s.Close()

	if !resetForce {
		title := s.ctrl.Values().Title
		ok, err := newPrompter(cmd).Confirm(fmt.Sprintf("About to discard the draft %q", title))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}
	return s.ctrl.ResetDraft(ctx)
}

func runComposePublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, sessionOptions{mode: composer.ModeCreate, notifier: printNotices(cmd.ErrOrStderr())})
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := submit(cmd, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published: %s (%s)\n", r.Title, r.ID)
	return nil
}

func runComposeEdit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if len(editSets) == 0 && editFile == "" {
		return fmt.Errorf("nothing to change: pass --set field=value or --file")
	}

	r, err := gqlClient.GetRecipe(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get recipe: %w", err)
	}
	if r == nil {
		return fmt.Errorf("recipe not found: %s", args[0])
	}

	initial := r.FormValues()
	s, err := openSession(ctx, sessionOptions{
		mode:     composer.ModeEdit,
		recipeID: r.ID,
		initial:  &initial,
		notifier: printNotices(cmd.ErrOrStderr()),
	})
	if err != nil {
		return err
	}
	defer s.Close()

	if editFile != "" {
		values, err := readRecipeFile(editFile, s.meta)
		if err != nil {
			return err
		}
		reportUnresolved(cmd.ErrOrStderr(), resolveOptions(&values, s.meta))
		s.ctrl.SetValues(values)
	}
	for _, kv := range editSets {
		field, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: want field=value", kv)
		}
		if err := applyField(s, field, value); err != nil {
			return err
		}
	}

	updated, err := submit(cmd, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s (%s)\n", updated.Title, updated.ID)
	return nil
}

// submit runs the mutation and explains a blocked submit.
func submit(cmd *cobra.Command, s *session) (*client.Recipe, error) {
	r, err := s.ctrl.Submit(context.Background())
	if err == nil {
		logger.Info("recipe submitted", "id", r.ID, "mode", s.ctrl.Mode().String(), "next", s.navigated)
		return r, nil
	}

	var verr *composer.ValidationError
	switch {
	case errors.As(err, &verr):
		printErrors(cmd.ErrOrStderr(), verr.Fields)
		return nil, fmt.Errorf("recipe is incomplete: fix the %s section first", s.ctrl.Active())
	case errors.Is(err, composer.ErrMissingClassification):
		return nil, fmt.Errorf("%s (see 'recipebox metadata')", composer.MsgMissingClass)
	default:
		return nil, fmt.Errorf("submit: %w", err)
	}
}

func runComposeImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, sessionOptions{mode: composer.ModeCreate, notifier: printNotices(cmd.ErrOrStderr())})
	if err != nil {
		return err
	}
	defer s.Close()

	values, err := readRecipeFile(args[0], s.meta)
	if err != nil {
		return err
	}

	if current := s.ctrl.Values(); !importForce && composer.Compute(current).Done > 0 {
		ok, err := newPrompter(cmd).Confirm(fmt.Sprintf("About to replace the draft %q", current.Title))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	reportUnresolved(cmd.ErrOrStderr(), resolveOptions(&values, s.meta))
	s.ctrl.SetValues(values)
	if err := s.ctrl.SaveDraftNow(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %q: %d ingredients, %d steps\n",
		values.Title, len(values.Ingredients), len(values.PreparationSteps))
	return nil
}

func runComposeExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, sessionOptions{mode: composer.ModeCreate})
	if err != nil {
		return err
	}
	defer s.Close()

	values := s.ctrl.Values()
	path := args[0]

	var data []byte
	if isMarkdown(path) {
		doc, err := parser.FormatRecipe(values)
		if err != nil {
			return err
		}
		data = []byte(doc)
	} else {
		data, err = yaml.Marshal(values)
		if err != nil {
			return fmt.Errorf("marshal draft: %w", err)
		}
	}

	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported draft to %s\n", path)
	return nil
}

// =============================================================================
// IMPORT HELPERS
// =============================================================================

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// readRecipeFile reads form values from Markdown or YAML.
func readRecipeFile(path string, meta *metadata.Provider) (models.FormValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.FormValues{}, fmt.Errorf("read %s: %w", path, err)
	}

	if isMarkdown(path) {
		var units []string
		for _, u := range meta.Units() {
			units = append(units, u.Key)
		}
		values, err := parser.ParseRecipe(string(data), parser.ImportOptions{Units: units})
		if err != nil {
			return models.FormValues{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return values, nil
	}

	values := models.DefaultFormValues()
	if err := yaml.Unmarshal(data, &values); err != nil {
		return models.FormValues{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return values.Clone(), nil
}

// resolveOptions replaces imported category and difficulty keys with the
// metadata options and returns the keys that did not resolve. Without
// metadata the keys are kept as they are.
func resolveOptions(v *models.FormValues, meta *metadata.Provider) []string {
	if !meta.Loaded() {
		return nil
	}
	var unresolved []string
	resolve := func(kind models.OptionKind, opt **models.Option) {
		if *opt == nil {
			return
		}
		if found, ok := meta.Find(kind, (*opt).Key); ok {
			*opt = &found
			return
		}
		unresolved = append(unresolved, fmt.Sprintf("%s %q", kind, (*opt).Key))
		*opt = nil
	}
	resolve(models.KindCategory, &v.Category)
	resolve(models.KindLevel, &v.DifficultyLevel)
	return unresolved
}

func reportUnresolved(w io.Writer, unresolved []string) {
	for _, u := range unresolved {
		fmt.Fprintf(w, "Warning: unknown %s dropped\n", u)
	}
}
