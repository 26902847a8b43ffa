package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/parser"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	listCategory string
	listLabel    string
	listMine     bool
	listLimit    int
	listOffset   int

	showFormat string

	deleteForce bool
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Browse and manage published recipes",
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes, newest first",
	Long: `List published recipes with optional filtering.

Examples:
  recipebox recipes list
  recipebox recipes list --category breakfast
  recipebox recipes list --label vegetarian --limit 10
  recipebox recipes list --mine`,
	Args: cobra.NoArgs,
	RunE: runRecipesList,
}

var recipesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recipe",
	Long: `Show a single recipe.

Examples:
  recipebox recipes show 3f1c...
  recipebox recipes show 3f1c... --format md > shakshuka.md`,
	Args: cobra.ExactArgs(1),
	RunE: runRecipesShow,
}

var recipesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your recipes",
	Long: `Delete a recipe you own. Ingredients and steps are deleted with it.
Requires confirmation unless --force is used.

Examples:
  recipebox recipes delete 3f1c...
  recipebox recipes delete 3f1c... --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRecipesDelete,
}

var recipesWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print recipe changes as they happen",
	Args:  cobra.NoArgs,
	RunE:  runRecipesWatch,
}

func init() {
	recipesListCmd.Flags().StringVarP(&listCategory, "category", "c", "", "filter by category key")
	recipesListCmd.Flags().StringVarP(&listLabel, "label", "l", "", "filter by label key")
	recipesListCmd.Flags().BoolVar(&listMine, "mine", false, "only recipes you wrote")
	recipesListCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "max results")
	recipesListCmd.Flags().IntVar(&listOffset, "offset", 0, "skip this many results")

	recipesShowCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "output format: text, md or yaml")

	recipesDeleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")

	recipesCmd.AddCommand(recipesListCmd)
	recipesCmd.AddCommand(recipesShowCmd)
	recipesCmd.AddCommand(recipesDeleteCmd)
	recipesCmd.AddCommand(recipesWatchCmd)
}

func runRecipesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	opts := client.ListRecipesOptions{Limit: &listLimit}
	if listOffset > 0 {
		opts.Offset = &listOffset
	}
	if listCategory != "" {
		opts.Category = &listCategory
	}
	if listLabel != "" {
		opts.Label = &listLabel
	}
	if listMine {
		if gqlClient.Token() == "" {
			return errNotLoggedIn
		}
		me, err := gqlClient.Me(ctx)
		if err != nil {
			return fmt.Errorf("whoami: %w", err)
		}
		if me == nil {
			return fmt.Errorf("session expired, log in again")
		}
		opts.AuthorID = &me.ID
	}

	recipes, err := gqlClient.ListRecipes(ctx, opts)
	if err != nil {
		return fmt.Errorf("list recipes: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(recipes) == 0 {
		fmt.Fprintln(out, "No recipes found.")
		return nil
	}

	fmt.Fprintf(out, "Recipes (%d):\n\n", len(recipes))
	for _, r := range recipes {
		fmt.Fprintf(out, "- %s [%s, %s] %s\n", r.Title, optionLabel(r.Category), optionLabel(r.DifficultyLevel), r.ID)
		if verbose {
			fmt.Fprintf(out, "  %d min, serves %d, %d ingredients, %d steps\n",
				r.CookingTime, r.Servings, len(r.Ingredients), len(r.PreparationSteps))
			if len(r.Labels) > 0 {
				fmt.Fprintf(out, "  Labels: %s\n", joinOptionLabels(r.Labels))
			}
		}
	}

	return nil
}

func runRecipesShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	r, err := gqlClient.GetRecipe(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get recipe: %w", err)
	}
	if r == nil {
		return fmt.Errorf("recipe not found: %s", args[0])
	}

	out := cmd.OutOrStdout()
	switch showFormat {
	case "md", "markdown":
		doc, err := parser.FormatRecipe(r.FormValues())
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, doc)
		return err
	case "yaml":
		return yaml.NewEncoder(out).Encode(r.FormValues())
	case "text", "":
		printRecipe(out, r)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, md or yaml)", showFormat)
	}
}

func runRecipesDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	r, err := gqlClient.GetRecipe(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get recipe: %w", err)
	}
	if r == nil {
		return fmt.Errorf("recipe not found: %s", args[0])
	}

	// Confirm deletion
	if !deleteForce {
		ok, err := newPrompter(cmd).Confirm(fmt.Sprintf("About to delete: %s (%s)", r.Title, r.ID))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	deleted, err := gqlClient.DeleteRecipe(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if !deleted {
		return fmt.Errorf("recipe not found or already deleted")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", r.Title)
	return nil
}

func runRecipesWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(cmd.ErrOrStderr(), "Watching recipe changes (Ctrl+C to stop)...")
	err := gqlClient.WatchRecipes(ctx, func(ev client.RecipeEvent) error {
		fmt.Fprintf(out, "%s %-8s %s %s\n", ev.At.Local().Format("15:04:05"), ev.Type, ev.RecipeID, ev.Title)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printRecipe(out io.Writer, r *client.Recipe) {
	fmt.Fprintf(out, "%s\n", r.Title)
	fmt.Fprintf(out, "%s\n\n", strings.Repeat("═", max(len([]rune(r.Title)), 3)))
	if r.Description != "" {
		fmt.Fprintf(out, "%s\n\n", r.Description)
	}
	fmt.Fprintf(out, "Category:   %s\n", optionLabel(r.Category))
	fmt.Fprintf(out, "Difficulty: %s\n", optionLabel(r.DifficultyLevel))
	fmt.Fprintf(out, "Time:       %d min\n", r.CookingTime)
	fmt.Fprintf(out, "Servings:   %d\n", r.Servings)
	if len(r.Labels) > 0 {
		fmt.Fprintf(out, "Labels:     %s\n", joinOptionLabels(r.Labels))
	}
	if r.ImgSrc != "" {
		fmt.Fprintf(out, "Image:      %s\n", r.ImgSrc)
	}
	if r.YoutubeLink != "" {
		fmt.Fprintf(out, "Video:      %s\n", r.YoutubeLink)
	}

	fmt.Fprintf(out, "\nIngredients:\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(out, "  - %s\n", formatIngredient(ing.Quantity, ing.Unit, ing.Name))
	}
	fmt.Fprintf(out, "\nSteps:\n")
	for _, st := range r.PreparationSteps {
		fmt.Fprintf(out, "  %d. %s\n", st.Order, st.Description)
	}
	if verbose {
		fmt.Fprintf(out, "\nID: %s\nCreated: %s\nUpdated: %s\n", r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}
