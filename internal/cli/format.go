package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/composer"
	"github.com/raphaelgruber/recipebox/internal/metadata"
	"github.com/raphaelgruber/recipebox/internal/models"
)

func optionLabel(o models.OptionInput) string {
	if o.Label != "" {
		return o.Label
	}
	if o.Value != "" {
		return o.Value
	}
	return "-"
}

func joinOptionLabels(opts []models.OptionInput) string {
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = optionLabel(o)
	}
	return strings.Join(labels, ", ")
}

func formatIngredient(qty float64, unit, name string) string {
	var parts []string
	if qty != 0 {
		parts = append(parts, strconv.FormatFloat(qty, 'f', -1, 64))
	}
	if unit != "" {
		parts = append(parts, unit)
	}
	parts = append(parts, name)
	return strings.Join(parts, " ")
}

func formOption(o *models.Option) string {
	switch {
	case o == nil:
		return "-"
	case o.Label != "" && o.Label != o.Key:
		return fmt.Sprintf("%s (%s)", o.Label, o.Key)
	default:
		return o.Key
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printValues renders the composer form the way "compose show" prints it.
func printValues(out io.Writer, v models.FormValues, meta *metadata.Provider) {
	fmt.Fprintf(out, "Title:        %s\n", orDash(v.Title))
	fmt.Fprintf(out, "Description:  %s\n", orDash(v.Description))
	fmt.Fprintf(out, "Category:     %s\n", formOption(v.Category))
	fmt.Fprintf(out, "Difficulty:   %s\n", formOption(v.DifficultyLevel))
	fmt.Fprintf(out, "Cooking time: %s\n", orDash(v.CookingTime.String()))
	fmt.Fprintf(out, "Servings:     %s\n", orDash(v.Servings.String()))

	labels := make([]string, len(v.Labels))
	for i, key := range v.Labels {
		labels[i] = meta.LabelFor(models.KindLabel, key)
	}
	fmt.Fprintf(out, "Labels:       %s\n", orDash(strings.Join(labels, ", ")))
	fmt.Fprintf(out, "Image:        %s\n", orDash(v.ImgSrc))
	fmt.Fprintf(out, "Video:        %s\n", orDash(v.YoutubeLink))

	fmt.Fprintf(out, "\nIngredients (%d):\n", len(v.Ingredients))
	for i, ing := range v.Ingredients {
		fmt.Fprintf(out, "  %d. %s\n", i+1, orDash(formatIngredient(ing.Quantity.Float(), ing.Unit, ing.Name)))
	}
	fmt.Fprintf(out, "\nSteps (%d):\n", len(v.PreparationSteps))
	for _, st := range v.PreparationSteps {
		fmt.Fprintf(out, "  %d. %s\n", st.Order, orDash(st.Description))
	}
}

// printCompletion renders overall and per-section progress.
func printCompletion(out io.Writer, ctrl *composer.Controller) {
	total := ctrl.Completion()
	fmt.Fprintf(out, "Completion: %d/%d (%d%%)\n", total.Done, total.Total, total.Percent)
	for _, s := range composer.AllSections {
		c := ctrl.SectionCompletion(s)
		mark := " "
		if c.Complete() {
			mark = "✓"
		}
		fmt.Fprintf(out, "  %s %-12s %s %d/%d\n", mark, s, textBar(c.Percent, 20), c.Done, c.Total)
	}
}

func printErrors(out io.Writer, errs map[string]string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(out, "\nMissing or invalid (%d):\n", len(errs))
	for _, path := range slices.Sorted(maps.Keys(errs)) {
		fmt.Fprintf(out, "  • %s: %s\n", path, errs[path])
	}
}

func textBar(percent, width int) string {
	filled := min(max(percent*width/100, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
