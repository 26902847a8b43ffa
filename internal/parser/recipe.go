package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultUnits are recognized as ingredient units when the caller has no
// unit metadata.
var DefaultUnits = []string{"g", "kg", "ml", "l", "tsp", "tbsp", "cup", "cups", "pcs", "pinch", "clove", "cloves"}

var (
	ingredientHeadings = []string{"ingredients", "zutaten"}
	stepHeadings       = []string{"steps", "preparation", "instructions", "method", "directions", "zubereitung"}

	listItemRegex = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.*)$`)
	quantityRegex = regexp.MustCompile(`^(\d+/\d+|\d+(?:[.,]\d+)?)\s*(.*)$`)
)

// ImportOptions tune recipe parsing.
type ImportOptions struct {
	// Units lists unit keys; a word after the quantity matching one of them
	// (case-insensitive) becomes the ingredient unit. Nil uses DefaultUnits.
	Units []string
}

// ParseRecipe reads a recipe document into composer values.
//
// Frontmatter keys: title, description, imgSrc (or image), cookingTime,
// servings, category, difficulty (or difficultyLevel), labels, youtubeLink
// (or youtube). Ingredients and steps come from list items under matching
// "##" headings. Category, difficulty and labels are slugified keys; their
// display labels are left for the caller to resolve.
func ParseRecipe(content string, opts ImportOptions) (models.FormValues, error) {
	doc, err := ParseMarkdown(content)
	if err != nil {
		return models.FormValues{}, err
	}
	units := opts.Units
	if units == nil {
		units = DefaultUnits
	}

	v := models.DefaultFormValues()
	v.Title = strings.TrimSpace(doc.Title)
	v.Description = strings.TrimSpace(doc.GetFrontmatterString("description"))
	if v.Description == "" {
		v.Description = doc.Intro
	}
	v.ImgSrc = doc.GetFrontmatterString("imgSrc", "image")
	v.YoutubeLink = doc.GetFrontmatterString("youtubeLink", "youtube")

	if n, ok := doc.GetFrontmatterNumber("cookingTime", "cooking_time"); ok {
		v.CookingTime = models.NumberOf(n)
	}
	if n, ok := doc.GetFrontmatterNumber("servings"); ok {
		v.Servings = models.NumberOf(n)
	}
	if key := models.Slugify(doc.GetFrontmatterString("category")); key != "" {
		v.Category = &models.Option{Key: key}
	}
	if key := models.Slugify(doc.GetFrontmatterString("difficulty", "difficultyLevel")); key != "" {
		v.DifficultyLevel = &models.Option{Key: key}
	}
	for _, l := range doc.GetFrontmatterStringSlice("labels") {
		if key := models.Slugify(strings.TrimSpace(l)); key != "" && !slices.Contains(v.Labels, key) {
			v.Labels = append(v.Labels, key)
		}
	}

	if s, ok := doc.FindSection(ingredientHeadings...); ok {
		for _, item := range listItems(s.Content) {
			ing, err := parseIngredient(item, units)
			if err != nil {
				return models.FormValues{}, err
			}
			v.Ingredients = append(v.Ingredients, ing)
		}
	}
	if s, ok := doc.FindSection(stepHeadings...); ok {
		for _, item := range listItems(s.Content) {
			v.PreparationSteps = append(v.PreparationSteps, models.PreparationStep{
				LocalID:     uuid.NewString(),
				Description: item,
			})
		}
		models.NormalizeStepOrder(v.PreparationSteps)
	}

	return v, nil
}

// listItems returns bullet or numbered list items. Indented continuation
// lines are joined onto the previous item.
func listItems(content string) []string {
	var items []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if match := listItemRegex.FindStringSubmatch(line); match != nil {
			items = append(items, strings.TrimSpace(match[1]))
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len(items) > 0 && line != trimmed {
			items[len(items)-1] += " " + trimmed
		}
	}
	return items
}

// parseIngredient reads "200 g Flour", "1/2 tsp salt", "4 Eggs" or "Salt".
func parseIngredient(item string, units []string) (models.Ingredient, error) {
	ing := models.Ingredient{LocalID: uuid.NewString(), Name: item}

	match := quantityRegex.FindStringSubmatch(item)
	if match == nil {
		return ing, nil
	}
	qty, err := parseQuantity(match[1])
	if err != nil {
		return models.Ingredient{}, fmt.Errorf("ingredient %q: %w", item, err)
	}
	ing.Quantity = models.NumberOf(qty)
	rest := strings.TrimSpace(match[2])

	if word, name, ok := strings.Cut(rest, " "); ok {
		for _, u := range units {
			if strings.EqualFold(word, u) {
				ing.Unit = u
				rest = strings.TrimSpace(name)
				break
			}
		}
	}
	ing.Name = rest
	return ing, nil
}

func parseQuantity(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("invalid fraction %q", s)
		}
		return n / d, nil
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// frontmatter is the exported recipe header.
type frontmatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	ImgSrc      string   `yaml:"imgSrc,omitempty"`
	CookingTime *float64 `yaml:"cookingTime,omitempty"`
	Servings    *float64 `yaml:"servings,omitempty"`
	Category    string   `yaml:"category,omitempty"`
	Difficulty  string   `yaml:"difficulty,omitempty"`
	Labels      []string `yaml:"labels,omitempty"`
	YoutubeLink string   `yaml:"youtubeLink,omitempty"`
}

// FormatRecipe renders composer values as a document ParseRecipe reads back.
func FormatRecipe(v models.FormValues) (string, error) {
	fm := frontmatter{
		Title:       v.Title,
		Description: v.Description,
		ImgSrc:      v.ImgSrc,
		Labels:      v.Labels,
		YoutubeLink: v.YoutubeLink,
	}
	if v.CookingTime.Set {
		n := v.CookingTime.Value
		fm.CookingTime = &n
	}
	if v.Servings.Set {
		n := v.Servings.Value
		fm.Servings = &n
	}
	if v.Category != nil {
		fm.Category = v.Category.Key
	}
	if v.DifficultyLevel != nil {
		fm.Difficulty = v.DifficultyLevel.Key
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	if v.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", v.Title)
	}

	b.WriteString("## Ingredients\n\n")
	for _, ing := range v.Ingredients {
		b.WriteString("- ")
		if ing.Quantity.Set {
			b.WriteString(strconv.FormatFloat(ing.Quantity.Value, 'f', -1, 64))
			b.WriteString(" ")
			if ing.Unit != "" {
				b.WriteString(ing.Unit)
				b.WriteString(" ")
			}
		}
		b.WriteString(ing.Name)
		b.WriteString("\n")
	}

	b.WriteString("\n## Steps\n\n")
	for i, st := range v.PreparationSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.ReplaceAll(st.Description, "\n", "\n   "))
	}
	return b.String(), nil
}
