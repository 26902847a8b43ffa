package composer

import (
	"github.com/raphaelgruber/recipebox/internal/models"
)

// TransformValuesToInput converts form values into the mutation payload.
// Options flatten to {value,label}; label keys resolve against labels and
// unknown keys pass through as {value:key, label:key}; blank numbers become 0;
// step local IDs are dropped.
func TransformValuesToInput(v models.FormValues, labels []models.Option) models.RecipeInput {
	known := make(map[string]string, len(labels))
	for _, l := range labels {
		known[l.Key] = l.Label
	}

	in := models.RecipeInput{
		Title:            v.Title,
		Description:      v.Description,
		ImgSrc:           v.ImgSrc,
		CookingTime:      v.CookingTime.Int(),
		Servings:         v.Servings.Int(),
		DifficultyLevel:  optionInput(v.DifficultyLevel),
		Category:         optionInput(v.Category),
		Labels:           make([]models.OptionInput, 0, len(v.Labels)),
		YoutubeLink:      v.YoutubeLink,
		Ingredients:      make([]models.IngredientInput, 0, len(v.Ingredients)),
		PreparationSteps: make([]models.StepInput, 0, len(v.PreparationSteps)),
	}

	for _, key := range v.Labels {
		label, ok := known[key]
		if !ok {
			label = key
		}
		in.Labels = append(in.Labels, models.OptionInput{Value: key, Label: label})
	}
	for _, ing := range v.Ingredients {
		in.Ingredients = append(in.Ingredients, models.IngredientInput{
			LocalID:  ing.LocalID,
			Name:     ing.Name,
			Quantity: ing.Quantity.Float(),
			Unit:     ing.Unit,
		})
	}
	for _, st := range v.PreparationSteps {
		in.PreparationSteps = append(in.PreparationSteps, models.StepInput{
			Description: st.Description,
			Order:       st.Order,
		})
	}
	return in
}

func optionInput(o *models.Option) models.OptionInput {
	if o == nil {
		return models.OptionInput{}
	}
	return models.OptionInput{Value: o.Key, Label: o.Label}
}
