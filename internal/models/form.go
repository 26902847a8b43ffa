package models

import "slices"

// FormValues is the editable state of the recipe composer.
// Validation tags describe the field-level form schema; category and
// difficulty level are gated separately at submit time.
type FormValues struct {
	Title            string            `json:"title" yaml:"title" validate:"notblank,max=120"`
	Description      string            `json:"description" yaml:"description" validate:"notblank,max=2000"`
	ImgSrc           string            `json:"imgSrc" yaml:"imgSrc" validate:"omitempty,url"`
	CookingTime      Number            `json:"cookingTime" yaml:"cookingTime" validate:"required,gt=0,lte=1440"`
	Servings         Number            `json:"servings" yaml:"servings" validate:"required,gt=0,lte=100"`
	DifficultyLevel  *Option           `json:"difficultyLevel" yaml:"difficultyLevel"`
	Category         *Option           `json:"category" yaml:"category"`
	Labels           []string          `json:"labels" yaml:"labels"`
	YoutubeLink      string            `json:"youtubeLink" yaml:"youtubeLink" validate:"omitempty,url"`
	Ingredients      []Ingredient      `json:"ingredients" yaml:"ingredients" validate:"required,min=1,dive"`
	PreparationSteps []PreparationStep `json:"preparationSteps" yaml:"preparationSteps" validate:"required,min=1,dive"`
}

// Ingredient is one row of the ingredient list.
// LocalID only reconciles list rows in the editor.
type Ingredient struct {
	LocalID  string `json:"localId" yaml:"localId"`
	Name     string `json:"name" yaml:"name" validate:"notblank,max=120"`
	Quantity Number `json:"quantity" yaml:"quantity" validate:"required,gt=0,lte=100000"`
	Unit     string `json:"unit" yaml:"unit"`
}

// PreparationStep is one instruction. Order is 1-based and contiguous.
type PreparationStep struct {
	LocalID     string `json:"localId" yaml:"localId"`
	Description string `json:"description" yaml:"description" validate:"notblank,max=2000"`
	Order       int    `json:"order" yaml:"order"`
}

// DefaultFormValues returns the empty composer state.
func DefaultFormValues() FormValues {
	return FormValues{
		Labels:           []string{},
		Ingredients:      []Ingredient{},
		PreparationSteps: []PreparationStep{},
	}
}

// Clone returns a deep copy so snapshots never alias the live form.
func (v FormValues) Clone() FormValues {
	out := v
	if v.DifficultyLevel != nil {
		lvl := *v.DifficultyLevel
		out.DifficultyLevel = &lvl
	}
	if v.Category != nil {
		cat := *v.Category
		out.Category = &cat
	}
	out.Labels = slices.Clone(v.Labels)
	out.Ingredients = slices.Clone(v.Ingredients)
	out.PreparationSteps = slices.Clone(v.PreparationSteps)
	if out.Labels == nil {
		out.Labels = []string{}
	}
	if out.Ingredients == nil {
		out.Ingredients = []Ingredient{}
	}
	if out.PreparationSteps == nil {
		out.PreparationSteps = []PreparationStep{}
	}
	return out
}

// NormalizeStepOrder rewrites Order to 1..N following slice position.
func NormalizeStepOrder(steps []PreparationStep) []PreparationStep {
	for i := range steps {
		steps[i].Order = i + 1
	}
	return steps
}
