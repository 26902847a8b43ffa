package composer

import (
	"math"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/models"
)

// Completion is a derived filled/required ratio. It is never persisted.
type Completion struct {
	Done    int
	Total   int
	Percent int
}

func newCompletion(done, total int) Completion {
	c := Completion{Done: done, Total: total}
	if total > 0 {
		c.Percent = int(math.Round(100 * float64(done) / float64(total)))
	}
	return c
}

// Complete reports whether every check passed.
func (c Completion) Complete() bool {
	return c.Total > 0 && c.Done == c.Total
}

func count(checks ...bool) int {
	n := 0
	for _, ok := range checks {
		if ok {
			n++
		}
	}
	return n
}

func basicsChecks(v models.FormValues) []bool {
	return []bool{
		strings.TrimSpace(v.Title) != "",
		strings.TrimSpace(v.Description) != "",
		v.CookingTime.Truthy(),
		v.Servings.Truthy(),
		v.Category != nil,
		v.DifficultyLevel != nil,
	}
}

// Compute returns overall completion over the eight required fields.
func Compute(v models.FormValues) Completion {
	checks := append(basicsChecks(v),
		len(v.Ingredients) > 0,
		len(v.PreparationSteps) > 0,
	)
	return newCompletion(count(checks...), len(checks))
}

// SectionCompletion narrows completion to one section. List sections count
// filled entries against max(len, 1) so an empty list reads 0/1, not 0/0.
func SectionCompletion(s Section, v models.FormValues) Completion {
	switch s {
	case SectionBasics:
		checks := basicsChecks(v)
		return newCompletion(count(checks...), len(checks))

	case SectionMedia:
		return newCompletion(count(strings.TrimSpace(v.ImgSrc) != ""), 1)

	case SectionIngredients:
		done := 0
		for _, ing := range v.Ingredients {
			if strings.TrimSpace(ing.Name) != "" && ing.Quantity.Set {
				done++
			}
		}
		return newCompletion(done, max(len(v.Ingredients), 1))

	case SectionSteps:
		done := 0
		for _, st := range v.PreparationSteps {
			if strings.TrimSpace(st.Description) != "" {
				done++
			}
		}
		return newCompletion(done, max(len(v.PreparationSteps), 1))
	}
	return Completion{}
}
