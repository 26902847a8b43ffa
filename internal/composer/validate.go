package composer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/raphaelgruber/recipebox/internal/models"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// formValidator returns the shared validator. Numbers validate as their value
// when set and as nil when blank, so "required" rejects blank fields.
// Field names follow the JSON tags.
func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
		validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
			n, ok := field.Interface().(models.Number)
			if !ok || !n.Set {
				return nil
			}
			return n.Value
		}, models.Number{})
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidationError lists field errors keyed by path, e.g. "ingredients[0].name".
type ValidationError struct {
	Fields map[string]string
	// First is the first invalid field in form order.
	First string
}

func (e *ValidationError) Error() string {
	if e.First == "" {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s %s", e.First, e.Fields[e.First])
}

// Section returns the section owning the first invalid field.
func (e *ValidationError) Section() Section {
	return SectionForField(e.First)
}

// Validate checks values against the form rules. Returns nil when valid.
func Validate(v models.FormValues) *ValidationError {
	err := formValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"": err.Error()}}
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		if _, seen := out.Fields[path]; seen {
			continue
		}
		out.Fields[path] = message(fe)
		if out.First == "" {
			out.First = path
		}
	}
	return out
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return "needs at least " + fe.Param() + " entry"
		}
		return "must be at least " + fe.Param()
	}
	return "is invalid (" + fe.Tag() + ")"
}

// SectionForField maps a field path to the section that edits it.
func SectionForField(path string) Section {
	root := path
	if i := strings.IndexAny(root, ".["); i >= 0 {
		root = root[:i]
	}
	switch root {
	case "imgSrc", "youtubeLink":
		return SectionMedia
	case "ingredients":
		return SectionIngredients
	case "preparationSteps":
		return SectionSteps
	default:
		return SectionBasics
	}
}
