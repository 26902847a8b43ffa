// Package service provides business logic for recipebox operations.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Sentinel errors returned by the services.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidInput wraps every *InputError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the caller does not own the resource.
	ErrForbidden = errors.New("not allowed")

	// ErrInvalidCredentials is returned for a wrong email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for expired, unknown or malformed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email is already registered")
)

// InputError lists field problems keyed by JSON path, e.g. "ingredients[0].name".
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func fieldError(field, msg string) *InputError {
	return &InputError{Fields: map[string]string{field: msg}}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
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

// validateStruct runs the struct tags of v and converts failures to *InputError.
func validateStruct(v any) error {
	err := inputValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &InputError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		if fe.Param() != "" {
			out.Fields[path] = fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		} else {
			out.Fields[path] = "failed " + fe.Tag()
		}
	}
	return out
}
