package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/graph-gophers/graphql-go"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/service"
)

// =============================================================================
// MODEL -> GRAPH
// =============================================================================

func optionsToGraphQL(opts []models.Option) []*Option {
	out := make([]*Option, len(opts))
	for i, o := range opts {
		out[i] = &Option{Key: o.Key, Label: o.Label}
	}
	return out
}

func metadataToGraphQL(md *models.Metadata) *Metadata {
	return &Metadata{
		Categories: optionsToGraphQL(md.Categories),
		Levels:     optionsToGraphQL(md.Levels),
		Labels:     optionsToGraphQL(md.Labels),
		Units:      optionsToGraphQL(md.Units),
	}
}

func recipeToGraphQL(r *models.Recipe) *Recipe {
	if r == nil {
		return nil
	}

	out := &Recipe{
		ID:               graphql.ID(r.ID.String()),
		Title:            r.Title,
		Description:      r.Description,
		ImgSrc:           r.ImgSrc,
		CookingTime:      int32(r.CookingTime),
		Servings:         int32(r.Servings),
		DifficultyLevel:  &OptionValue{Value: r.DifficultyKey, Label: r.DifficultyLabel},
		Category:         &OptionValue{Value: r.CategoryKey, Label: r.CategoryLabel},
		Labels:           make([]*OptionValue, len(r.Labels)),
		YoutubeLink:      r.YoutubeLink,
		Ingredients:      make([]*Ingredient, len(r.Ingredients)),
		PreparationSteps: make([]*PreparationStep, len(r.Steps)),
		CreatedAt:        graphql.Time{Time: r.CreatedAt},
		UpdatedAt:        graphql.Time{Time: r.UpdatedAt},
	}
	if r.AuthorID != nil {
		id := graphql.ID(r.AuthorID.String())
		out.AuthorID = &id
	}
	for i, l := range r.Labels {
		out.Labels[i] = &OptionValue{Value: l.Value, Label: l.Label}
	}
	for i, ing := range r.Ingredients {
		out.Ingredients[i] = &Ingredient{LocalID: ing.LocalID, Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
	}
	for i, st := range r.Steps {
		out.PreparationSteps[i] = &PreparationStep{Description: st.Description, Order: int32(st.StepOrder)}
	}
	return out
}

func userToGraphQL(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:          graphql.ID(u.ID.String()),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		CreatedAt:   graphql.Time{Time: u.CreatedAt},
	}
}

func eventToGraphQL(ev service.RecipeEvent) *RecipeEvent {
	return &RecipeEvent{
		Type:     string(ev.Type),
		RecipeID: graphql.ID(ev.RecipeID.String()),
		Title:    ev.Title,
		At:       graphql.Time{Time: ev.At},
	}
}

func opStatsToGraphQL(s *metrics.OperationSnapshot) *OperationStats {
	if s == nil {
		return nil
	}
	return &OperationStats{
		Count:       int32(s.Count),
		Errors:      int32(s.Errors),
		TotalTimeMs: int32(s.TotalTimeMs),
		AvgTimeMs:   s.AvgTimeMs,
		MinTimeMs:   int32(s.MinTimeMs),
		MaxTimeMs:   int32(s.MaxTimeMs),
	}
}

// =============================================================================
// GRAPH -> MODEL
// =============================================================================

func recipeInputToModel(in RecipeInput) models.RecipeInput {
	out := models.RecipeInput{
		Title:            in.Title,
		Description:      in.Description,
		ImgSrc:           in.ImgSrc,
		CookingTime:      int(in.CookingTime),
		Servings:         int(in.Servings),
		DifficultyLevel:  models.OptionInput{Value: in.DifficultyLevel.Value, Label: in.DifficultyLevel.Label},
		Category:         models.OptionInput{Value: in.Category.Value, Label: in.Category.Label},
		Labels:           make([]models.OptionInput, len(in.Labels)),
		YoutubeLink:      in.YoutubeLink,
		Ingredients:      make([]models.IngredientInput, len(in.Ingredients)),
		PreparationSteps: make([]models.StepInput, len(in.PreparationSteps)),
	}
	for i, l := range in.Labels {
		out.Labels[i] = models.OptionInput{Value: l.Value, Label: l.Label}
	}
	for i, ing := range in.Ingredients {
		out.Ingredients[i] = models.IngredientInput{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
		if ing.LocalID != nil {
			out.Ingredients[i].LocalID = *ing.LocalID
		}
	}
	for i, st := range in.PreparationSteps {
		out.PreparationSteps[i] = models.StepInput{Description: st.Description, Order: int(st.Order)}
	}
	return out
}

func parseID(id graphql.ID) (uuid.UUID, error) {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return uuid.Nil, &publicError{msg: "invalid id", code: codeBadInput}
	}
	return u, nil
}

// =============================================================================
// ERRORS
// =============================================================================

// Error codes reported in the "extensions.code" field.
const (
	codeBadInput        = "BAD_USER_INPUT"
	codeUnauthenticated = "UNAUTHENTICATED"
	codeForbidden       = "FORBIDDEN"
	codeNotFound        = "NOT_FOUND"
	codeInternal        = "INTERNAL_SERVER_ERROR"
)

// publicError is safe to show to end users.
type publicError struct {
	msg    string
	code   string
	fields map[string]string
}

func (e *publicError) Error() string { return e.msg }

// Extensions is picked up by the executor for the error's "extensions" key.
func (e *publicError) Extensions() map[string]any {
	ext := map[string]any{"code": e.code}
	if len(e.fields) > 0 {
		ext["fields"] = e.fields
	}
	return ext
}

// toPublic maps service and database errors onto messages for clients.
// Anything unexpected is logged and hidden behind a generic message.
func (r *Resolver) toPublic(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	var pub *publicError
	var input *service.InputError
	switch {
	case errors.As(err, &pub):
		return pub
	case errors.As(err, &input):
		return &publicError{msg: input.Error(), code: codeBadInput, fields: input.Fields}
	case errors.Is(err, ErrUnauthenticated):
		return &publicError{msg: err.Error(), code: codeUnauthenticated}
	case errors.Is(err, service.ErrForbidden):
		return &publicError{msg: "you can only change your own recipes", code: codeForbidden}
	case errors.Is(err, db.ErrNotFound):
		return &publicError{msg: "not found", code: codeNotFound}
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrEmailTaken):
		return &publicError{msg: err.Error(), code: codeBadInput}
	case errors.Is(err, context.Canceled):
		return err
	}

	r.logger.ErrorContext(ctx, "resolver failed", "op", op, "error", err)
	return &publicError{msg: "internal server error", code: codeInternal}
}

// panicLogger routes executor panics into slog.
type panicLogger struct {
	logger *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value any) {
	l.logger.ErrorContext(ctx, "graphql resolver panic", "panic", value)
}
