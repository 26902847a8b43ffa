package composer

import (
	"context"
	"errors"

	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/models"
)

// Submitting reports whether a mutation is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Input returns the mutation payload for the current values.
func (c *Controller) Input() models.RecipeInput {
	return TransformValuesToInput(c.Values(), c.meta.Labels())
}

// Submit publishes (create mode) or saves (edit mode) the recipe with exactly
// one mutation. Missing classification or invalid fields abort before any
// network call and move the editor to the offending section. On failure the
// form is left intact for a retry.
func (c *Controller) Submit(ctx context.Context) (*client.Recipe, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}

	if c.values.Category == nil || c.values.DifficultyLevel == nil {
		c.touched["category"] = true
		c.touched["difficultyLevel"] = true
		c.mu.Unlock()
		c.logger.Debug("submit blocked: missing classification")
		c.jump(SectionBasics)
		c.notifier.Notify(Notice{Kind: NoticeError, Message: MsgMissingClass})
		return nil, ErrMissingClassification
	}

	if verr := Validate(c.values); verr != nil {
		c.errs = verr.Fields
		c.touchAllLocked()
		c.mu.Unlock()
		c.logger.Debug("submit blocked: validation", "first", verr.First, "errors", len(verr.Fields))
		c.jump(verr.Section())
		return nil, verr
	}

	values := c.values.Clone()
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	input := TransformValuesToInput(values, c.meta.Labels())

	var (
		recipe *client.Recipe
		err    error
	)
	if c.mode == ModeEdit {
		recipe, err = c.mutator.EditRecipe(ctx, c.recipeID, input)
	} else {
		recipe, err = c.mutator.CreateRecipe(ctx, input)
	}
	if err != nil {
		c.logger.Warn("submit failed", "error", err)
		c.notifier.Notify(Notice{Kind: NoticeError, Message: FailureMessage(err)})
		return nil, err
	}

	if c.mode == ModeEdit {
		c.notifier.Notify(Notice{Kind: NoticeSuccess, Message: MsgUpdated})
		c.router.Navigate(RecipePath(c.recipeID))
		return recipe, nil
	}

	c.autosave.Cancel()
	if err := c.clearDraft(ctx); err != nil {
		c.logger.Warn("clear draft after publish failed", "error", err)
	}

	c.notifier.Notify(Notice{Kind: NoticeSuccess, Message: MsgPublished})
	c.router.Navigate(RecipesPath)
	return recipe, nil
}

// FailureMessage returns the server-provided message for err, or the generic
// fallback for transport and unknown errors.
func FailureMessage(err error) string {
	var gqlErr *client.GraphQLError
	if errors.As(err, &gqlErr) && gqlErr.Message != "" {
		return gqlErr.Message
	}
	return MsgGenericFailure
}
