// Package draft persists unsubmitted composer state.
//
// A draft is a {updatedAt, values} snapshot stored under a fixed key. It is
// created on the first autosave, overwritten on every later save and removed
// after a successful publish or an explicit reset.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raphaelgruber/recipebox/internal/models"
)

// DefaultKey is the namespace key drafts are stored under.
const DefaultKey = "recipebox:composer-draft"

// State is a persisted draft.
type State struct {
	// UpdatedAt is the save time in epoch milliseconds.
	UpdatedAt int64             `json:"updatedAt"`
	Values    models.FormValues `json:"values"`
}

// NewState stamps values with t.
func NewState(t time.Time, values models.FormValues) State {
	return State{UpdatedAt: t.UnixMilli(), Values: values.Clone()}
}

// SavedAt returns UpdatedAt as a time. Zero when the draft carries no timestamp.
func (s *State) SavedAt() time.Time {
	if s == nil || s.UpdatedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.UpdatedAt)
}

// Store is a durable key-value slot for a single draft.
type Store interface {
	// Get returns the stored draft, or nil and no error when none exists.
	Get(ctx context.Context) (*State, error)
	// Set overwrites the stored draft.
	Set(ctx context.Context, s State) error
	// Clear removes the stored draft. Clearing an absent draft is not an error.
	Clear(ctx context.Context) error
}

func encode(s State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	return data, nil
}

// decode parses a stored draft. A JSON null decodes to no draft.
func decode(data []byte) (*State, error) {
	var s *State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if s == nil {
		return nil, nil
	}
	fillDefaults(&s.Values)
	return s, nil
}

func fillDefaults(v *models.FormValues) {
	if v.Labels == nil {
		v.Labels = []string{}
	}
	if v.Ingredients == nil {
		v.Ingredients = []models.Ingredient{}
	}
	if v.PreparationSteps == nil {
		v.PreparationSteps = []models.PreparationStep{}
	}
}
