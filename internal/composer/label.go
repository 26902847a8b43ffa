package composer

import (
	"fmt"
	"time"
)

// LastSavedLabel describes how long ago the draft was saved. A zero savedAt
// means the draft was never saved.
func LastSavedLabel(savedAt, now time.Time) string {
	if savedAt.IsZero() {
		return "unsaved"
	}
	elapsed := now.Sub(savedAt)
	switch {
	case elapsed < 3*time.Second:
		return "just saved"
	case elapsed < time.Minute:
		return "saved recently"
	default:
		return fmt.Sprintf("saved %dm ago", int(elapsed/time.Minute))
	}
}
