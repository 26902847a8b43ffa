package composer

import (
	"fmt"
	"slices"
)

// Section is one of the four panes of the recipe editor.
type Section int

const (
	SectionBasics Section = iota
	SectionMedia
	SectionIngredients
	SectionSteps
)

// AllSections lists sections along the conventional forward path.
var AllSections = []Section{SectionBasics, SectionMedia, SectionIngredients, SectionSteps}

var sectionNames = map[Section]string{
	SectionBasics:      "basics",
	SectionMedia:       "media",
	SectionIngredients: "ingredients",
	SectionSteps:       "steps",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Section(%d)", int(s))
}

// Valid reports whether s is one of the four sections.
func (s Section) Valid() bool {
	_, ok := sectionNames[s]
	return ok
}

// ParseSection parses a section name.
func ParseSection(name string) (Section, error) {
	for s, n := range sectionNames {
		if n == name {
			return s, nil
		}
	}
	return SectionBasics, fmt.Errorf("unknown section %q", name)
}

// Next returns the following section on the forward path. The last section
// returns itself.
func (s Section) Next() Section {
	if s >= SectionSteps {
		return SectionSteps
	}
	return s + 1
}

// Prev returns the preceding section. The first section returns itself.
func (s Section) Prev() Section {
	if s <= SectionBasics {
		return SectionBasics
	}
	return s - 1
}

// Transitions restricts which sections may be entered from which.
// A nil table allows every move; staying on the same section is always allowed.
type Transitions map[Section][]Section

// Allowed reports whether a move from -> to is permitted.
func (t Transitions) Allowed(from, to Section) bool {
	if t == nil || from == to {
		return true
	}
	return slices.Contains(t[from], to)
}

// ForwardOnly allows the forward path plus jumps back to any earlier section.
func ForwardOnly() Transitions {
	t := Transitions{}
	for _, from := range AllSections {
		for _, to := range AllSections {
			if to <= from.Next() {
				t[from] = append(t[from], to)
			}
		}
	}
	return t
}
