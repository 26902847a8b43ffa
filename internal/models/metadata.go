package models

// OptionKind identifies a metadata reference list.
type OptionKind string

const (
	KindCategory OptionKind = "category"
	KindLevel    OptionKind = "level"
	KindLabel    OptionKind = "label"
	KindUnit     OptionKind = "unit"
)

// AllKinds lists every metadata kind in display order.
var AllKinds = []OptionKind{KindCategory, KindLevel, KindLabel, KindUnit}

// Valid reports whether k is a known kind.
func (k OptionKind) Valid() bool {
	switch k {
	case KindCategory, KindLevel, KindLabel, KindUnit:
		return true
	}
	return false
}

// Option is a key + label pair describing category/level/label/unit reference data.
// Options are immutable once fetched for a session.
type Option struct {
	Key   string `json:"key" yaml:"key" db:"key"`
	Label string `json:"label" yaml:"label" db:"label"`
}

// Metadata holds all reference lists served by the API.
type Metadata struct {
	Categories []Option `json:"categories"`
	Levels     []Option `json:"levels"`
	Labels     []Option `json:"labels"`
	Units      []Option `json:"units"`
}

// Options returns the list for a kind, or nil for an unknown kind.
func (m *Metadata) Options(kind OptionKind) []Option {
	if m == nil {
		return nil
	}
	switch kind {
	case KindCategory:
		return m.Categories
	case KindLevel:
		return m.Levels
	case KindLabel:
		return m.Labels
	case KindUnit:
		return m.Units
	}
	return nil
}

// Find looks up an option by key.
func (m *Metadata) Find(kind OptionKind, key string) (Option, bool) {
	for _, o := range m.Options(kind) {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}
