package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Number is a numeric form field that may be left blank.
// A blank Number serializes as the empty string so drafts round-trip the
// "unset" state instead of collapsing it to zero.
type Number struct {
	Value float64
	Set   bool
}

// NumberOf returns a set Number.
func NumberOf(v float64) Number {
	return Number{Value: v, Set: true}
}

// ParseNumber parses user input. Blank input yields an unset Number.
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, fmt.Errorf("parse number %q: %w", s, err)
	}
	if !isFinite(v) {
		return Number{}, fmt.Errorf("parse number %q: not a finite number", s)
	}
	return NumberOf(v), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Truthy reports whether the field holds a finite non-zero value.
func (n Number) Truthy() bool {
	return n.Set && n.Value != 0 && isFinite(n.Value)
}

// Float coerces the field to a number; unset becomes 0.
func (n Number) Float() float64 {
	if !n.Set {
		return 0
	}
	return n.Value
}

// Int coerces the field to the nearest integer; unset becomes 0.
func (n Number) Int() int {
	return int(math.Round(n.Float()))
}

func (n Number) String() string {
	if !n.Set {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// MarshalJSON encodes a set value as a JSON number and an unset one as "".
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte(`""`), nil
	}
	if !isFinite(n.Value) {
		return nil, fmt.Errorf("encode number: %v is not finite", n.Value)
	}
	return strconv.AppendFloat(nil, n.Value, 'f', -1, 64), nil
}

// UnmarshalJSON accepts numbers, numeric strings, "" and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseNumber(s)
		if err != nil {
			return err
		}
		*n = parsed
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode number: %w", err)
	}
	*n = NumberOf(v)
	return nil
}

// MarshalYAML mirrors MarshalJSON for YAML exports.
func (n Number) MarshalYAML() (any, error) {
	if !n.Set {
		return "", nil
	}
	return n.Value, nil
}

// UnmarshalYAML accepts scalar numbers and blank strings.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	if node.Tag == "!!null" {
		*n = Number{}
		return nil
	}
	parsed, err := ParseNumber(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*n = parsed
	return nil
}
