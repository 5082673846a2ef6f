// Package options parses the ingestion/conversion option strings passed on
// the command line or in a job file, e.g. "uncertainty=correlated;model_air=std".
// Conversion packs consult the resulting set when building their
// enabled-predicates.
package options

import (
	"fmt"
	"strings"
)

// Set maps option names to their string values. Later assignments of the
// same name replace earlier ones.
type Set map[string]string

// New returns an empty option set.
func New() Set {
	return make(Set)
}

// Parse decodes a semicolon-separated list of name=value pairs into a new
// set. Empty input yields an empty set.
func Parse(s string) (Set, error) {
	set := New()
	if err := set.Add(s); err != nil {
		return nil, err
	}
	return set, nil
}

// Add decodes a semicolon-separated list of name=value pairs into the set,
// replacing existing values.
func (o Set) Add(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !found || name == "" || value == "" {
			return fmt.Errorf("invalid option %q: expected name=value", pair)
		}
		o[name] = value
	}
	return nil
}

// Value returns the value of an option and whether it was set.
func (o Set) Value(name string) (string, bool) {
	v, ok := o[name]
	return v, ok
}

// Is reports whether the option is set to exactly the given value.
func (o Set) Is(name, value string) bool {
	return o[name] == value
}
