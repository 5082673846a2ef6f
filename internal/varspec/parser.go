package varspec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/atmogrid/atmogrid/internal/model"
)

// specRegex splits a spec into name, optional {dims} group, and optional
// [unit] group.
var specRegex = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\s*(?:\{([^}]*)\})?\s*(?:\[([^\]]+)\])?$`)

// dimRegex parses a single dimension entry, e.g. `vertical` or `independent(2)`.
var dimRegex = regexp.MustCompile(`^([a-z]+)(?:\((\d+)\))?$`)

// Parse creates a Target by parsing its canonical string representation.
func Parse(raw string) (*Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("variable spec cannot be empty")
	}

	matches := specRegex.FindStringSubmatch(raw)
	if matches == nil {
		return nil, fmt.Errorf("invalid variable spec %q: expected \"name {dim,...} [unit]\"", raw)
	}

	target := &Target{Name: matches[1], Sig: model.Sig(), Unit: matches[3]}
	dims := strings.TrimSpace(matches[2])
	if dims == "" {
		return target, nil
	}

	for _, entry := range strings.Split(dims, ",") {
		dim, length, err := ParseDim(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid spec %q: %w", raw, err)
		}
		if length >= 0 {
			if target.Sig.IndependentLength >= 0 && target.Sig.IndependentLength != length {
				return nil, fmt.Errorf("invalid spec %q: conflicting independent lengths", raw)
			}
			target.Sig.IndependentLength = length
		}
		target.Sig.Dims = append(target.Sig.Dims, dim)
	}

	return target, nil
}

// ParseDim parses a single dimension entry such as "vertical" or
// "independent(2)". The returned length is -1 unless the entry carries one.
func ParseDim(entry string) (model.DimensionType, int, error) {
	entry = strings.TrimSpace(entry)
	matches := dimRegex.FindStringSubmatch(entry)
	if matches == nil {
		return 0, -1, fmt.Errorf("invalid dimension entry %q", entry)
	}

	dim, err := model.ParseDimensionType(matches[1])
	if err != nil {
		return 0, -1, err
	}
	length := -1
	if matches[2] != "" {
		if dim != model.DimIndependent {
			return 0, -1, fmt.Errorf("dimension %q: only independent dimensions take a length", entry)
		}
		length, err = strconv.Atoi(matches[2])
		if err != nil {
			// Unreachable due to regex `\d+`
			return 0, -1, fmt.Errorf("internal error parsing length: %w", err)
		}
	}
	return dim, length, nil
}
