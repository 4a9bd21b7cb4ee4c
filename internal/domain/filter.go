package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Filter is a single attribute constraint a searcher puts on candidates.
// The zero Filter accepts anyone.
type Filter struct {
	Field Field
	Value string
}

// AnyFilter accepts every candidate.
var AnyFilter = Filter{}

// GenderFilter is the common case: constrain the partner's gender.
func GenderFilter(gender string) Filter {
	if strings.TrimSpace(gender) == "" {
		return AnyFilter
	}
	return Filter{Field: FieldGender, Value: gender}
}

// NewFilter validates a filter. Age filters are not supported because age is
// not a categorical attribute.
func NewFilter(field Field, value string) (Filter, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return AnyFilter, nil
	}
	switch field {
	case FieldGender:
		g, ok := NormalizeGender(value)
		if !ok {
			return Filter{}, fmt.Errorf("%w: %q", ErrInvalidGender, value)
		}
		return Filter{Field: FieldGender, Value: g}, nil
	case FieldLocation, FieldInterest:
		return Filter{Field: field, Value: value}, nil
	}
	return Filter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, field)
}

// IsEmpty reports whether the filter accepts everyone.
func (f Filter) IsEmpty() bool { return f.Value == "" }

// SatisfiedBy reports whether p matches the constraint. Comparison is
// case-insensitive.
func (f Filter) SatisfiedBy(p Profile) bool {
	if f.IsEmpty() {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(p.Value(f.Field)), f.Value)
}

func (f Filter) String() string {
	if f.IsEmpty() {
		return "any"
	}
	return fmt.Sprintf("%s=%s", f.Field, f.Value)
}

var genderWords = map[string]string{
	"female": GenderFemale,
	"woman":  GenderFemale,
	"girl":   GenderFemale,
	"male":   GenderMale,
	"man":    GenderMale,
	"boy":    GenderMale,
}

// NormalizeGender turns free input ("👩 Female", "male", "I'm a girl") into
// Male/Female. Only whole words count, so "Germany" or "human" match nothing.
// Input naming both genders is rejected. A bare "m" or "f" is accepted too.
func NormalizeGender(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m":
		return GenderMale, true
	case "f":
		return GenderFemale, true
	}

	found := ""
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		g, ok := genderWords[w]
		if !ok {
			continue
		}
		if found != "" && found != g {
			return "", false
		}
		found = g
	}
	return found, found != ""
}
