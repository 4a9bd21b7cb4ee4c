package domain

import (
	"fmt"
	"strings"
)

// UserID is the stable identifier assigned by the chat platform.
// The core never looks inside it.
type UserID int64

func (id UserID) String() string { return fmt.Sprintf("%d", int64(id)) }

// Field names a profile attribute.
type Field string

const (
	FieldGender   Field = "gender"
	FieldAge      Field = "age"
	FieldLocation Field = "location"
	FieldInterest Field = "interest"
)

// SetupOrder is the order in which the setup form asks for fields.
var SetupOrder = []Field{FieldGender, FieldAge, FieldLocation, FieldInterest}

// ParseField maps user input ("Age", " location ") onto a known Field.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SetupOrder {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Profile holds the self-reported attributes of a user.
// Zero values mean "not set".
type Profile struct {
	UserID   UserID
	Gender   string
	Age      int
	Location string
	Interest string
}

// IsComplete reports whether every attribute has been set.
func (p Profile) IsComplete() bool {
	return p.Gender != "" && p.Age > 0 && p.Location != "" && p.Interest != ""
}

// Value returns the string form of a field, "" when unset.
func (p Profile) Value(f Field) string {
	switch f {
	case FieldGender:
		return p.Gender
	case FieldAge:
		if p.Age == 0 {
			return ""
		}
		return fmt.Sprintf("%d", p.Age)
	case FieldLocation:
		return p.Location
	case FieldInterest:
		return p.Interest
	}
	return ""
}

// Missing returns the first unset field in setup order.
func (p Profile) Missing() (Field, bool) {
	for _, f := range SetupOrder {
		if p.Value(f) == "" {
			return f, true
		}
	}
	return "", false
}
