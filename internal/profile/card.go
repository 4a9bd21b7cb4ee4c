package profile

import (
	"fmt"
	"strings"

	"github.com/oggyb/anonchat/internal/domain"
)

const notSet = "Not set"

// Card renders the profile summary shown to a new partner. It never includes
// the user's id, name or username.
func Card(p domain.Profile) string {
	var b strings.Builder
	b.WriteString("🌸 Profile\n")
	fmt.Fprintf(&b, "👤 Gender: %s\n", orNotSet(p.Value(domain.FieldGender)))
	fmt.Fprintf(&b, "🎂 Age: %s\n", orNotSet(p.Value(domain.FieldAge)))
	fmt.Fprintf(&b, "📍 Location: %s\n", orNotSet(p.Value(domain.FieldLocation)))
	fmt.Fprintf(&b, "🎯 Interest: %s", orNotSet(p.Value(domain.FieldInterest)))
	return b.String()
}

func orNotSet(v string) string {
	if v == "" {
		return notSet
	}
	return v
}
