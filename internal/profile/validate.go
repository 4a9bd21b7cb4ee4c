package profile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/anonchat/internal/domain"
)

// input mirrors the user-typed form of each field. Tags carry the bounds the
// setup form enforces.
type input struct {
	Age  int    `validate:"gte=10,lte=120"`
	Text string `validate:"required,max=64"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// apply validates raw user input for field and writes it into p.
// Out-of-range input is rejected, never clamped.
func apply(v *validator.Validate, p *domain.Profile, field domain.Field, raw string) error {
	raw = strings.TrimSpace(raw)

	switch field {
	case domain.FieldGender:
		g, ok := domain.NormalizeGender(raw)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrInvalidGender, raw)
		}
		p.Gender = g

	case domain.FieldAge:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %q", domain.ErrInvalidAge, raw)
		}
		if err := v.StructPartial(input{Age: n}, "Age"); err != nil {
			return fmt.Errorf("%w: %d", domain.ErrInvalidAge, n)
		}
		p.Age = n

	case domain.FieldLocation, domain.FieldInterest:
		if err := v.StructPartial(input{Text: raw}, "Text"); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return fmt.Errorf("%w: %s failed on %q", domain.ErrInvalidValue, field, verrs[0].Tag())
			}
			return fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
		}
		if field == domain.FieldLocation {
			p.Location = raw
		} else {
			p.Interest = raw
		}

	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	return nil
}
