package domain

import "errors"

// Expected, user-facing conditions. Callers match them with errors.Is and
// translate them into messages; none of them should ever surface as a panic.
var (
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrAlreadyInSession  = errors.New("already in session")
	ErrPremiumRequired   = errors.New("premium required")
	ErrNoActiveSession   = errors.New("no active session")
	ErrDeliveryFailed    = errors.New("delivery failed")
	ErrSelfPairing       = errors.New("cannot pair user with itself")

	ErrInvalidAge    = errors.New("age must be a number between 10 and 120")
	ErrInvalidGender = errors.New("gender must be Male or Female")
	ErrInvalidValue  = errors.New("value must be 1 to 64 characters")

	// ErrUnsupportedContent is returned by a transport that cannot reproduce a
	// media type. The relay then falls back to a text placeholder.
	ErrUnsupportedContent = errors.New("unsupported content")
)

// Programming errors: a caller passed something that can never be valid.
var (
	ErrUnknownField  = errors.New("unknown profile field")
	ErrUnknownFilter = errors.New("unsupported filter field")
)
