// Package reftoken encodes invite links. A token is safe for Telegram deep
// links ([A-Za-z0-9_-], at most 64 chars) and carries a keyed MAC so users
// cannot credit arbitrary inviters by editing the link.
package reftoken

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/oggyb/anonchat/internal/domain"
)

// tagSize bytes encode to exactly tagLen base64 chars.
const (
	tagSize = 6
	tagLen  = 8
)

var ErrInvalidToken = errors.New("invalid referral token")

// payload is the opaque state we encode/decode.
type payload struct {
	Inviter int64 `json:"i"`
}

type Codec struct {
	key [32]byte
}

// New derives the MAC key from secret.
func New(secret string) *Codec {
	return &Codec{key: blake2b.Sum256([]byte(secret))}
}

// Encode returns base64url(JSON) followed by a fixed-width base64url tag.
func (c *Codec) Encode(inviter domain.UserID) (string, error) {
	b, err := json.Marshal(payload{Inviter: int64(inviter)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(b)
	tag, err := c.tag(body)
	if err != nil {
		return "", err
	}
	return body + tag, nil
}

// Decode verifies the tag and returns the inviter.
func (c *Codec) Decode(token string) (domain.UserID, error) {
	if len(token) <= tagLen || len(token) > 64 {
		return 0, ErrInvalidToken
	}
	body, got := token[:len(token)-tagLen], token[len(token)-tagLen:]

	want, err := c.tag(body)
	if err != nil {
		return 0, err
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return 0, ErrInvalidToken
	}

	b, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return 0, ErrInvalidToken
	}
	var p payload
	if err := json.Unmarshal(b, &p); err != nil || p.Inviter == 0 {
		return 0, ErrInvalidToken
	}
	return domain.UserID(p.Inviter), nil
}

func (c *Codec) tag(body string) (string, error) {
	h, err := blake2b.New(tagSize, c.key[:])
	if err != nil {
		return "", fmt.Errorf("failed to init mac: %w", err)
	}
	h.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}
