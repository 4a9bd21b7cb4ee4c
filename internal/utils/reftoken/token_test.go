package reftoken_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/utils/reftoken"
)

var deepLinkSafe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func TestEncodeDecode(t *testing.T) {
	c := reftoken.New("secret")

	for _, id := range []domain.UserID{1, 123456789, 9_000_000_000_123} {
		token, err := c.Encode(id)
		require.NoError(t, err)
		assert.Regexp(t, deepLinkSafe, token)

		got, err := c.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestDecode_Rejects(t *testing.T) {
	c := reftoken.New("secret")
	token, err := c.Encode(42)
	require.NoError(t, err)

	_, err = reftoken.New("other").Decode(token)
	assert.ErrorIs(t, err, reftoken.ErrInvalidToken)

	// flip the first payload char
	tampered := "A" + token[1:]
	if tampered == token {
		tampered = "B" + token[1:]
	}
	_, err = c.Decode(tampered)
	assert.ErrorIs(t, err, reftoken.ErrInvalidToken)

	for _, bad := range []string{"", "short", "12345"} {
		_, err = c.Decode(bad)
		assert.ErrorIs(t, err, reftoken.ErrInvalidToken, bad)
	}
}
