package relay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/relay"
	"github.com/oggyb/anonchat/internal/session"
)

type sent struct {
	to domain.UserID
	c  domain.Content
}

// fakeTransport records deliveries and fails according to its fields.
type fakeTransport struct {
	out         []sent
	noMedia     bool
	unreachable map[domain.UserID]bool
}

func (f *fakeTransport) Send(_ context.Context, to domain.UserID, c domain.Content) error {
	if f.unreachable[to] {
		return errors.New("bot was blocked by the user")
	}
	if f.noMedia && c.IsMedia() {
		return domain.ErrUnsupportedContent
	}
	f.out = append(f.out, sent{to: to, c: c})
	return nil
}

func setup(t *testing.T) (*session.Registry, *fakeTransport, *relay.Dispatcher) {
	t.Helper()
	reg := session.NewRegistry()
	tr := &fakeTransport{unreachable: map[domain.UserID]bool{}}
	return reg, tr, relay.NewDispatcher(reg, tr, nil)
}

func TestRelay_NoActiveSession(t *testing.T) {
	_, tr, d := setup(t)

	res, err := d.Relay(context.Background(), 1, domain.Text("hello?"))
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.Equal(t, relay.NoActiveSession, res.Outcome)
	assert.Empty(t, tr.out)
}

func TestRelay_Delivered(t *testing.T) {
	reg, tr, d := setup(t)
	_, err := reg.Open(1, 2)
	require.NoError(t, err)

	res, err := d.Relay(context.Background(), 1, domain.Text("hi there"))
	require.NoError(t, err)
	assert.Equal(t, relay.Delivered, res.Outcome)
	assert.Equal(t, domain.UserID(2), res.Partner)

	require.Len(t, tr.out, 1)
	assert.Equal(t, domain.UserID(2), tr.out[0].to)
	assert.Equal(t, domain.Content{Text: "hi there"}, tr.out[0].c, "content is forwarded untouched")

	_, err = d.Relay(context.Background(), 2, domain.Media(domain.MediaPhoto, "file-1", "look"))
	require.NoError(t, err)
	require.Len(t, tr.out, 2)
	assert.Equal(t, domain.UserID(1), tr.out[1].to)
	assert.Equal(t, "file-1", tr.out[1].c.Ref)
}

func TestRelay_PlaceholderFallback(t *testing.T) {
	reg, tr, d := setup(t)
	tr.noMedia = true
	_, err := reg.Open(1, 2)
	require.NoError(t, err)

	res, err := d.Relay(context.Background(), 1, domain.Media(domain.MediaVideoNote, "ref", ""))
	require.NoError(t, err)
	assert.Equal(t, relay.Delivered, res.Outcome)
	require.Len(t, tr.out, 1)
	assert.Equal(t, "[video_note]", tr.out[0].c.Text)
	assert.True(t, reg.IsActive(1))
}

// TestRelay_FailureClosesSession leaves neither side paired after the
// partner becomes unreachable.
func TestRelay_FailureClosesSession(t *testing.T) {
	reg, tr, d := setup(t)
	sid, err := reg.Open(1, 2)
	require.NoError(t, err)
	tr.unreachable[2] = true

	res, err := d.Relay(context.Background(), 1, domain.Text("are you there"))
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
	assert.Equal(t, relay.DeliveryFailed, res.Outcome)
	assert.Equal(t, sid, res.Closed.ID)

	assert.False(t, reg.IsActive(1))
	assert.False(t, reg.IsActive(2))
}
