package bot_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/anonchat/internal/app"
	"github.com/oggyb/anonchat/internal/bot"
	"github.com/oggyb/anonchat/internal/cache"
	"github.com/oggyb/anonchat/internal/config"
	"github.com/oggyb/anonchat/internal/db"
	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/session"
)

// fakeAPI records everything the bot sends.
type fakeAPI struct {
	mu     sync.Mutex
	sent   []tgbotapi.Chattable
	failTo map[int64]bool
}

func newFakeAPI() *fakeAPI { return &fakeAPI{failTo: map[int64]bool{}} }

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[chatOf(c)] {
		return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func chatOf(c tgbotapi.Chattable) int64 {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		return m.ChatID
	case tgbotapi.PhotoConfig:
		return m.ChatID
	case tgbotapi.StickerConfig:
		return m.ChatID
	}
	return 0
}

// texts returns the plain messages sent to chat, in order.
func (f *fakeAPI) texts(chat int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chat {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) last(chat int64) string {
	t := f.texts(chat)
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

func newTestApp(t *testing.T) *app.AppContext {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(database))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	cfg.Telegram.Username = "anon_bot"
	cfg.Match.ReferralThreshold = 2
	cfg.Match.PremiumDuration = time.Hour
	cfg.Auth.ReferralSecret = "test-secret"
	cfg.Match.AdminIDs = []int64{100}

	return app.New(cfg, database, cache.NewRedisCache(cfg), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func private(from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: from, Type: "private"},
		Text: text,
	}}
}

func command(from int64, text string) tgbotapi.Update {
	upd := private(from, text)
	name := strings.SplitN(text, " ", 2)[0]
	upd.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}}
	return upd
}

func complete(t *testing.T, a *app.AppContext, id domain.UserID, gender string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.Profiles.SetField(ctx, id, domain.FieldGender, gender))
	require.NoError(t, a.Profiles.SetField(ctx, id, domain.FieldAge, "30"))
	require.NoError(t, a.Profiles.SetField(ctx, id, domain.FieldLocation, "Oslo"))
	require.NoError(t, a.Profiles.SetField(ctx, id, domain.FieldInterest, "films"))
}

// pair matches 1 (Male) with 2 (Female) through /find.
func pair(t *testing.T, h *bot.Handler, a *app.AppContext) {
	t.Helper()
	ctx := context.Background()
	complete(t, a, 1, "male")
	complete(t, a, 2, "female")
	h.HandleUpdate(ctx, command(1, "/find"))
	h.HandleUpdate(ctx, command(2, "/find"))
	require.True(t, a.Sessions.IsActive(1))
}

func TestSetupForm(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)

	h.HandleUpdate(ctx, command(7, "/start"))
	texts := api.texts(7)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Welcome")
	assert.Equal(t, "Choose your gender:", texts[1])

	h.HandleUpdate(ctx, private(7, "👩 Female"))
	assert.Contains(t, api.last(7), "age")

	h.HandleUpdate(ctx, private(7, "abc"))
	texts = api.texts(7)
	assert.Contains(t, texts[len(texts)-2], "valid age")
	assert.Contains(t, texts[len(texts)-1], "age")

	h.HandleUpdate(ctx, private(7, "25"))
	h.HandleUpdate(ctx, private(7, "Paris"))
	h.HandleUpdate(ctx, private(7, "music"))

	assert.True(t, a.Profiles.IsComplete(7))
	done := api.last(7)
	assert.Contains(t, done, "Profile complete")
	assert.Contains(t, done, "Gender: Female")
	assert.Contains(t, done, "Interest: music")

	field, err := a.RedisCache.Form(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, field)
}

func TestFindRequiresProfile(t *testing.T) {
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)

	h.HandleUpdate(context.Background(), command(3, "/find"))
	assert.Contains(t, api.texts(3)[0], "finish your profile")
	assert.Equal(t, 0, a.Matchmaker.QueueLen())
}

func TestFindAndRelay(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)

	complete(t, a, 1, "male")
	complete(t, a, 2, "female")

	h.HandleUpdate(ctx, command(1, "/find"))
	assert.Contains(t, api.last(1), "Searching")

	h.HandleUpdate(ctx, command(1, "/find"))
	assert.Contains(t, api.last(1), "already searching")

	h.HandleUpdate(ctx, command(2, "/find"))
	assert.Contains(t, api.last(1), "connected")
	assert.Contains(t, api.last(1), "Gender: Female")
	assert.Contains(t, api.last(2), "Gender: Male")

	matches, err := a.RedisCache.Matches(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), matches)

	api.reset()
	h.HandleUpdate(ctx, private(1, "hello"))
	assert.Equal(t, []string{"hello"}, api.texts(2))
	assert.Empty(t, api.texts(1))

	photo := private(2, "")
	photo.Message.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}
	photo.Message.Caption = "look"
	h.HandleUpdate(ctx, photo)

	require.Len(t, api.sent, 2)
	got, ok := api.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, int64(1), got.ChatID)
	assert.Equal(t, tgbotapi.FileID("big"), got.File)
	assert.Equal(t, "look", got.Caption)
}

func TestFindWithFilterNeedsPremium(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)
	complete(t, a, 1, "male")

	h.HandleUpdate(ctx, command(1, "/find female"))
	assert.Contains(t, api.last(1), "premium")
	assert.False(t, a.Matchmaker.IsQueued(1))

	h.HandleUpdate(ctx, command(1, "/find robots"))
	assert.Contains(t, api.last(1), "Male' or 'Female'")

	require.NoError(t, a.Premium.GrantPremium(ctx, 1, time.Hour))
	h.HandleUpdate(ctx, command(1, "/find female"))
	assert.True(t, a.Matchmaker.IsQueued(1))
	assert.Equal(t, domain.GenderFilter(domain.GenderFemale), a.Matchmaker.LastFilter(1))
}

func TestNextNotifiesFormerPartner(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)
	pair(t, h, a)
	api.reset()

	h.HandleUpdate(ctx, command(1, "/next"))
	assert.Contains(t, api.last(2), "partner left")
	assert.Contains(t, api.last(1), "Searching")
	assert.True(t, a.Matchmaker.IsQueued(1))
	assert.False(t, a.Sessions.IsActive(2))
}

func TestStop(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)
	pair(t, h, a)

	h.HandleUpdate(ctx, command(2, "/stop"))
	assert.Contains(t, api.last(2), "Chat ended")
	assert.Contains(t, api.last(1), "partner left")

	h.HandleUpdate(ctx, command(2, "/stop"))
	assert.Contains(t, api.last(2), "not chatting")

	h.HandleUpdate(ctx, private(1, "anyone there?"))
	assert.Contains(t, api.last(1), "not chatting")
	assert.NotContains(t, api.texts(2), "anyone there?")
}

func TestBlockPreventsRematch(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)
	pair(t, h, a)

	h.HandleUpdate(ctx, command(1, "/block"))
	assert.Contains(t, api.last(1), "Blocked")
	assert.Contains(t, api.last(2), "partner left")

	h.HandleUpdate(ctx, command(1, "/find"))
	h.HandleUpdate(ctx, command(2, "/find"))
	assert.False(t, a.Sessions.IsActive(1))
	assert.Equal(t, 2, a.Matchmaker.QueueLen())
}

func TestDeliveryFailureClosesSession(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)
	pair(t, h, a)

	api.failTo[2] = true
	h.HandleUpdate(ctx, private(1, "hi"))

	assert.Contains(t, api.last(1), "unreachable")
	assert.False(t, a.Sessions.IsActive(1))
	assert.False(t, a.Sessions.IsActive(2))
}

// TestMatchNoticeFailureClosesSession leaves nobody paired with a user the
// connected notice could not reach.
func TestMatchNoticeFailureClosesSession(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)
	complete(t, a, 1, "male")
	complete(t, a, 2, "female")

	h.HandleUpdate(ctx, command(1, "/find"))
	api.failTo[1] = true
	h.HandleUpdate(ctx, command(2, "/find"))

	assert.False(t, a.Sessions.IsActive(1))
	assert.False(t, a.Sessions.IsActive(2))
	assert.Contains(t, api.last(2), "unreachable")

	matches, err := a.RedisCache.Matches(ctx)
	require.NoError(t, err)
	assert.Zero(t, matches)
}

func TestReferral(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)

	token, err := a.Tokens.Encode(1)
	require.NoError(t, err)

	h.HandleUpdate(ctx, command(1, "/start "+token))
	assert.Equal(t, 0, a.Premium.State(1).InviteCount, "self referral is ignored")

	h.HandleUpdate(ctx, command(10, "/start "+token))
	assert.Contains(t, api.last(1), "1 more for premium")

	// a second /start from the same invitee is not first contact
	h.HandleUpdate(ctx, command(10, "/start "+token))
	assert.Equal(t, 1, a.Premium.State(1).InviteCount)

	h.HandleUpdate(ctx, command(11, "/start garbage"))
	assert.Equal(t, 1, a.Premium.State(1).InviteCount)

	h.HandleUpdate(ctx, command(12, "/start "+token))
	assert.True(t, a.Premium.IsPremium(1))
	assert.Contains(t, api.last(1), "Premium is on for 1 hour")

	n, err := a.Referrals.CountByInviter(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestInviteAndPremium(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)

	h.HandleUpdate(ctx, command(5, "/invite"))
	link := api.last(5)
	require.Contains(t, link, "https://t.me/anon_bot?start=")

	token := link[strings.LastIndex(link, "=")+1:]
	inviter, err := a.Tokens.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(5), inviter)

	h.HandleUpdate(ctx, command(5, "/premium"))
	assert.Contains(t, api.last(5), "2 more to unlock")
}

func TestEditAndReset(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)
	complete(t, a, 4, "male")

	h.HandleUpdate(ctx, command(4, "/edit location"))
	assert.Contains(t, api.last(4), "location")
	h.HandleUpdate(ctx, private(4, "Bergen"))
	assert.Equal(t, "Bergen", a.Profiles.Get(4).Location)

	h.HandleUpdate(ctx, command(4, "/edit height"))
	assert.Contains(t, api.last(4), "Unknown field")

	h.HandleUpdate(ctx, command(4, "/reset"))
	assert.False(t, a.Profiles.IsComplete(4))
	assert.Equal(t, "Choose your gender:", api.last(4))
}

func TestAdminStats(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)
	pair(t, h, a)

	h.HandleUpdate(ctx, command(100, "/stats"))
	out := api.last(100)
	assert.Contains(t, out, "Chatting: 1 pairs")
	assert.Contains(t, out, "Complete profiles: 2")
	assert.Contains(t, out, "Matches: 1")

	h.HandleUpdate(ctx, command(1, "/stats"))
	assert.Contains(t, api.last(1), "Commands:")
}

func TestFloodGuard(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	a.Config.Match.FloodLimit = 2
	a.Config.Match.FloodWindow = time.Minute
	api := newFakeAPI()
	h := bot.NewHandler(api, a)

	for i := 0; i < 3; i++ {
		h.HandleUpdate(ctx, command(8, "/help"))
	}
	assert.Contains(t, api.last(8), "too fast")
}

func TestIgnoresGroupChats(t *testing.T) {
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)

	upd := command(9, "/find")
	upd.Message.Chat.Type = "group"
	h.HandleUpdate(context.Background(), upd)
	h.HandleUpdate(context.Background(), tgbotapi.Update{})
	assert.Empty(t, api.sent)
}

func TestSessionExpired(t *testing.T) {
	a := newTestApp(t)
	api := newFakeAPI()
	h := bot.NewHandler(api, a)

	h.SessionExpired(context.Background(), session.Info{UserA: 1, UserB: 2})
	assert.Contains(t, api.last(1), "long silence")
	assert.Contains(t, api.last(2), "long silence")
}
