// Package bot is the Telegram adapter. It turns updates into core calls and
// sends every notification the core asks for; the core itself never talks to
// Telegram.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oggyb/anonchat/internal/app"
	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/matchmaker"
	"github.com/oggyb/anonchat/internal/profile"
	"github.com/oggyb/anonchat/internal/relay"
	"github.com/oggyb/anonchat/internal/session"
)

type Handler struct {
	api   API
	app   *app.AppContext
	relay *relay.Dispatcher
	log   *slog.Logger
}

func NewHandler(api API, appCtx *app.AppContext) *Handler {
	log := appCtx.Logger.With("component", "bot")
	return &Handler{
		api:   api,
		app:   appCtx,
		relay: relay.NewDispatcher(appCtx.Sessions, NewTransport(api), log),
		log:   log,
	}
}

// Run handles updates one by one until ctx is cancelled or the channel
// closes. Core calls are short and lock-bound, so a single loop keeps up.
func (h *Handler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate processes one update. Only private messages are handled; the
// bot stays silent in groups.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	id := domain.UserID(msg.From.ID)

	if !h.allow(ctx, id) {
		h.reply(id, msgSlowDown)
		return
	}

	if msg.IsCommand() {
		h.handleCommand(ctx, id, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
		return
	}

	// A pending form field always wins, so /edit works mid-chat too.
	if field, err := h.app.RedisCache.Form(ctx, id); err != nil {
		h.log.Warn("form state unavailable", "user_id", id, "err", err)
	} else if field != "" {
		h.answerForm(ctx, id, field, msg.Text)
		return
	}

	if !h.app.Sessions.IsActive(id) {
		if field, missing := h.app.Profiles.NextMissing(id); missing {
			h.answerForm(ctx, id, field, msg.Text)
			return
		}
	}

	content, ok := contentOf(msg)
	if !ok {
		h.reply(id, msgUnsupported)
		return
	}
	h.forward(ctx, id, content)
}

func (h *Handler) forward(ctx context.Context, id domain.UserID, c domain.Content) {
	res, err := h.relay.Relay(ctx, id, c)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoActiveSession):
		h.reply(id, msgNotChatting)
	case errors.Is(err, domain.ErrDeliveryFailed):
		h.log.Info("partner unreachable", "user_id", id, "partner_id", res.Partner)
		h.reply(id, msgPartnerGone+"\n"+msgFindHint)
	default:
		h.log.Error("relay failed", "user_id", id, "err", err)
		h.reply(id, msgInternal)
	}
}

// allow applies the flood guard. Redis trouble never blocks a user.
func (h *Handler) allow(ctx context.Context, id domain.UserID) bool {
	cfg := h.app.Config.Match
	if cfg.FloodLimit <= 0 {
		return true
	}
	ok, err := h.app.RedisCache.Allow(ctx, id, cfg.FloodLimit, cfg.FloodWindow)
	if err != nil {
		h.log.Warn("flood guard unavailable", "err", err)
		return true
	}
	return ok
}

// afterMatch sends what a match request resolved to: a searching notice, or
// the partner cards to both sides. A pair is only left open when both cards
// arrived; otherwise the session is closed and the reachable side is told.
func (h *Handler) afterMatch(ctx context.Context, id domain.UserID, res matchmaker.MatchResult) {
	if res.Status != matchmaker.Matched {
		h.reply(id, msgSearching)
		return
	}

	errSelf := h.notify(id, connectedText(h.app.Profiles.Get(res.Partner)))
	errPartner := h.notify(res.Partner, connectedText(h.app.Profiles.Get(id)))
	if errSelf == nil && errPartner == nil {
		h.app.CountMatch(ctx)
		return
	}

	h.app.Sessions.CloseSession(res.SessionID)
	h.log.Info("match notice undeliverable, session closed",
		"user_id", id, "partner_id", res.Partner, "session_id", res.SessionID)
	if errSelf == nil {
		h.reply(id, msgPartnerGone+"\n"+msgFindHint)
	}
	if errPartner == nil {
		h.reply(res.Partner, msgPartnerGone+"\n"+msgFindHint)
	}
}

func connectedText(partner domain.Profile) string {
	return msgConnected + "\n\n" + profile.Card(partner) + "\n\n" + msgSayHi
}

// partnerLeft tells the remaining member that the session is over.
func (h *Handler) partnerLeft(info session.Info, leaver domain.UserID) {
	h.reply(info.Other(leaver), msgPartnerLeft+"\n"+msgFindHint)
}

// refuse turns a rejected match request into a reply.
func (h *Handler) refuse(ctx context.Context, id domain.UserID, err error) {
	switch {
	case errors.Is(err, domain.ErrProfileIncomplete):
		h.reply(id, msgNeedProfile)
		h.startForm(ctx, id)
	case errors.Is(err, domain.ErrAlreadyInSession):
		h.reply(id, msgAlreadyChatting)
	case errors.Is(err, domain.ErrPremiumRequired):
		h.reply(id, msgPremiumRequired)
	default:
		h.log.Error("match request failed", "user_id", id, "err", err)
		h.reply(id, msgInternal)
	}
}

// SessionExpired implements worker.Notifier.
func (h *Handler) SessionExpired(_ context.Context, info session.Info) {
	h.reply(info.UserA, msgTimedOut)
	h.reply(info.UserB, msgTimedOut)
}

// reply sends plain text. In private chats the chat id is the user id.
func (h *Handler) reply(to domain.UserID, text string) {
	h.send(tgbotapi.NewMessage(int64(to), text))
}

// notify is reply for messages whose loss changes state; the caller decides
// what a failure means.
func (h *Handler) notify(to domain.UserID, text string) error {
	if _, err := h.api.Send(tgbotapi.NewMessage(int64(to), text)); err != nil {
		h.log.Warn("send failed", "user_id", to, "err", err)
		return err
	}
	return nil
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Warn("send failed", "err", err)
	}
}
