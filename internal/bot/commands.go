package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/profile"
)

func (h *Handler) handleCommand(ctx context.Context, id domain.UserID, cmd, args string) {
	h.log.Debug("command", "user_id", id, "cmd", cmd)

	switch cmd {
	case "start":
		h.handleStart(ctx, id, args)
	case "find":
		h.handleFind(ctx, id, args)
	case "next":
		h.handleNext(ctx, id, args)
	case "stop":
		h.handleStop(id)
	case "block":
		h.handleBlock(ctx, id)
	case "profile":
		h.handleProfile(id)
	case "edit":
		h.handleEdit(ctx, id, args)
	case "reset":
		h.handleReset(ctx, id)
	case "premium":
		h.handlePremium(id)
	case "invite":
		h.handleInvite(id)
	case "stats":
		h.handleStats(ctx, id)
	default:
		h.reply(id, msgHelp)
	}
}

// handleStart greets the user and, on first contact, credits the inviter
// encoded in the deep-link payload.
func (h *Handler) handleStart(ctx context.Context, id domain.UserID, token string) {
	_, known := h.app.Profiles.Lookup(id)
	if token != "" && !known {
		h.creditReferral(ctx, id, token)
	}

	if h.app.Profiles.IsComplete(id) {
		h.reply(id, "👋 Welcome back!\n"+msgFindHint)
		return
	}
	h.reply(id, msgWelcome)
	h.startForm(ctx, id)
}

func (h *Handler) creditReferral(ctx context.Context, invitee domain.UserID, token string) {
	inviter, err := h.app.Tokens.Decode(token)
	if err != nil {
		h.log.Debug("ignoring referral token", "user_id", invitee, "err", err)
		return
	}
	if inviter == invitee {
		return
	}

	first, err := h.app.RedisCache.MarkInvited(ctx, invitee)
	if err != nil {
		h.log.Warn("invite dedupe unavailable", "err", err)
	} else if !first {
		return
	}
	// The unique invitee key is the durable guard; redis only saves a query.
	fresh, err := h.app.Referrals.Record(ctx, inviter, invitee)
	if err != nil {
		h.log.Error("referral not recorded", "inviter", inviter, "invitee", invitee, "err", err)
		return
	}
	if !fresh {
		return
	}

	granted, err := h.app.Premium.RecordReferral(ctx, inviter)
	if err != nil {
		h.log.Error("referral not credited", "inviter", inviter, "err", err)
		return
	}
	h.log.Info("referral credited", "inviter", inviter, "granted", granted)
	if granted {
		h.reply(inviter, fmt.Sprintf("🎉 %d friends joined with your link! Premium is on for %s.",
			h.app.Premium.Threshold(), humanDuration(h.app.Premium.Duration())))
		return
	}
	h.reply(inviter, fmt.Sprintf("👥 A friend joined with your link. %d more for premium.",
		h.app.Premium.Remaining(inviter)))
}

// handleFind starts a search. "/find female" searches with a gender filter,
// which needs premium.
func (h *Handler) handleFind(ctx context.Context, id domain.UserID, args string) {
	if h.app.Sessions.IsActive(id) {
		h.reply(id, msgAlreadyChatting)
		return
	}
	filter, err := domain.NewFilter(domain.FieldGender, args)
	if err != nil {
		h.reply(id, msgBadGender)
		return
	}
	if h.app.Matchmaker.IsQueued(id) && h.app.Matchmaker.LastFilter(id) == filter {
		h.reply(id, msgAlreadySearch)
		return
	}

	res, err := h.app.Matchmaker.RequestMatch(id, filter)
	if err != nil {
		h.refuse(ctx, id, err)
		return
	}
	h.afterMatch(ctx, id, res)
}

// handleNext leaves the current partner and searches again, reusing the last
// filter unless a new one is given.
func (h *Handler) handleNext(ctx context.Context, id domain.UserID, args string) {
	var filter *domain.Filter
	if args != "" {
		f, err := domain.NewFilter(domain.FieldGender, args)
		if err != nil {
			h.reply(id, msgBadGender)
			return
		}
		filter = &f
	}

	res, err := h.app.Matchmaker.Next(id, filter)
	if res.HadSession {
		h.partnerLeft(res.Closed, id)
	}
	if err != nil {
		h.refuse(ctx, id, err)
		return
	}
	h.afterMatch(ctx, id, res.Match)
}

func (h *Handler) handleStop(id domain.UserID) {
	res := h.app.Matchmaker.Stop(id)
	switch {
	case res.HadSession:
		h.partnerLeft(res.Closed, id)
		h.reply(id, msgChatEnded)
	case res.WasQueued:
		h.reply(id, msgSearchCancelled)
	default:
		h.reply(id, msgNotChatting)
	}
}

// handleBlock ends the chat and records a block so the pair is never matched
// again.
func (h *Handler) handleBlock(ctx context.Context, id domain.UserID) {
	partner, ok := h.app.Sessions.PartnerOf(id)
	if !ok {
		h.reply(id, msgNotChatting)
		return
	}
	if err := h.app.Profiles.Block(ctx, id, partner); err != nil {
		h.log.Error("block not saved", "user_id", id, "err", err)
	}
	if res := h.app.Matchmaker.Stop(id); res.HadSession {
		h.partnerLeft(res.Closed, id)
	}
	h.reply(id, msgBlocked+"\n"+msgFindHint)
}

func (h *Handler) handleProfile(id domain.UserID) {
	h.reply(id, profile.Card(h.app.Profiles.Get(id))+"\n\n"+h.premiumText(id))
}

func (h *Handler) handleEdit(ctx context.Context, id domain.UserID, args string) {
	field, err := domain.ParseField(args)
	if err != nil {
		h.reply(id, msgUnknownField)
		return
	}
	h.ask(ctx, id, field)
}

// handleReset deletes the profile. A running chat or search ends first.
func (h *Handler) handleReset(ctx context.Context, id domain.UserID) {
	if res := h.app.Matchmaker.Stop(id); res.HadSession {
		h.partnerLeft(res.Closed, id)
	}
	h.app.Matchmaker.Forget(id)
	if err := h.app.Profiles.Reset(ctx, id); err != nil {
		h.log.Error("profile not reset", "user_id", id, "err", err)
		h.reply(id, msgInternal)
		return
	}
	if err := h.app.RedisCache.ClearForm(ctx, id); err != nil {
		h.log.Warn("form state not cleared", "user_id", id, "err", err)
	}
	h.reply(id, msgReset)
	h.startForm(ctx, id)
}

func (h *Handler) handlePremium(id domain.UserID) {
	h.reply(id, h.premiumText(id)+"\n"+"Use /invite to get your link.")
}

func (h *Handler) premiumText(id domain.UserID) string {
	st := h.app.Premium.State(id)
	switch {
	case st.PremiumUntil.Equal(domain.Forever):
		return "💎 Premium: forever"
	case h.app.Premium.IsPremium(id):
		return "💎 Premium until " + st.PremiumUntil.UTC().Format("2006-01-02 15:04 MST")
	}
	return fmt.Sprintf("💎 Premium: off. Invited %d, %d more to unlock.", st.InviteCount, h.app.Premium.Remaining(id))
}

func (h *Handler) handleInvite(id domain.UserID) {
	username := h.app.Config.Telegram.Username
	token, err := h.app.Tokens.Encode(id)
	if err != nil || username == "" {
		h.log.Error("invite link unavailable", "user_id", id, "err", err)
		h.reply(id, msgInternal)
		return
	}
	h.reply(id, fmt.Sprintf("🔗 Share this link. Every %d friends who join give you %s of premium:\nhttps://t.me/%s?start=%s",
		h.app.Premium.Threshold(), humanDuration(h.app.Premium.Duration()), username, token))
}

// handleStats is for ADMIN_IDS only; everyone else gets the help text.
func (h *Handler) handleStats(ctx context.Context, id domain.UserID) {
	if !h.app.IsAdmin(id) {
		h.reply(id, msgHelp)
		return
	}
	complete, err := h.app.ProfileRepo.CountComplete(ctx)
	if err != nil {
		h.log.Error("count profiles failed", "err", err)
		h.reply(id, msgInternal)
		return
	}
	matches, err := h.app.RedisCache.Matches(ctx)
	if err != nil {
		h.log.Warn("read match counter failed", "err", err)
	}
	h.reply(id, fmt.Sprintf("📊 Waiting: %d\nChatting: %d pairs\nComplete profiles: %d\nMatches: %d",
		h.app.Matchmaker.QueueLen(), h.app.Sessions.Count(), complete, matches))
}

// humanDuration prints whole days or hours instead of "24h0m0s".
func humanDuration(d time.Duration) string {
	switch {
	case d == 24*time.Hour:
		return "1 day"
	case d > 24*time.Hour && d%(24*time.Hour) == 0:
		return fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	case d == time.Hour:
		return "1 hour"
	case d > time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}
