package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/profile"
)

var genderKeyboard = func() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("👨 Male"),
		tgbotapi.NewKeyboardButton("👩 Female"),
	))
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}()

var prompts = map[domain.Field]string{
	domain.FieldGender:   msgAskGender,
	domain.FieldAge:      msgAskAge,
	domain.FieldLocation: msgAskLocation,
	domain.FieldInterest: msgAskInterest,
}

// startForm asks for the first missing field, if any.
func (h *Handler) startForm(ctx context.Context, id domain.UserID) {
	if field, missing := h.app.Profiles.NextMissing(id); missing {
		h.ask(ctx, id, field)
	}
}

// ask prompts for field and remembers it so the next plain message is taken
// as the answer.
func (h *Handler) ask(ctx context.Context, id domain.UserID, field domain.Field) {
	if err := h.app.RedisCache.SetForm(ctx, id, field); err != nil {
		h.log.Warn("form state not saved", "user_id", id, "err", err)
	}

	msg := tgbotapi.NewMessage(int64(id), prompts[field])
	if field == domain.FieldGender {
		msg.ReplyMarkup = genderKeyboard
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	h.send(msg)
}

// answerForm stores text as field and moves on to the next missing field.
// Invalid input keeps the same question open.
func (h *Handler) answerForm(ctx context.Context, id domain.UserID, field domain.Field, text string) {
	if err := h.app.Profiles.SetField(ctx, id, field, text); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidGender):
			h.reply(id, msgBadGender)
		case errors.Is(err, domain.ErrInvalidAge):
			h.reply(id, msgBadAge)
		case errors.Is(err, domain.ErrInvalidValue):
			h.reply(id, msgBadValue)
		default:
			h.log.Error("profile update failed", "user_id", id, "field", field, "err", err)
			h.reply(id, msgInternal)
			return
		}
		h.ask(ctx, id, field)
		return
	}

	if err := h.app.RedisCache.ClearForm(ctx, id); err != nil {
		h.log.Warn("form state not cleared", "user_id", id, "err", err)
	}
	if next, missing := h.app.Profiles.NextMissing(id); missing {
		h.ask(ctx, id, next)
		return
	}

	done := tgbotapi.NewMessage(int64(id), msgProfileDone+"\n\n"+profile.Card(h.app.Profiles.Get(id))+"\n\n"+msgFindHint)
	done.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	h.send(done)
}
