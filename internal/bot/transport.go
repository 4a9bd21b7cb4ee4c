package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/relay"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Transport delivers relayed content. Media goes by file ID, so nothing is
// downloaded or re-uploaded.
type Transport struct {
	api API
}

var _ relay.Transport = (*Transport)(nil)

func NewTransport(api API) *Transport { return &Transport{api: api} }

// Send maps c onto the matching Telegram method. In private chats the chat
// id equals the user id.
func (t *Transport) Send(_ context.Context, to domain.UserID, c domain.Content) error {
	msg, err := chattable(int64(to), c)
	if err != nil {
		return err
	}
	_, err = t.api.Send(msg)
	return err
}

func chattable(chatID int64, c domain.Content) (tgbotapi.Chattable, error) {
	if !c.IsMedia() {
		return tgbotapi.NewMessage(chatID, c.Text), nil
	}

	file := tgbotapi.FileID(c.Ref)
	switch c.Media {
	case domain.MediaPhoto:
		m := tgbotapi.NewPhoto(chatID, file)
		m.Caption = c.Caption
		return m, nil
	case domain.MediaSticker:
		return tgbotapi.NewSticker(chatID, file), nil
	case domain.MediaVoice:
		m := tgbotapi.NewVoice(chatID, file)
		m.Caption = c.Caption
		return m, nil
	case domain.MediaVideo:
		m := tgbotapi.NewVideo(chatID, file)
		m.Caption = c.Caption
		return m, nil
	case domain.MediaVideoNote:
		return tgbotapi.NewVideoNote(chatID, 0, file), nil
	case domain.MediaAnimation:
		m := tgbotapi.NewAnimation(chatID, file)
		m.Caption = c.Caption
		return m, nil
	case domain.MediaAudio:
		m := tgbotapi.NewAudio(chatID, file)
		m.Caption = c.Caption
		return m, nil
	case domain.MediaDocument:
		m := tgbotapi.NewDocument(chatID, file)
		m.Caption = c.Caption
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedContent, c.Media)
}

// contentOf extracts what a user sent. Animations are checked before
// documents because Telegram fills both for GIFs.
func contentOf(msg *tgbotapi.Message) (domain.Content, bool) {
	switch {
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		return domain.Media(domain.MediaPhoto, largest.FileID, msg.Caption), true
	case msg.Sticker != nil:
		return domain.Media(domain.MediaSticker, msg.Sticker.FileID, ""), true
	case msg.Voice != nil:
		return domain.Media(domain.MediaVoice, msg.Voice.FileID, msg.Caption), true
	case msg.VideoNote != nil:
		return domain.Media(domain.MediaVideoNote, msg.VideoNote.FileID, ""), true
	case msg.Video != nil:
		return domain.Media(domain.MediaVideo, msg.Video.FileID, msg.Caption), true
	case msg.Animation != nil:
		return domain.Media(domain.MediaAnimation, msg.Animation.FileID, msg.Caption), true
	case msg.Audio != nil:
		return domain.Media(domain.MediaAudio, msg.Audio.FileID, msg.Caption), true
	case msg.Document != nil:
		return domain.Media(domain.MediaDocument, msg.Document.FileID, msg.Caption), true
	case msg.Text != "":
		return domain.Text(msg.Text), true
	}
	return domain.Content{}, false
}
