package domain

import "fmt"

// MediaKind enumerates the media types the relay forwards by reference.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaSticker   MediaKind = "sticker"
	MediaVoice     MediaKind = "voice"
	MediaVideo     MediaKind = "video"
	MediaVideoNote MediaKind = "video_note"
	MediaAnimation MediaKind = "animation"
	MediaAudio     MediaKind = "audio"
	MediaDocument  MediaKind = "document"
)

// Content is what one user sends to the other. It deliberately has no sender
// field: the relay must never be able to leak who wrote it.
type Content struct {
	Text string

	// Media is set for non-text content. Ref is the platform's file handle.
	Media   MediaKind
	Ref     string
	Caption string
}

// Text builds a text message.
func Text(s string) Content { return Content{Text: s} }

// Media builds a media message forwarded by reference.
func Media(kind MediaKind, ref, caption string) Content {
	return Content{Media: kind, Ref: ref, Caption: caption}
}

// IsMedia reports whether the content is forwarded by file reference.
func (c Content) IsMedia() bool { return c.Media != "" }

// Placeholder is the text fallback used when a transport cannot reproduce
// the media type.
func (c Content) Placeholder() string {
	if !c.IsMedia() {
		return c.Text
	}
	if c.Caption != "" {
		return fmt.Sprintf("[%s] %s", c.Media, c.Caption)
	}
	return fmt.Sprintf("[%s]", c.Media)
}
