// Package logger holds the process-wide slog logger.
//
// Relayed message content must never reach the logs. Attributes named in
// redacted are masked by every handler this package builds, so a careless
// "text", msg.Text pair cannot leak what anonymous users said.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/oggyb/anonchat/internal/config"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type Config struct {
	Level      string
	Format     Format
	Component  string
	WithSource bool
}

const mask = "[redacted]"

var redacted = map[string]bool{
	"text":    true,
	"caption": true,
	"content": true,
}

var (
	mu      sync.RWMutex
	current *slog.Logger
	out     io.Writer = os.Stdout
	active            = Config{Level: "info", Format: FormatText}
)

// InitFromConfig initializes global logger from app config.
func InitFromConfig(c *config.Config) {
	if c == nil {
		Init(nil)
		return
	}
	Init(&Config{
		Level:      c.Log.Level,
		Format:     Format(strings.ToLower(c.Log.Format)),
		Component:  c.Log.Component,
		WithSource: c.Log.Source,
	})
}

// Init (re)builds the global logger. A nil config keeps the previous one.
func Init(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	if c != nil {
		active = *c
	}
	current = build(active, out)
}

// SetOutput redirects the global logger; nil means stdout. Tests use it to
// capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
	current = build(active, out)
}

func build(c Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(c.Level),
		AddSource: c.WithSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch {
			case redacted[a.Key]:
				return slog.String(a.Key, mask)
			case a.Key == slog.TimeKey && c.Format != FormatJSON:
				return slog.String(slog.TimeKey, a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if c.Format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(h)
	if c.Component != "" {
		l = l.With("component", c.Component)
	}
	return l
}

// L returns the global logger, building a default one on first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}

	Init(nil)
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// With creates a child logger with additional attributes.
func With(args ...any) *slog.Logger { return L().With(args...) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

// parseLevel accepts slog's names ("debug", "WARN", "info+2") plus "warning".
// Anything else falls back to info.
func parseLevel(s string) slog.Leveler {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
