package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/anonchat/internal/config"
)

// capture points the global logger at a buffer for the duration of f.
func capture(t *testing.T, f func()) string {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	f()
	return buf.String()
}

func cfgWith(level, format, component string, source bool) *config.Config {
	c := &config.Config{}
	c.Log.Level = level
	c.Log.Format = format
	c.Log.Component = component
	c.Log.Source = source
	return c
}

func TestLogger_TextFormat(t *testing.T) {
	out := capture(t, func() {
		InitFromConfig(cfgWith("debug", "text", "test", false))
		Info("hello anon", "key", "value")
	})

	assert.Contains(t, out, "hello anon")
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "key=value")
}

func TestLogger_JSONFormat(t *testing.T) {
	out := capture(t, func() {
		InitFromConfig(cfgWith("info", "json", "json_test", false))
		Info("json log", "foo", "bar")
	})

	assert.Contains(t, out, `"msg":"json log"`)
	assert.Contains(t, out, `"component":"json_test"`)
	assert.Contains(t, out, `"foo":"bar"`)
}

func TestLogger_LevelFilter(t *testing.T) {
	out := capture(t, func() {
		InitFromConfig(cfgWith("error", "text", "", false))
		Info("should not appear")
		Error("should appear")
	})

	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestLogger_RedactsContent(t *testing.T) {
	out := capture(t, func() {
		InitFromConfig(cfgWith("debug", "text", "", false))
		With("req_id", "123").Info("relayed", "user_id", 42, "text", "meet me at 5", "caption", "me")
	})

	assert.Contains(t, out, "user_id=42")
	assert.Contains(t, out, "req_id=123")
	assert.Contains(t, out, "text=[redacted]")
	assert.NotContains(t, out, "meet me")
	assert.NotContains(t, out, "caption=me")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" warn "))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

func TestLogger_NilConfig(t *testing.T) {
	out := capture(t, func() {
		InitFromConfig(cfgWith("debug", "json", "cfg_test", true))
		InitFromConfig(nil)
		Debug("cfg-based log")
	})

	// nil keeps the previous config
	assert.Contains(t, out, `"msg":"cfg-based log"`)
	assert.Contains(t, out, `"component":"cfg_test"`)
}
