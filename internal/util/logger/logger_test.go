package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)

	log := Logger("test")
	log.Info("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected log message in buffer, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected key=value in buffer, got: %s", output)
	}
	if !strings.Contains(output, "subsystem=test") {
		t.Errorf("expected subsystem=test in buffer, got: %s", output)
	}
}

func TestSetOutput_ExistingLogger(t *testing.T) {
	log := Logger("test2")

	buf := &bytes.Buffer{}
	SetOutput(buf)

	log.Info("after switch", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "after switch") {
		t.Errorf("expected log message in buffer, got: %s", output)
	}
}

func TestSetLevel_AppliesToDerivedLoggers(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)

	derived := Logger("test.level").With("client", "abc")

	SetLevel("test.level", slog.LevelDebug)
	derived.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "client=abc")

	buf.Reset()
	SetLevel("test.level", slog.LevelError)
	derived.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestSetLevel_Hierarchy(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)

	child := Logger("parent.child")
	SetLevel("parent", slog.LevelError)
	child.Warn("suppressed")
	assert.Empty(t, buf.String())

	SetLevel("parent", slog.LevelDebug)
	child.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetFormat(FormatText)

	log := Logger("test.format")
	SetFormat(FormatJSON)
	log.Info("json line", "n", 1)

	assert.Contains(t, buf.String(), `"msg":"json line"`)
	assert.Contains(t, buf.String(), `"subsystem":"test.format"`)
}

func TestParseLevelConfig(t *testing.T) {
	cfg := &Config{DefaultLevel: slog.LevelInfo, SubsystemLevels: map[string]slog.Level{}}
	parseLevelConfig(cfg, "gateway=debug, gateway.upnp=error ,warn,bogus=nope")

	assert.Equal(t, slog.LevelWarn, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("gateway"))
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("gateway.natpmp"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("gateway.upnp"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("cmd"))
	_, ok := cfg.SubsystemLevels["bogus"]
	assert.False(t, ok)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat("xml"))
}
