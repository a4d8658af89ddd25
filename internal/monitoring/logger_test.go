package monitoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op
	SetLogger(nil)
	Logf("test message")
}

func TestUseZap(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	core, logs := observer.New(zap.InfoLevel)
	UseZap(zap.New(core))
	Logf("[migrate] applied %d", 1)

	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "[migrate] applied 1" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	UseZap(nil)
	Logf("dropped")
	if logs.Len() != 1 {
		t.Errorf("expected no-op after UseZap(nil), got %d entries", logs.Len())
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.log")

	l, err := NewLogger(LogConfig{Level: "debug", Format: "json", OutputPath: path})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	l.Debug("table built", zap.Int("width", 310))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"width":310`) || !strings.Contains(string(data), `"msg":"table built"`) {
		t.Errorf("unexpected log output %s", data)
	}
}

func TestNewLoggerLevelsAndFormats(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "bogus", Format: "console", OutputPath: filepath.Join(t.TempDir(), "x.log")})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if l.Core().Enabled(zap.DebugLevel) {
		t.Error("unknown level should fall back to info")
	}

	if _, err := NewLogger(LogConfig{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}
