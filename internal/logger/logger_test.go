package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "docsync.log")
	t.Setenv("DOCSYNC_LOG_FILE", path)
	if err := Init(true); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	Debug("hello", "k", 1)
	Close()
	Set(nil)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "logger initialized") || !strings.Contains(string(data), "hello") {
		t.Fatalf("log file missing entries:\n%s", data)
	}
}

func TestHelpersWithoutLogger(t *testing.T) {
	Set(nil)
	Debug("ignored")
	Info("ignored")
	Warn("ignored")
	Error("ignored")
}

func TestSetObserver(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	Set(zap.New(core))
	defer Set(nil)

	Info("dropped")
	Warn("kept", "line", 3)
	if logs.Len() != 1 {
		t.Fatalf("observed %d entries, want 1", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "kept" || entry.ContextMap()["line"] != int64(3) {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestLogPathFromConfigHome(t *testing.T) {
	t.Setenv("DOCSYNC_LOG_FILE", "")
	t.Setenv("DOCSYNC_CONFIG_HOME", "/tmp/docsync-home")
	got, err := logPath()
	if err != nil {
		t.Fatalf("logPath error: %v", err)
	}
	if got != "/tmp/docsync-home/docsync.log" {
		t.Fatalf("logPath = %q", got)
	}
}

func TestDocumentAndComponentFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Set(nil)

	Document("main.go").Infow("document opened", "bytes", 42)
	Component("treesitter").Warnw("query rejected")
	if logs.Len() != 2 {
		t.Fatalf("observed %d entries, want 2", logs.Len())
	}
	opened := logs.All()[0]
	if opened.ContextMap()["path"] != "main.go" || opened.ContextMap()["bytes"] != int64(42) {
		t.Fatalf("document entry = %+v", opened.ContextMap())
	}
	if name := logs.All()[1].LoggerName; name != "treesitter" {
		t.Fatalf("component logger name = %q", name)
	}
}

func TestScopedLoggersWithoutLogger(t *testing.T) {
	Set(nil)
	Document("main.go").Debugw("ignored")
	Component("scan").Errorw("ignored")
}
