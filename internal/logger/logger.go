// Package logger holds the process-wide zap logger. Nothing is logged
// until Init or Set installs a logger, and every helper is safe to call
// before that.
//
// Entries about one document carry a "path" field; entries from a
// subsystem such as the syntax engine carry its name.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	L       *zap.Logger
	S       *zap.SugaredLogger
	logFile *os.File

	nop = zap.NewNop().Sugar()
)

// Init opens the log file, truncating it, and installs a console logger
// writing there. debug lowers the level from info to debug.
func Init(debug bool) error {
	path, err := logPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	logFile = f

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(f), level)
	Set(zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.Int("pid", os.Getpid())),
	).Named("docsync"))

	S.Infow("logger initialized", "file", path, "level", level.String())
	return nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	cfg.FunctionKey = zapcore.OmitKey
	return cfg
}

// Set replaces the global logger. Passing nil silences logging.
func Set(l *zap.Logger) {
	if l == nil {
		L, S = nil, nil
		return
	}
	L = l
	S = l.Sugar()
}

// Close flushes the logger and closes the log file.
func Close() {
	if L != nil {
		_ = L.Sync()
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Document returns a logger tagging every entry with the document path.
func Document(path string) *zap.SugaredLogger {
	return direct().With("path", path)
}

// Component returns a logger named after a subsystem.
func Component(name string) *zap.SugaredLogger {
	return direct().Named(name)
}

// direct undoes the skip the package helpers need, so callers of the
// returned logger are reported as the caller.
func direct() *zap.SugaredLogger {
	if L == nil {
		return nop
	}
	return L.WithOptions(zap.AddCallerSkip(-1)).Sugar()
}

// logPath resolves DOCSYNC_LOG_FILE, then the docsync config directory.
func logPath() (string, error) {
	if v := os.Getenv("DOCSYNC_LOG_FILE"); v != "" {
		return v, nil
	}
	if v := os.Getenv("DOCSYNC_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "docsync.log"), nil
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "docsync", "docsync.log"), nil
}

func Debug(msg string, keysAndValues ...interface{}) {
	if S != nil {
		S.Debugw(msg, keysAndValues...)
	}
}

func Info(msg string, keysAndValues ...interface{}) {
	if S != nil {
		S.Infow(msg, keysAndValues...)
	}
}

func Warn(msg string, keysAndValues ...interface{}) {
	if S != nil {
		S.Warnw(msg, keysAndValues...)
	}
}

func Error(msg string, keysAndValues ...interface{}) {
	if S != nil {
		S.Errorw(msg, keysAndValues...)
	}
}
