// Package logger owns the process-wide structured logger. Logs go to
// <workspace>/.backtest/logs/backtest.log as JSON lines; the previous file is
// kept as backtest.log.1 once it grows past MaxBytes.
package logger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	DirName  = ".backtest"
	FileName = "backtest.log"

	// DefaultMaxBytes is the rotation threshold when Config.MaxBytes is zero.
	DefaultMaxBytes int64 = 8 << 20
)

type Config struct {
	Root     string
	Debug    bool
	MaxBytes int64
}

type sink struct {
	logger *slog.Logger
	file   *os.File
	path   string
}

var (
	mu      sync.RWMutex
	current = discardSink()
)

func discardSink() sink {
	return sink{logger: slog.New(slog.DiscardHandler)}
}

// Setup opens the workspace log file and installs a JSON logger on it. The
// returned cleanup closes the file and reverts to a discarding logger.
func Setup(cfg Config) (func() error, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	dir := filepath.Join(filepath.Clean(root), DirName, "logs")
	path := filepath.Join(dir, FileName)

	f, err := openLog(dir, path, cfg.maxBytes())
	if err != nil {
		install(discardSink())
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo, ReplaceAttr: utcTime}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	s := sink{logger: slog.New(slog.NewJSONHandler(f, opts)), file: f, path: path}
	install(s)
	s.logger.Info("logger.initialized", "path", path, "debug", cfg.Debug)

	return func() error {
		mu.Lock()
		defer mu.Unlock()
		var cerr error
		if current.file != nil {
			cerr = current.file.Close()
		}
		current = discardSink()
		return cerr
	}, nil
}

func (c Config) maxBytes() int64 {
	if c.MaxBytes > 0 {
		return c.MaxBytes
	}
	return DefaultMaxBytes
}

func openLog(dir, path string, maxBytes int64) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create %s: %w", dir, err)
	}
	if err := rotate(path, maxBytes); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("logger: open %s: %w", path, err)
	}
	return f, nil
}

// rotate moves path to path.1 when it is at least maxBytes long.
func rotate(path string, maxBytes int64) error {
	st, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logger: stat %s: %w", path, err)
	}
	if st.Size() < maxBytes {
		return nil
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("logger: rotate %s: %w", path, err)
	}
	return nil
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}

func install(s sink) {
	mu.Lock()
	if current.file != nil && current.file != s.file {
		_ = current.file.Close()
	}
	current = s
	mu.Unlock()
}

func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current.logger
}

// Component returns the global logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return current.path
}

func IsReady() error {
	mu.RLock()
	defer mu.RUnlock()
	if current.file == nil {
		return errors.New("logger not initialized")
	}
	return nil
}
