package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

var (
	file    *os.File
	mu      sync.Mutex
	enabled bool
	logger  = charmlog.New(io.Discard)
)

// DefaultPath is ~/.config/go-stepseq/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-stepseq", "debug.log")
}

// Enable starts logging to path at the given level ("debug", "info", ...).
// The terminal belongs to the UI, so the log never goes to stdout.
func Enable(path, level string) error {
	lvl := charmlog.InfoLevel
	if level != "" {
		var err error
		lvl, err = charmlog.ParseLevel(level)
		if err != nil {
			return err
		}
	}
	if path == "" {
		path = DefaultPath()
	}

	mu.Lock()
	defer mu.Unlock()

	if enabled {
		logger.SetLevel(lvl)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true
	logger = charmlog.NewWithOptions(file, charmlog.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Prefix:          "stepseq",
	})
	logger.Info("=== Debug logging started ===")

	return nil
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
	logger = charmlog.New(io.Discard)
}

// Logger returns the process logger. Components derive their own prefix
// from it with WithPrefix.
func Logger() *charmlog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a debug message under a category prefix
func Log(category, format string, args ...any) {
	Logger().WithPrefix(category).Debug(fmt.Sprintf(format, args...))
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// Since logs how long an operation took when it is slower than limit
func Since(category, what string, start time.Time, limit time.Duration) {
	if d := time.Since(start); d > limit {
		Logger().WithPrefix(category).Warn("slow", "op", what, "took", d)
	}
}
