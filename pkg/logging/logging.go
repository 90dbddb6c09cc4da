// Package logging builds the slog backend shared by the server: lines go
// to stdout and to a rotating log file, with a level per subsystem.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// Subsystem tags.
const (
	SubsystemTable  = "TABL"
	SubsystemEngine = "HOLD"
	SubsystemServer = "SRVR"
	SubsystemStore  = "STOR"
	SubsystemLoop   = "LOOP"
	SubsystemWire   = "WIRE"
	SubsystemClient = "CLNT"
)

// Config configures a Backend.
type Config struct {
	// LogFile is rotated when it grows past MaxSizeKB. Empty disables
	// the file.
	LogFile     string
	MaxSizeKB   int64
	MaxLogFiles int
	// DebugLevel is either a level applied to every subsystem or a
	// comma separated list of SUBSYSTEM=level pairs, optionally led by a
	// default level.
	DebugLevel string
	// Stdout receives a copy of every line; os.Stdout when nil.
	Stdout io.Writer
}

// Backend hands out subsystem loggers writing to the same outputs.
type Backend struct {
	backend *slog.Backend
	rotator *rotator.Rotator

	mu      sync.Mutex
	level   slog.Level
	levels  map[string]slog.Level
	loggers map[string]slog.Logger
}

type logWriter struct {
	stdout io.Writer
	file   *rotator.Rotator
}

func (w logWriter) Write(p []byte) (int, error) {
	w.stdout.Write(p)
	if w.file != nil {
		w.file.Write(p)
	}
	return len(p), nil
}

// New creates the backend and opens the log file.
func New(cfg Config) (*Backend, error) {
	level, levels, err := ParseLevels(cfg.DebugLevel)
	if err != nil {
		return nil, err
	}
	w := logWriter{stdout: cfg.Stdout}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	b := &Backend{
		level:   level,
		levels:  levels,
		loggers: make(map[string]slog.Logger),
	}
	if cfg.LogFile != "" {
		if cfg.MaxSizeKB <= 0 {
			cfg.MaxSizeKB = 10 * 1024
		}
		if cfg.MaxLogFiles <= 0 {
			cfg.MaxLogFiles = 3
		}
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		r, err := rotator.New(cfg.LogFile, cfg.MaxSizeKB, false, cfg.MaxLogFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
		b.rotator, w.file = r, r
	}
	b.backend = slog.NewBackend(w)
	return b, nil
}

// Logger returns the logger of subsystem, creating it on first use.
func (b *Backend) Logger(subsystem string) slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.loggers[subsystem]; ok {
		return l
	}
	l := b.backend.Logger(subsystem)
	l.SetLevel(b.levelOf(subsystem))
	b.loggers[subsystem] = l
	return l
}

func (b *Backend) levelOf(subsystem string) slog.Level {
	if lvl, ok := b.levels[subsystem]; ok {
		return lvl
	}
	return b.level
}

// SetLevels applies a DebugLevel specification to the existing loggers
// and to the ones created later.
func (b *Backend) SetLevels(spec string) error {
	level, levels, err := ParseLevels(spec)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level, b.levels = level, levels
	for subsystem, l := range b.loggers {
		l.SetLevel(b.levelOf(subsystem))
	}
	return nil
}

// Subsystems returns the tags of the loggers created so far.
func (b *Backend) Subsystems() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.loggers))
	for subsystem := range b.loggers {
		out = append(out, subsystem)
	}
	sort.Strings(out)
	return out
}

// Close flushes and closes the log file.
func (b *Backend) Close() error {
	if b.rotator == nil {
		return nil
	}
	return b.rotator.Close()
}

// ParseLevels parses "info" or "debug,STOR=trace,TABL=warn" into a
// default level and per subsystem overrides.
func ParseLevels(spec string) (slog.Level, map[string]slog.Level, error) {
	level := slog.LevelInfo
	levels := make(map[string]slog.Level)
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return level, levels, nil
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		subsystem, name, pair := strings.Cut(part, "=")
		if !pair {
			name = part
		}
		lvl, ok := slog.LevelFromString(name)
		if !ok {
			return 0, nil, fmt.Errorf("invalid log level %q", name)
		}
		if !pair {
			level = lvl
			continue
		}
		if subsystem == "" {
			return 0, nil, fmt.Errorf("missing subsystem in %q", part)
		}
		levels[subsystem] = lvl
	}
	return level, levels, nil
}
