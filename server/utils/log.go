package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config value to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "none", "off":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Logger writes leveled lines of the form
// "2006-01-02 15:04:05 [LEVEL] [prefix] message".
type Logger struct {
	mu     *sync.RWMutex
	level  *Level
	logger *log.Logger
	prefix string
	file   *os.File
}

var (
	std   = NewWriter(LevelInfo, os.Stderr, "")
	stdMu sync.Mutex
)

// NewWriter builds a logger on top of an arbitrary writer.
func NewWriter(level Level, w io.Writer, prefix string) *Logger {
	return &Logger{
		mu:     &sync.RWMutex{},
		level:  &level,
		logger: log.New(w, "", 0),
		prefix: prefix,
	}
}

// New opens path in append mode, or logs to stderr when path is empty.
func New(level Level, path string, prefix string) (*Logger, error) {
	if path == "" {
		return NewWriter(level, os.Stderr, prefix), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := NewWriter(level, file, prefix)
	l.file = file
	return l, nil
}

// SetDefault replaces the logger behind Log.
func SetDefault(l *Logger) {
	stdMu.Lock()
	defer stdMu.Unlock()
	std = l
}

func Default() *Logger {
	stdMu.Lock()
	defer stdMu.Unlock()
	return std
}

// Log writes an info line through the default logger.
func Log(format string, args ...interface{}) {
	Default().Info(format, args...)
}

// WithPrefix derives a child logger sharing output and level.
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := prefix
	if l.prefix != "" {
		newPrefix = l.prefix + ":" + prefix
	}
	return &Logger{
		mu:     l.mu,
		level:  l.level,
		logger: l.logger,
		prefix: newPrefix,
		file:   l.file,
	}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.level = level
}

func (l *Logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *l.level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if *l.level == LevelNone || level < *l.level {
		return
	}
	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}
	l.logger.Printf("%s [%s] %s%s", time.Now().Format("2006-01-02 15:04:05"), level, prefix, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }

func (l *Logger) Info(format string, args ...interface{}) { l.log(LevelInfo, format, args...) }

func (l *Logger) Warn(format string, args ...interface{}) { l.log(LevelWarn, format, args...) }

func (l *Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// Close closes the log file, if any. Child loggers share the file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
