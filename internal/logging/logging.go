package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Logger defines a minimal, printf-style logging contract.
//
// Handlers and adapters depend on this interface instead of a concrete
// implementation so tests can swap in a no-op or capturing logger.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a level name to a Level. Besides the native four it accepts
// the extended set carried over from the log-level environment variable
// (TRACE|DEBUG|INFO|SUCCESS|WARNING|ERROR|CRITICAL); unknown names resolve to
// LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE", "DEBUG":
		return LevelDebug
	case "INFO", "SUCCESS", "":
		return LevelInfo
	case "WARNING", "WARN":
		return LevelWarn
	case "ERROR", "CRITICAL":
		return LevelError
	}
	return LevelInfo
}

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
	}
	return "INFO"
}

var (
	rootInstance *root
	rootOnce     sync.Once
)

// root owns the shared output sinks; component loggers share it.
type root struct {
	mu    sync.Mutex
	out   io.Writer
	file  *os.File
	level Level
}

func getRoot() *root {
	rootOnce.Do(func() {
		rootInstance = &root{out: os.Stdout, level: LevelInfo}
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		path := filepath.Join(home, "aria-debug.log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		rootInstance.file = file
	})
	return rootInstance
}

// SetLevel sets the minimum level for all component loggers.
func SetLevel(level Level) {
	r := getRoot()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.level = level
}

// componentLogger formats lines as
//
//	2026-08-29 07:41:02 [INFO] [Matcher] matcher.go:88 - message
//
// and writes them to stdout plus the debug log file when available.
type componentLogger struct {
	root      *root
	component string
}

// NewComponentLogger returns the default application logger scoped to a component.
func NewComponentLogger(component string) Logger {
	return &componentLogger{root: getRoot(), component: component}
}

func (l *componentLogger) log(level Level, format string, args ...any) {
	r := l.root
	r.mu.Lock()
	defer r.mu.Unlock()
	if level < r.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	component := l.component
	if component == "" {
		component = "ARIA"
	}
	msg := fmt.Sprintf(format, args...)
	lineStr := fmt.Sprintf("%s [%s] [%s] %s:%d - %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, component, file, line, msg)

	fmt.Fprint(r.out, lineStr)
	if r.file != nil {
		fmt.Fprint(r.file, lineStr)
	}
}

func (l *componentLogger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *componentLogger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *componentLogger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *componentLogger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

// Capture is a Logger that records formatted lines for test assertions.
type Capture struct {
	mu    sync.Mutex
	Lines []string
}

func (c *Capture) record(level Level, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Lines = append(c.Lines, fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...)))
}

func (c *Capture) Debug(format string, args ...any) { c.record(LevelDebug, format, args...) }
func (c *Capture) Info(format string, args ...any)  { c.record(LevelInfo, format, args...) }
func (c *Capture) Warn(format string, args ...any)  { c.record(LevelWarn, format, args...) }
func (c *Capture) Error(format string, args ...any) { c.record(LevelError, format, args...) }

// Contains reports whether any recorded line contains substr.
func (c *Capture) Contains(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range c.Lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
