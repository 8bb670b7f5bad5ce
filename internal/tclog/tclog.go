// Package tclog provides the leveled console/file logger used across the
// task controller. There is no third-party logging library in play here;
// like every other binary in this corpus it builds directly on the
// standard log package and just adds level filtering and an optional
// file tee on top.
package tclog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level mirrors the --log_level values from the CLI surface, in the same
// order and naming as the console logger's sink levels.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "Debug"
	case LevelInfo:
		return "Info"
	case LevelWarning:
		return "Warn"
	case LevelError:
		return "Error"
	case LevelCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// ParseLevel converts a --log_level flag value to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
}

// Logger is a minimal leveled sink. The zero value is not usable; use New.
type Logger struct {
	level  Level
	std    *log.Logger
	file   *os.File
}

// New creates a Logger that writes to stdout, filtered at level.
func New(level Level) *Logger {
	return &Logger{
		level: level,
		std:   log.New(os.Stdout, "", log.LstdFlags),
	}
}

// EnableFileLogging tees all subsequent output into a timestamped file
// under dir, in addition to stdout, matching the console-plus-file
// behaviour of the original tray application's --log2file switch.
func (l *Logger) EnableFileLogging(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir %s: %w", dir, err)
	}
	name := fmt.Sprintf("AOG-TaskController_%s.log", time.Now().Format("2006-01-02_15-04-05"))
	path := dir + string(os.PathSeparator) + name
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}
	l.file = f
	l.std = log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags)
	l.std.Printf("Logging to file: %s", path)
	return nil
}

// Close flushes and closes the file sink, if any.
func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	l.std.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any)    { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)     { l.log(LevelInfo, format, args...) }
func (l *Logger) Warningf(format string, args ...any)  { l.log(LevelWarning, format, args...) }
func (l *Logger) Errorf(format string, args ...any)    { l.log(LevelError, format, args...) }
func (l *Logger) Criticalf(format string, args ...any) { l.log(LevelCritical, format, args...) }
