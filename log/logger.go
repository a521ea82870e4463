// Package log provides the leveled logger used by the drm core and its
// tools. Output goes to the terminal, to a size-rotated file, or both.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation bounds a log file's growth.
type Rotation struct {
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

type Logger struct {
	mu     sync.Mutex
	writer io.Writer

	Name       string
	Level      LogLevel
	TimeFormat string
	NoColor    bool
}

// Option configures a Logger at construction.
type Option func(*config)

type config struct {
	file       string
	rotation   Rotation
	noTerminal bool
	writer     io.Writer
}

// WithFile mirrors log output into a rotated file.
func WithFile(path string, rotation Rotation) Option {
	return func(c *config) {
		c.file = path
		c.rotation = rotation
	}
}

// WithoutTerminal suppresses terminal output; useful together with
// WithFile for daemons.
func WithoutTerminal() Option {
	return func(c *config) { c.noTerminal = true }
}

// WithWriter sends output to an arbitrary writer instead of the
// terminal.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.writer = w }
}

// New creates a named logger filtering records below level.
func New(name string, level LogLevel, opts ...Option) *Logger {
	var c config
	for _, opt := range opts {
		opt(&c)
	}

	var writers []io.Writer
	if c.writer != nil {
		writers = append(writers, c.writer)
	} else if !c.noTerminal {
		writers = append(writers, os.Stdout)
	}
	if c.file != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   c.file,
			MaxSize:    c.rotation.MaxSize,
			MaxBackups: c.rotation.MaxBackups,
			MaxAge:     c.rotation.MaxAge,
			Compress:   c.rotation.Compress,
		})
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	return &Logger{
		writer:     io.MultiWriter(writers...),
		Name:       name,
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    c.writer != nil || c.file != "",
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{writer: io.Discard, Level: Fatal + 1, NoColor: true}
}

// Named derives a sub-logger sharing the writer.
func (l *Logger) Named(name string) *Logger {
	full := name
	if l.Name != "" {
		full = l.Name + "/" + name
	}
	return &Logger{
		writer:     l.writer,
		Name:       full,
		Level:      l.Level,
		TimeFormat: l.TimeFormat,
		NoColor:    l.NoColor,
	}
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if level < l.Level {
		return
	}

	prefix := fmt.Sprintf("[%s] %-5s", time.Now().Format(l.TimeFormat), level)
	if l.Name != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, l.Name)
	}
	line := fmt.Sprintf(msg, args...)

	l.mu.Lock()
	if l.NoColor {
		fmt.Fprintf(l.writer, "%s %s\n", prefix, line)
	} else {
		fmt.Fprintf(l.writer, "%s%s %s\033[0m\n", color(level), prefix, line)
	}
	l.mu.Unlock()

	if level == Fatal {
		os.Exit(1)
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(Debug, msg, args...) }

func (l *Logger) Info(msg string, args ...any) { l.log(Info, msg, args...) }

func (l *Logger) Warn(msg string, args ...any) { l.log(Warn, msg, args...) }

func (l *Logger) Error(msg string, args ...any) { l.log(Error, msg, args...) }

func (l *Logger) Fatal(msg string, args ...any) { l.log(Fatal, msg, args...) }
