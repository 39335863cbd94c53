// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/bgswap/pkg/ports"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// output is shared by a logger and all its component loggers. Camera,
// segmenter and host goroutines log concurrently; lines never interleave.
type output struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
	color  bool
	start  time.Time
}

// ConsoleLogger logs messages to the console with color support.
// Debug lines carry the time since the logger was created, which makes
// per-frame timing visible.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	out       *output
}

// NewConsole creates a console logger writing info and debug to stdout
// and warnings and errors to stderr. Color output is enabled when stdout
// is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	fd := os.Stdout.Fd()
	l := NewWriter(level, os.Stdout, os.Stderr)
	l.out.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return l
}

// NewWriter creates an uncolored logger over the given writers.
func NewWriter(level ports.LogLevel, stdout, stderr io.Writer) *ConsoleLogger {
	return &ConsoleLogger{
		level: level,
		out: &output{
			stdout: stdout,
			stderr: stderr,
			start:  time.Now(),
		},
	}
}

// NewNoop creates a logger that discards everything.
func NewNoop() *ConsoleLogger {
	return NewWriter(ports.LevelQuiet, io.Discard, io.Discard)
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(ports.LevelDebug, msg, args...)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(ports.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(ports.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a logger that prefixes messages with the component
// name. It shares the output of l.
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	return &ConsoleLogger{
		level:     l.level,
		component: component,
		out:       l.out,
	}
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	if level < l.level || l.level == ports.LevelQuiet {
		return
	}

	text := l10n.F(msg, args...)
	color := l.out.color

	if l.component != "" {
		if color {
			text = fmt.Sprintf("%s[%s]%s %s", colorCyan, l.component, colorReset, text)
		} else {
			text = fmt.Sprintf("[%s] %s", l.component, text)
		}
	}
	if level == ports.LevelDebug {
		text = fmt.Sprintf("+%.3fs %s", time.Since(l.out.start).Seconds(), text)
	}

	if color {
		switch level {
		case ports.LevelDebug:
			text = colorGray + text + colorReset
		case ports.LevelWarn:
			text = colorYellow + text + colorReset
		case ports.LevelError:
			text = colorRed + text + colorReset
		}
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if level >= ports.LevelWarn {
		fmt.Fprintln(l.out.stderr, text)
	} else {
		fmt.Fprintln(l.out.stdout, text)
	}
}

var _ ports.Logger = (*ConsoleLogger)(nil)
