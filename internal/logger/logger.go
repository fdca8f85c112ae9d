package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	timeColour  = color.New(color.FgBlue)
	debugColour = color.New(color.FgCyan)
	warnColour  = color.New(color.FgYellow)
	errorColour = color.New(color.FgRed)
	fieldColour = color.New(color.Bold)
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var GlobalLogLevel = LogLevelInfo

var (
	mu     sync.Mutex
	output io.Writer
)

// ParseLevel maps a config string to a level, defaulting to info
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func SetGlobalLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	GlobalLogLevel = ParseLevel(level)
}

// SetOutput redirects all loggers; nil restores stdout
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

type Log struct {
	level  LogLevel
	module string
	err    error
}

func New() *Log {
	mu.Lock()
	defer mu.Unlock()
	return &Log{
		level: GlobalLogLevel,
	}
}

func (l *Log) SetLevel(level LogLevel) {
	l.level = level
}

// WithModule tags every line with a component name
func (l *Log) WithModule(module string) *Log {
	return &Log{level: l.level, module: module, err: l.err}
}

func (l *Log) WithError(err error) *Log {
	return &Log{level: l.level, module: l.module, err: err}
}

func (l *Log) timestamp() string {
	return time.Now().Format("15:04:05")
}

func (l *Log) write(c *color.Color, icon, msg string) {
	mu.Lock()
	defer mu.Unlock()

	w := output
	if w == nil {
		w = color.Output
	}

	prefix := timeColour.Sprintf("[%s]", l.timestamp())
	if l.module != "" {
		prefix += " " + fieldColour.Sprintf("[%s]", l.module)
	}
	if l.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, l.err)
	}
	if c != nil {
		msg = c.Sprint(msg)
	}
	fmt.Fprintf(w, "%s %s %s\n", prefix, icon, msg)
}

func (l *Log) Debug(msg string) {
	if l.level > LogLevelDebug {
		return
	}
	l.write(debugColour, "🔍", msg)
}

func (l *Log) Info(msg string) {
	if l.level > LogLevelInfo {
		return
	}
	l.write(nil, "ℹ️ ", msg)
}

func (l *Log) Warn(msg string) {
	if l.level > LogLevelWarn {
		return
	}
	l.write(warnColour, "⚠️ ", msg)
}

func (l *Log) Error(msg string) {
	l.write(errorColour, "❌", msg)
}
