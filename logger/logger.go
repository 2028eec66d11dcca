// Package logger provides the production implementation of core.Logger.
//
// Output is plain text for local development and JSON when running where a
// log aggregator is expected. Level and format resolve from configuration
// or the SPENDWISE_LOG_LEVEL / SPENDWISE_LOG_FORMAT environment variables.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents logging severity
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func parseLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DebugLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// SimpleLogger provides a basic structured logger implementation
type SimpleLogger struct {
	mu     sync.Mutex
	level  LogLevel
	format string
	output io.Writer
	fields map[string]interface{}
}

// Options configures a SimpleLogger
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

// New creates a logger from explicit options, falling back to environment
// variables and defaults for anything unset.
func New(opts Options) *SimpleLogger {
	level := opts.Level
	if level == "" {
		level = os.Getenv("SPENDWISE_LOG_LEVEL")
	}
	format := opts.Format
	if format == "" {
		format = os.Getenv("SPENDWISE_LOG_FORMAT")
	}
	if format == "" {
		format = "text"
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	return &SimpleLogger{
		level:  parseLevel(level),
		format: format,
		output: output,
		fields: make(map[string]interface{}),
	}
}

// NewDefault creates a logger with environment-driven defaults
func NewDefault() *SimpleLogger {
	return New(Options{})
}

// SetLevel sets the logging level
func (l *SimpleLogger) SetLevel(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = parseLevel(level)
}

// With returns a child logger that includes fields on every entry
func (l *SimpleLogger) With(fields map[string]interface{}) *SimpleLogger {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &SimpleLogger{
		level:  l.level,
		format: l.format,
		output: l.output,
		fields: merged,
	}
}

// Debug logs a debug message
func (l *SimpleLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(DebugLevel, "DEBUG", msg, fields)
}

// Info logs an info message
func (l *SimpleLogger) Info(msg string, fields map[string]interface{}) {
	l.log(InfoLevel, "INFO", msg, fields)
}

// Warn logs a warning message
func (l *SimpleLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(WarnLevel, "WARN", msg, fields)
}

// Error logs an error message
func (l *SimpleLogger) Error(msg string, fields map[string]interface{}) {
	l.log(ErrorLevel, "ERROR", msg, fields)
}

func (l *SimpleLogger) log(level LogLevel, tag, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	if l.format == "json" {
		entry := make(map[string]interface{}, len(merged)+3)
		for k, v := range merged {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			entry[k] = v
		}
		entry["level"] = tag
		entry["msg"] = msg
		entry["ts"] = time.Now().Format(time.RFC3339)

		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.output, "[%s] %s (unmarshalable fields)\n", tag, msg)
			return
		}
		fmt.Fprintln(l.output, string(data))
		return
	}

	parts := []string{fmt.Sprintf("[%s]", tag), msg}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, merged[k]))
	}

	fmt.Fprintln(l.output, strings.Join(parts, " "))
}
