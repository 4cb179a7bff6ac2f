// Package logger provides centralized logging for Specter.
// It wraps charmbracelet/log with a process-wide logger and per-component styled loggers.
package logger

import (
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the global logger instance used throughout Specter.
var Logger *log.Logger

// output is where component loggers write; it follows the global logger.
var output io.Writer = os.Stderr

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.WarnLevel)
}

// Configure sets up the global logger from CLI flags and the environment.
// Level precedence: flag > SPECTER_LOG_LEVEL > warn. The interactive shell
// defaults to warn so log lines do not interleave with responses.
func Configure(logLevel string, logFile string, testMode bool) error {
	level := logLevel
	if level == "" {
		level = strings.ToLower(os.Getenv("SPECTER_LOG_LEVEL"))
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		w = file
	}

	output = w
	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: logFile != "" && !testMode,
		TimeFormat:      "2006-01-02 15:04:05",
	})
	Logger.SetLevel(ParseLevel(level))

	if testMode {
		Logger.SetReportTimestamp(false)
	}

	return nil
}

// SetOutput redirects the global logger, mainly for tests.
func SetOutput(w io.Writer) {
	output = w
	Logger.SetOutput(w)
}

// ParseLevel converts a level name to a log level; unknown names map to warn.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.WarnLevel
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// Fatal logs a fatal message with optional key-value pairs and exits.
func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
}

// secretPattern matches the value after a password, pin or code keyword.
var secretPattern = regexp.MustCompile(`(?i)\b(password|passcode|pin|code)(\s*[:=]?\s+|\s*[:=]\s*)(\S+)`)

// Redact masks secret values in a user command so it can be logged,
// e.g. "open diary.txt password hunter2" becomes "open diary.txt password [redacted]".
func Redact(command string) string {
	return secretPattern.ReplaceAllString(command, "${1}${2}[redacted]")
}

// ModuleLoad records the outcome of constructing a capability module.
func ModuleLoad(slot string, err error) {
	if err != nil {
		Warn("Module unavailable", "component", slot, "error", err)
		return
	}
	Debug("Module loaded", "component", slot)
}

// NewStyledLogger creates a component logger with coloured level badges,
// e.g. NewStyledLogger("Router") or NewStyledLogger("Music").
func NewStyledLogger(prefix string) *log.Logger {
	styles := log.DefaultStyles()

	badge := func(label, bg string) lipgloss.Style {
		return lipgloss.NewStyle().
			SetString(label).
			Padding(0, 1, 0, 1).
			Background(lipgloss.Color(bg)).
			Foreground(lipgloss.Color("15"))
	}
	styles.Levels[log.DebugLevel] = badge("DEBUG", "240")
	styles.Levels[log.InfoLevel] = badge("INFO", "33")
	styles.Levels[log.WarnLevel] = badge("WARN", "214")
	styles.Levels[log.ErrorLevel] = badge("ERROR", "196")
	styles.Levels[log.FatalLevel] = badge("FATAL", "88")

	styles.Keys["slot"] = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	styles.Keys["command"] = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	styles.Keys["function"] = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	componentLogger := log.NewWithOptions(output, log.Options{
		Prefix: prefix + " ",
	})
	componentLogger.SetStyles(styles)
	componentLogger.SetLevel(Logger.GetLevel())

	return componentLogger
}
