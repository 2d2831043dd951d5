package fxyt

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// LogLevel represents the severity of a log message (higher value =
// higher severity).
type LogLevel int

const (
	LevelTrace  LogLevel = iota // Detailed tracing (requires debug + category)
	LevelInfo                   // Informational messages (requires debug + category)
	LevelDebug                  // Development debugging (requires debug + category)
	LevelNotice                 // Notable events (always shown)
	LevelWarn                   // Warnings (always shown)
	LevelError                  // Runtime errors (always shown)
	LevelFatal                  // Parse errors (always shown)
)

// LogCategory represents the subsystem generating the message.
type LogCategory string

const (
	CatNone   LogCategory = ""       // Uncategorized
	CatParse  LogCategory = "parse"  // Parser errors
	CatEval   LogCategory = "eval"   // Per-pixel evaluation
	CatRender LogCategory = "render" // Frame rendering
	CatDebug  LogCategory = "debug"  // W command diagnostics
)

// ANSI color codes for terminal output
const (
	colorYellow = "\x1b[93m" // Bright yellow foreground
	colorReset  = "\x1b[0m"  // Reset to default
)

// Logger handles logging for the interpreter. The W command's
// diagnostic channel is this logger's CatDebug category, which is
// always shown at notice level.
type Logger struct {
	enabled           bool
	enabledCategories map[LogCategory]bool
	out               io.Writer
	errOut            io.Writer
	// colorEnabled is true if terminal colors should be used for stderr output
	colorEnabled bool
}

// stderrSupportsColor checks if stderr is a terminal that supports color output
func stderrSupportsColor() bool {
	// Check if stderr is a terminal (not redirected/piped)
	stderrInfo, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	// ModeCharDevice indicates a terminal
	if (stderrInfo.Mode() & os.ModeCharDevice) == 0 {
		return false
	}

	// Respect NO_COLOR environment variable (https://no-color.org/)
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}

	// Check TERM isn't "dumb" (which doesn't support colors)
	if term := os.Getenv("TERM"); term == "dumb" {
		return false
	}

	return true
}

// NewLogger creates a new logger
func NewLogger(enabled bool) *Logger {
	return &Logger{
		enabled:           enabled,
		enabledCategories: make(map[LogCategory]bool),
		out:               os.Stdout,
		errOut:            os.Stderr,
		colorEnabled:      stderrSupportsColor(),
	}
}

// SetOutput redirects low-severity output. Tests use this to capture
// the W command's diagnostics.
func (l *Logger) SetOutput(out io.Writer) {
	l.out = out
}

// SetErrorOutput redirects high-severity output.
func (l *Logger) SetErrorOutput(errOut io.Writer) {
	l.errOut = errOut
	l.colorEnabled = false
}

// SetEnabled enables or disables debug logging
func (l *Logger) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// EnableCategory enables debug logging for a specific category
func (l *Logger) EnableCategory(cat LogCategory) {
	l.enabledCategories[cat] = true
}

// DisableCategory disables debug logging for a specific category
func (l *Logger) DisableCategory(cat LogCategory) {
	delete(l.enabledCategories, cat)
}

// EnableAllCategories enables all categories for debug logging
func (l *Logger) EnableAllCategories() {
	for _, cat := range []LogCategory{CatParse, CatEval, CatRender, CatDebug} {
		l.enabledCategories[cat] = true
	}
}

// shouldLog determines if a message should be logged based on level and category
func (l *Logger) shouldLog(level LogLevel, cat LogCategory) bool {
	switch level {
	case LevelFatal, LevelError, LevelWarn, LevelNotice:
		return true // Always shown
	case LevelDebug, LevelInfo, LevelTrace:
		return l.enabled && (cat == CatNone || l.enabledCategories[cat])
	default:
		return false
	}
}

// Log is the unified logging method
func (l *Logger) Log(level LogLevel, cat LogCategory, message string) {
	if !l.shouldLog(level, cat) {
		return
	}

	var prefix string
	catSuffix := ""
	if cat != CatNone {
		catSuffix = fmt.Sprintf(":%s", cat)
	}

	switch level {
	case LevelTrace:
		prefix = fmt.Sprintf("[TRACE%s]", catSuffix)
	case LevelInfo:
		prefix = fmt.Sprintf("[INFO%s]", catSuffix)
	case LevelDebug:
		prefix = fmt.Sprintf("[DEBUG%s]", catSuffix)
	case LevelNotice:
		prefix = fmt.Sprintf("[FXYT%s NOTICE]", catSuffix)
	case LevelWarn:
		prefix = fmt.Sprintf("[FXYT%s WARN]", catSuffix)
	case LevelError, LevelFatal:
		prefix = fmt.Sprintf("[FXYT%s ERROR]", catSuffix)
	}

	output := fmt.Sprintf("%s %s", prefix, message)

	// Trace, Info, Debug and Notice go to stdout; Warn, Error, Fatal
	// go to stderr with color when the terminal supports it.
	switch level {
	case LevelWarn, LevelError, LevelFatal:
		if l.colorEnabled {
			_, _ = fmt.Fprintf(l.errOut, "%s%s%s\n", colorYellow, output, colorReset)
		} else {
			_, _ = fmt.Fprintln(l.errOut, output)
		}
	default:
		_, _ = fmt.Fprintln(l.out, output)
	}
}

// Convenience methods that route through Log
// Ordered by severity: Fatal, Error, Warn, Notice, Debug, Info, Trace

// Fatal logs a fatal error message
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Log(LevelFatal, CatNone, fmt.Sprintf(format, args...))
}

// FatalCat logs a categorized fatal error message
func (l *Logger) FatalCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelFatal, cat, fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LevelError, CatNone, fmt.Sprintf(format, args...))
}

// ErrorCat logs a categorized error message
func (l *Logger) ErrorCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelError, cat, fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Log(LevelWarn, CatNone, fmt.Sprintf(format, args...))
}

// Notice logs a notable event - always shown, less severe than warning
func (l *Logger) Notice(format string, args ...interface{}) {
	l.Log(LevelNotice, CatNone, fmt.Sprintf(format, args...))
}

// NoticeCat logs a categorized notice message
func (l *Logger) NoticeCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelNotice, cat, fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(LevelDebug, CatNone, fmt.Sprintf(format, args...))
}

// DebugCat logs a categorized debug message
func (l *Logger) DebugCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelDebug, cat, fmt.Sprintf(format, args...))
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LevelInfo, CatNone, fmt.Sprintf(format, args...))
}

// Trace logs a detailed trace message
func (l *Logger) Trace(format string, args ...interface{}) {
	l.Log(LevelTrace, CatNone, fmt.Sprintf(format, args...))
}

// TraceCat logs a categorized trace message
func (l *Logger) TraceCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelTrace, cat, fmt.Sprintf(format, args...))
}

// ParseErrorLog logs a parse error (always visible)
func (l *Logger) ParseErrorLog(err *ParseError, source string) {
	message := fmt.Sprintf("Parse error: %v", err.Err)
	message += fmt.Sprintf("\n  at position %d", err.Pos)
	if source != "" {
		message += l.formatSourceContext(err.Pos, source)
	}
	l.Log(LevelFatal, CatParse, message)
}

// formatSourceContext points a caret at the failing character.
func (l *Logger) formatSourceContext(pos int, source string) string {
	if pos < 0 || pos > len(source) {
		return ""
	}
	return fmt.Sprintf("\n\n  | %s\n  | %s^", source, strings.Repeat(" ", pos))
}
