// Package util provides the leveled logger and traffic statistics shared by
// the client packages.
package util

import (
	"fmt"

	"github.com/pterm/pterm"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 15:04:05"
	pterm.DefaultLogger.MaxWidth = 1000
}

// Level is the severity the engine attaches to a status line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelSuccess // a completed protocol step
	LevelWarning
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug:   "debug",
	LevelInfo:    "info",
	LevelSuccess: "success",
	LevelWarning: "warning",
	LevelError:   "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// loggerLevel maps l onto pterm. pterm has no success level, so success is
// an info line carrying a status=ok argument.
func (l Level) loggerLevel() pterm.LogLevel {
	switch l {
	case LevelDebug:
		return pterm.LogLevelDebug
	case LevelWarning:
		return pterm.LogLevelWarn
	case LevelError:
		return pterm.LogLevelError
	default:
		return pterm.LogLevelInfo
	}
}

// Enabled reports whether lines at l are currently shown.
func Enabled(l Level) bool {
	return pterm.DefaultLogger.CanPrint(l.loggerLevel())
}

// Log writes text at l.
func Log(l Level, text string) {
	logger := pterm.DefaultLogger
	switch l {
	case LevelDebug:
		logger.Debug(text)
	case LevelSuccess:
		logger.Info(text, logger.Args("status", "ok"))
	case LevelWarning:
		logger.Warn(text)
	case LevelError:
		logger.Error(text)
	default:
		logger.Info(text)
	}
}

func LogDebug(format string, args ...interface{}) {
	Log(LevelDebug, fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...interface{}) {
	Log(LevelInfo, fmt.Sprintf(format, args...))
}

func LogSuccess(format string, args ...interface{}) {
	Log(LevelSuccess, fmt.Sprintf(format, args...))
}

func LogWarning(format string, args ...interface{}) {
	Log(LevelWarning, fmt.Sprintf(format, args...))
}

func LogError(format string, args ...interface{}) {
	Log(LevelError, fmt.Sprintf(format, args...))
}

// EnableDebug configures the logger to show debug messages.
func EnableDebug() {
	pterm.DefaultLogger.Level = pterm.LogLevelDebug
}

// DebugEnabled reports whether debug messages are shown.
func DebugEnabled() bool {
	return Enabled(LevelDebug)
}
