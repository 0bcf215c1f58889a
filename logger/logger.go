package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// AppLogger writes JSON lines to the application log file.
	AppLogger zerolog.Logger
	// ConsoleLogger writes WARN and above to stderr in human-readable form.
	ConsoleLogger zerolog.Logger

	mu          sync.RWMutex
	logLevel    string
	logPath     string
	appLogFile  *os.File
	initialized bool
)

func init() {
	AppLogger = zerolog.Nop()
	ConsoleLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR (any case) onto zerolog levels. Unknown values map to INFO.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// InitGlobalLoggers opens (or reopens) the app log file and sets the global level.
// If the file cannot be opened, app logs are discarded and a message goes to stderr.
func InitGlobalLoggers(appLogPath, level string) error {
	mu.Lock()
	defer mu.Unlock()

	upper := strings.ToUpper(level)
	if upper == "" {
		upper = "INFO"
	}
	if initialized && appLogFile != nil && upper == logLevel && appLogPath == logPath {
		return nil
	}
	if appLogFile != nil {
		appLogFile.Close()
		appLogFile = nil
	}
	logLevel = upper
	logPath = appLogPath
	zerolog.TimeFieldFormat = time.RFC3339

	actualAppLogPath := appLogPath
	var appLogWriter io.Writer = io.Discard
	if appLogPath == "" {
		actualAppLogPath = "(discarded)"
	} else if err := os.MkdirAll(filepath.Dir(appLogPath), 0750); err != nil {
		ConsoleLogger.Error().Msgf("Failed to create app log directory %s: %v. App logs will be discarded.", filepath.Dir(appLogPath), err)
		actualAppLogPath = "(discarded)"
	} else {
		f, errApp := os.OpenFile(appLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if errApp != nil {
			ConsoleLogger.Error().Msgf("Failed to open app log file %s: %v. App logs will be discarded.", appLogPath, errApp)
			actualAppLogPath = "(discarded)"
		} else {
			appLogFile = f
			appLogWriter = f
		}
	}

	AppLogger = zerolog.New(appLogWriter).Level(ParseLevel(logLevel)).With().Timestamp().Logger()

	if !initialized {
		AppLogger.Info().Msgf("App logger initialized. Log level: %s. Output file: %s", logLevel, actualAppLogPath)
	}
	initialized = true
	return nil
}

// SetOutput points the app logger at w. Used by tests and by the server when running in the foreground.
func SetOutput(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	logLevel = strings.ToUpper(level)
	AppLogger = zerolog.New(w).Level(ParseLevel(logLevel)).With().Timestamp().Logger()
	initialized = true
}

func Info(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	AppLogger.Info().Msgf(format, v...)
}

func Debug(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	AppLogger.Debug().Msgf(format, v...)
}

func Warn(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	AppLogger.Warn().Msgf(format, v...)
	ConsoleLogger.Warn().Msgf(format, v...)
}

func Error(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	mu.RLock()
	defer mu.RUnlock()
	ConsoleLogger.Error().Msg(message)
	AppLogger.Error().Msg(message)
}

func Fatal(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	AppLogger.Error().Msg(message)
	ConsoleLogger.Fatal().Msg(message)
}

func CloseLogFiles() {
	mu.Lock()
	defer mu.Unlock()
	if appLogFile != nil {
		AppLogger.Info().Msg("Closing app log file.")
		appLogFile.Close()
		appLogFile = nil
	}
	AppLogger = zerolog.Nop()
	initialized = false
}
