package middleware

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	appLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// InitLogger initializes the file-based logging system
// Logs are written to stdout and to logs/app-YYYY-MM-DD.log with rotation
func InitLogger(logDir string, debug bool) error {
	// Get absolute path for log directory
	absLogDir, err := filepath.Abs(logDir)
	if err != nil {
		absLogDir = logDir
	}

	// Create logs directory if not exists
	if err := os.MkdirAll(absLogDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", absLogDir, err)
	}

	currentDate := time.Now().Format("2006-01-02")

	appLogFile := &lumberjack.Logger{
		Filename:   filepath.Join(absLogDir, fmt.Sprintf("app-%s.log", currentDate)),
		MaxSize:    10, // 10 MB
		MaxBackups: 30, // Keep 30 old files
		MaxAge:     30, // 30 days
		Compress:   true,
		LocalTime:  true,
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	SetLogOutput(io.MultiWriter(os.Stdout, appLogFile), level)

	appLogger.Info().Str("dir", absLogDir).Str("file", fmt.Sprintf("app-%s.log", currentDate)).Msg("logger initialized")

	return nil
}

// SetLogOutput replaces the destination and level of the application logger.
// The standard library logger is routed through it as well.
func SetLogOutput(w io.Writer, level zerolog.Level) {
	appLogger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	log.SetFlags(0)
	log.SetOutput(appLogger)
}

// Logger returns the application logger for structured fields
func Logger() *zerolog.Logger {
	return &appLogger
}

// LogInfo logs info level messages
func LogInfo(format string, v ...interface{}) {
	appLogger.Info().Msgf(format, v...)
}

// LogError logs error level messages
func LogError(format string, v ...interface{}) {
	appLogger.Error().Msgf(format, v...)
}

// LogDebug logs debug level messages
func LogDebug(format string, v ...interface{}) {
	appLogger.Debug().Msgf(format, v...)
}

// RequestLoggerMiddleware logs all incoming requests with status and latency.
// Errors attached to the context with c.Error are included.
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		// Build full URL
		fullURL := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			fullURL = fullURL + "?" + c.Request.URL.RawQuery
		}

		// Process request
		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		event := appLogger.Info()
		if statusCode >= 400 {
			event = appLogger.Error()
		}
		event = event.
			Str("method", c.Request.Method).
			Str("url", fullURL).
			Int("status", statusCode).
			Dur("latency", latency)
		if user := GetUser(c); user != nil {
			event = event.Uint("user_id", user.ID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("request")
	}
}
