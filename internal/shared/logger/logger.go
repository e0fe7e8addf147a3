package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zap.Logger to provide structured logging
type Logger struct {
	*zap.Logger
}

// New creates a new logger instance based on the environment.
// When logDir is empty, file output is disabled.
func New(environment, logDir string) *Logger {
	var cores []zapcore.Core

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			os.Stderr.WriteString("Failed to create log directory: " + err.Error() + "\n")
			os.Exit(1)
		}

		// JSON files without colors, routed by level
		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		fileEncoder := zapcore.NewJSONEncoder(fileEncoderConfig)

		cores = append(cores,
			zapcore.NewCore(fileEncoder, rotatingWriter(logDir, "info.log"), zapcore.InfoLevel),
			zapcore.NewCore(fileEncoder, rotatingWriter(logDir, "warn.log"), zapcore.WarnLevel),
			zapcore.NewCore(fileEncoder, rotatingWriter(logDir, "error.log"), zapcore.ErrorLevel),
		)
	}

	if environment == "production" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			zapcore.InfoLevel,
		))
	} else {
		consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
		consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig),
			zapcore.AddSync(os.Stdout),
			zapcore.DebugLevel,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{
		Logger: logger,
	}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// rotatingWriter configures lumberjack for log rotation
func rotatingWriter(dir, name string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    100, // megabytes
		MaxBackups: 30,
		MaxAge:     30, // days
		Compress:   true,
	})
}

// Named returns a named logger
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		Logger: l.Logger.Named(name),
	}
}

// With creates a child logger with the given fields
func (l *Logger) With(fields ...zapcore.Field) *Logger {
	return &Logger{
		Logger: l.Logger.With(fields...),
	}
}
