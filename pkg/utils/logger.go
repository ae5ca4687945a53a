package utils

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string // debug, info, warn, error
	OutputPath string // stdout, stderr, or file path
	Format     string // json or console
	Service    string // optional name attached to every entry
}

// NewLogger creates a new structured logger. When OutputPath is a file the
// entries are also mirrored to stderr at warn level and above.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoder := newEncoder(cfg.Format)

	var core zapcore.Core
	switch cfg.OutputPath {
	case "stdout", "":
		core = zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	case "stderr":
		core = zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	default:
		file, err := openLogFile(cfg.OutputPath)
		if err != nil {
			return nil, err
		}
		core = zapcore.NewTee(
			zapcore.NewCore(encoder, zapcore.AddSync(file), level),
			zapcore.NewCore(newEncoder("console"), zapcore.Lock(os.Stderr), zapcore.WarnLevel),
		)
	}

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if cfg.Service != "" {
		logger = logger.With(zap.String("service", cfg.Service))
	}
	return logger, nil
}

// NewCLILogger returns a console logger for the one-shot commands: debug
// output when verbose, errors only otherwise.
func NewCLILogger(verbose bool) (*zap.Logger, error) {
	level := "error"
	if verbose {
		level = "debug"
	}
	return NewLogger(LoggerConfig{Level: level, OutputPath: "stderr", Format: "console"})
}

func newEncoder(format string) zapcore.Encoder {
	var encoderConfig zapcore.EncoderConfig
	if format == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}
