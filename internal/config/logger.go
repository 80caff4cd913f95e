package config

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func validateLogConfig(cfg LogConfig) error {
	if _, err := zapcore.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	switch cfg.Format {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}
	return nil
}

// NewLogger builds the process logger writing to stderr.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	return NewLoggerTo(cfg, os.Stderr)
}

func NewLoggerTo(cfg LogConfig, w io.Writer) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = LogFormatConsole
	}
	if err := validateLogConfig(cfg); err != nil {
		return nil, err
	}
	level, _ := zapcore.ParseLevel(cfg.Level)

	var encoder zapcore.Encoder
	if cfg.Format == LogFormatJSON {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encoder = zapcore.NewConsoleEncoder(ec)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}
