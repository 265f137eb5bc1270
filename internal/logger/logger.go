// Package logger собирает корневой zap.Logger сервиса.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config содержит настройки логгера.
type Config struct {
	Level      string // debug, info, warn, error
	Encoding   string // json или console
	OutputPath string // Пусто - stdout
	// Service добавляется полем "service" в каждую запись
	Service string
	// Development включает caller и стектрейсы для ошибок
	Development bool
	// SampleThereafter > 0 включает сэмплирование: после первых 100 одинаковых записей
	// за секунду пишется каждая N-я.
	SampleThereafter int
}

const sampleInitial = 100

// New создает zap.Logger. Некорректный уровень не ошибка: используется info.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		// Логгера еще нет, пишем в stderr
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', using 'info': %v\n", cfg.Level, err)
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = "stdout"
	}

	zapConfig := zap.Config{
		Level:             level,
		Development:       cfg.Development,
		DisableCaller:     !cfg.Development,
		DisableStacktrace: !cfg.Development,
		Encoding:          encodingOrJSON(cfg.Encoding),
		EncoderConfig:     encoderConfig(),
		OutputPaths:       []string{outputPath},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if cfg.SampleThereafter > 0 {
		zapConfig.Sampling = &zap.SamplingConfig{Initial: sampleInitial, Thereafter: cfg.SampleThereafter}
	}
	if cfg.Service != "" {
		zapConfig.InitialFields = map[string]any{"service": cfg.Service}
	}

	log, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

func parseLevel(raw string) (zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	lvl := strings.ToLower(strings.TrimSpace(raw))
	if lvl == "" {
		return level, nil
	}
	if err := level.UnmarshalText([]byte(lvl)); err != nil {
		level.SetLevel(zap.InfoLevel)
		return level, err
	}
	return level, nil
}

func encodingOrJSON(raw string) string {
	if strings.ToLower(raw) == "console" {
		return "console"
	}
	return "json"
}

// encoderConfig - формат записей: timestamp в ISO8601 и уровни заглавными (INFO, WARN).
func encoderConfig() zapcore.EncoderConfig {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return encoderCfg
}
