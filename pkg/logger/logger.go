// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger owns the process-wide zap logger. LOGGING_LEVEL and
// LOGGING_FORMAT select its level and encoding; components log through named
// children obtained with For.
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/united-manufacturing-hub/twinstore/pkg/env"
)

type LogLevel string

type LogFormat string

const (
	DebugLevel LogLevel = "DEBUG"
	InfoLevel  LogLevel = "INFO"
	WarnLevel  LogLevel = "WARN"
	ErrorLevel LogLevel = "ERROR"
	// ProductionLevel is accepted as a synonym of InfoLevel.
	ProductionLevel LogLevel = "PRODUCTION"

	FormatConsole LogFormat = "CONSOLE"
	FormatJSON    LogFormat = "JSON"
	// FormatPretty prints one tab-separated line per entry, see PrettyConsoleEncoder.
	FormatPretty LogFormat = "PRETTY"
)

var levels = map[LogLevel]zapcore.Level{
	DebugLevel:      zapcore.DebugLevel,
	InfoLevel:       zapcore.InfoLevel,
	ProductionLevel: zapcore.InfoLevel,
	WarnLevel:       zapcore.WarnLevel,
	ErrorLevel:      zapcore.ErrorLevel,
}

var encoders = map[LogFormat]func(zapcore.EncoderConfig) zapcore.Encoder{
	FormatConsole: zapcore.NewConsoleEncoder,
	FormatJSON:    zapcore.NewJSONEncoder,
	FormatPretty:  NewPrettyConsoleEncoder,
}

var (
	setup  sync.Once
	global *zap.Logger
)

// getLogLevel maps a level name case-insensitively. Unknown names log at info.
func getLogLevel(level LogLevel) zapcore.Level {
	if l, known := levels[LogLevel(strings.ToUpper(string(level)))]; known {
		return l
	}

	return zapcore.InfoLevel
}

// getLogFormat reads LOGGING_FORMAT. Unknown formats fall back to defaultFormat.
func getLogFormat(defaultFormat LogFormat) LogFormat {
	raw, _ := env.GetAsString("LOGGING_FORMAT", false, string(defaultFormat))

	format := LogFormat(strings.ToUpper(raw))
	if _, known := encoders[format]; !known {
		return defaultFormat
	}

	return format
}

func encoderConfig(format LogFormat) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == FormatJSON {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder

		return cfg
	}

	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
	}
	cfg.ConsoleSeparator = " | "

	return cfg
}

// New builds a logger writing to stdout. Unknown formats encode as JSON.
func New(logLevel string, logFormat LogFormat) *zap.Logger {
	newEncoder, known := encoders[logFormat]
	if !known {
		newEncoder = zapcore.NewJSONEncoder
	}

	core := zapcore.NewCore(
		newEncoder(encoderConfig(logFormat)),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(getLogLevel(LogLevel(logLevel))),
	)

	return zap.New(core, zap.AddCaller())
}

// Initialize installs the global logger. Calls after the first are no-ops.
func Initialize() {
	setup.Do(func() {
		level, _ := env.GetAsString("LOGGING_LEVEL", false, string(ProductionLevel))
		format := getLogFormat(FormatPretty)

		global = New(level, format)
		zap.ReplaceGlobals(global)

		global.Info("Logger initialized", zap.String("level", level), zap.String("format", string(format)))
	})
}

func GetSugaredLogger() *zap.SugaredLogger {
	Initialize()

	return global.Sugar()
}

// Sync flushes buffered entries of the global logger.
func Sync() error {
	return zap.L().Sync()
}

// For returns the global logger named after component, see components.go.
func For(component string) *zap.SugaredLogger {
	return GetSugaredLogger().Named(component)
}
