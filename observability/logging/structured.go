// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package logging

import (
	"context"
	"io"
	"math/rand"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StructuredLogger is a zap-backed structured logger implementation.
type StructuredLogger struct {
	level        Level
	samplingRate float64
	zl           *zap.Logger
	mu           sync.Mutex
}

func newCore(output io.Writer) zapcore.Core {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(output), zapcore.DebugLevel)
}

// NewStructuredLogger creates a new structured logger.
func NewStructuredLogger(level Level) *StructuredLogger {
	return NewStructuredLoggerWithOutput(level, os.Stdout)
}

// NewStructuredLoggerWithOutput creates a logger with custom output.
func NewStructuredLoggerWithOutput(level Level, output io.Writer) *StructuredLogger {
	return &StructuredLogger{
		level:        level,
		samplingRate: 1.0, // No sampling by default
		zl:           zap.New(newCore(output)),
	}
}

// Debug logs a debug message.
func (l *StructuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	if !l.shouldLog(LevelDebug) {
		return
	}

	l.mu.Lock()
	rate := l.samplingRate
	l.mu.Unlock()

	// Apply sampling for debug logs.
	if rate < 1.0 && rand.Float64() > rate {
		return
	}

	l.zl.Debug(msg, toZapFields(ctx, fields)...)
}

// Info logs an informational message.
func (l *StructuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	if !l.shouldLog(LevelInfo) {
		return
	}
	l.zl.Info(msg, toZapFields(ctx, fields)...)
}

// Warn logs a warning message.
func (l *StructuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	if !l.shouldLog(LevelWarn) {
		return
	}
	l.zl.Warn(msg, toZapFields(ctx, fields)...)
}

// Error logs an error message.
func (l *StructuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	if !l.shouldLog(LevelError) {
		return
	}
	l.zl.Error(msg, toZapFields(ctx, fields)...)
}

// Fatal logs a fatal message and exits. Bypasses level filtering, matching
// the unconditional exit a Fatal call implies.
func (l *StructuredLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.zl.Fatal(msg, toZapFields(ctx, fields)...)
}

// With creates a child logger with persistent fields.
func (l *StructuredLogger) With(fields ...Field) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	return &StructuredLogger{
		level:        l.level,
		samplingRate: l.samplingRate,
		zl:           l.zl.With(toZapFieldsNoContext(fields)...),
	}
}

// SetLevel sets the minimum log level.
func (l *StructuredLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetSamplingRate sets the sampling rate for debug logs.
func (l *StructuredLogger) SetSamplingRate(rate float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rate < 0.0 {
		rate = 0.0
	}
	if rate > 1.0 {
		rate = 1.0
	}

	l.samplingRate = rate
}

// shouldLog checks if a message should be logged based on level.
func (l *StructuredLogger) shouldLog(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return levelPriority(level) >= levelPriority(l.level)
}

func toZapFieldsNoContext(fields []Field) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zf = append(zf, zap.Any(f.Key, f.Value))
	}
	return zf
}

func toZapFields(ctx context.Context, fields []Field) []zap.Field {
	contextFields := extractContextFields(ctx)
	zf := make([]zap.Field, 0, len(contextFields)+len(fields))
	for _, f := range contextFields {
		zf = append(zf, zap.Any(f.Key, f.Value))
	}
	for _, f := range fields {
		zf = append(zf, zap.Any(f.Key, f.Value))
	}
	return zf
}
