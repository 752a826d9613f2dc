/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package flogging provides named, leveled loggers backed by zap.
// Output defaults to logfmt on stderr at info level until Init is called.
package flogging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatLogfmt  = "logfmt"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects the encoding, level and destination of every logger.
type Config struct {
	Format string
	Level  string
	Writer io.Writer
}

var (
	mutex sync.RWMutex
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base  = newBase(FormatLogfmt, os.Stderr)
)

// Init reconfigures the logging backend. Loggers obtained before Init
// pick up the new configuration on their next call.
func Init(c Config) error {
	format := c.Format
	if format == "" {
		format = FormatLogfmt
	}
	switch format {
	case FormatLogfmt, FormatJSON, FormatConsole:
	default:
		return errors.Errorf("invalid log format [%s]", c.Format)
	}

	lvl := zapcore.InfoLevel
	if c.Level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(c.Level))); err != nil {
			return errors.Wrapf(err, "invalid log level [%s]", c.Level)
		}
	}

	w := c.Writer
	if w == nil {
		w = os.Stderr
	}

	mutex.Lock()
	defer mutex.Unlock()
	level.SetLevel(lvl)
	base = newBase(format, w)

	return nil
}

func newBase(format string, w io.Writer) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.NameKey = "name"
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(cfg)
	case FormatConsole:
		enc = zapcore.NewConsoleEncoder(cfg)
	default:
		enc = zaplogfmt.NewEncoder(cfg)
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

// Logger is a named logger. The zero value is not usable; use MustGetLogger.
type Logger struct {
	name   string
	fields []interface{}

	mutex   sync.Mutex
	base    *zap.Logger
	sugared *zap.SugaredLogger
}

// MustGetLogger returns a logger with the given name. It panics on an empty name.
func MustGetLogger(name string) *Logger {
	if name == "" {
		panic("logger name must not be empty")
	}
	return &Logger{name: name}
}

// With returns a child logger that adds the given key-value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	fields = append(fields, keysAndValues...)
	return &Logger{name: l.name, fields: fields}
}

// IsEnabledFor reports whether entries at lvl are currently emitted.
func (l *Logger) IsEnabledFor(lvl zapcore.Level) bool {
	return level.Enabled(lvl)
}

// sugar returns the sugared logger bound to the current backend. It is
// rebuilt only after Init replaces the backend.
func (l *Logger) sugar() *zap.SugaredLogger {
	mutex.RLock()
	b := base
	mutex.RUnlock()

	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.base != b {
		l.base = b
		l.sugared = b.Named(l.name).Sugar().With(l.fields...)
	}
	return l.sugared
}

func (l *Logger) Debugf(template string, args ...interface{}) {
	if level.Enabled(zapcore.DebugLevel) {
		l.sugar().Debugf(template, args...)
	}
}

func (l *Logger) Infof(template string, args ...interface{}) {
	if level.Enabled(zapcore.InfoLevel) {
		l.sugar().Infof(template, args...)
	}
}

func (l *Logger) Warnf(template string, args ...interface{}) {
	if level.Enabled(zapcore.WarnLevel) {
		l.sugar().Warnf(template, args...)
	}
}

func (l *Logger) Errorf(template string, args ...interface{}) {
	if level.Enabled(zapcore.ErrorLevel) {
		l.sugar().Errorf(template, args...)
	}
}

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	if level.Enabled(zapcore.DebugLevel) {
		l.sugar().Debugw(msg, keysAndValues...)
	}
}

func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	if level.Enabled(zapcore.InfoLevel) {
		l.sugar().Infow(msg, keysAndValues...)
	}
}
