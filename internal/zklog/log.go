// Package zklog wraps zerolog so call sites log leveled key/value events
// (Info().Str("k", v).Msg("msg")) through an ecosystem structured-logging
// library rather than a hand-rolled one. The bootloader is the only
// package that logs through it.
package zklog

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the handle passed to the Bootloader. New and Default build a
// console logger; Nop builds one that discards every event. The proving-mode
// oracle carries no logger of its own.
type Logger struct {
	zl zerolog.Logger
}

// New builds a forward-mode logger writing human-readable lines to w.
func New(w io.Writer, level zerolog.Level) Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	zl := zerolog.New(cw).Level(level).With().Timestamp().Logger()
	return Logger{zl: zl}
}

// Default returns a forward-mode logger writing to stderr at Info level.
func Default() Logger { return New(os.Stderr, zerolog.InfoLevel) }

// Nop returns a logger that discards everything, for proving mode.
func Nop() Logger { return Logger{zl: zerolog.Nop()} }

func (l Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l Logger) Error() *zerolog.Event { return l.zl.Error() }

type loggerKey struct{}

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Ctx retrieves the logger attached to ctx, or the Nop logger if none.
func Ctx(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Nop()
}
