package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger. A zero Level means debug, so
// callers normally pass ParseLevel output.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	Format      string
	WarnStack   bool
	Output      io.Writer
}

// Logger writes one JSON object per entry. Request scoped fields ride on the
// context so handlers never pass a logger instance around by hand.
type Logger struct {
	root      zerolog.Logger
	warnStack bool
}

type scopedKey struct{}

func New(opts Options) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, FormatConsole) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	root := zerolog.New(out).
		Level(opts.Level).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()

	return &Logger{root: root, warnStack: opts.WarnStack}
}

// ParseLevel maps a config string to a level. Blank or unknown input is info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) scoped(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if scoped, ok := ctx.Value(scopedKey{}).(zerolog.Logger); ok {
			return scoped
		}
	}
	return l.root
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.WithFields(ctx, map[string]any{key: value})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	scoped := l.scoped(ctx).With().Fields(fields).Logger()
	return context.WithValue(ctx, scopedKey{}, scoped)
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

// WithCartID tags entries with the anonymous cart slot being served.
func (l *Logger) WithCartID(ctx context.Context, cartID string) context.Context {
	return l.WithField(ctx, "cart_id", cartID)
}

// WithActor tags entries with the authenticated session subject.
func (l *Logger) WithActor(ctx context.Context, subject string) context.Context {
	return l.WithField(ctx, "actor", subject)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	scoped := l.scoped(ctx)
	scoped.Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	scoped := l.scoped(ctx)
	scoped.Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	scoped := l.scoped(ctx)
	event := scoped.Warn()
	if l.warnStack {
		event = event.Str("stack", captureStack())
	}
	event.Msg(msg)
}

// Error always carries a stack; err may be nil for failures without a cause.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	scoped := l.scoped(ctx)
	event := scoped.Error().Str("stack", captureStack())
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}

func captureStack() string {
	return strings.TrimSpace(string(debug.Stack()))
}
