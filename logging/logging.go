// Package logging wraps zerolog for operator diagnostics. Log lines
// go to stderr so they never mix with the report on stdout.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level      string
	Format     string
	Writer     io.Writer
	WithCaller bool
}

type Logger = zerolog.Logger

var (
	root atomic.Pointer[zerolog.Logger]
)

// Get returns the process wide logger, initializing it with
// defaults if needed.
func Get() *Logger {
	l := root.Load()
	if l == nil {
		Init(Options{})
		l = root.Load()
	}
	return l
}

// Init builds the root logger. It may be called again to
// reconfigure, e.g. after the config file was loaded.
func Init(opt Options) {
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}

	if opt.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	log := zerolog.New(w).Level(ParseLevel(opt.Level)).
		With().Timestamp().Logger()
	if opt.WithCaller {
		log = log.With().Caller().Logger()
	}

	root.Store(&log)
}

// ParseLevel maps level names to zerolog levels. Unknown names mean
// info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Named returns a child logger with a component field.
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}

type ctxKey struct{ name string }

var (
	keyScanID = ctxKey{"scan_id"}
	keyVolume = ctxKey{"volume"}
)

// WithScan annotates ctx with the fields of one volume scan.
func WithScan(ctx context.Context, scan_id, volume string) context.Context {
	if scan_id != "" {
		ctx = context.WithValue(ctx, keyScanID, scan_id)
	}
	if volume != "" {
		ctx = context.WithValue(ctx, keyVolume, volume)
	}
	return ctx
}

// C returns a child logger enriched from ctx.
func C(ctx context.Context) *Logger {
	builder := Get().With()
	if v, ok := ctx.Value(keyScanID).(string); ok && v != "" {
		builder = builder.Str("scan_id", v)
	}
	if v, ok := ctx.Value(keyVolume).(string); ok && v != "" {
		builder = builder.Str("volume", v)
	}
	ll := builder.Logger()
	return &ll
}
