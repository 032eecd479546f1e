// Package logger holds the process-wide zerolog logger.
//
// Call Init once from main; everything else takes a zerolog.Logger as a
// dependency or asks for a Component child.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures Init.
type Options struct {
	// Level is trace, debug, info, warn or error. Anything else means info.
	Level string
	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service, when set, is stamped on every entry.
	Service string
}

var (
	mu   sync.Mutex
	root *zerolog.Logger
)

// Init builds the root logger. Later calls return the existing one unchanged.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		return *root
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if opts.Output != nil {
		out = opts.Output
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	level := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(level)

	builder := zerolog.New(out).Level(level).With().Timestamp().Caller()
	if opts.Service != "" {
		builder = builder.Str("service", opts.Service)
	}
	l := builder.Logger()
	root = &l
	return l
}

// Get returns the root logger and panics when Init was never called.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		panic("logger: Get called before Init")
	}
	return *root
}

// Component returns a child of the root logger carrying a "component" field.
func Component(name string) zerolog.Logger {
	return WithComponent(Get(), name)
}

// WithComponent tags l with a "component" field.
func WithComponent(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Reset drops the root logger. Tests only.
func Reset() {
	mu.Lock()
	root = nil
	mu.Unlock()
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || level > zerolog.ErrorLevel {
		return zerolog.InfoLevel
	}
	return level
}
