// Package config loads layered arcade configuration: the embedded CUE
// schema supplies defaults and constraints, an optional CUE file refines
// it, and ARCADE_* environment variables overlay the result. CLI flags are
// applied last by the caller, followed by Validate.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "ARCADE_"

// ErrInvalid is wrapped by every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved configuration.
type Config struct {
	StarMatch StarMatch `json:"starmatch" envPrefix:"STARMATCH_"`
	Log       Log       `json:"log" envPrefix:"LOG_"`
	Trace     Trace     `json:"trace" envPrefix:"TRACE_"`
	HTTP      HTTP      `json:"http" envPrefix:"HTTP_"`
}

// StarMatch configures every Star Match session.
type StarMatch struct {
	Seconds int    `json:"seconds" env:"SECONDS"`
	Tick    string `json:"tick" env:"TICK"`
}

// TickDuration returns the parsed tick interval. Only meaningful on a
// validated Config.
func (s StarMatch) TickDuration() time.Duration {
	d, _ := time.ParseDuration(s.Tick)
	return d
}

// Log configures the slog handler.
type Log struct {
	Level  string `json:"level" env:"LEVEL"`
	Format string `json:"format" env:"FORMAT"`
}

// SlogLevel maps Level to a slog.Level. Unknown levels map to Info.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Trace configures the SQLite trace log.
type Trace struct {
	DB string `json:"db" env:"DB"`
}

// HTTP configures the serve command.
type HTTP struct {
	Addr string `json:"addr" env:"ADDR"`
}

// Options controls Load.
type Options struct {
	// File is an optional CUE file unified with the schema.
	File string
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := Load(Options{Environ: map[string]string{}})
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load resolves configuration from the schema, opts.File and the
// environment, in that order.
func Load(opts Options) (Config, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return Config{}, err
	}

	v := schema
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		user := ctx.CompileBytes(data, cue.Filename(opts.File))
		if err := user.Err(); err != nil {
			return Config{}, invalid(opts.File, err)
		}
		v = schema.Unify(user)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, invalid(opts.File, err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, invalid(opts.File, err)
	}

	envOpts := env.Options{Prefix: EnvPrefix, Environment: opts.Environ}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return Config{}, fmt.Errorf("%w: environment: %v", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the schema again. Call it after applying
// flag overrides.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}
	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return invalid("", err)
	}
	d, err := time.ParseDuration(c.StarMatch.Tick)
	if err != nil {
		return fmt.Errorf("%w: starmatch.tick: %v", ErrInvalid, err)
	}
	if d <= 0 {
		return fmt.Errorf("%w: starmatch.tick must be positive, got %s", ErrInvalid, c.StarMatch.Tick)
	}
	return nil
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	root := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile schema: %w", err)
	}
	def := root.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("lookup #Config: %w", err)
	}
	return def, nil
}

func invalid(source string, err error) error {
	details := strings.TrimSpace(cueerrors.Details(err, nil))
	if source != "" {
		return fmt.Errorf("%w: %s: %s", ErrInvalid, source, details)
	}
	return fmt.Errorf("%w: %s", ErrInvalid, details)
}
