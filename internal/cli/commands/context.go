// Package commands implements the framecheck subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/framecheck-labs/framecheck/internal/cli/config"
	"github.com/framecheck-labs/framecheck/internal/cli/output"
)

type configKey struct{}
type rendererKey struct{}
type loggerKey struct{}

// WithConfig stores the resolved config in ctx.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config, falling back to defaults when the root
// command did not run (tests invoking a subcommand directly).
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Contract: config.DefaultContractPath,
		Output:   config.DefaultOutput,
	}
}

// WithRenderer stores the renderer in ctx.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// GetRenderer retrieves the renderer from ctx.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// WithLogger stores the logger in ctx.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// GetLogger retrieves the logger from ctx.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
