package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
)

// setupLogging installs a tint handler on stderr, wrapped so attributes
// added with slogctx.With travel through the command context.
func setupLogging(cmd *cobra.Command) error {
	root := cmd.Root()
	levelStr, err := root.PersistentFlags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	level, err := parseLogLevel(levelStr)
	if err != nil {
		return err
	}
	quiet, err := root.PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if quiet && level < slog.LevelError {
		level = slog.LevelError
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		AddSource:  level <= slog.LevelDebug,
		NoColor:    !colorEnabled(cmd, os.Stderr),
	})
	logger := slog.New(slogctx.NewHandler(handler, nil))
	slog.SetDefault(logger)

	ctx := slogctx.NewCtx(cmd.Context(), logger)
	cmd.SetContext(ctx)
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, usageError{msg: fmt.Sprintf("invalid --log-level %q (expected debug|info|warn|error)", s)}
	}
	return level, nil
}
