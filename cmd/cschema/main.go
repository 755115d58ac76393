// Command cschema extracts language-neutral FFI schemas from C headers.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cschema/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "cschema",
	Short: "C header to FFI schema extractor",
	Long: `cschema parses C headers with libclang and writes a dependency-ordered
schema of their types and functions for binding generators.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepareRun,
}

// session holds the per-invocation cleanups registered by prepareRun.
var session runSession

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.String("ui", "auto", "progress UI (auto|on|off)")
	pf.String("log-level", "warn", "log level (debug|info|warn|error)")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to keep")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept by the trace ring")
	pf.Duration("trace-heartbeat", 0, "emit trace heartbeats at this interval (0 disables)")
	pf.String("cpuprofile", "", "write a CPU profile to file")
	pf.String("memprofile", "", "write a heap profile to file")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	session.finish(err)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// prepareRun wires logging, tracing and profiling for every subcommand.
func prepareRun(cmd *cobra.Command, _ []string) error {
	applyColor(cmd)
	if err := setupLogging(cmd); err != nil {
		return err
	}
	traceCleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	session.add(traceCleanup)
	profCleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	session.add(profCleanup)
	return nil
}

// exitCode is 2 for usage errors and 1 otherwise.
func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// runSession collects cleanups and runs them once, newest first.
type runSession struct {
	cleanups []func(failed bool)
}

func (s *runSession) add(fn func(failed bool)) {
	if fn != nil {
		s.cleanups = append(s.cleanups, fn)
	}
}

func (s *runSession) finish(err error) {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i](err != nil)
	}
	s.cleanups = nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
