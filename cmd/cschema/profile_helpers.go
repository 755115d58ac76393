package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cschema/internal/prof"
)

// setupProfiling starts the profilers requested by the persistent flags.
// The returned cleanup stops them and writes the heap profile.
func setupProfiling(cmd *cobra.Command) (func(failed bool), error) {
	root := cmd.Root()

	cpuProfile, err := root.PersistentFlags().GetString("cpuprofile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	memProfile, err := root.PersistentFlags().GetString("memprofile")
	if err != nil {
		return nil, fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	tracePath, err := root.PersistentFlags().GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if cpuProfile == "" && memProfile == "" && tracePath == "" {
		return nil, nil
	}

	s, err := prof.Start(prof.Config{CPU: cpuProfile, Mem: memProfile, Trace: tracePath})
	if err != nil {
		return nil, err
	}
	return func(bool) {
		if err := s.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "profiling: %v\n", err)
		}
	}, nil
}
