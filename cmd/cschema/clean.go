package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cschema/internal/driver"
	"cschema/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the extraction cache",
	Long: `Remove every cached extraction. With --output the output directory named
by cschema.toml is removed as well.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().Bool("output", false, "also remove the manifest's output directory")
}

func runClean(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cache, err := driver.OpenDiskCache("cschema")
	if err != nil {
		return err
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintf(out, "cleared cache %s\n", cache.Dir())

	withOutput, _ := cmd.Flags().GetBool("output")
	if !withOutput {
		return nil
	}
	m, ok, err := project.Load(".")
	if err != nil {
		return err
	}
	if !ok {
		return usageError{msg: "--output needs a " + project.ManifestName}
	}
	dir := m.Extract.Output
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "output directory not found\n")
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %q: %w", dir, err)
	}
	fmt.Fprintf(out, "removed %s\n", formatPathForOutput(m.Root, dir))
	return nil
}
