package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"cschema/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a cschema.toml manifest",
	Long: `Initialize a cschema project by writing a cschema.toml manifest listing the
headers found in [path] (default: the current directory). Directories that do
not exist are created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 && args[0] != "" {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}

	headers, err := findHeaders(target)
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		headers = []string{"include/*.h"}
	}
	if err := os.WriteFile(manifestPath, []byte(project.Template(headers)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized cschema project in %s\n", displayPath(target))
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	for _, h := range headers {
		fmt.Fprintf(out, "    header %s\n", h)
	}
	return nil
}

// findHeaders lists the .h files directly in dir and in dir/include,
// relative to dir.
func findHeaders(dir string) ([]string, error) {
	var out []string
	for _, sub := range []string{".", "include"} {
		matches, err := filepath.Glob(filepath.Join(dir, sub, "*.h"))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			rel, err := filepath.Rel(dir, m)
			if err != nil {
				return nil, err
			}
			out = append(out, filepath.ToSlash(rel))
		}
	}
	sort.Strings(out)
	return out, nil
}
