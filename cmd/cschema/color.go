package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// colorEnabled resolves --color for output written to f.
func colorEnabled(cmd *cobra.Command, f *os.File) bool {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	switch value {
	case "on":
		return true
	case "off":
		return false
	default:
		return os.Getenv("NO_COLOR") == "" && isTerminal(f)
	}
}

func applyColor(cmd *cobra.Command) {
	color.NoColor = !colorEnabled(cmd, os.Stdout)
}
