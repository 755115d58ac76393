package main

import (
	"fmt"
	"os"
	"strings"
)

// progressMode is the --ui setting: whether extract runs the Bubble Tea
// progress view or reports through logs and diagnostics only.
type progressMode int

const (
	progressAuto progressMode = iota
	progressTUI
	progressPlain
)

var progressModes = map[string]progressMode{
	"":     progressAuto,
	"auto": progressAuto,
	"on":   progressTUI,
	"off":  progressPlain,
}

func parseProgressMode(value string) (progressMode, error) {
	m, ok := progressModes[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return progressAuto, usageError{msg: fmt.Sprintf("--ui must be auto, on or off, not %q", value)}
	}
	return m, nil
}

// interactive reports whether the progress view runs. Quiet runs and
// schemas streamed to stdout never get one; auto also needs stdout and
// stderr on a terminal.
func (m progressMode) interactive(quiet, toStdout bool) bool {
	if quiet || toStdout || m == progressPlain {
		return false
	}
	return m == progressTUI || (isTerminal(os.Stdout) && isTerminal(os.Stderr))
}
