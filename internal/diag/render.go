package diag

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// PrettyOpts controls terminal rendering.
type PrettyOpts struct {
	Color bool
	Notes bool
}

// Pretty prints every diagnostic of bag as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by its notes. The bag is expected to be sorted.
func Pretty(w io.Writer, bag *Bag, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	for _, d := range bag.Items() {
		sev := paint(d.Severity, opts.Color)
		if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n", d.Primary, sev.Sprint(d.Severity), d.Code.ID(), d.Message); err != nil {
			return err
		}
		if !opts.Notes {
			continue
		}
		for _, n := range d.Notes {
			note := color.New(color.FgCyan)
			if !opts.Color {
				note.DisableColor()
			}
			if _, err := fmt.Fprintf(w, "  %s: %s %s\n", n.Loc, note.Sprint("note:"), n.Msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func paint(sev Severity, enabled bool) *color.Color {
	var c *color.Color
	switch sev {
	case SevError:
		c = color.New(color.FgRed, color.Bold)
	case SevWarning:
		c = color.New(color.FgYellow, color.Bold)
	default:
		c = color.New(color.FgBlue)
	}
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// FormatShort renders diagnostics one per line in a stable order:
//
//	<severity> <CODE> <path>:<line>:<col> <message>
//
// Multi-line messages are folded into one line.
func FormatShort(diags []Diagnostic, includeNotes bool) string {
	type row struct {
		sev, code, loc, msg string
		file                string
		line, col           uint32
	}
	rows := make([]row, 0, len(diags))
	for _, d := range diags {
		rows = append(rows, row{
			sev: d.Severity.Label(), code: d.Code.ID(), loc: d.Primary.String(),
			msg: strings.Join(strings.Fields(d.Message), " "), file: d.Primary.File,
			line: d.Primary.Line, col: d.Primary.Column,
		})
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			rows = append(rows, row{
				sev: "note", code: d.Code.ID(), loc: n.Loc.String(),
				msg: strings.Join(strings.Fields(n.Msg), " "), file: n.Loc.File,
				line: n.Loc.Line, col: n.Loc.Column,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i], rows[j]
		if ri.file != rj.file {
			return ri.file < rj.file
		}
		if ri.line != rj.line {
			return ri.line < rj.line
		}
		if ri.col != rj.col {
			return ri.col < rj.col
		}
		if ri.sev != rj.sev {
			return ri.sev < rj.sev
		}
		return ri.code < rj.code
	})
	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "%s %s %s %s", r.sev, r.code, r.loc, r.msg)
		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
