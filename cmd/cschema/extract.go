package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"cschema/internal/ctree/libclang"
	"cschema/internal/diag"
	"cschema/internal/driver"
	"cschema/internal/observ"
	"cschema/internal/project"
	"cschema/internal/schema"
	"cschema/internal/version"
)

const defaultOutput = "schema"

var extractCmd = &cobra.Command{
	Use:   "extract [flags] [headers...]",
	Short: "Extract the FFI schema of C headers",
	Long: `Extract parses every header, classifies the types and functions it
declares and writes types.<ext> plus one <module>.<ext> per header.

Without arguments the headers listed in cschema.toml are used. Flags override
the manifest. Use --output - to stream the whole schema to stdout.`,
	RunE: runExtract,
}

func init() {
	addExtractFlags(extractCmd)
	extractCmd.Flags().StringP("output", "o", "", "output directory, or - for stdout (default \"schema\")")
	extractCmd.Flags().Bool("no-cache", false, "bypass the extraction cache")
	extractCmd.Flags().Bool("timings-json", false, "print timings as JSON (implies --timings)")
}

// addExtractFlags registers the flags shared by extract and inspect.
func addExtractFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("format", "f", "", "output format (json|msgpack|yaml|text)")
	f.StringArray("clang-arg", nil, "extra argument passed to clang (repeatable)")
	f.StringArrayP("include", "I", nil, "add an include directory")
	f.StringArrayP("define", "D", nil, "define a preprocessor macro")
	f.IntP("jobs", "j", 0, "parallel parse jobs (0 = GOMAXPROCS)")
	f.Bool("keep-going", false, "skip headers that fail instead of aborting")
}

type extractOptions struct {
	Headers   []string
	Root      string
	Output    string
	Format    schema.Format
	ClangArgs []string
	Jobs      int
	KeepGoing bool
	Cache     bool
}

// extractFlags are the command-line values; changed names the flags the
// user actually set.
type extractFlags struct {
	output    string
	format    string
	clangArgs []string
	includes  []string
	defines   []string
	jobs      int
	keepGoing bool
	noCache   bool
	changed   map[string]bool
}

func readExtractFlags(cmd *cobra.Command) (extractFlags, error) {
	f := cmd.Flags()
	var (
		out extractFlags
		err error
	)
	if f.Lookup("output") != nil {
		if out.output, err = f.GetString("output"); err != nil {
			return out, err
		}
	}
	if f.Lookup("no-cache") != nil {
		if out.noCache, err = f.GetBool("no-cache"); err != nil {
			return out, err
		}
	}
	if out.format, err = f.GetString("format"); err != nil {
		return out, err
	}
	if out.clangArgs, err = f.GetStringArray("clang-arg"); err != nil {
		return out, err
	}
	if out.includes, err = f.GetStringArray("include"); err != nil {
		return out, err
	}
	if out.defines, err = f.GetStringArray("define"); err != nil {
		return out, err
	}
	if out.jobs, err = f.GetInt("jobs"); err != nil {
		return out, err
	}
	if out.keepGoing, err = f.GetBool("keep-going"); err != nil {
		return out, err
	}
	out.changed = make(map[string]bool)
	for _, name := range []string{"output", "format", "jobs", "keep-going"} {
		out.changed[name] = f.Changed(name)
	}
	return out, nil
}

// resolveExtractOptions merges the manifest (may be nil) with the flags.
// Header arguments replace the manifest's header list.
func resolveExtractOptions(m *project.Manifest, args []string, fl extractFlags) (*extractOptions, error) {
	opts := &extractOptions{Output: defaultOutput, Format: schema.FormatJSON, Cache: !fl.noCache}
	if m != nil {
		opts.Root = m.Root
		opts.Headers = m.Extract.Headers
		if m.Extract.Output != "" {
			opts.Output = m.Extract.Output
		}
		if m.Extract.Format != "" {
			f, err := schema.ParseFormat(m.Extract.Format)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", m.Path, err)
			}
			opts.Format = f
		}
		opts.ClangArgs = append(opts.ClangArgs, m.Extract.ClangArgs...)
		opts.Jobs = m.Extract.Jobs
		opts.KeepGoing = m.Extract.KeepGoing
		opts.Cache = opts.Cache && m.CacheEnabled()
	}
	if len(args) > 0 {
		opts.Headers = nil
		for _, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, err
			}
			opts.Headers = append(opts.Headers, abs)
		}
	}
	if len(opts.Headers) == 0 {
		return nil, usageError{msg: "no headers given and no " + project.ManifestName + " found"}
	}

	if fl.changed["output"] {
		opts.Output = fl.output
	}
	if fl.changed["format"] {
		f, err := schema.ParseFormat(fl.format)
		if err != nil {
			return nil, usageError{msg: err.Error()}
		}
		opts.Format = f
	}
	if fl.changed["jobs"] {
		if fl.jobs < 0 {
			return nil, usageError{msg: "--jobs must not be negative"}
		}
		opts.Jobs = fl.jobs
	}
	if fl.changed["keep-going"] {
		opts.KeepGoing = fl.keepGoing
	}
	for _, dir := range fl.includes {
		opts.ClangArgs = append(opts.ClangArgs, "-I"+dir)
	}
	for _, def := range fl.defines {
		opts.ClangArgs = append(opts.ClangArgs, "-D"+def)
	}
	opts.ClangArgs = append(opts.ClangArgs, fl.clangArgs...)
	return opts, nil
}

func loadOptions(cmd *cobra.Command, args []string) (*extractOptions, error) {
	fl, err := readExtractFlags(cmd)
	if err != nil {
		return nil, err
	}
	var manifest *project.Manifest
	if len(args) == 0 {
		m, ok, err := project.Load(".")
		if err != nil {
			return nil, &diag.Error{Code: diag.PrjManifestInvalid, Subject: project.ManifestName, Err: err}
		}
		if ok {
			manifest = m
			slogctx.Debug(cmd.Context(), "loaded manifest", "path", m.Path, "headers", len(m.Extract.Headers))
		}
	}
	return resolveExtractOptions(manifest, args, fl)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := loadOptions(cmd, args)
	if err != nil {
		return err
	}
	flags := cmd.Root().PersistentFlags()
	quiet, _ := flags.GetBool("quiet")
	showTimings, _ := flags.GetBool("timings")
	timingsJSON, _ := cmd.Flags().GetBool("timings-json")
	maxDiagnostics, _ := flags.GetInt("max-diagnostics")
	uiValue, _ := flags.GetString("ui")
	mode, err := parseProgressMode(uiValue)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	req := &driver.Request{
		Headers:        opts.Headers,
		ClangArgs:      opts.ClangArgs,
		Jobs:           opts.Jobs,
		KeepGoing:      opts.KeepGoing,
		MaxDiagnostics: maxDiagnostics,
		Generator:      version.Generator(),
		Timer:          timer,
	}
	if opts.Cache {
		cache, err := driver.OpenDiskCache("cschema")
		if err != nil {
			slogctx.Warn(ctx, "extraction cache unavailable", "err", err)
		} else {
			req.Cache = cache
		}
	}

	toStdout := opts.Output == "-"
	var (
		res     *driver.Result
		written []string
	)
	job := func(ctx context.Context, sink driver.ProgressSink) error {
		r := *req
		r.Progress = sink
		out, err := driver.Extract(ctx, libclang.New(), &r)
		if err != nil {
			return err
		}
		res = out
		if toStdout {
			return nil
		}
		written, err = driver.Write(ctx, res.Schema, driver.WriteOptions{
			Dir:      opts.Output,
			Format:   opts.Format,
			Jobs:     opts.Jobs,
			Progress: sink,
			Timer:    timer,
		})
		return err
	}
	if mode.interactive(quiet, toStdout) {
		err = runWithUI(ctx, "cschema extract", opts.Headers, job)
	} else {
		err = job(ctx, nil)
	}
	if res != nil {
		if perr := printDiagnostics(cmd, cmd.ErrOrStderr(), res.Bag, quiet); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}

	if toStdout {
		if err := schema.Write(cmd.OutOrStdout(), res.Schema, opts.Format); err != nil {
			return &diag.Error{Code: diag.IOWriteFailed, Subject: "stdout", Err: err}
		}
	} else if !quiet {
		cached := ""
		if res.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d files to %s%s\n", len(written), displayPath(opts.Output), cached)
	}
	if showTimings || timingsJSON {
		if err := printTimings(cmd.ErrOrStderr(), timer, timingsJSON); err != nil {
			return err
		}
	}
	return skippedError(res)
}

// skippedError fails the command when --keep-going dropped headers.
func skippedError(res *driver.Result) error {
	if res == nil || len(res.Skipped) == 0 {
		return nil
	}
	paths := make([]string, len(res.Skipped))
	for i, s := range res.Skipped {
		paths[i] = displayPath(s.Path)
	}
	return fmt.Errorf("%d header(s) skipped: %s", len(paths), strings.Join(paths, ", "))
}

func printDiagnostics(cmd *cobra.Command, out io.Writer, bag *diag.Bag, quiet bool) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	if quiet && !bag.HasErrors() {
		return nil
	}
	bag.Sort()
	return diag.Pretty(out, bag, diag.PrettyOpts{Color: colorEnabled(cmd, os.Stderr), Notes: true})
}

// displayPath shortens path relative to the working directory when it
// lives below it.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	return formatPathForOutput(wd, path)
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
