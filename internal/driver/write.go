package driver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"cschema/internal/diag"
	"cschema/internal/observ"
	"cschema/internal/schema"
	"cschema/internal/trace"
)

// TypesFile is the stem of the shared record file.
const TypesFile = "types"

// WriteOptions controls Write.
type WriteOptions struct {
	Dir      string
	Format   schema.Format
	Jobs     int
	Progress ProgressSink
	Timer    *observ.Timer
}

// Write stores s under opts.Dir as types.<ext> plus one <module>.<ext> per
// module. It returns the written paths, types file first.
func Write(ctx context.Context, s *schema.Schema, opts WriteOptions) ([]string, error) {
	phase := opts.Timer.Begin("write")
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "write", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")
	notify(opts.Progress, Event{Stage: StageWrite, Status: StatusWorking})
	start := time.Now()

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, &diag.Error{Code: diag.IOWriteFailed, Subject: opts.Dir, Err: err}
	}
	ext := "." + opts.Format.Ext()
	type job struct {
		path  string
		value any
	}
	jobs := []job{{
		path:  filepath.Join(opts.Dir, TypesFile+ext),
		value: &schema.Schema{Version: s.Version, Generator: s.Generator, Records: s.Records, Modules: []schema.Module{}},
	}}
	for i := range s.Modules {
		m := &s.Modules[i]
		if m.Name == TypesFile {
			return nil, &diag.Error{Code: diag.IOWriteFailed, Subject: m.Header, Err: fmt.Errorf("module name %q is reserved", TypesFile)}
		}
		jobs = append(jobs, job{path: filepath.Join(opts.Dir, m.Name+ext), value: m})
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := writeFile(j.path, j.value, opts.Format); err != nil {
				return &diag.Error{Code: diag.IOWriteFailed, Subject: j.path, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		notify(opts.Progress, Event{Stage: StageWrite, Status: StatusError, Err: err})
		opts.Timer.End(phase, "failed")
		return nil, err
	}

	paths := make([]string, len(jobs))
	for i, j := range jobs {
		paths[i] = j.path
	}
	notify(opts.Progress, Event{Stage: StageWrite, Status: StatusDone, Elapsed: time.Since(start)})
	opts.Timer.End(phase, fmt.Sprintf("%d files", len(paths)))
	slogctx.Debug(ctx, "wrote schema", "dir", opts.Dir, "files", len(paths))
	return paths, nil
}

func writeFile(path string, v any, f schema.Format) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(file)
	if err := schema.Write(w, v, f); err != nil {
		return err
	}
	return w.Flush()
}
