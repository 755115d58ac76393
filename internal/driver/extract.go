// Package driver runs an extraction: parse every header, harvest the units
// into one registry, emit the schema and write it out.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"cschema/internal/classify"
	"cschema/internal/ctree"
	"cschema/internal/diag"
	"cschema/internal/emit"
	"cschema/internal/harvest"
	"cschema/internal/observ"
	"cschema/internal/project"
	"cschema/internal/schema"
	"cschema/internal/trace"
	"cschema/internal/types"
)

// Frontend parses one header into a translation unit. Parse is called
// concurrently for different headers.
type Frontend interface {
	Parse(ctx context.Context, path string, args []string, reporter diag.Reporter) (ctree.Unit, error)
}

// Request describes one extraction run.
type Request struct {
	Headers   []string
	ClangArgs []string
	Jobs      int  // parse concurrency; <= 0 means GOMAXPROCS
	KeepGoing bool // skip failing headers instead of aborting
	// Cache is consulted before parsing and filled after a clean run. nil
	// disables caching.
	Cache          *DiskCache
	MaxDiagnostics int
	Generator      string
	Progress       ProgressSink
	Timer          *observ.Timer
}

// UnitFailure is a header dropped under KeepGoing.
type UnitFailure struct {
	Path string
	Err  error
}

// Result is the outcome of a run.
type Result struct {
	Schema  *schema.Schema
	Bag     *diag.Bag
	Skipped []UnitFailure
	Cached  bool
	Key     project.Digest
}

// Extract runs the pipeline. Without KeepGoing the first fatal error aborts
// the run and is returned; with it, failing headers are reported in
// Result.Skipped and the bag, and leave nothing in the schema.
func Extract(ctx context.Context, fe Frontend, req *Request) (*Result, error) {
	if req == nil || len(req.Headers) == 0 {
		return nil, errors.New("no headers to extract")
	}
	maxDiags := req.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 1000
	}
	res := &Result{Bag: diag.NewBag(maxDiags)}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "extract", trace.CurrentSpan(ctx).SpanID)
	defer func() { span.End("") }()
	ctx = trace.WithSpan(ctx, span)
	ctx = slogctx.With(ctx, "headers", len(req.Headers))

	if req.Cache != nil {
		key, err := CacheKey(req.Headers, req.ClangArgs)
		if err != nil {
			return nil, &diag.Error{Code: diag.IOParseFailed, Subject: "cache key", Err: err}
		}
		res.Key = key
		payload, ok, err := req.Cache.Get(key)
		if err != nil {
			slogctx.Warn(ctx, "ignoring unreadable cache entry", "key", key.String(), "err", err)
		}
		if ok {
			for _, d := range payload.Diagnostics {
				res.Bag.Add(d)
			}
			res.Schema = payload.Schema
			res.Cached = true
			for _, h := range req.Headers {
				for _, st := range []Stage{StageParse, StageHarvest} {
					notify(req.Progress, Event{File: h, Stage: st, Status: StatusCached})
				}
			}
			notify(req.Progress, Event{Stage: StageEmit, Status: StatusCached})
			trace.Point(trace.FromContext(ctx), trace.ScopePass, "cache", "hit", span.ID())
			slogctx.Info(ctx, "using cached extraction", "key", key.String()[:12])
			return res, nil
		}
	}

	reporter := diag.NewBagReporter(res.Bag)

	units, err := parseAll(ctx, fe, req, reporter, res)
	defer func() {
		for _, u := range units {
			if u != nil {
				_ = u.Close()
			}
		}
	}()
	if err != nil {
		return nil, err
	}

	harvested, err := harvestAll(ctx, req, units, reporter, res)
	if err != nil {
		return nil, err
	}

	phase := req.Timer.Begin("emit")
	notify(req.Progress, Event{Stage: StageEmit, Status: StatusWorking})
	start := time.Now()
	s, err := emit.Emit(ctx, harvested.reg, harvested.units)
	if err != nil {
		notify(req.Progress, Event{Stage: StageEmit, Status: StatusError, Err: err})
		req.Timer.End(phase, "failed")
		return nil, err
	}
	s.Generator = req.Generator
	res.Schema = s
	notify(req.Progress, Event{Stage: StageEmit, Status: StatusDone, Elapsed: time.Since(start)})
	req.Timer.End(phase, fmt.Sprintf("%d records", len(s.Records)))
	span.WithExtra("records", strconv.Itoa(len(s.Records)))

	if req.Cache != nil && len(res.Skipped) == 0 {
		payload := &DiskPayload{Headers: req.Headers, Schema: s, Diagnostics: res.Bag.Items()}
		if err := req.Cache.Put(res.Key, payload); err != nil {
			slogctx.Warn(ctx, "could not store extraction in cache", "err", err)
		}
	}
	slogctx.Info(ctx, "extraction finished",
		"records", len(s.Records), "modules", len(s.Modules), "skipped", len(res.Skipped))
	return res, nil
}

func parseAll(ctx context.Context, fe Frontend, req *Request, reporter diag.Reporter, res *Result) ([]ctree.Unit, error) {
	phase := req.Timer.Begin("parse")
	pass := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", trace.CurrentSpan(ctx).SpanID)
	defer pass.End("")
	ctx = trace.WithSpan(ctx, pass)

	for _, h := range req.Headers {
		notify(req.Progress, Event{File: h, Stage: StageParse, Status: StatusQueued})
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	units := make([]ctree.Unit, len(req.Headers))
	errs := make([]error, len(req.Headers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Headers)))
	for i, path := range req.Headers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			span := trace.Begin(trace.FromContext(gctx), trace.ScopeUnit, "parse:"+path, pass.ID())
			notify(req.Progress, Event{File: path, Stage: StageParse, Status: StatusWorking})
			start := time.Now()
			u, err := fe.Parse(gctx, path, req.ClangArgs, reporter)
			span.End("")
			if err != nil {
				err = &diag.Error{Code: diag.IOParseFailed, Subject: path, Err: err}
				notify(req.Progress, Event{File: path, Stage: StageParse, Status: StatusError, Err: err})
				if req.KeepGoing {
					errs[i] = err
					return nil
				}
				return err
			}
			units[i] = u
			notify(req.Progress, Event{File: path, Stage: StageParse, Status: StatusDone, Elapsed: time.Since(start)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		req.Timer.End(phase, "failed")
		return units, err
	}
	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		skip(res, reporter, req.Headers[i], err)
	}
	req.Timer.End(phase, fmt.Sprintf("%d headers", len(req.Headers)-failed))
	return units, nil
}

type harvestOutput struct {
	reg   *types.Registry
	units []*harvest.Unit
}

func harvestAll(ctx context.Context, req *Request, units []ctree.Unit, reporter diag.Reporter, res *Result) (*harvestOutput, error) {
	phase := req.Timer.Begin("harvest")
	pass := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "harvest", trace.CurrentSpan(ctx).SpanID)
	defer pass.End("")
	ctx = trace.WithSpan(ctx, pass)

	// Rolled-back units would re-report the warnings of types a later unit
	// classifies again.
	dedup := diag.NewDedupReporter(reporter)
	reg := types.NewRegistry()
	h := harvest.New(classify.New(reg, classify.WithReporter(dedup)), dedup)

	out := &harvestOutput{reg: reg}
	modules := make(map[string]string)
	for i, u := range units {
		if u == nil {
			continue
		}
		path := req.Headers[i]
		notify(req.Progress, Event{File: path, Stage: StageHarvest, Status: StatusWorking})
		start := time.Now()
		hu, err := h.Harvest(ctx, u)
		if err != nil {
			notify(req.Progress, Event{File: path, Stage: StageHarvest, Status: StatusError, Err: err})
			if !req.KeepGoing || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				req.Timer.End(phase, "failed")
				return nil, err
			}
			skip(res, reporter, path, err)
			continue
		}
		hu.Module = uniqueModule(modules, hu.Module, path, reporter)
		out.units = append(out.units, hu)
		notify(req.Progress, Event{File: path, Stage: StageHarvest, Status: StatusDone, Elapsed: time.Since(start)})
	}
	req.Timer.End(phase, fmt.Sprintf("%d records", reg.Len()))
	return out, nil
}

// uniqueModule suffixes name when two headers share a stem, so every
// module gets its own output file.
func uniqueModule(taken map[string]string, name, path string, reporter diag.Reporter) string {
	base := name
	for n := 2; ; n++ {
		prev, dup := taken[name]
		if !dup {
			break
		}
		if n == 2 {
			diag.ReportInfo(reporter, diag.EmtInfo, ctree.Location{File: path},
				fmt.Sprintf("module name %s already used by %s", base, prev)).Emit()
		}
		name = base + "_" + strconv.Itoa(n)
	}
	taken[name] = path
	return name
}

func skip(res *Result, reporter diag.Reporter, path string, err error) {
	res.Skipped = append(res.Skipped, UnitFailure{Path: path, Err: err})
	var de *diag.Error
	if errors.As(err, &de) {
		d := de.Diagnostic()
		reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
	diag.ReportWarning(reporter, diag.HrvUnitSkipped, ctree.Location{File: path},
		fmt.Sprintf("%s skipped: %v", path, err)).Emit()
}
