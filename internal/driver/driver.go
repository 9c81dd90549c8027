// Package driver runs relink over a list of modules: it loads the
// replacement libraries, then reads, retargets and writes back each module
// in turn.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"relink/internal/config"
	"relink/internal/diag"
	"relink/internal/meta"
	"relink/internal/metaio"
	"relink/internal/observ"
	"relink/internal/patch"
	"relink/internal/pathfix"
	"relink/internal/pipeline"
	"relink/internal/resolve"
	"relink/internal/scope"
	"relink/internal/trace"
)

var (
	// ErrMissingInputModule is returned when a listed module cannot be read.
	ErrMissingInputModule = errors.New("input module cannot be read")
	// ErrWriteModule is returned when a patched module cannot be written back.
	ErrWriteModule = errors.New("module cannot be written")
)

// Request describes one run.
type Request struct {
	Config  config.Config
	Modules []string
	// MaxDiagnostics bounds the result bag, 0 means unbounded.
	MaxDiagnostics int
	// Progress receives pipeline events when set.
	Progress pipeline.ProgressSink
	// Timings asks for an observ timer report in the result bag.
	Timings bool
}

// ModuleResult describes the outcome for one module.
type ModuleResult struct {
	Path       string
	References patch.AssemblyStats
	Patch      patch.Stats
	Timings    pipeline.Timings
	Before     Digest
	After      Digest
	Err        error
}

// Changed reports whether the written file differs from the input.
func (r ModuleResult) Changed() bool {
	return !r.Before.IsZero() && r.Before != r.After
}

// Result collects everything a run produced.
type Result struct {
	Modules []ModuleResult
	Bag     *diag.Bag
	Timer   *observ.Timer
	// SecondaryLoaded reports whether secondary retargeting was active.
	SecondaryLoaded bool
}

// Run patches every module of req in order. Modules are overwritten in
// place. The first fatal error stops the run; modules already written stay
// written.
func Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{Bag: diag.NewBag(req.MaxDiagnostics), Timer: observ.NewTimer()}
	root, ctx := trace.Start(ctx, trace.ScopeDriver, "patch", "")
	defer func() {
		root.WithExtra("modules", strconv.Itoa(len(res.Modules))).End("")
		if req.Timings {
			appendTimingDiagnostic(res.Bag, res.Timer, "run")
		}
		res.Bag.Sort()
	}()

	if err := req.Config.Validate(); err != nil {
		return res, err
	}
	for _, path := range req.Modules {
		pipeline.Emit(req.Progress, pipeline.Event{Module: path, Stage: pipeline.StageRead, Status: pipeline.StatusQueued})
	}
	if err := preflight(req.Modules, res.Bag); err != nil {
		return res, err
	}

	pipeline.Emit(req.Progress, pipeline.Event{Stage: pipeline.StageLoad, Status: pipeline.StatusWorking})
	loadSpan, lctx := trace.Start(ctx, trace.ScopePass, "load-libraries", "")
	phase := res.Timer.Begin(pipeline.StageLoad, "")
	libs, err := LoadLibraries(lctx, req.Config, diag.BagReporter{Bag: res.Bag})
	res.Timer.End(phase, err)
	loadSpan.End(errDetail(err))
	if err != nil {
		pipeline.Emit(req.Progress, pipeline.Event{Stage: pipeline.StageLoad, Status: pipeline.StatusError, Err: err})
		return res, err
	}
	pipeline.Emit(req.Progress, pipeline.Event{Stage: pipeline.StageLoad, Status: pipeline.StatusDone})
	res.SecondaryLoaded = libs.Secondary != nil

	run := &runner{
		req:     req,
		res:     res,
		libs:    libs,
		classes: scope.NewClassifier(req.Config.Scopes(res.SecondaryLoaded)),
		plan:    assemblyPlan(req.Config, res.SecondaryLoaded),
		hook:    stringHook(req.Config),
	}
	for _, path := range req.Modules {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		mr := run.module(ctx, path)
		res.Modules = append(res.Modules, mr)
		if mr.Err != nil {
			return res, mr.Err
		}
	}
	return res, nil
}

// preflight makes sure every module exists before any is modified.
func preflight(paths []string, bag *diag.Bag) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			err = errors.New("is a directory")
		}
		if err != nil {
			diag.ReportError(diag.BagReporter{Bag: bag, Module: filepath.Base(path)}, diag.IOMissingInputModule, path, err.Error()).Emit()
			return fmt.Errorf("%s: %w: %w", path, ErrMissingInputModule, err)
		}
	}
	return nil
}

func assemblyPlan(cfg config.Config, secondaryLoaded bool) patch.AssemblyPlan {
	return patch.AssemblyPlan{
		Source:          cfg.Source.Assembly,
		Target:          cfg.Target.Assembly,
		Secondary:       cfg.Secondary.Assembly,
		SecondaryTarget: cfg.Secondary.Replacement,
		SecondaryLoaded: secondaryLoaded,
	}
}

// stringHook returns the literal repairer, or nil when path repair is off.
func stringHook(cfg config.Config) patch.StringHook {
	if !cfg.Paths.Enabled() {
		return nil
	}
	p := pathfix.DefaultConfig()
	p.Fix = cfg.Paths.Fix
	p.Content = cfg.Paths.Content
	p.Suffix = cfg.Paths.Suffix
	p.Helper = pathfix.Helper{
		Assembly: cfg.Paths.HelperAssembly,
		Type:     cfg.Paths.HelperType,
		Method:   cfg.Paths.HelperMethod,
	}
	root := cfg.Resolve(cfg.Paths.Root)
	if root == "" {
		root = "."
	}
	return pathfix.New(pathfix.NewTree(os.DirFS(root)), p)
}

type runner struct {
	req     Request
	res     *Result
	libs    resolve.Libraries
	classes *scope.Classifier
	plan    patch.AssemblyPlan
	hook    patch.StringHook
}

// module runs the four stages on one file.
func (r *runner) module(ctx context.Context, path string) ModuleResult {
	mr := ModuleResult{Path: path}
	name := filepath.Base(path)
	span, ctx := trace.Start(ctx, trace.ScopeModule, "module:"+name, name)
	reporter := diag.MultiReporter{
		diag.BagReporter{Bag: r.res.Bag, Module: name},
		referenceTracer(ctx),
	}

	var m *meta.Module
	stage := func(st pipeline.Stage, fn func() error) bool {
		pipeline.Emit(r.req.Progress, pipeline.Event{Module: path, Stage: st, Status: pipeline.StatusWorking})
		phase := r.res.Timer.Begin(st, name)
		err := fn()
		elapsed := r.res.Timer.End(phase, err)
		mr.Timings.Add(st, elapsed)
		if err != nil {
			mr.Err = err
			pipeline.Emit(r.req.Progress, pipeline.Event{Module: path, Stage: st, Status: pipeline.StatusError, Err: err, Elapsed: elapsed})
			return false
		}
		return true
	}

	ok := stage(pipeline.StageRead, func() error {
		var err error
		if mr.Before, err = fileDigest(path); err == nil {
			m, err = metaio.ReadFile(path)
		}
		if err != nil {
			diag.ReportError(reporter, diag.IOMissingInputModule, path, err.Error()).Emit()
			return fmt.Errorf("%s: %w: %w", path, ErrMissingInputModule, err)
		}
		return nil
	}) && stage(pipeline.StageReferences, func() error {
		mr.References = patch.RewriteAssemblyRefs(m, r.plan, reporter)
		return nil
	}) && stage(pipeline.StagePatch, func() error {
		rctx := resolve.NewContext(r.classes, r.libs, m, reporter)
		mr.Patch = patch.New(rctx, r.hook).Run()
		return nil
	}) && stage(pipeline.StageWrite, func() error {
		err := metaio.WriteFile(m, path)
		if err == nil {
			mr.After, err = fileDigest(path)
		}
		if err != nil {
			diag.ReportError(reporter, diag.IOWriteModule, path, err.Error()).Emit()
			return fmt.Errorf("%s: %w: %w", path, ErrWriteModule, err)
		}
		return nil
	})

	if ok {
		pipeline.Emit(r.req.Progress, pipeline.Event{Module: path, Stage: pipeline.StageWrite, Status: pipeline.StatusDone, Elapsed: mr.Timings.Sum()})
	}
	span.WithExtra("rewritten", strconv.Itoa(mr.Patch.Rewritten)).
		WithExtra("inserted", strconv.Itoa(mr.Patch.Inserted)).
		WithExtra("assembly_refs", fmt.Sprintf("%d replaced, %d removed", mr.References.Replaced, mr.References.Removed))
	if !mr.After.IsZero() {
		span.WithExtra("sha256", mr.After.Short())
	}
	span.End(errDetail(mr.Err))
	return mr
}

// referenceTracer turns diagnostics into reference-scope trace points
// under the module span of ctx.
func referenceTracer(ctx context.Context) diag.Reporter {
	if !trace.FromContext(ctx).Level().Retains(trace.ScopeReference) {
		return diag.NopReporter{}
	}
	return diag.FuncReporter(func(d diag.Diagnostic) {
		trace.Mark(ctx, trace.ScopeReference, d.Code.ID()+" "+d.Subject, d.Message)
	})
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return "error: " + err.Error()
}
