package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/errors"
	"github.com/pixelgate/imagepipe/params"
)

// Executor owns the per-request lifecycle: load, apply stages in plan order,
// finalize format, realize, and release engine thread-local state. One call
// is one synchronous pipeline; the Executor itself is safe for concurrent
// use across goroutines.
type Executor struct {
	engine   core.Engine
	compiler *Compiler
	hooks    []core.Hook
	logger   core.Logger
	metrics  core.MetricsCollector
}

// NewExecutor creates an Executor bound to the given engine.
func NewExecutor(engine core.Engine, compiler *Compiler) *Executor {
	if compiler == nil {
		compiler = NewCompiler(nil)
	}
	return &Executor{engine: engine, compiler: compiler}
}

// SetLogger attaches a structured logger.
func (e *Executor) SetLogger(l core.Logger) { e.logger = l }

// SetMetrics attaches a metrics collector.
func (e *Executor) SetMetrics(m core.MetricsCollector) { e.metrics = m }

// AddHook registers an observer for stage events.
func (e *Executor) AddHook(h core.Hook) { e.hooks = append(e.hooks, h) }

// Compiler exposes the plan compiler, handy for tests and dry runs.
func (e *Executor) Compiler() *Compiler { return e.compiler }

// Execute runs one request: the query string drives the plan, src supplies
// the input bytes, and the returned slice holds the realized output. Every
// failure, including panics out of the engine, is converted into a Status
// carrying the query; on failure no bytes are returned. Engine thread-local
// state is released on all exit paths.
func (e *Executor) Execute(ctx context.Context, query string, src []byte) (out []byte, status errors.Status) {
	defer e.engine.ClearThreadState()
	defer func() {
		if r := recover(); r != nil {
			out = nil
			status = errors.StatusOf(
				errors.Newf(errors.KindInternal, "execute", "panic: %v", r), query)
		}
	}()

	out, err := e.run(ctx, query, src)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordError("execute", string(errors.KindOf(err)))
		}
		return nil, errors.StatusOf(err, query)
	}
	return out, errors.OKStatus()
}

func (e *Executor) run(ctx context.Context, query string, src []byte) ([]byte, error) {
	if e.engine == nil {
		return nil, errors.New(errors.KindInternal, "execute", errors.ErrMissingEngine)
	}
	if len(src) == 0 {
		return nil, errors.New(errors.KindIO, "load", errors.ErrEmptyInput)
	}

	requestID := uuid.NewString()
	start := time.Now()

	ps, err := params.Validate(query)
	if err != nil {
		return nil, err
	}

	caps := e.engine.Capabilities()
	img, err := e.engine.Load(src, loadOptions(ps, caps))
	if err != nil {
		return nil, errors.Wrap(errors.KindIO, "load", err)
	}
	current := img
	defer func() {
		if current != nil {
			current.Close()
		}
	}()

	desc := core.Describe(current)
	plan, err := e.compiler.Compile(ps, desc, caps)
	if err != nil {
		return nil, err
	}
	e.logDebug("pipeline.compiled",
		"request_id", requestID,
		"format", string(desc.Format),
		"stages", len(plan.Stages),
		"output", string(plan.Output),
	)

	for _, kind := range plan.Stages {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.KindStage, string(kind), err)
		}
		next, err := e.runStage(ctx, kind, current, ps, plan)
		if err != nil {
			return nil, err
		}
		current = next
	}

	// The final descriptor is re-derived: stages changed the geometry.
	final := core.Describe(current)
	final.Format = plan.Output

	if plan.Output == core.FormatJSON {
		final.Format = desc.Format
		buf, err := final.MarshalReport()
		if err != nil {
			return nil, errors.Wrap(errors.KindInternal, "report", err)
		}
		return buf, nil
	}

	buf, err := e.engine.Save(current, saveOptions(ps, plan))
	if err != nil {
		return nil, errors.Wrap(errors.KindIO, "save", err)
	}
	if e.metrics != nil {
		e.metrics.RecordOutputBytes(int64(len(buf)))
	}
	e.logDebug("pipeline.done",
		"request_id", requestID,
		"width", final.Width,
		"height", final.Height,
		"output", string(plan.Output),
		"bytes", len(buf),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

// runStage applies one stage with hook and metrics bookkeeping.
func (e *Executor) runStage(ctx context.Context, kind core.StageKind, img core.Image, ps *params.ParameterSet, plan core.Plan) (core.Image, error) {
	name := string(kind)
	for _, h := range e.hooks {
		h.BeforeStage(ctx, name, img)
	}
	t := time.Now()
	next, err := applyStage(e.engine, kind, img, ps, plan)
	elapsed := time.Since(t)
	for _, h := range e.hooks {
		h.AfterStage(ctx, name, next, elapsed, err)
	}
	if e.metrics != nil {
		e.metrics.RecordStageTime(name, elapsed)
		if err != nil {
			e.metrics.RecordError(name, string(errors.KindStage))
		}
	}
	return next, err
}

// loadOptions decides the page window for the initial load. Stages that
// invalidate page-height assumptions force a single-page load up front so
// the engine never materializes frames the plan will discard.
func loadOptions(ps *params.ParameterSet, caps core.Capabilities) core.LoadOptions {
	pages := ps.Pages
	if !caps.MultiPage || ps.Trim > 0 || ps.CropRequested() || ps.Mask != params.MaskNone {
		pages = 1
	}
	return core.LoadOptions{Page: ps.Page, Pages: pages}
}

// saveOptions assembles the realization options from the validated
// parameters and the compiled plan.
func saveOptions(ps *params.ParameterSet, plan core.Plan) core.SaveOptions {
	return core.SaveOptions{
		Format:         plan.Output,
		Quality:        ps.Quality,
		Interlace:      ps.Interlace,
		StripMetadata:  ps.Strip,
		ZlibLevel:      ps.ZlibLevel,
		AdaptiveFilter: ps.AdaptiveFilter,
		PageHeight:     plan.PageHeight,
	}
}

func (e *Executor) logDebug(msg string, fields ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, fields...)
	}
}

// String renders a plan for debugging.
func PlanString(p core.Plan) string {
	return fmt.Sprintf("stages=%v target=%dx%d crop=%v output=%s singlePage=%v",
		p.Stages, p.TargetWidth, p.TargetHeight, p.CropNeeded, p.Output, p.SinglePage)
}
