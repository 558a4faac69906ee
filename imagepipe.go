// Package imagepipe compiles URL query strings into image processing
// pipelines and executes them against a pluggable engine. The zero-config
// entry point is New; Process turns (query, source bytes) into encoded
// output bytes behind a Status error boundary.
package imagepipe

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pixelgate/imagepipe/adapters/native"
	"github.com/pixelgate/imagepipe/adapters/storage"
	"github.com/pixelgate/imagepipe/adapters/vips"
	"github.com/pixelgate/imagepipe/config"
	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/errors"
	"github.com/pixelgate/imagepipe/pipeline"
	"github.com/pixelgate/imagepipe/utils"
)

// Re-export Format constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	WebP = core.FormatWebP
	GIF  = core.FormatGIF
	TIFF = core.FormatTIFF
	JSON = core.FormatJSON
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Processor is the primary entry point.
type Processor struct {
	engine   core.Engine
	executor *pipeline.Executor
	formats  *core.FormatRegistry
	cfg      config.Config
	shutdown func()
}

// New creates a fully wired Processor with the engine selected by cfg.
func New(cfg config.Config) (*Processor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	var (
		engine   core.Engine
		shutdown func()
	)
	switch cfg.Engine {
	case config.EngineNative:
		engine = native.NewEngine()
	default:
		ve := vips.NewEngine(vips.Config{
			MaxCacheSize:     cfg.Vips.MaxCacheSize,
			ConcurrencyLevel: cfg.Vips.ConcurrencyLevel,
			ReportLeaks:      cfg.Vips.ReportLeaks,
		})
		engine = ve
		shutdown = ve.Shutdown
	}
	return NewWithEngine(cfg, engine, shutdown)
}

// NewWithEngine wires a Processor around a caller-supplied engine.
// shutdown may be nil.
func NewWithEngine(cfg config.Config, engine core.Engine, shutdown func()) (*Processor, error) {
	if engine == nil {
		return nil, errors.ErrMissingEngine
	}
	formats := core.NewFormatRegistry()
	exec := pipeline.NewExecutor(engine, pipeline.NewCompiler(formats))
	return &Processor{
		engine:   engine,
		executor: exec,
		formats:  formats,
		cfg:      cfg,
		shutdown: shutdown,
	}, nil
}

// Close releases engine resources. Safe to call once at process exit.
func (p *Processor) Close() {
	if p.shutdown != nil {
		p.shutdown()
	}
}

// SetLogger attaches a structured logger.
func (p *Processor) SetLogger(l core.Logger) { p.executor.SetLogger(l) }

// SetMetrics attaches a metrics collector.
func (p *Processor) SetMetrics(m core.MetricsCollector) { p.executor.SetMetrics(m) }

// AddHook registers an observer for pipeline stage events.
func (p *Processor) AddHook(h core.Hook) { p.executor.AddHook(h) }

// Engine returns the wired engine.
func (p *Processor) Engine() core.Engine { return p.engine }

// Formats returns the format capability registry, for registering custom
// format traits before processing begins.
func (p *Processor) Formats() *core.FormatRegistry { return p.formats }

// ProcessBuffer runs the pipeline described by query over src and returns
// the encoded output. The returned Status is OK on success; on failure it
// classifies the error and echoes the query that caused it.
func (p *Processor) ProcessBuffer(ctx context.Context, query string, src []byte) ([]byte, errors.Status) {
	if p.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
		defer cancel()
	}
	return p.executor.Execute(ctx, withDefaultQuality(query, p.cfg.DefaultQuality), src)
}

// Process streams the source from r, runs the pipeline and writes the output
// to w.
func (p *Processor) Process(ctx context.Context, query string, r io.Reader, w io.Writer) errors.Status {
	buf, err := utils.DrainReader(ctx, r, p.cfg.MaxInputBytes)
	if err != nil {
		return errors.StatusOf(errors.Wrap(errors.KindIO, "source.read", err), query)
	}
	out, status := p.ProcessBuffer(ctx, query, buf.Bytes())
	utils.ReleaseBuffer(buf)
	if !status.OK() {
		return status
	}
	if _, err := w.Write(out); err != nil {
		return errors.StatusOf(errors.Wrap(errors.KindIO, "target.write", err), query)
	}
	return errors.OKStatus()
}

// ProcessFile reads srcPath, runs the pipeline and writes dstPath.
func (p *Processor) ProcessFile(ctx context.Context, query, srcPath, dstPath string) errors.Status {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return errors.StatusOf(errors.Wrap(errors.KindIO, "source.open", err), query)
	}
	out, status := p.ProcessBuffer(ctx, query, src)
	if !status.OK() {
		return status
	}
	if err := os.WriteFile(dstPath, out, 0o644); err != nil {
		return errors.StatusOf(errors.Wrap(errors.KindIO, "target.write", err), query)
	}
	return errors.OKStatus()
}

// ProcessToTarget runs the pipeline and delivers the output to a storage
// target under key.
func (p *Processor) ProcessToTarget(ctx context.Context, query string, src []byte, target storage.Target, key storage.Key) errors.Status {
	out, status := p.ProcessBuffer(ctx, query, src)
	if !status.OK() {
		return status
	}
	meta := map[string]string{"query": query}
	if err := target.Put(ctx, key, utils.BytesReader(out), meta); err != nil {
		return errors.StatusOf(err, query)
	}
	return errors.OKStatus()
}

// Report returns the JSON metadata report for src, equivalent to processing
// with output=json appended.
func (p *Processor) Report(ctx context.Context, src []byte) ([]byte, errors.Status) {
	return p.ProcessBuffer(ctx, "output=json", src)
}

// withDefaultQuality appends q when the query does not set it and the
// configured default differs from the built-in one.
func withDefaultQuality(query string, quality int) string {
	if quality == 0 || quality == 85 {
		return query
	}
	for _, pair := range strings.Split(query, "&") {
		if strings.HasPrefix(pair, "q=") {
			return query
		}
	}
	if query == "" {
		return fmt.Sprintf("q=%d", quality)
	}
	return fmt.Sprintf("%s&q=%d", query, quality)
}
