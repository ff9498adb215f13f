package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"pagesmith/internal/catalog"
	"pagesmith/internal/compose"
	"pagesmith/internal/logging"
	"pagesmith/internal/publish"
	"pagesmith/internal/services"
	"pagesmith/internal/tracer"
)

// Analyzer extracts base-language metadata from image bytes.
type Analyzer interface {
	Extract(ctx context.Context, image []byte, mime string) (catalog.Metadata, error)
}

// Localizer translates metadata and category names.
type Localizer interface {
	LocalizeAll(ctx context.Context, meta catalog.Metadata, languages []catalog.Language) (catalog.Localized, error)
	LocalizeName(ctx context.Context, name string, languages []catalog.Language) map[string]string
}

// Tracer vectorizes a decoded raster into workDir.
type Tracer interface {
	Trace(ctx context.Context, src image.Image, workDir string) (tracer.Result, error)
}

// Composer places a traced drawing on the target page.
type Composer interface {
	Compose(traceSVG []byte) ([]byte, compose.Layout, error)
}

// Renderer rasterizes a composed page into a thumbnail.
type Renderer interface {
	Render(ctx context.Context, svgPath, out string) error
}

// Validator checks finished artifacts.
type Validator interface {
	ValidateVector(svg []byte) error
	ValidateRaster(path string) error
}

// Ledger remembers which digests have been published.
type Ledger interface {
	IsProcessed(ctx context.Context, digest string) (bool, error)
	MarkProcessed(ctx context.Context, digest, sourcePath, slug string) error
}

// Deps are the collaborators a Runner drives.
type Deps struct {
	Ledger    Ledger
	Analyzer  Analyzer
	Localizer Localizer
	Tracer    Tracer
	Composer  Composer
	Renderer  Renderer
	Validator Validator
	Publisher publish.Publisher
	Logger    *slog.Logger
}

// Options tune a Runner.
type Options struct {
	Workers        int
	WorkDir        string
	DeleteSource   bool
	BaseLanguage   catalog.Language
	Languages      []catalog.Language
	IconBaseURL    string
	StageOverrides map[string]string
	// OnProgress, when set, is called from the collector after every item.
	OnProgress func(Progress)
}

// Runner processes batches of source images.
type Runner struct {
	deps   Deps
	opts   Options
	logger *slog.Logger

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	categoryMu sync.Mutex
	categories map[string]struct{}
}

// New validates deps and returns a Runner.
func New(deps Deps, opts Options) (*Runner, error) {
	if deps.Ledger == nil || deps.Analyzer == nil || deps.Localizer == nil || deps.Tracer == nil ||
		deps.Composer == nil || deps.Renderer == nil || deps.Validator == nil || deps.Publisher == nil {
		return nil, errors.New("pipeline requires ledger, analyzer, localizer, tracer, composer, renderer, validator, and publisher")
	}
	if opts.WorkDir == "" {
		return nil, errors.New("pipeline requires a work directory")
	}
	if opts.BaseLanguage.Code == "" {
		return nil, errors.New("pipeline requires a base language")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Runner{
		deps:       deps,
		opts:       opts,
		logger:     logging.NewComponentLogger(deps.Logger, "pipeline"),
		inflight:   make(map[string]struct{}),
		categories: make(map[string]struct{}),
	}, nil
}

// Run processes items and returns once every dispatched item has finished.
// The returned error is non-nil only when the run was cut short, either by
// ctx or by a failure that no remaining item could survive.
func (r *Runner) Run(ctx context.Context, items []catalog.SourceImage) (Summary, error) {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	workers := min(r.opts.Workers, max(len(items), 1))
	r.logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("items", len(items)),
		logging.Int("workers", workers),
	)

	jobs := make(chan catalog.SourceImage)
	results := make(chan itemResult)

	go func() {
		defer close(jobs)
		for _, item := range items {
			select {
			case <-runCtx.Done():
				return
			case jobs <- item:
			}
		}
	}()

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for item := range jobs {
				if runCtx.Err() != nil {
					continue
				}
				res := r.process(runCtx, item)
				if res.err != nil && services.IsFatalForRun(res.err) {
					cancel(res.err)
				}
				results <- res
			}
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var summary Summary
	sampler := logging.NewProgressSampler(10)
	for res := range results {
		summary.add(res)
		done := summary.Total()
		if r.opts.OnProgress != nil {
			r.opts.OnProgress(Progress{Done: done, Total: len(items), Path: res.path, Outcome: res.outcome})
		}
		percent := 100 * float64(done) / float64(len(items))
		if sampler.ShouldLog(percent, "process") {
			r.logger.Info("batch progress",
				logging.String(logging.FieldEventType, "batch_progress"),
				logging.Int("done", done),
				logging.Int("total", len(items)),
				logging.Float64("percent", percent),
			)
		}
	}

	r.logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("not_started", len(items)-summary.Total()),
	)
	if runCtx.Err() != nil {
		cause := context.Cause(runCtx)
		if services.IsFatalForRun(cause) {
			return summary, fmt.Errorf("run aborted: %w", cause)
		}
		return summary, cause
	}
	return summary, nil
}

// claim marks digest as in flight. It reports false when another worker
// already holds it.
func (r *Runner) claim(digest string) bool {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()
	if _, busy := r.inflight[digest]; busy {
		return false
	}
	r.inflight[digest] = struct{}{}
	return true
}

func (r *Runner) release(digest string) {
	r.inflightMu.Lock()
	delete(r.inflight, digest)
	r.inflightMu.Unlock()
}

func causeOf(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	default:
		return services.Cause(err)
	}
}
