package main

import (
	"log/slog"
	"time"

	"pagesmith/internal/analysis"
	"pagesmith/internal/catalog"
	"pagesmith/internal/compose"
	"pagesmith/internal/config"
	"pagesmith/internal/ledger"
	"pagesmith/internal/logging"
	"pagesmith/internal/pipeline"
	"pagesmith/internal/procexec"
	"pagesmith/internal/publish"
	"pagesmith/internal/ratelimit"
	"pagesmith/internal/render"
	"pagesmith/internal/retry"
	"pagesmith/internal/services/llm"
	"pagesmith/internal/store"
	"pagesmith/internal/tracer"
	"pagesmith/internal/translation"
	"pagesmith/internal/translationcache"
	"pagesmith/internal/validate"
)

// runnerSetup carries the per-invocation knobs that do not come from config.
type runnerSetup struct {
	executor   procexec.Executor
	llmOptions []llm.Option
	onProgress func(pipeline.Progress)
}

// buildRunner wires every pipeline component from cfg. The limiter and the
// translation cache are shared by analysis and translation.
func buildRunner(cfg *config.Config, db *store.DB, logger *slog.Logger, setup runnerSetup) (*pipeline.Runner, error) {
	executor := setup.executor
	if executor == nil {
		executor = procexec.OS{}
	}

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, setup.llmOptions...)
	serviceLogger := logging.NewComponentLogger(logger, "llm")
	limiter := ratelimit.New(cfg.RateLimit.Calls, cfg.RateWindow())
	guarded := llm.Guarded{
		Next:    client,
		Limiter: limiter,
		Policy: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Base:        cfg.Retry.Base,
			Unit:        cfg.RetryUnit(),
			MaxDelay:    cfg.RetryMaxDelay(),
			OnRetry: func(attempt int, delay time.Duration, err error) {
				serviceLogger.Warn("service call failed; retrying",
					logging.String(logging.FieldEventType, "llm_retry"),
					logging.Int("attempt", attempt),
					logging.Duration("delay", delay),
					logging.Int("calls_in_window", limiter.InWindow()),
					logging.Cause(err),
					logging.Error(err),
				)
			},
		},
	}

	base := toCatalogLanguage(cfg.BaseLanguage())
	languages := make([]catalog.Language, 0, len(cfg.Languages.Targets))
	for _, lang := range cfg.Languages.Targets {
		languages = append(languages, toCatalogLanguage(lang))
	}

	style := compose.Style{Fill: cfg.Page.Fill, Stroke: cfg.Page.Stroke}
	page := compose.Page{WidthPx: cfg.PageWidthPx(), HeightPx: cfg.PageHeightPx(), MarginRatio: cfg.Page.MarginRatio}

	return pipeline.New(pipeline.Deps{
		Ledger:    ledger.New(db),
		Analyzer:  analysis.New(guarded, base, cfg.Pipeline.PlaceholderTitle, logger),
		Localizer: translation.New(guarded, translationcache.New(db, logger), base.Code, logger),
		Tracer: tracer.New(tracer.Options{
			Binary:       cfg.Tools.Potrace,
			Timeout:      cfg.TraceTimeout(),
			BlackLevel:   cfg.Trace.BlackLevel,
			TurdSize:     cfg.Trace.TurdSize,
			AlphaMax:     cfg.Trace.AlphaMax,
			OptTolerance: cfg.Trace.OptTolerance,
			Autocrop:     cfg.Trace.Autocrop,
		}, executor, logger),
		Composer: compose.New(page, style, logger),
		Renderer: render.New(render.Options{
			Binary:  cfg.Tools.Inkscape,
			Timeout: cfg.RenderTimeout(),
			Width:   cfg.Thumbnail.Width,
		}, executor, logger),
		Validator: validate.New(validate.Rules{
			PageWidthPx:    page.WidthPx,
			PageHeightPx:   page.HeightPx,
			Style:          style,
			ThumbWidth:     cfg.Thumbnail.Width,
			PageRatio:      cfg.Page.HeightMM / cfg.Page.WidthMM,
			RatioTolerance: cfg.Thumbnail.RatioTolerance,
			MinContrast:    cfg.Thumbnail.MinContrast,
		}),
		Publisher: publish.NewLocal(cfg.Paths.OutputDir, cfg.Publish.Format, logger),
		Logger:    logger,
	}, pipeline.Options{
		Workers:        cfg.Pipeline.Workers,
		WorkDir:        cfg.Paths.WorkDir,
		DeleteSource:   cfg.Pipeline.DeleteSource,
		BaseLanguage:   base,
		Languages:      languages,
		IconBaseURL:    cfg.Publish.IconBaseURL,
		StageOverrides: cfg.Logging.StageOverrides,
		OnProgress:     setup.onProgress,
	})
}

func toCatalogLanguage(lang config.Language) catalog.Language {
	return catalog.Language{Name: lang.Name, Code: lang.Code}
}
