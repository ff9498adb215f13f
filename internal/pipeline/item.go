package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pagesmith/internal/catalog"
	"pagesmith/internal/contenthash"
	"pagesmith/internal/fileutil"
	"pagesmith/internal/imaging"
	"pagesmith/internal/logging"
	"pagesmith/internal/publish"
	"pagesmith/internal/services"
)

// Stage names used in logs and failure records.
const (
	StageHash      = "hash"
	StageDecode    = "decode"
	StageAnalyze   = "analyze"
	StageTranslate = "translate"
	StageTrace     = "trace"
	StageCompose   = "compose"
	StageRender    = "render"
	StageValidate  = "validate"
	StagePublish   = "publish"
	StageRecord    = "record"
)

const (
	composedName  = "composed.svg"
	thumbnailName = "thumbnail.png"
)

// process carries one source image through every stage.
func (r *Runner) process(ctx context.Context, src catalog.SourceImage) itemResult {
	started := time.Now()
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithSource(ctx, src.Path)
	res := itemResult{path: src.Path}

	fail := func(stage string, err error) itemResult {
		res.outcome = OutcomeFailed
		res.stage = stage
		res.err = err
		logging.ErrorWithContext(logging.WithContext(services.WithStage(ctx, stage), r.logger), "image failed", "item_failed",
			logging.String(logging.FieldCause, causeOf(err)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "image not published; it is retried on the next run"),
		)
		return res
	}

	stageCtx, logger := r.stage(ctx, StageHash)
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return fail(StageHash, services.Wrap(services.ErrInvalidSource, StageHash, "read source", src.Path, err))
	}
	digest, err := contenthash.Digest(bytes.NewReader(data))
	if err != nil {
		return fail(StageHash, err)
	}
	res.digest = digest
	ctx = services.WithDigest(ctx, digest)

	if !r.claim(digest) {
		logger.Info("identical image already in flight; skipping",
			logging.String(logging.FieldEventType, "item_duplicate"),
			logging.String(logging.FieldDigest, digest),
		)
		res.outcome = OutcomeSkipped
		return res
	}
	defer r.release(digest)

	done, err := r.deps.Ledger.IsProcessed(stageCtx, digest)
	if err != nil {
		return fail(StageHash, fmt.Errorf("ledger lookup: %w", err))
	}
	if done {
		logger.Info("image already processed; skipping",
			logging.String(logging.FieldEventType, "item_skipped"),
			logging.String(logging.FieldDigest, digest),
		)
		res.outcome = OutcomeSkipped
		return res
	}

	img, err := imaging.Decode(data)
	if err != nil {
		return fail(StageDecode, err)
	}
	mime := imaging.DetectMIME(data)

	stageCtx, _ = r.stage(ctx, StageAnalyze)
	meta, err := r.deps.Analyzer.Extract(stageCtx, data, mime)
	if err != nil {
		return fail(StageAnalyze, err)
	}

	stageCtx, _ = r.stage(ctx, StageTranslate)
	localized, err := r.deps.Localizer.LocalizeAll(stageCtx, meta, r.opts.Languages)
	if err != nil {
		return fail(StageTranslate, err)
	}

	if err := os.MkdirAll(r.opts.WorkDir, 0o755); err != nil {
		return fail(StageTrace, services.Wrap(services.ErrConfiguration, StageTrace, "create work dir", r.opts.WorkDir, err))
	}
	workDir, err := os.MkdirTemp(r.opts.WorkDir, digest[:12]+"-")
	if err != nil {
		return fail(StageTrace, services.Wrap(services.ErrConfiguration, StageTrace, "create work dir", r.opts.WorkDir, err))
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "work directory cleanup failed", "workdir_cleanup_failed",
				logging.String("work_dir", workDir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "scratch files remain on disk"),
			)
		}
	}()

	stageCtx, _ = r.stage(ctx, StageTrace)
	traced, err := r.deps.Tracer.Trace(stageCtx, img, workDir)
	if err != nil {
		return fail(StageTrace, err)
	}
	traceSVG, err := os.ReadFile(traced.SVGPath)
	if err != nil {
		return fail(StageTrace, services.Wrap(services.ErrExternalTool, StageTrace, "read trace", traced.SVGPath, err))
	}

	_, logger = r.stage(ctx, StageCompose)
	page, layout, err := r.deps.Composer.Compose(traceSVG)
	if err != nil {
		return fail(StageCompose, err)
	}
	composed := filepath.Join(workDir, composedName)
	if err := fileutil.WriteFileAtomic(composed, page, 0o644); err != nil {
		return fail(StageCompose, fmt.Errorf("write composed page: %w", err))
	}
	logger.Debug("page composed",
		logging.Float64("scale", layout.Scale),
		logging.Float64("translate_x", layout.TranslateX),
		logging.Float64("translate_y", layout.TranslateY),
	)

	stageCtx, _ = r.stage(ctx, StageRender)
	thumbnail := filepath.Join(workDir, thumbnailName)
	if err := r.deps.Renderer.Render(stageCtx, composed, thumbnail); err != nil {
		return fail(StageRender, err)
	}

	if err := r.deps.Validator.ValidateVector(page); err != nil {
		return fail(StageValidate, err)
	}
	if err := r.deps.Validator.ValidateRaster(thumbnail); err != nil {
		return fail(StageValidate, err)
	}

	stageCtx, _ = r.stage(ctx, StagePublish)
	subID, err := r.ensureCategories(stageCtx, src)
	if err != nil {
		return fail(StagePublish, err)
	}
	record, err := r.deps.Publisher.Publish(stageCtx, publish.Item{
		Source:        src,
		Digest:        digest,
		Localized:     localized,
		BaseLang:      r.opts.BaseLanguage.Code,
		SubcategoryID: subID,
		SVGFile:       composed,
		ThumbnailFile: thumbnail,
	})
	if err != nil {
		return fail(StagePublish, err)
	}

	stageCtx, logger = r.stage(ctx, StageRecord)
	if err := r.deps.Ledger.MarkProcessed(stageCtx, digest, src.Path, record.ID); err != nil {
		return fail(StageRecord, fmt.Errorf("record digest: %w", err))
	}
	if r.opts.DeleteSource {
		r.removeSource(logger, src.Path)
	}

	logger.Info("image published",
		logging.String(logging.FieldEventType, "item_complete"),
		logging.String("slug", record.ID),
		logging.String("title", localized[r.opts.BaseLanguage.Code].Title),
		logging.String("category_id", subID),
		logging.Duration("duration", time.Since(started)),
	)
	res.outcome = OutcomeProcessed
	res.slug = record.ID
	return res
}

// stage tags ctx with the stage name and returns a logger carrying the item
// fields and any per-stage level override.
func (r *Runner) stage(ctx context.Context, name string) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, r.logger)
	return ctx, logging.StageLogger(logger, r.opts.StageOverrides, name)
}

func (r *Runner) removeSource(logger *slog.Logger, path string) {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		logger.Debug("source image removed", logging.String("path", path))
		return
	}
	logging.WarnWithContext(logger, "source image removal failed", "source_cleanup_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "source remains; the ledger still skips it next run"),
	)
}
