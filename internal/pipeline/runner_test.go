package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/catalog"
	"pagesmith/internal/compose"
	"pagesmith/internal/ledger"
	"pagesmith/internal/pipeline"
	"pagesmith/internal/procexec"
	"pagesmith/internal/publish"
	"pagesmith/internal/render"
	"pagesmith/internal/services"
	"pagesmith/internal/store"
	"pagesmith/internal/testsupport"
	"pagesmith/internal/tracer"
	"pagesmith/internal/validate"
)

const traceOutput = `<svg xmlns="http://www.w3.org/2000/svg" width="40pt" height="60pt" viewBox="0 0 40 60">
<metadata>potrace</metadata>
<g transform="translate(0,60) scale(0.1,-0.1)" fill="#000000" stroke="none"><path d="M100 100 L300 100 L300 500 Z"/></g>
</svg>`

var (
	german  = catalog.Language{Name: "Deutsch", Code: "de"}
	english = catalog.Language{Name: "Englisch", Code: "en"}
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeAnalyzer) Extract(context.Context, []byte, string) (catalog.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return catalog.Metadata{Title: "Kuh auf der Wiese", Tags: []string{"Kuh", "Wiese"}}, nil
}

func (f *fakeAnalyzer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLocalizer struct {
	mu        sync.Mutex
	nameCalls int
}

func (f *fakeLocalizer) LocalizeAll(_ context.Context, meta catalog.Metadata, _ []catalog.Language) (catalog.Localized, error) {
	return catalog.Localized{
		"de": meta.Clone(),
		"en": {Title: "Cow in the meadow", Tags: []string{"cow", "meadow"}},
	}, nil
}

func (f *fakeLocalizer) LocalizeName(_ context.Context, name string, _ []catalog.Language) map[string]string {
	f.mu.Lock()
	f.nameCalls++
	f.mu.Unlock()
	return map[string]string{"de": name, "en": name + " (en)"}
}

type harness struct {
	input     string
	output    string
	ledger    *ledger.Ledger
	publisher *publish.Local
	analyzer  *fakeAnalyzer
	localizer *fakeLocalizer
	potrace   procexec.Executor

	// optional replacements for the real collaborators
	validator pipeline.Validator
	publish   publish.Publisher

	traces  atomic.Int32
	renders atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	db, err := store.Open(context.Background(), filepath.Join(root, "state", "pagesmith.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	output := filepath.Join(root, "out")
	return &harness{
		input:     filepath.Join(root, "in"),
		output:    output,
		ledger:    ledger.New(db),
		publisher: publish.NewLocal(output, publish.FormatJSON, nil),
		analyzer:  &fakeAnalyzer{},
		localizer: &fakeLocalizer{},
		potrace: procexec.Func(func(_ context.Context, cmd procexec.Command) (procexec.Result, error) {
			return procexec.Result{}, os.WriteFile(cmd.Args[3], []byte(traceOutput), 0o644)
		}),
	}
}

type rejectingValidator struct{}

func (rejectingValidator) ValidateVector([]byte) error {
	return services.Wrap(services.ErrValidation, "validate", "svg", "stray stroke color", nil)
}

func (rejectingValidator) ValidateRaster(string) error { return nil }

// flakyPublisher fails Publish while failing is set and otherwise delegates.
type flakyPublisher struct {
	*publish.Local
	failing atomic.Bool
}

func (p *flakyPublisher) Publish(ctx context.Context, item publish.Item) (publish.ImageRecord, error) {
	if p.failing.Load() {
		return publish.ImageRecord{}, errors.New("storage unavailable")
	}
	return p.Local.Publish(ctx, item)
}

func (h *harness) runner(t *testing.T, opts pipeline.Options) *pipeline.Runner {
	t.Helper()
	inkscape := procexec.Func(func(_ context.Context, cmd procexec.Command) (procexec.Result, error) {
		h.renders.Add(1)
		return procexec.Result{}, testsupport.EncodePNG(cmd.Args[len(cmd.Args)-1], 350, 495, 100)
	})
	potrace := procexec.Func(func(ctx context.Context, cmd procexec.Command) (procexec.Result, error) {
		h.traces.Add(1)
		return h.potrace.Run(ctx, cmd)
	})
	var validator pipeline.Validator = validate.New(validate.Rules{
		PageWidthPx:    793,
		PageHeightPx:   1122,
		Style:          style,
		ThumbWidth:     350,
		PageRatio:      297.0 / 210.0,
		RatioTolerance: 0.05,
		MinContrast:    20,
	})
	if h.validator != nil {
		validator = h.validator
	}
	var publisher publish.Publisher = h.publisher
	if h.publish != nil {
		publisher = h.publish
	}
	page := compose.Page{WidthPx: 793, HeightPx: 1122, MarginRatio: 0.05}
	style := compose.Style{Fill: "#000000", Stroke: "none"}

	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(filepath.Dir(h.input), "work")
	}
	opts.BaseLanguage = german
	opts.Languages = []catalog.Language{german, english}

	r, err := pipeline.New(pipeline.Deps{
		Ledger:    h.ledger,
		Analyzer:  h.analyzer,
		Localizer: h.localizer,
		Tracer:    tracer.New(tracer.Options{Binary: "potrace", Timeout: time.Minute, BlackLevel: 0.5, TurdSize: 2, AlphaMax: 1, OptTolerance: 0.2}, potrace, nil),
		Composer:  compose.New(page, style, nil),
		Renderer:  render.New(render.Options{Binary: "inkscape", Width: 350}, inkscape, nil),
		Validator: validator,
		Publisher: publisher,
	}, opts)
	require.NoError(t, err)
	return r
}

func (h *harness) source(t *testing.T, rel string, seed int) catalog.SourceImage {
	t.Helper()
	p := filepath.Join(h.input, rel)
	testsupport.WritePNG(t, p, 40, 60, seed)
	return catalog.SourceImage{Path: p, MainCategory: "Tiere", SubCategory: "Bauernhof"}
}

func TestRunPublishesThenSkipsOnRerun(t *testing.T) {
	h := newHarness(t)
	items := []catalog.SourceImage{
		h.source(t, "Tiere/Bauernhof/kuh.png", 1),
		h.source(t, "Tiere/Bauernhof/schwein.png", 7),
	}
	var progress []pipeline.Progress
	r := h.runner(t, pipeline.Options{Workers: 2, OnProgress: func(p pipeline.Progress) {
		progress = append(progress, p)
	}})

	summary, err := r.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Zero(t, summary.Failed, "failures: %+v", summary.Failures)
	require.Len(t, progress, 2)
	assert.Equal(t, 2, progress[1].Done)
	assert.Equal(t, 2, progress[1].Total)

	slug := summary.Published[items[0].Path]
	require.NotEmpty(t, slug)
	rec, err := h.publisher.Record(slug)
	require.NoError(t, err)
	assert.Equal(t, "tiere_bauernhof", rec.CategoryID)
	assert.Equal(t, map[string]string{"de": "Kuh auf der Wiese", "en": "Cow in the meadow"}, rec.Titles)
	assert.Equal(t, []string{"Kuh", "Wiese", "cow", "meadow"}, rec.Tags)
	assert.FileExists(t, h.publisher.Abs(rec.SVGPath))
	assert.FileExists(t, h.publisher.Abs(rec.ThumbnailPath))

	entries, err := os.ReadDir(filepath.Join(filepath.Dir(h.input), "work"))
	require.NoError(t, err)
	assert.Empty(t, entries, "per-item work directories are removed")

	again, err := h.runner(t, pipeline.Options{}).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Skipped)
	assert.Zero(t, again.Processed)
	assert.Equal(t, 2, h.analyzer.count(), "skipped items make no service calls")
}

func TestRunPublishesDuplicateBytesOnce(t *testing.T) {
	h := newHarness(t)
	items := []catalog.SourceImage{
		h.source(t, "Tiere/Bauernhof/kuh.png", 3),
		h.source(t, "Tiere/Bauernhof/kuh-kopie.png", 3),
	}

	summary, err := h.runner(t, pipeline.Options{Workers: 2}).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, h.analyzer.count())
}

func TestRunIsolatesItemFailures(t *testing.T) {
	h := newHarness(t)
	good := h.source(t, "Tiere/Bauernhof/kuh.png", 1)
	broken := filepath.Join(h.input, "Tiere/Bauernhof/kaputt.png")
	require.NoError(t, os.WriteFile(broken, []byte("not an image"), 0o644))
	items := []catalog.SourceImage{
		{Path: broken, MainCategory: "Tiere", SubCategory: "Bauernhof"},
		good,
	}

	summary, err := h.runner(t, pipeline.Options{}).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	require.Equal(t, 1, summary.Failed)
	failure := summary.Failures[0]
	assert.Equal(t, broken, failure.Path)
	assert.Equal(t, pipeline.StageDecode, failure.Stage)
	assert.Equal(t, "invalid_source", failure.Cause)
	assert.Len(t, failure.Digest, 64)

	done, err := h.ledger.IsProcessed(context.Background(), failure.Digest)
	require.NoError(t, err)
	assert.False(t, done, "failed items are not recorded")
}

func TestRunRejectsInvalidArtifactWithoutRetry(t *testing.T) {
	h := newHarness(t)
	h.validator = rejectingValidator{}
	item := h.source(t, "Tiere/Bauernhof/kuh.png", 1)

	summary, err := h.runner(t, pipeline.Options{}).Run(context.Background(), []catalog.SourceImage{item})
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)
	require.Equal(t, 1, summary.Failed)
	failure := summary.Failures[0]
	assert.Equal(t, pipeline.StageValidate, failure.Stage)
	assert.Equal(t, "validation", failure.Cause)
	assert.Equal(t, int32(1), h.traces.Load(), "trace runs once")
	assert.Equal(t, int32(1), h.renders.Load(), "render runs once")

	done, err := h.ledger.IsProcessed(context.Background(), failure.Digest)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = os.Stat(filepath.Join(h.output, "Tiere", "Bauernhof"))
	assert.True(t, os.IsNotExist(err), "nothing is published for a rejected artifact")
}

func TestRunRecordsOnlyAfterPublishSucceeds(t *testing.T) {
	h := newHarness(t)
	flaky := &flakyPublisher{Local: h.publisher}
	flaky.failing.Store(true)
	h.publish = flaky
	item := h.source(t, "Tiere/Bauernhof/kuh.png", 1)

	summary, err := h.runner(t, pipeline.Options{}).Run(context.Background(), []catalog.SourceImage{item})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	failure := summary.Failures[0]
	assert.Equal(t, pipeline.StagePublish, failure.Stage)

	done, err := h.ledger.IsProcessed(context.Background(), failure.Digest)
	require.NoError(t, err)
	assert.False(t, done, "no ledger record without a successful publish")

	flaky.failing.Store(false)
	again, err := h.runner(t, pipeline.Options{}).Run(context.Background(), []catalog.SourceImage{item})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Processed, "the item is processed again on the next run")
	assert.Zero(t, again.Skipped)

	done, err = h.ledger.IsProcessed(context.Background(), failure.Digest)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRunAbortsWhenToolIsMissing(t *testing.T) {
	h := newHarness(t)
	h.potrace = procexec.Func(func(context.Context, procexec.Command) (procexec.Result, error) {
		return procexec.Result{}, services.Wrap(services.ErrToolNotFound, "", "exec", "potrace", nil)
	})
	items := []catalog.SourceImage{
		h.source(t, "Tiere/Bauernhof/kuh.png", 1),
		h.source(t, "Tiere/Bauernhof/schwein.png", 7),
		h.source(t, "Tiere/Bauernhof/pferd.png", 11),
	}

	summary, err := h.runner(t, pipeline.Options{}).Run(context.Background(), items)
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrToolNotFound))
	assert.Zero(t, summary.Processed)
	assert.Equal(t, 1, summary.Failed, "remaining items are not started")
	assert.Equal(t, "tool_not_found", summary.Failures[0].Cause)
}

func TestRunCreatesCategoriesOnce(t *testing.T) {
	h := newHarness(t)
	items := []catalog.SourceImage{
		h.source(t, "Tiere/Bauernhof/kuh.png", 1),
		h.source(t, "Tiere/Bauernhof/schwein.png", 7),
	}

	_, err := h.runner(t, pipeline.Options{Workers: 2, IconBaseURL: "https://cdn.example/icons"}).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, h.localizer.nameCalls, "main and subcategory names translated once each")

	main, err := h.publisher.Category("tiere")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"de": "Tiere", "en": "Tiere (en)"}, main.Names)
	assert.Equal(t, []string{"tiere_bauernhof"}, main.SubcategoryIDs)
	assert.Equal(t, "https://cdn.example/icons/tiere.png", main.IconURL)
	assert.Equal(t, catalog.AgeSchool, main.AgeGroup)

	sub, err := h.publisher.Category("tiere_bauernhof")
	require.NoError(t, err)
	assert.Equal(t, "tiere", sub.ParentID)
	assert.Equal(t, "Bauernhof", sub.Names["de"])
}

func TestRunDeletesSourceWhenConfigured(t *testing.T) {
	h := newHarness(t)
	item := h.source(t, "Tiere/Bauernhof/kuh.png", 1)

	summary, err := h.runner(t, pipeline.Options{DeleteSource: true}).Run(context.Background(), []catalog.SourceImage{item})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)
	assert.NoFileExists(t, item.Path)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := pipeline.New(pipeline.Deps{}, pipeline.Options{WorkDir: t.TempDir()})
	assert.Error(t, err)
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "pagesmith.lock")
	first, err := pipeline.AcquireLock(path)
	require.NoError(t, err)

	_, err = pipeline.AcquireLock(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrConfiguration))

	require.NoError(t, first.Release())
	second, err := pipeline.AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
