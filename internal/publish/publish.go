package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"pagesmith/internal/catalog"
	"pagesmith/internal/fileutil"
	"pagesmith/internal/logging"
	"pagesmith/internal/textutil"
)

// Supported record formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ImageRecord is the metadata document published for one image.
type ImageRecord struct {
	ID            string            `json:"id" yaml:"id"`
	Titles        map[string]string `json:"titles" yaml:"titles"`
	Tags          []string          `json:"tags" yaml:"tags"`
	AgeGroup      string            `json:"ageGroup" yaml:"ageGroup"`
	CategoryID    string            `json:"categoryId" yaml:"categoryId"`
	SVGPath       string            `json:"svgPath" yaml:"svgPath"`
	ThumbnailPath string            `json:"thumbnailPath" yaml:"thumbnailPath"`
	Timestamp     time.Time         `json:"timestamp" yaml:"timestamp"`
	Popularity    int               `json:"popularity" yaml:"popularity"`
	IsNew         bool              `json:"isNew" yaml:"isNew"`
	ProcessedHash string            `json:"processedHash" yaml:"processedHash"`
}

// Item is everything needed to publish one processed image.
type Item struct {
	Source        catalog.SourceImage
	Digest        string
	Localized     catalog.Localized
	BaseLang      string
	SubcategoryID string
	SVGFile       string
	ThumbnailFile string
}

// Publisher is the storage collaborator.
type Publisher interface {
	// Publish stores the artifacts and the image record and returns the record.
	Publish(ctx context.Context, item Item) (ImageRecord, error)
	// HasCategory reports whether a category record exists.
	HasCategory(ctx context.Context, id string) (bool, error)
	// PutCategory creates cat unless a record with its id exists.
	PutCategory(ctx context.Context, cat catalog.Category) (bool, error)
	// AddSubcategory links subID into the main category's subcategory list.
	AddSubcategory(ctx context.Context, mainID, subID string) error
}

// Local publishes into a directory tree.
type Local struct {
	root   string
	format string
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	categoryMu sync.Mutex
}

// NewLocal returns a publisher rooted at root writing records in format.
func NewLocal(root, format string, logger *slog.Logger) *Local {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatYAML {
		format = FormatJSON
	}
	return &Local{
		root:   root,
		format: format,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: logging.NewComponentLogger(logger, "publish"),
	}
}

// Slug builds a unique record id from a title: the readable slug of the
// title plus six hex characters of a random UUID.
func Slug(title string, newID func() string) string {
	suffix := strings.ReplaceAll(newID(), "-", "")
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return textutil.Slug(title, "bild") + "-" + suffix
}

// Publish implements Publisher.
func (l *Local) Publish(ctx context.Context, item Item) (ImageRecord, error) {
	base, ok := item.Localized[item.BaseLang]
	if !ok {
		return ImageRecord{}, fmt.Errorf("publish: no %s metadata", item.BaseLang)
	}
	main := textutil.SanitizePathSegment(item.Source.MainCategory)
	sub := textutil.SanitizePathSegment(item.Source.SubCategory)
	if main == "" || sub == "" {
		return ImageRecord{}, fmt.Errorf("publish: unusable category %q/%q", item.Source.MainCategory, item.Source.SubCategory)
	}
	slug := Slug(base.Title, l.newID)

	svgRel := path.Join(main, sub, slug+".svg")
	pngRel := path.Join(main, sub, slug+".png")
	copies := []struct{ src, rel string }{{item.SVGFile, svgRel}, {item.ThumbnailFile, pngRel}}
	for i, c := range copies {
		if err := fileutil.CopyFileVerified(c.src, l.abs(c.rel)); err != nil {
			for _, done := range copies[:i] {
				_ = os.Remove(l.abs(done.rel))
			}
			return ImageRecord{}, fmt.Errorf("publish %s: %w", c.rel, err)
		}
	}

	record := ImageRecord{
		ID:            slug,
		Titles:        item.Localized.Titles(),
		Tags:          item.Localized.MergedTags(),
		AgeGroup:      catalog.AgeGroup(item.Source.MainCategory),
		CategoryID:    item.SubcategoryID,
		SVGPath:       svgRel,
		ThumbnailPath: pngRel,
		Timestamp:     l.now().UTC(),
		Popularity:    0,
		IsNew:         true,
		ProcessedHash: item.Digest,
	}
	if err := l.writeDoc(path.Join("records", slug+"."+l.format), record); err != nil {
		_ = os.Remove(l.abs(svgRel))
		_ = os.Remove(l.abs(pngRel))
		return ImageRecord{}, err
	}
	logging.WithContext(ctx, l.logger).Debug("image published",
		logging.String("slug", slug),
		logging.String("svg_path", svgRel),
	)
	return record, nil
}

// HasCategory implements Publisher.
func (l *Local) HasCategory(_ context.Context, id string) (bool, error) {
	_, err := os.Stat(l.abs(l.categoryPath(id)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat category %s: %w", id, err)
}

// PutCategory implements Publisher.
func (l *Local) PutCategory(ctx context.Context, cat catalog.Category) (bool, error) {
	l.categoryMu.Lock()
	defer l.categoryMu.Unlock()

	exists, err := l.HasCategory(ctx, cat.ID)
	if err != nil || exists {
		return false, err
	}
	if cat.SubcategoryIDs == nil {
		cat.SubcategoryIDs = []string{}
	}
	if err := l.writeDoc(l.categoryPath(cat.ID), cat); err != nil {
		return false, err
	}
	l.logger.Info("category created",
		logging.String("category_id", cat.ID),
		logging.String("parent_id", cat.ParentID),
	)
	return true, nil
}

// AddSubcategory implements Publisher.
func (l *Local) AddSubcategory(_ context.Context, mainID, subID string) error {
	l.categoryMu.Lock()
	defer l.categoryMu.Unlock()

	rel := l.categoryPath(mainID)
	var cat catalog.Category
	if err := l.readDoc(rel, &cat); err != nil {
		return err
	}
	if slices.Contains(cat.SubcategoryIDs, subID) {
		return nil
	}
	cat.SubcategoryIDs = append(cat.SubcategoryIDs, subID)
	slices.Sort(cat.SubcategoryIDs)
	return l.writeDoc(rel, cat)
}

// Category reads a category record.
func (l *Local) Category(id string) (catalog.Category, error) {
	var cat catalog.Category
	err := l.readDoc(l.categoryPath(id), &cat)
	return cat, err
}

// Record reads an image record.
func (l *Local) Record(slug string) (ImageRecord, error) {
	var rec ImageRecord
	err := l.readDoc(path.Join("records", slug+"."+l.format), &rec)
	return rec, err
}

// Abs resolves a published relative path.
func (l *Local) Abs(rel string) string {
	return l.abs(rel)
}

func (l *Local) categoryPath(id string) string {
	return path.Join("categories", id+"."+l.format)
}

func (l *Local) abs(rel string) string {
	return filepath.Join(l.root, filepath.FromSlash(rel))
}

func (l *Local) writeDoc(rel string, doc any) error {
	data, err := l.marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	if err := fileutil.WriteFileAtomic(l.abs(rel), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func (l *Local) readDoc(rel string, target any) error {
	data, err := os.ReadFile(l.abs(rel))
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	if l.format == FormatYAML {
		err = yaml.Unmarshal(data, target)
	} else {
		err = json.Unmarshal(data, target)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", rel, err)
	}
	return nil
}

func (l *Local) marshal(doc any) ([]byte, error) {
	if l.format == FormatYAML {
		return yaml.Marshal(doc)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
