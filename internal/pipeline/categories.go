package pipeline

import (
	"context"
	"fmt"

	"pagesmith/internal/catalog"
)

// ensureCategories creates the main and subcategory records for src on
// first sight and links them. It returns the subcategory id. Creation is
// serialized so concurrent workers never translate or write the same
// category twice.
func (r *Runner) ensureCategories(ctx context.Context, src catalog.SourceImage) (string, error) {
	mainID := catalog.MainCategoryID(src.MainCategory)
	subID := catalog.SubcategoryID(src.MainCategory, src.SubCategory)

	r.categoryMu.Lock()
	defer r.categoryMu.Unlock()
	if _, ok := r.categories[subID]; ok {
		return subID, nil
	}

	age := catalog.AgeGroup(src.MainCategory)
	if err := r.ensureCategory(ctx, catalog.Category{ID: mainID, AgeGroup: age}, src.MainCategory); err != nil {
		return "", err
	}
	if err := r.ensureCategory(ctx, catalog.Category{ID: subID, AgeGroup: age, ParentID: mainID}, src.SubCategory); err != nil {
		return "", err
	}
	if err := r.deps.Publisher.AddSubcategory(ctx, mainID, subID); err != nil {
		return "", fmt.Errorf("link subcategory %s: %w", subID, err)
	}
	r.categories[subID] = struct{}{}
	return subID, nil
}

func (r *Runner) ensureCategory(ctx context.Context, cat catalog.Category, name string) error {
	exists, err := r.deps.Publisher.HasCategory(ctx, cat.ID)
	if err != nil {
		return fmt.Errorf("category %s: %w", cat.ID, err)
	}
	if exists {
		return nil
	}
	display := catalog.DisplayName(name, r.opts.BaseLanguage.Code)
	cat.Names = r.deps.Localizer.LocalizeName(ctx, display, r.opts.Languages)
	if r.opts.IconBaseURL != "" {
		cat.IconURL = r.opts.IconBaseURL + "/" + cat.ID + ".png"
	}
	if _, err := r.deps.Publisher.PutCategory(ctx, cat); err != nil {
		return fmt.Errorf("create category %s: %w", cat.ID, err)
	}
	return nil
}
