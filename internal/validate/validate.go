// Package validate checks composed pages and thumbnails before they are
// published. A failed check rejects the item without retry.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/beevik/etree"

	"pagesmith/internal/compose"
	"pagesmith/internal/imaging"
	"pagesmith/internal/services"
)

// Error lists every problem found in one artifact. It matches
// services.ErrValidation.
type Error struct {
	Artifact string
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s invalid: %s", services.ErrValidation, e.Artifact, strings.Join(e.Problems, "; "))
}

func (e *Error) Is(target error) bool {
	return target == services.ErrValidation
}

// Rules are the acceptance criteria.
type Rules struct {
	PageWidthPx    int
	PageHeightPx   int
	Style          compose.Style
	ThumbWidth     int
	PageRatio      float64 // page height / width
	RatioTolerance float64
	MinContrast    int
}

// Validator applies Rules to artifacts.
type Validator struct {
	rules Rules
}

// New returns a Validator for rules.
func New(rules Rules) *Validator {
	return &Validator{rules: rules}
}

// ValidateVector checks a composed SVG document: an svg root at the exact
// page pixel size, at least one drawable element, and no fill or stroke other
// than the configured style.
func (v *Validator) ValidateVector(svg []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(svg); err != nil {
		return &Error{Artifact: "vector", Problems: []string{"unparseable: " + err.Error()}}
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return &Error{Artifact: "vector", Problems: []string{"root element is not svg"}}
	}

	var problems []string
	problems = append(problems, checkDimension(root, "width", v.rules.PageWidthPx)...)
	problems = append(problems, checkDimension(root, "height", v.rules.PageHeightPx)...)

	fill := compose.NormalizeColor(v.rules.Style.Fill)
	stroke := compose.NormalizeColor(v.rules.Style.Stroke)
	drawables := 0
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if compose.DrawableTags[el.Tag] {
			drawables++
		}
		problems = append(problems, checkPaint(el, fill, stroke)...)
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	if drawables == 0 {
		problems = append(problems, "no drawable elements")
	}

	if len(problems) > 0 {
		return &Error{Artifact: "vector", Problems: problems}
	}
	return nil
}

func checkDimension(root *etree.Element, name string, want int) []string {
	raw := root.SelectAttrValue(name, "")
	got, err := compose.ParseLength(raw)
	if err != nil {
		return []string{fmt.Sprintf("%s %q is not numeric", name, raw)}
	}
	if int(math.Round(got)) != want {
		return []string{fmt.Sprintf("%s %s, want %dpx", name, raw, want)}
	}
	return nil
}

func checkPaint(el *etree.Element, fill, stroke string) []string {
	var problems []string
	check := func(prop, value, want string) {
		if got := compose.NormalizeColor(value); got != want {
			problems = append(problems, fmt.Sprintf("<%s> %s %q, want %q", el.Tag, prop, value, want))
		}
	}
	if attr := el.SelectAttr("fill"); attr != nil {
		check("fill", attr.Value, fill)
	}
	if attr := el.SelectAttr("stroke"); attr != nil {
		check("stroke", attr.Value, stroke)
	}
	if attr := el.SelectAttr("style"); attr != nil {
		for _, p := range compose.ParseStyle(attr.Value) {
			switch strings.ToLower(p.Name) {
			case "fill":
				check("style fill", p.Value, fill)
			case "stroke":
				check("style stroke", p.Value, stroke)
			}
		}
	}
	return problems
}

// ValidateRaster checks a thumbnail file: exact configured width, page
// aspect ratio within tolerance, and enough contrast to not be blank.
func (v *Validator) ValidateRaster(path string) error {
	stats, err := imaging.Inspect(path)
	if err != nil {
		return &Error{Artifact: "thumbnail", Problems: []string{"unreadable: " + err.Error()}}
	}

	var problems []string
	if stats.Width != v.rules.ThumbWidth {
		problems = append(problems, fmt.Sprintf("width %d, want %d", stats.Width, v.rules.ThumbWidth))
	}
	if stats.Width > 0 {
		ratio := float64(stats.Height) / float64(stats.Width)
		if math.Abs(ratio-v.rules.PageRatio) > v.rules.RatioTolerance {
			problems = append(problems, fmt.Sprintf("aspect ratio %.3f, want %.3f±%.3f", ratio, v.rules.PageRatio, v.rules.RatioTolerance))
		}
	}
	if contrast := int(stats.Max) - int(stats.Min); contrast < v.rules.MinContrast {
		problems = append(problems, fmt.Sprintf("contrast %d below %d", contrast, v.rules.MinContrast))
	}

	if len(problems) > 0 {
		return &Error{Artifact: "thumbnail", Problems: problems}
	}
	return nil
}
