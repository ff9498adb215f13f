package compose

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"pagesmith/internal/services"
)

// ViewBox is an SVG user-space rectangle.
type ViewBox struct {
	X, Y, W, H float64
}

// Page is the print target in pixels.
type Page struct {
	WidthPx     int
	HeightPx    int
	MarginRatio float64
}

// PagePixels converts a physical page length to whole pixels (truncated).
func PagePixels(mm, dpi float64) int {
	return int(math.Floor(mm * dpi / 25.4))
}

// Layout is the transform that places a viewbox on the page.
type Layout struct {
	Scale        float64
	TranslateX   float64
	TranslateY   float64
	PageWidthPx  int
	PageHeightPx int
}

// Transform renders the layout as an SVG transform attribute value.
func (l Layout) Transform() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)",
		strconv.FormatFloat(l.TranslateX, 'f', 3, 64),
		strconv.FormatFloat(l.TranslateY, 'f', 3, 64),
		strconv.FormatFloat(l.Scale, 'f', 6, 64),
	)
}

// ComputeLayout fits vb inside the margin-reduced page and centers it.
func ComputeLayout(vb ViewBox, page Page) (Layout, error) {
	if vb.W <= 0 || vb.H <= 0 {
		return Layout{}, services.Wrap(services.ErrValidation, "compose", "layout",
			fmt.Sprintf("degenerate viewbox %gx%g", vb.W, vb.H), nil)
	}
	if page.WidthPx <= 0 || page.HeightPx <= 0 {
		return Layout{}, services.Wrap(services.ErrConfiguration, "compose", "layout",
			fmt.Sprintf("invalid page %dx%d", page.WidthPx, page.HeightPx), nil)
	}
	pw, ph := float64(page.WidthPx), float64(page.HeightPx)
	usable := 1 - page.MarginRatio
	scale := math.Min(usable*pw/vb.W, usable*ph/vb.H)
	return Layout{
		Scale:        scale,
		TranslateX:   (pw-vb.W*scale)/2 - vb.X*scale,
		TranslateY:   (ph-vb.H*scale)/2 - vb.Y*scale,
		PageWidthPx:  page.WidthPx,
		PageHeightPx: page.HeightPx,
	}, nil
}

// parseViewBox reads the coordinate system of an SVG document. The viewBox
// attribute wins; otherwise width and height (px or pt stripped) are used
// with an origin of zero.
func parseViewBox(svg []byte) (ViewBox, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(svg); err != nil {
		return ViewBox{}, services.Wrap(services.ErrValidation, "compose", "parse", "malformed svg", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return ViewBox{}, services.Wrap(services.ErrValidation, "compose", "parse", "root element is not svg", nil)
	}
	return viewBoxOf(root)
}

func viewBoxOf(root *etree.Element) (ViewBox, error) {
	if raw := strings.TrimSpace(root.SelectAttrValue("viewBox", "")); raw != "" {
		fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
		if len(fields) != 4 {
			return ViewBox{}, services.Wrap(services.ErrValidation, "compose", "viewbox", fmt.Sprintf("malformed viewBox %q", raw), nil)
		}
		var vals [4]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return ViewBox{}, services.Wrap(services.ErrValidation, "compose", "viewbox", fmt.Sprintf("malformed viewBox %q", raw), err)
			}
			vals[i] = v
		}
		return ViewBox{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
	}
	w, err := ParseLength(root.SelectAttrValue("width", ""))
	if err != nil {
		return ViewBox{}, services.Wrap(services.ErrValidation, "compose", "viewbox", "no viewBox and unusable width", err)
	}
	h, err := ParseLength(root.SelectAttrValue("height", ""))
	if err != nil {
		return ViewBox{}, services.Wrap(services.ErrValidation, "compose", "viewbox", "no viewBox and unusable height", err)
	}
	return ViewBox{W: w, H: h}, nil
}

// ParseLength parses an SVG length with an optional px or pt unit.
func ParseLength(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimSuffix(strings.TrimSuffix(value, "px"), "pt")
	if value == "" {
		return 0, fmt.Errorf("empty length")
	}
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}
