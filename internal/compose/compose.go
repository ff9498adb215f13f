package compose

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/beevik/etree"

	"pagesmith/internal/logging"
	"pagesmith/internal/services"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// Composer builds page-sized documents from traced SVGs.
type Composer struct {
	page   Page
	style  Style
	logger *slog.Logger
}

// New returns a Composer for page and style.
func New(page Page, style Style, logger *slog.Logger) *Composer {
	return &Composer{page: page, style: style, logger: logging.NewComponentLogger(logger, "composer")}
}

// Compose lays the traced document out on the page. Identical input yields
// identical output.
func (c *Composer) Compose(traceSVG []byte) ([]byte, Layout, error) {
	src := etree.NewDocument()
	if err := src.ReadFromBytes(traceSVG); err != nil {
		return nil, Layout{}, services.Wrap(services.ErrValidation, "compose", "parse", "malformed trace svg", err)
	}
	root := src.Root()
	if root == nil || root.Tag != "svg" {
		return nil, Layout{}, services.Wrap(services.ErrValidation, "compose", "parse", "root element is not svg", nil)
	}
	vb, err := viewBoxOf(root)
	if err != nil {
		return nil, Layout{}, err
	}
	layout, err := ComputeLayout(vb, c.page)
	if err != nil {
		return nil, Layout{}, err
	}

	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	svg := out.CreateElement("svg")
	svg.CreateAttr("xmlns", svgNamespace)
	for _, attr := range root.Attr {
		if attr.Space == "xmlns" {
			svg.CreateAttr(attr.FullKey(), attr.Value)
		}
	}
	w := strconv.Itoa(layout.PageWidthPx)
	h := strconv.Itoa(layout.PageHeightPx)
	svg.CreateAttr("width", w+"px")
	svg.CreateAttr("height", h+"px")
	svg.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", w, h))
	svg.CreateAttr("preserveAspectRatio", "xMidYMid meet")
	svg.CreateElement("style").SetText(c.style.CSS())

	group := svg.CreateElement("g")
	group.CreateAttr("transform", layout.Transform())
	group.CreateAttr("fill", c.style.Fill)
	group.CreateAttr("stroke", c.style.Stroke)

	drawables := 0
	for _, child := range root.ChildElements() {
		if child.Tag == "metadata" {
			continue
		}
		copied := child.Copy()
		forceStyle(copied, c.style)
		drawables += countDrawables(copied)
		group.AddChild(copied)
	}

	out.Indent(2)
	data, err := out.WriteToBytes()
	if err != nil {
		return nil, Layout{}, fmt.Errorf("serialize composed svg: %w", err)
	}
	c.logger.Debug("page composed",
		logging.Float64("scale", layout.Scale),
		logging.Float64("translate_x", layout.TranslateX),
		logging.Float64("translate_y", layout.TranslateY),
		logging.Int("drawables", drawables),
	)
	return data, layout, nil
}

func countDrawables(el *etree.Element) int {
	n := 0
	if DrawableTags[el.Tag] {
		n++
	}
	for _, child := range el.ChildElements() {
		n += countDrawables(child)
	}
	return n
}
