package compose

import (
	"strings"

	"github.com/beevik/etree"
)

// DrawableTags are the SVG elements that paint geometry.
var DrawableTags = map[string]bool{
	"path":     true,
	"rect":     true,
	"circle":   true,
	"ellipse":  true,
	"polygon":  true,
	"polyline": true,
	"line":     true,
}

// Style is the single paint style every composed shape carries.
type Style struct {
	Fill   string
	Stroke string
}

// CSS renders the style block rule applied to every drawable element.
func (s Style) CSS() string {
	return "path,rect,circle,ellipse,polygon,polyline,line{fill:" + s.Fill + ";stroke:" + s.Stroke + "}"
}

// NormalizeColor lowercases a paint value and expands #rgb to #rrggbb so
// equivalent spellings compare equal.
func NormalizeColor(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if len(value) == 4 && value[0] == '#' {
		return string([]byte{'#', value[1], value[1], value[2], value[2], value[3], value[3]})
	}
	return value
}

// StyleProp is one declaration of an inline style attribute.
type StyleProp struct {
	Name  string
	Value string
}

// ParseStyle splits an inline style attribute into ordered declarations.
func ParseStyle(style string) []StyleProp {
	var props []StyleProp
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		props = append(props, StyleProp{Name: name, Value: strings.TrimSpace(value)})
	}
	return props
}

// FormatStyle joins declarations back into an inline style attribute.
func FormatStyle(props []StyleProp) string {
	parts := make([]string, 0, len(props))
	for _, p := range props {
		parts = append(parts, p.Name+":"+p.Value)
	}
	return strings.Join(parts, ";")
}

// forceStyle rewrites el and its descendants so that every fill and stroke,
// whether an attribute or an inline style declaration, uses s.
func forceStyle(el *etree.Element, s Style) {
	if attr := el.SelectAttr("fill"); attr != nil {
		attr.Value = s.Fill
	}
	if attr := el.SelectAttr("stroke"); attr != nil {
		attr.Value = s.Stroke
	}
	if attr := el.SelectAttr("style"); attr != nil {
		attr.Value = FormatStyle(overrideProps(ParseStyle(attr.Value), s))
	}
	for _, child := range el.ChildElements() {
		forceStyle(child, s)
	}
}

func overrideProps(props []StyleProp, s Style) []StyleProp {
	var sawFill, sawStroke bool
	for i := range props {
		switch strings.ToLower(props[i].Name) {
		case "fill":
			props[i].Value, sawFill = s.Fill, true
		case "stroke":
			props[i].Value, sawStroke = s.Stroke, true
		}
	}
	if !sawFill {
		props = append(props, StyleProp{Name: "fill", Value: s.Fill})
	}
	if !sawStroke {
		props = append(props, StyleProp{Name: "stroke", Value: s.Stroke})
	}
	return props
}
