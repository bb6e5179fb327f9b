package iconpane

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/beevik/etree"
	"github.com/srwiley/oksvg"
	"golang.org/x/image/colornames"
)

// RenderStyle is the presentation applied to an icon at render time.
// A nil Background means no background is painted.
type RenderStyle struct {
	Foreground color.NRGBA
	Background *color.NRGBA
	Size       int
}

// DefaultRenderStyle renders black icons on a transparent canvas.
func DefaultRenderStyle(size int) RenderStyle {
	return RenderStyle{Foreground: color.NRGBA{A: 0xff}, Size: size}
}

// StyledIcon is recolored markup plus the background the rasterizer has to paint behind it.
type StyledIcon struct {
	Markup     string
	Background *color.NRGBA
}

// ParseColor parses a CSS color: a named color, #rgb, #rrggbb or rgb().
func ParseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[v]; ok {
		return color.NRGBAModel.Convert(c).(color.NRGBA), nil
	}
	if v == "" || v == "none" || strings.HasPrefix(v, "url") {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if strings.HasPrefix(v, "#") && len(v) != 4 && len(v) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	c, err := oksvg.ParseSVGColor(v)
	if err != nil || c == nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA), nil
}

// Hex formats c as a #rrggbb string.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// paintElements are the elements whose fill and stroke are recolored.
var paintElements = map[string]bool{
	"path":     true,
	"rect":     true,
	"circle":   true,
	"ellipse":  true,
	"line":     true,
	"polyline": true,
	"polygon":  true,
	"g":        true,
	"use":      true,
	"text":     true,
	"tspan":    true,
}

// Subtrees that describe paint servers or clipping geometry keep their colors.
var skippedElements = map[string]bool{
	"defs":           true,
	"mask":           true,
	"clipPath":       true,
	"linearGradient": true,
	"radialGradient": true,
	"pattern":        true,
	"style":          true,
}

// ApplyStyle recolors markup according to the color model of its library.
//
// multiColor markup is returned byte for byte. strokeBased markup gets every explicit
// stroke replaced by the foreground color. fillBased markup gets its root filled and every
// explicit fill and stroke replaced. A "none" paint is never touched, whether it is set as
// an attribute or inside a style declaration.
func ApplyStyle(markup string, model ColorModel, style RenderStyle) (StyledIcon, error) {
	out := StyledIcon{Markup: markup, Background: style.Background}
	if model == MultiColor {
		return out, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(markup); err != nil {
		return StyledIcon{}, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	root := doc.Root()
	if root == nil {
		return StyledIcon{}, fmt.Errorf("%w: markup has no root element", ErrRasterize)
	}

	restyle(root, model, Hex(style.Foreground), true)

	s, err := doc.WriteToString()
	if err != nil {
		return StyledIcon{}, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	out.Markup = s
	return out, nil
}

func restyle(e *etree.Element, model ColorModel, fg string, root bool) {
	if skippedElements[e.Tag] {
		return
	}
	if root || paintElements[e.Tag] {
		switch model {
		case StrokeBased:
			repaint(e, "stroke", fg, false)
		default:
			repaint(e, "fill", fg, root)
			repaint(e, "stroke", fg, false)
		}
	}
	for _, child := range e.ChildElements() {
		restyle(child, model, fg, false)
	}
}

// repaint replaces the explicit paint of prop with fg. With force set, an element
// without any explicit paint gets one.
func repaint(e *etree.Element, prop, fg string, force bool) {
	explicit := false

	if attr := e.SelectAttr(prop); attr != nil {
		explicit = true
		if !isNone(attr.Value) {
			attr.Value = fg
		}
	}
	if attr := e.SelectAttr("style"); attr != nil {
		decl, found := repaintDeclaration(attr.Value, prop, fg)
		if found {
			explicit = true
			attr.Value = decl
		}
	}
	if force && !explicit {
		e.CreateAttr(prop, fg)
	}
}

// repaintDeclaration rewrites prop inside an inline style declaration list.
func repaintDeclaration(decl, prop, fg string) (string, bool) {
	parts := strings.Split(decl, ";")
	found := false
	for i, part := range parts {
		k, v, ok := strings.Cut(part, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), prop) {
			continue
		}
		found = true
		if isNone(v) {
			continue
		}
		parts[i] = strings.TrimSpace(k) + ":" + fg
	}
	if !found {
		return decl, false
	}
	return strings.Join(parts, ";"), true
}

func isNone(v string) bool {
	v = strings.TrimSpace(v)
	v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
	return strings.EqualFold(v, "none")
}
