package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/markforge/watermark-engine/internal/coord"
	"github.com/markforge/watermark-engine/internal/model"
)

// lineSpacing is the vertical advance between wrapped lines as a multiple
// of the font size.
const lineSpacing = 1.2

// textLayout is the measured shape of one text layer: its wrapped lines and
// the bounding box of the block.
type textLayout struct {
	lines  []string
	face   font.Face
	w, h   float64
	lineH  float64
	fontPx float64
}

func (c *Compositor) drawText(dc *gg.Context, l model.WatermarkLayer, outW, outH int) {
	if strings.TrimSpace(l.Text) == "" {
		return
	}

	fontPx := coord.FontSizePixels(l.FontSizeRelative, float64(outH)) * l.Scale
	if fontPx < 1 {
		fontPx = 1
	}

	// A missing family falls back to the bundled face inside the cache;
	// the layer still renders.
	face, _ := c.fonts.Face(l.FontFamily, l.FontWeight, l.FontStyle, fontPx)
	dc.SetFontFace(face)

	lay := c.layoutText(dc, l, face, fontPx, outW)
	ax, ay := anchorPixels(l, outW, outH)

	if l.TileMode == model.TileGrid || l.TileMode == model.TileDiagonal {
		c.drawTiledText(dc, l, lay, ax, ay, outW, outH)
		return
	}
	c.drawTextBlockAt(dc, l, lay, ax, ay)
}

// layoutText wraps the layer's text when it exceeds the configured wrap
// width and measures the resulting block.
func (c *Compositor) layoutText(dc *gg.Context, l model.WatermarkLayer, face font.Face, fontPx float64, outW int) textLayout {
	lines := []string{l.Text}
	if l.TextWidthPercent > 0 {
		maxW := l.TextWidthPercent / 100 * float64(outW)
		if w, _ := dc.MeasureString(l.Text); w > maxW {
			lines = dc.WordWrap(l.Text, maxW)
		}
	}

	lay := textLayout{
		lines:  lines,
		face:   face,
		lineH:  fontPx * lineSpacing,
		fontPx: fontPx,
	}
	for _, line := range lines {
		if w, _ := dc.MeasureString(line); w > lay.w {
			lay.w = w
		}
	}
	lay.h = lay.lineH * float64(len(lines))
	return lay
}

// drawTextBlockAt paints the full wrapped block rotated about (x, y), with
// the block vertically centered on the anchor.
func (c *Compositor) drawTextBlockAt(dc *gg.Context, l model.WatermarkLayer, lay textLayout, x, y float64) {
	dc.Push()
	if l.RotationDeg != 0 {
		dc.RotateAbout(gg.Radians(l.RotationDeg), x, y)
	}

	top := y - lay.h/2 + lay.lineH/2
	for i, line := range lay.lines {
		lx, anchor := lineAnchor(l.TextAlign, x, lay.w)
		c.drawTextLine(dc, l, lay, line, lx, top+float64(i)*lay.lineH, anchor)
	}

	dc.Pop()
}

// lineAnchor resolves the horizontal draw position and gg anchor value for
// one line, aligning lines within the block while the block itself stays
// centered on the layer anchor.
func lineAnchor(align model.TextAlign, x, blockW float64) (float64, float64) {
	switch align {
	case model.AlignLeft:
		return x - blockW/2, 0
	case model.AlignRight:
		return x + blockW/2, 1
	default:
		return x, 0.5
	}
}

// drawTextLine paints one line with the layer's effect. Every effect sets
// its own colors and leaves no drawing state behind.
func (c *Compositor) drawTextLine(dc *gg.Context, l model.WatermarkLayer, lay textLayout, line string, x, y, anchor float64) {
	primary := withAlpha(parseHex(l.Color, color.White), l.Opacity)
	secondary := withAlpha(parseHex(l.SecondaryColor, color.Black), l.Opacity)

	switch l.Effect {
	case model.EffectOutline:
		width := math.Max(2, lay.fontPx*0.1)
		dc.SetColor(secondary)
		const passes = 16
		for i := 0; i < passes; i++ {
			theta := 2 * math.Pi * float64(i) / passes
			dc.DrawStringAnchored(line, x+width*math.Cos(theta), y+width*math.Sin(theta), anchor, 0.5)
		}
		dc.SetColor(primary)
		dc.DrawStringAnchored(line, x, y, anchor, 0.5)

	case model.EffectShadow:
		offset := math.Max(2, lay.fontPx*0.06)
		// Three fading passes approximate a blurred shadow.
		for pass := 3; pass >= 1; pass-- {
			d := offset + float64(pass-1)
			dc.SetColor(withAlpha(parseHex(l.SecondaryColor, color.Black), l.Opacity*0.3/float64(pass)))
			dc.DrawStringAnchored(line, x+d, y+d, anchor, 0.5)
		}
		dc.SetColor(primary)
		dc.DrawStringAnchored(line, x, y, anchor, 0.5)

	case model.EffectGlow:
		glow := l.SecondaryColor
		if glow == "" {
			glow = l.Color
		}
		radius := math.Max(2, lay.fontPx*0.08)
		dc.SetColor(withAlpha(parseHex(glow, color.White), l.Opacity*0.25))
		const passes = 8
		for i := 0; i < passes; i++ {
			theta := 2 * math.Pi * float64(i) / passes
			dc.DrawStringAnchored(line, x+radius*math.Cos(theta), y+radius*math.Sin(theta), anchor, 0.5)
		}
		dc.SetColor(primary)
		dc.DrawStringAnchored(line, x, y, anchor, 0.5)

	case model.EffectGradient:
		img := gradientLine(dc, line, lay, primary, secondary)
		dc.DrawImageAnchored(img, int(math.Round(x)), int(math.Round(y)), anchor, 0.5)

	default: // Solid
		dc.SetColor(primary)
		dc.DrawStringAnchored(line, x, y, anchor, 0.5)
	}
}

// gradientLine renders one line offscreen through an alpha mask filled with
// a vertical gradient spanning a single line height.
func gradientLine(dc *gg.Context, line string, lay textLayout, primary, secondary color.Color) image.Image {
	lw, _ := dc.MeasureString(line)
	iw := int(math.Ceil(lw)) + 4
	ih := int(math.Ceil(lay.lineH)) + 4

	mask := gg.NewContext(iw, ih)
	mask.SetFontFace(lay.face)
	mask.SetRGB(1, 1, 1)
	mask.DrawStringAnchored(line, float64(iw)/2, float64(ih)/2, 0.5, 0.5)

	fill := gg.NewContext(iw, ih)
	grad := gg.NewLinearGradient(0, float64(ih)/2-lay.lineH/2, 0, float64(ih)/2+lay.lineH/2)
	grad.AddColorStop(0, primary)
	grad.AddColorStop(1, secondary)
	fill.SetFillStyle(grad)
	if err := fill.SetMask(mask.AsMask()); err == nil {
		fill.DrawRectangle(0, 0, float64(iw), float64(ih))
		fill.Fill()
	}
	return fill.Image()
}

// anchorPixels resolves a layer's normalized anchor against the output
// pixel size.
func anchorPixels(l model.WatermarkLayer, outW, outH int) (float64, float64) {
	x, y := l.Anchor()
	return coord.ToPixels(x, y, float64(outW), float64(outH))
}
