package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/markforge/watermark-engine/internal/coord"
	"github.com/markforge/watermark-engine/internal/model"
)

func (c *Compositor) drawLogo(dc *gg.Context, l model.WatermarkLayer, outW, outH int, renderScale float64, logos LogoResolver) {
	if logos == nil {
		return
	}
	// A logo that cannot be resolved degrades the render instead of failing
	// it; the base image is still worth exporting.
	img, ok := logos.Resolve(l.LogoID)
	if !ok || img == nil {
		return
	}

	natW, natH := l.NaturalWidth, l.NaturalHeight
	if natW <= 0 || natH <= 0 {
		b := img.Bounds()
		natW, natH = b.Dx(), b.Dy()
	}
	if natW <= 0 || natH <= 0 {
		return
	}

	var w, h float64
	if l.ScaleLocked && l.WidthNorm > 0 {
		// Locked logos keep a constant fraction of the output width, so
		// their visual proportion matches across differently sized images.
		w, h = coord.LogoWidthFromNorm(l.WidthNorm, float64(outW), natW, natH)
	} else {
		w = l.Scale * float64(natW) * renderScale
		h = w * float64(natH) / float64(natW)
	}
	if w < 1 || h < 1 {
		return
	}

	resized := imaging.Resize(img, int(math.Round(w)), int(math.Round(h)), imaging.Lanczos)
	drawable := image.Image(resized)
	if l.Opacity < 1 {
		drawable = fadeAlpha(resized, coord.Clamp(l.Opacity, 0, 1))
	}

	ax, ay := anchorPixels(l, outW, outH)

	dc.Push()
	if l.RotationDeg != 0 {
		dc.RotateAbout(gg.Radians(l.RotationDeg), ax, ay)
	}

	switch l.Effect {
	case model.EffectBox:
		drawLogoBox(dc, l, ax, ay, w, h)
	case model.EffectShadow:
		drawLogoShadow(dc, resized, l, ax, ay, w)
	}

	dc.DrawImageAnchored(drawable, int(math.Round(ax)), int(math.Round(ay)), 0.5, 0.5)
	dc.Pop()
}

// drawLogoBox fills a padded, optionally rounded rectangle beneath the logo
// at the box's own opacity.
func drawLogoBox(dc *gg.Context, l model.WatermarkLayer, ax, ay, w, h float64) {
	pad := l.BoxPadding * w
	bw, bh := w+2*pad, h+2*pad

	opacity := l.BoxOpacity
	if opacity <= 0 {
		opacity = 1
	}
	dc.SetColor(withAlpha(parseHex(l.BoxFill, color.Black), opacity))

	if r := l.BoxRadius * bh; r > 0 {
		dc.DrawRoundedRectangle(ax-bw/2, ay-bh/2, bw, bh, r)
	} else {
		dc.DrawRectangle(ax-bw/2, ay-bh/2, bw, bh)
	}
	dc.Fill()
}

// drawLogoShadow paints an offset dark silhouette of the logo before the
// logo itself is drawn. All state is local to this call.
func drawLogoShadow(dc *gg.Context, logo *image.NRGBA, l model.WatermarkLayer, ax, ay, w float64) {
	offset := math.Max(2, w*0.03)
	shadow := silhouette(logo, coord.Clamp(l.Opacity, 0, 1)*0.4)
	dc.DrawImageAnchored(shadow, int(math.Round(ax+offset)), int(math.Round(ay+offset)), 0.5, 0.5)
}

// fadeAlpha returns a copy of img with every pixel's alpha scaled by
// opacity.
func fadeAlpha(img *image.NRGBA, opacity float64) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = uint8(float64(out.Pix[i]) * opacity)
	}
	return out
}

// silhouette maps every visible pixel of img to black at the given opacity.
func silhouette(img *image.NRGBA, opacity float64) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	for i := 0; i+3 < len(img.Pix); i += 4 {
		out.Pix[i+3] = uint8(float64(img.Pix[i+3]) * opacity)
	}
	return out
}
