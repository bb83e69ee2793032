// Package render draws watermark layers onto base images. The compositor is
// deterministic: the same base image, layer list and options always produce
// byte-identical output, and layers are never mutated by a render call.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/markforge/watermark-engine/internal/apperr"
	"github.com/markforge/watermark-engine/internal/fontcache"
	"github.com/markforge/watermark-engine/internal/model"
)

// LogoResolver looks up the decoded bitmap for a logo layer. A lookup miss
// causes the layer to be skipped, not the render to fail.
type LogoResolver interface {
	Resolve(logoID string) (image.Image, bool)
}

// Compositor renders a base image plus an ordered layer list into one
// output surface. Safe for concurrent use; all per-render state is local.
type Compositor struct {
	fonts *fontcache.Cache
}

// New creates a Compositor using the given font cache.
func New(fonts *fontcache.Cache) *Compositor {
	return &Compositor{fonts: fonts}
}

// Render draws the layers over the base image and encodes the result
// according to opts.
func (c *Compositor) Render(base image.Image, layers []model.WatermarkLayer, opts model.RenderOptions, logos LogoResolver) (*model.Artifact, error) {
	out, err := c.RenderImage(base, layers, opts, logos)
	if err != nil {
		return nil, err
	}
	return c.Encode(out, opts)
}

// RenderImage draws the layers over the base image and returns the raw
// surface, leaving encoding to the caller.
func (c *Compositor) RenderImage(base image.Image, layers []model.WatermarkLayer, opts model.RenderOptions, logos LogoResolver) (image.Image, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: no base image", apperr.ErrRenderSurface)
	}

	bounds := base.Bounds()
	baseW, baseH := bounds.Dx(), bounds.Dy()

	scale := opts.Scale
	if scale <= 0 || scale > 1 {
		scale = 1
	}

	outW := int(math.Floor(float64(baseW) * scale))
	outH := int(math.Floor(float64(baseH) * scale))
	if opts.Width > 0 && opts.Height > 0 {
		outW, outH = opts.Width, opts.Height
	}
	if outW < 1 || outH < 1 {
		return nil, fmt.Errorf("%w: output size %dx%d", apperr.ErrRenderSurface, outW, outH)
	}

	// Preview and export differ only in absolute scale; all layer placement
	// below is computed against the output size.
	scaled := base
	if outW != baseW || outH != baseH {
		scaled = imaging.Resize(base, outW, outH, imaging.Lanczos)
	}

	dc := gg.NewContext(outW, outH)
	dc.DrawImage(scaled, 0, 0)

	// The ratio between output and source width drives unlocked logo sizing
	// so previews shrink logos proportionally.
	renderScale := float64(outW) / float64(baseW)

	for _, l := range paintOrder(layers) {
		switch l.Kind {
		case model.KindText:
			c.drawText(dc, l, outW, outH)
		case model.KindLogo:
			c.drawLogo(dc, l, outW, outH, renderScale, logos)
		}
	}

	return dc.Image(), nil
}

// Encode converts a rendered surface into the requested artifact format.
func (c *Compositor) Encode(img image.Image, opts model.RenderOptions) (*model.Artifact, error) {
	quality := opts.Quality
	if quality <= 0 || quality > 1 {
		quality = 0.9
	}

	buf := new(bytes.Buffer)
	var err error
	switch opts.Format {
	case model.FormatPNG:
		err = imaging.Encode(buf, img, imaging.PNG)
	case model.FormatWebP:
		err = webp.Encode(buf, img, &webp.Options{Quality: float32(quality * 100)})
	default:
		err = imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(int(quality*100)))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrArtifactEncode, opts.Format)
	}

	artifact := &model.Artifact{MIME: opts.Format.MIME()}
	if opts.OutputKind == model.OutputInline {
		artifact.Inline = "data:" + artifact.MIME + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	} else {
		artifact.Bytes = buf.Bytes()
	}
	return artifact, nil
}

// paintOrder filters out disabled layers and sorts the remainder ascending
// by z-index. The sort is stable so layers with equal z-index keep their
// original order, which keeps renders deterministic.
func paintOrder(layers []model.WatermarkLayer) []model.WatermarkLayer {
	out := make([]model.WatermarkLayer, 0, len(layers))
	for _, l := range layers {
		if l.Enabled {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}
