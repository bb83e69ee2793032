// Package coord provides the pure conversions between normalized unit-square
// coordinates and pixel coordinates. Every function is stateless and
// deterministic; out-of-range input is clamped, never rejected, so the
// rendering path can rely on valid values structurally.
package coord

// Clamp limits v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToNorm converts a pixel position on an image of the given size to
// normalized coordinates in [0, 1].
func ToNorm(px, py, w, h float64) (xNorm, yNorm float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return Clamp(px/w, 0, 1), Clamp(py/h, 0, 1)
}

// ToPixels converts normalized coordinates to a pixel position on an image
// of the given size.
func ToPixels(xNorm, yNorm, w, h float64) (px, py float64) {
	return Clamp(xNorm, 0, 1) * w, Clamp(yNorm, 0, 1) * h
}

// LegacyOffsetsToNorm migrates the legacy percent-offset-from-center scheme
// to normalized coordinates: an offset of 0 is the image center, -100/+100
// the edges.
func LegacyOffsetsToNorm(offsetX, offsetY float64) (xNorm, yNorm float64) {
	return Clamp(offsetX/100+0.5, 0, 1), Clamp(offsetY/100+0.5, 0, 1)
}

// NormToLegacyOffsets is the inverse of LegacyOffsetsToNorm.
func NormToLegacyOffsets(xNorm, yNorm float64) (offsetX, offsetY float64) {
	return Clamp((xNorm-0.5)*100, -100, 100), Clamp((yNorm-0.5)*100, -100, 100)
}

// FontSizePixels resolves a relative font size (percent of image height)
// to pixels for a concrete image height.
func FontSizePixels(relative, imageHeight float64) float64 {
	return relative / 100 * imageHeight
}

// FontSizeRelative is the inverse of FontSizePixels, used when persisting a
// pixel size back into the resolution-independent representation.
func FontSizeRelative(pixels, imageHeight float64) float64 {
	if imageHeight <= 0 {
		return 0
	}
	return pixels / imageHeight * 100
}

// LogoWidthFromNorm resolves a scale-locked logo's draw size: the width is a
// constant fraction of the image width, the height follows the bitmap's
// natural aspect ratio.
func LogoWidthFromNorm(widthNorm, imageWidth float64, naturalWidth, naturalHeight int) (w, h float64) {
	w = Clamp(widthNorm, 0, 1) * imageWidth
	if naturalWidth <= 0 || naturalHeight <= 0 {
		return w, w
	}
	return w, w * float64(naturalHeight) / float64(naturalWidth)
}
