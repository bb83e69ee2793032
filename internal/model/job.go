package model

import "image"

// Job is a batch export request: a set of images, a default layer list and
// optional per-image overrides.
type Job struct {
	Images       []ProcessedImage            `json:"images"`
	GlobalLayers []WatermarkLayer            `json:"global_layers"`
	Overrides    map[string][]WatermarkLayer `json:"overrides,omitempty"`
}

// EffectiveLayers resolves the layer list for one image: the override list
// if the image has one, otherwise the global list.
func (j *Job) EffectiveLayers(imageID string) []WatermarkLayer {
	if layers, ok := j.Overrides[imageID]; ok {
		return layers
	}
	return j.GlobalLayers
}

// ResetOverride removes an image's override so it falls back to the global
// layer list on the next render.
func (j *Job) ResetOverride(imageID string) {
	delete(j.Overrides, imageID)
}

// ImageSource references the pixel data of one image. Exactly one of the
// fields is expected to be set: raw encoded bytes, an inline base64 string,
// or an already-decoded bitmap.
type ImageSource struct {
	Bytes  []byte      `json:"bytes,omitempty"`
	Inline string      `json:"inline,omitempty"`
	Bitmap image.Image `json:"-"`
}

// ProcessedImage is one image of a batch together with its last known
// render outcome.
type ProcessedImage struct {
	ID       string      `json:"id"`
	Filename string      `json:"filename"`
	Source   ImageSource `json:"source"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Rendered *Artifact   `json:"-"`
	LastErr  string      `json:"last_err,omitempty"`
}

// Format is the encoded output format of a render.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// MIME returns the media type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// OutputKind selects how the encoded artifact is returned.
type OutputKind string

const (
	OutputBuffer OutputKind = "buffer" // raw encoded bytes
	OutputInline OutputKind = "inline" // base64 data URL
)

// RenderOptions configures one render call. Scale 1.0 is the full-resolution
// export; a smaller scale produces a cheap preview with identical relative
// placement. Width/Height, when both set, override the computed output size.
type RenderOptions struct {
	Format     Format     `json:"format"`
	Quality    float64    `json:"quality"` // [0, 1]
	Scale      float64    `json:"scale"`   // (0, 1]
	OutputKind OutputKind `json:"output_kind"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
}

// Artifact is one rendered output: either encoded bytes or an inline base64
// data URL, per the requested OutputKind.
type Artifact struct {
	Bytes  []byte `json:"-"`
	Inline string `json:"inline,omitempty"`
	MIME   string `json:"mime"`
}
