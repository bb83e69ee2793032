package model

import (
	"github.com/markforge/watermark-engine/internal/coord"
)

// LayerKind discriminates the two overlay element types.
type LayerKind string

const (
	KindText LayerKind = "text"
	KindLogo LayerKind = "logo"
)

// Effect selects the visual treatment of a layer. Text layers use
// Solid/Outline/Shadow/Glow/Gradient; logo layers use Solid/Shadow/Box.
type Effect string

const (
	EffectSolid    Effect = "solid"
	EffectOutline  Effect = "outline"
	EffectShadow   Effect = "shadow"
	EffectGlow     Effect = "glow"
	EffectGradient Effect = "gradient"
	EffectBox      Effect = "box"
)

// TileMode controls repetition of a text layer across the image.
type TileMode string

const (
	TileNone     TileMode = "none"
	TileGrid     TileMode = "grid"
	TileDiagonal TileMode = "diagonal"
)

// TextAlign controls horizontal alignment of wrapped text lines.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// WatermarkLayer is one overlay element (text or logo) positioned in
// normalized image space, so the same layer list renders proportionally
// on images of any resolution.
//
// Position is driven either by XNorm/YNorm or by the legacy percent-offset
// pair; Normalize migrates a legacy layer once, after which only the
// normalized fields are authoritative.
type WatermarkLayer struct {
	ID      string    `json:"id"`
	Kind    LayerKind `json:"kind"`
	ZIndex  int       `json:"z_index"`
	Enabled bool      `json:"enabled"`
	Locked  bool      `json:"locked"` // editor-only, ignored by rendering
	GroupID string    `json:"group_id,omitempty"`

	// Anchor point in normalized coordinates, (0.5, 0.5) = image center.
	XNorm *float64 `json:"x_norm,omitempty"`
	YNorm *float64 `json:"y_norm,omitempty"`

	// Legacy percent offsets from the image center, in [-100, 100].
	OffsetX *float64 `json:"offset_x,omitempty"`
	OffsetY *float64 `json:"offset_y,omitempty"`

	Scale       float64 `json:"scale"`
	RotationDeg float64 `json:"rotation_deg"`
	Opacity     float64 `json:"opacity"`

	// Tiling applies to text layers only.
	TileMode    TileMode `json:"tile_mode,omitempty"`
	TileSpacing float64  `json:"tile_spacing,omitempty"`

	Effect         Effect  `json:"effect"`
	SecondaryColor string  `json:"secondary_color,omitempty"`
	BoxFill        string  `json:"box_fill,omitempty"`
	BoxOpacity     float64 `json:"box_opacity,omitempty"`
	BoxPadding     float64 `json:"box_padding,omitempty"` // fraction of the logo draw width
	BoxRadius      float64 `json:"box_radius,omitempty"`  // corner radius, fraction of the box height

	// Text-only fields.
	Text             string    `json:"text,omitempty"`
	FontFamily       string    `json:"font_family,omitempty"`
	FontWeight       string    `json:"font_weight,omitempty"`
	FontStyle        string    `json:"font_style,omitempty"`
	FontSizeRelative float64   `json:"font_size_relative,omitempty"` // percent of image height
	TextWidthPercent float64   `json:"text_width_percent,omitempty"` // wrap width, percent of image width
	TextAlign        TextAlign `json:"text_align,omitempty"`
	Color            string    `json:"color,omitempty"`

	// Logo-only fields.
	LogoID        string  `json:"logo_id,omitempty"`
	NaturalWidth  int     `json:"natural_width,omitempty"`
	NaturalHeight int     `json:"natural_height,omitempty"`
	ScaleLocked   bool    `json:"scale_locked,omitempty"`
	WidthNorm     float64 `json:"width_norm,omitempty"` // locked width as fraction of image width
}

// Normalize migrates a legacy percent-offset layer to normalized coordinates
// and clamps transform fields into their valid ranges. It is idempotent: a
// layer that already carries normalized coordinates keeps them untouched.
func (l *WatermarkLayer) Normalize() {
	if l.XNorm == nil || l.YNorm == nil {
		var ox, oy float64
		if l.OffsetX != nil {
			ox = *l.OffsetX
		}
		if l.OffsetY != nil {
			oy = *l.OffsetY
		}
		x, y := coord.LegacyOffsetsToNorm(ox, oy)
		l.XNorm = &x
		l.YNorm = &y
	}
	l.OffsetX = nil
	l.OffsetY = nil

	if l.Scale <= 0 {
		l.Scale = 1
	}
	l.Opacity = coord.Clamp(l.Opacity, 0, 1)
	l.RotationDeg = wrapDegrees(l.RotationDeg)
	if l.TileMode == "" {
		l.TileMode = TileNone
	}
	if l.TileSpacing <= 0 {
		l.TileSpacing = 1
	}
}

// Anchor returns the layer's normalized anchor point. Layers should be
// normalized at ingestion; a not-yet-migrated legacy layer is converted on
// the fly without being mutated.
func (l WatermarkLayer) Anchor() (x, y float64) {
	if l.XNorm != nil && l.YNorm != nil {
		return coord.Clamp(*l.XNorm, 0, 1), coord.Clamp(*l.YNorm, 0, 1)
	}
	var ox, oy float64
	if l.OffsetX != nil {
		ox = *l.OffsetX
	}
	if l.OffsetY != nil {
		oy = *l.OffsetY
	}
	return coord.LegacyOffsetsToNorm(ox, oy)
}

// NormalizeLayers returns a copy of layers with every element migrated to
// normalized coordinates. The input slice is not modified.
func NormalizeLayers(layers []WatermarkLayer) []WatermarkLayer {
	out := make([]WatermarkLayer, len(layers))
	copy(out, layers)
	for i := range out {
		out[i].Normalize()
	}
	return out
}

// MoveGroup applies the positional delta of one directly manipulated layer
// to every layer sharing its group, so grouped layers move as a rigid set.
// Layers without a group, or the group of a different id, are untouched.
func MoveGroup(layers []WatermarkLayer, movedID string, dx, dy float64) []WatermarkLayer {
	moved := findLayer(layers, movedID)
	if moved == nil {
		return layers
	}
	out := make([]WatermarkLayer, len(layers))
	copy(out, layers)
	for i := range out {
		if out[i].ID != movedID && (moved.GroupID == "" || out[i].GroupID != moved.GroupID) {
			continue
		}
		x, y := out[i].Anchor()
		nx := coord.Clamp(x+dx, 0, 1)
		ny := coord.Clamp(y+dy, 0, 1)
		out[i].XNorm = &nx
		out[i].YNorm = &ny
		out[i].OffsetX = nil
		out[i].OffsetY = nil
	}
	return out
}

// ScaleGroup multiplies the scale of the manipulated layer and of every
// layer sharing its group by the same factor.
func ScaleGroup(layers []WatermarkLayer, scaledID string, factor float64) []WatermarkLayer {
	if factor <= 0 {
		return layers
	}
	scaled := findLayer(layers, scaledID)
	if scaled == nil {
		return layers
	}
	out := make([]WatermarkLayer, len(layers))
	copy(out, layers)
	for i := range out {
		if out[i].ID != scaledID && (scaled.GroupID == "" || out[i].GroupID != scaled.GroupID) {
			continue
		}
		out[i].Scale *= factor
	}
	return out
}

func findLayer(layers []WatermarkLayer, id string) *WatermarkLayer {
	for i := range layers {
		if layers[i].ID == id {
			return &layers[i]
		}
	}
	return nil
}

func wrapDegrees(d float64) float64 {
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	return d
}
