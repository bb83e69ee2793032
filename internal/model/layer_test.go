package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestNormalizeMigratesLegacyOffsets(t *testing.T) {
	l := WatermarkLayer{
		ID:      "l1",
		Kind:    KindText,
		OffsetX: ptr(-50),
		OffsetY: ptr(50),
	}

	l.Normalize()

	require.NotNil(t, l.XNorm)
	require.NotNil(t, l.YNorm)
	require.InDelta(t, 0.0, *l.XNorm, 1e-9)
	require.InDelta(t, 1.0, *l.YNorm, 1e-9)
	// The legacy representation does not survive migration.
	require.Nil(t, l.OffsetX)
	require.Nil(t, l.OffsetY)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	l := WatermarkLayer{ID: "l1", XNorm: ptr(0.25), YNorm: ptr(0.75), Scale: 2, Opacity: 0.5}

	l.Normalize()
	l.Normalize()

	require.InDelta(t, 0.25, *l.XNorm, 1e-9)
	require.InDelta(t, 0.75, *l.YNorm, 1e-9)
	require.Equal(t, 2.0, l.Scale)
}

func TestNormalizeDefaults(t *testing.T) {
	l := WatermarkLayer{ID: "l1"}

	l.Normalize()

	require.Equal(t, 1.0, l.Scale)
	require.Equal(t, TileNone, l.TileMode)
	require.Equal(t, 1.0, l.TileSpacing)
	require.InDelta(t, 0.5, *l.XNorm, 1e-9)
	require.InDelta(t, 0.5, *l.YNorm, 1e-9)
}

func TestNormalizeWrapsRotation(t *testing.T) {
	l := WatermarkLayer{ID: "l1", RotationDeg: 405}
	l.Normalize()
	require.InDelta(t, 45, l.RotationDeg, 1e-9)

	l = WatermarkLayer{ID: "l2", RotationDeg: -90}
	l.Normalize()
	require.InDelta(t, 270, l.RotationDeg, 1e-9)
}

func TestNormalizeLayersCopies(t *testing.T) {
	in := []WatermarkLayer{{ID: "l1", OffsetX: ptr(0), OffsetY: ptr(0)}}

	out := NormalizeLayers(in)

	require.NotNil(t, out[0].XNorm)
	// The input slice must stay untouched.
	require.Nil(t, in[0].XNorm)
	require.NotNil(t, in[0].OffsetX)
}

func TestEffectiveLayers(t *testing.T) {
	global := []WatermarkLayer{{ID: "g"}}
	override := []WatermarkLayer{{ID: "o"}}
	j := Job{
		Images:       []ProcessedImage{{ID: "a"}, {ID: "b"}},
		GlobalLayers: global,
		Overrides:    map[string][]WatermarkLayer{"b": override},
	}

	require.Equal(t, "g", j.EffectiveLayers("a")[0].ID)
	require.Equal(t, "o", j.EffectiveLayers("b")[0].ID)

	// Removing an override falls back to the global list immediately.
	j.ResetOverride("b")
	require.Equal(t, "g", j.EffectiveLayers("b")[0].ID)
}

func TestMoveGroup(t *testing.T) {
	layers := []WatermarkLayer{
		{ID: "a", GroupID: "grp", XNorm: ptr(0.2), YNorm: ptr(0.2)},
		{ID: "b", GroupID: "grp", XNorm: ptr(0.4), YNorm: ptr(0.6)},
		{ID: "c", XNorm: ptr(0.9), YNorm: ptr(0.9)},
	}

	out := MoveGroup(layers, "a", 0.1, -0.1)

	// Both group members moved by the same delta.
	require.InDelta(t, 0.3, *out[0].XNorm, 1e-9)
	require.InDelta(t, 0.1, *out[0].YNorm, 1e-9)
	require.InDelta(t, 0.5, *out[1].XNorm, 1e-9)
	require.InDelta(t, 0.5, *out[1].YNorm, 1e-9)
	// The ungrouped layer is untouched.
	require.InDelta(t, 0.9, *out[2].XNorm, 1e-9)

	// Input not mutated.
	require.InDelta(t, 0.2, *layers[0].XNorm, 1e-9)
}

func TestMoveGroupWithoutGroupMovesOnlyTarget(t *testing.T) {
	layers := []WatermarkLayer{
		{ID: "a", XNorm: ptr(0.2), YNorm: ptr(0.2)},
		{ID: "b", XNorm: ptr(0.4), YNorm: ptr(0.4)},
	}

	out := MoveGroup(layers, "a", 0.1, 0.1)

	require.InDelta(t, 0.3, *out[0].XNorm, 1e-9)
	require.InDelta(t, 0.4, *out[1].XNorm, 1e-9)
}

func TestMoveGroupClamps(t *testing.T) {
	layers := []WatermarkLayer{{ID: "a", XNorm: ptr(0.9), YNorm: ptr(0.1)}}

	out := MoveGroup(layers, "a", 0.5, -0.5)

	require.InDelta(t, 1.0, *out[0].XNorm, 1e-9)
	require.InDelta(t, 0.0, *out[0].YNorm, 1e-9)
}

func TestScaleGroup(t *testing.T) {
	layers := []WatermarkLayer{
		{ID: "a", GroupID: "grp", Scale: 1},
		{ID: "b", GroupID: "grp", Scale: 2},
		{ID: "c", Scale: 1},
	}

	out := ScaleGroup(layers, "a", 1.5)

	require.InDelta(t, 1.5, out[0].Scale, 1e-9)
	require.InDelta(t, 3.0, out[1].Scale, 1e-9)
	require.InDelta(t, 1.0, out[2].Scale, 1e-9)

	// Non-positive factors are rejected.
	same := ScaleGroup(layers, "a", 0)
	require.Equal(t, layers, same)
}

func TestAnchorPrefersNormalized(t *testing.T) {
	l := WatermarkLayer{XNorm: ptr(0.25), YNorm: ptr(0.75), OffsetX: ptr(50), OffsetY: ptr(50)}

	x, y := l.Anchor()

	require.InDelta(t, 0.25, x, 1e-9)
	require.InDelta(t, 0.75, y, 1e-9)
}
