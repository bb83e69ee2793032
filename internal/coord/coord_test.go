package coord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLegacyOffsetsRoundTrip(t *testing.T) {
	for ox := -100.0; ox <= 100; ox += 12.5 {
		for oy := -100.0; oy <= 100; oy += 12.5 {
			x, y := LegacyOffsetsToNorm(ox, oy)
			gotX, gotY := NormToLegacyOffsets(x, y)

			require.InDelta(t, ox, gotX, 1e-9)
			require.InDelta(t, oy, gotY, 1e-9)
		}
	}
}

func TestNormRoundTrip(t *testing.T) {
	for x := 0.0; x <= 1; x += 0.0625 {
		for y := 0.0; y <= 1; y += 0.0625 {
			ox, oy := NormToLegacyOffsets(x, y)
			gotX, gotY := LegacyOffsetsToNorm(ox, oy)

			require.InDelta(t, x, gotX, 1e-9)
			require.InDelta(t, y, gotY, 1e-9)
		}
	}
}

func TestLegacyOffsetsToNorm(t *testing.T) {
	tests := []struct {
		name   string
		ox, oy float64
		x, y   float64
	}{
		{name: "center", ox: 0, oy: 0, x: 0.5, y: 0.5},
		{name: "top left", ox: -50, oy: -50, x: 0, y: 0},
		{name: "bottom right", ox: 50, oy: 50, x: 1, y: 1},
		{name: "out of range clamps", ox: -500, oy: 500, x: 0, y: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := LegacyOffsetsToNorm(tt.ox, tt.oy)
			require.InDelta(t, tt.x, x, 1e-9)
			require.InDelta(t, tt.y, y, 1e-9)
		})
	}
}

func TestToPixels(t *testing.T) {
	px, py := ToPixels(0.5, 0.5, 100, 100)
	require.Equal(t, 50.0, px)
	require.Equal(t, 50.0, py)

	px, py = ToPixels(0.5, 0.5, 400, 200)
	require.Equal(t, 200.0, px)
	require.Equal(t, 100.0, py)

	// Out-of-range coordinates clamp to the image edges.
	px, py = ToPixels(-1, 2, 400, 200)
	require.Equal(t, 0.0, px)
	require.Equal(t, 200.0, py)
}

func TestToNorm(t *testing.T) {
	x, y := ToNorm(50, 50, 100, 100)
	require.Equal(t, 0.5, x)
	require.Equal(t, 0.5, y)

	x, y = ToNorm(500, -10, 100, 100)
	require.Equal(t, 1.0, x)
	require.Equal(t, 0.0, y)

	x, y = ToNorm(10, 10, 0, 0)
	require.Equal(t, 0.0, x)
	require.Equal(t, 0.0, y)
}

func TestFontSize(t *testing.T) {
	require.Equal(t, 50.0, FontSizePixels(5, 1000))
	require.Equal(t, 5.0, FontSizeRelative(50, 1000))
	require.Equal(t, 0.0, FontSizeRelative(50, 0))

	// Round trip.
	require.InDelta(t, 7.25, FontSizeRelative(FontSizePixels(7.25, 480), 480), 1e-9)
}

func TestLogoWidthFromNorm(t *testing.T) {
	w, h := LogoWidthFromNorm(0.2, 1000, 400, 200)
	require.Equal(t, 200.0, w)
	require.Equal(t, 100.0, h)

	w, h = LogoWidthFromNorm(0.2, 4000, 400, 200)
	require.Equal(t, 800.0, w)
	require.Equal(t, 400.0, h)

	// Unknown natural size falls back to a square.
	w, h = LogoWidthFromNorm(0.5, 100, 0, 0)
	require.Equal(t, 50.0, w)
	require.Equal(t, 50.0, h)
}
