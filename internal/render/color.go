package render

import (
	"image/color"
	"strconv"
	"strings"
)

// parseHex parses "#rgb", "#rrggbb" or "#rrggbbaa" into a color, returning
// fallback for empty or malformed input.
func parseHex(s string, fallback color.Color) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	var r, g, b, a uint8
	a = 255
	switch len(s) {
	case 3:
		rv, err1 := strconv.ParseUint(strings.Repeat(s[0:1], 2), 16, 8)
		gv, err2 := strconv.ParseUint(strings.Repeat(s[1:2], 2), 16, 8)
		bv, err3 := strconv.ParseUint(strings.Repeat(s[2:3], 2), 16, 8)
		if err1 != nil || err2 != nil || err3 != nil {
			return fallback
		}
		r, g, b = uint8(rv), uint8(gv), uint8(bv)
	case 6, 8:
		v, err := strconv.ParseUint(s[:6], 16, 32)
		if err != nil {
			return fallback
		}
		r, g, b = uint8(v>>16), uint8(v>>8), uint8(v)
		if len(s) == 8 {
			av, err := strconv.ParseUint(s[6:8], 16, 8)
			if err != nil {
				return fallback
			}
			a = uint8(av)
		}
	default:
		return fallback
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// withAlpha scales a color's alpha channel by the given opacity in [0, 1].
func withAlpha(c color.Color, opacity float64) color.Color {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(float64(n.A) * opacity)
	return n
}
