package render

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/markforge/watermark-engine/internal/model"
)

// drawTiledText repeats the measured text block across the whole canvas at
// spacing multiples of the block size. The lattice is phased so one
// repetition lands exactly on the layer's anchor. Diagonal mode staggers
// alternate rows by half a step, approximating repetition along the image
// diagonal; exact coverage under heavy rotation is approximate and should
// be verified visually.
func (c *Compositor) drawTiledText(dc *gg.Context, l model.WatermarkLayer, lay textLayout, ax, ay float64, outW, outH int) {
	spacing := l.TileSpacing
	if spacing <= 0 {
		spacing = 1
	}
	stepX := math.Max(lay.w*spacing, 1)
	stepY := math.Max(lay.h*spacing, 1)

	startX := math.Mod(ax, stepX) - 2*stepX
	startY := math.Mod(ay, stepY) - 2*stepY

	row := 0
	for y := startY; y <= float64(outH)+stepY; y += stepY {
		shift := 0.0
		if l.TileMode == model.TileDiagonal && row%2 == 1 {
			shift = stepX / 2
		}
		for x := startX; x <= float64(outW)+stepX; x += stepX {
			c.drawTextBlockAt(dc, l, lay, x+shift, y)
		}
		row++
	}
}
