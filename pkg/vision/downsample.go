package vision

import (
	"math"

	"github.com/menta2k/smartcrop/pkg/types"
)

// Downsample reduces the scratch buffer by factor, aggregating each
// factor x factor block. Skin and detail blend the block mean with its
// maximum so that small strong signals survive; saturation and boost use the
// plain mean. Trailing rows and columns that do not fill a block are dropped.
func Downsample(in *types.ScratchBuffer, factor int) *types.ScratchBuffer {
	width := in.Width / factor
	height := in.Height / factor
	out := types.NewScratchBuffer(width, height)
	ifactor2 := 1 / float64(factor*factor)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var r, g, b, a float64
			var mr, mg float64

			for v := 0; v < factor; v++ {
				row := (y*factor + v) * in.Width
				for u := 0; u < factor; u++ {
					k := row + x*factor + u
					j := k * 4
					cr, cg := float64(in.Pix[j]), float64(in.Pix[j+1])
					r += cr
					g += cg
					b += float64(in.Pix[j+2])
					a += in.Boost[k]
					mr = math.Max(mr, cr)
					mg = math.Max(mg, cg)
				}
			}

			k := y*width + x
			i := k * 4
			out.Pix[i] = clampByte(r*ifactor2*0.5 + mr*0.5)
			out.Pix[i+1] = clampByte(g*ifactor2*0.7 + mg*0.3)
			out.Pix[i+2] = clampByte(b * ifactor2)
			out.Boost[k] = a * ifactor2
			out.Pix[i+3] = clampByte(out.Boost[k])
		}
	}

	return out
}
