package vision

import (
	"github.com/menta2k/smartcrop/pkg/types"
)

// ApplyBoosts resets the boost plane of out and adds weight*255 over every
// boost rectangle. Overlapping boosts add up without any cap; the alpha
// channel receives a clamped copy for inspection only.
func ApplyBoosts(out *types.ScratchBuffer, boosts []types.BoostRegion) {
	if len(boosts) == 0 {
		return
	}

	for i := range out.Boost {
		out.Boost[i] = 0
	}

	for _, boost := range boosts {
		applyBoost(out, boost)
	}

	for i, v := range out.Boost {
		out.Pix[i*4+3] = clampByte(v)
	}
}

func applyBoost(out *types.ScratchBuffer, boost types.BoostRegion) {
	x0 := clampInt(int(boost.X), 0, out.Width)
	x1 := clampInt(int(boost.X+boost.Width), 0, out.Width)
	y0 := clampInt(int(boost.Y), 0, out.Height)
	y1 := clampInt(int(boost.Y+boost.Height), 0, out.Height)
	weight := boost.Weight * 255

	for y := y0; y < y1; y++ {
		row := y * out.Width
		for x := x0; x < x1; x++ {
			out.Boost[row+x] += weight
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
