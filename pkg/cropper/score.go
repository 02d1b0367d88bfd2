package cropper

import (
	"math"

	"github.com/menta2k/smartcrop/pkg/types"
)

// Importance weights a sample at (x, y) for the given crop. Samples outside
// the crop get OutsideImportance; inside, the weight peaks at the centre and
// along the thirds lines and drops sharply within EdgeRadius of the border.
func Importance(opts types.Options, crop types.Candidate, x, y int) float64 {
	fx, fy := float64(x), float64(y)
	if float64(crop.X) > fx || fx >= float64(crop.X)+crop.Width || float64(crop.Y) > fy || fy >= float64(crop.Y)+crop.Height {
		return opts.OutsideImportance
	}

	xf := float64(x-crop.X) / crop.Width
	yf := float64(y-crop.Y) / crop.Height

	px := math.Abs(0.5-xf) * 2
	py := math.Abs(0.5-yf) * 2

	dx := math.Max(px-1+opts.EdgeRadius, 0)
	dy := math.Max(py-1+opts.EdgeRadius, 0)
	d := (dx*dx + dy*dy) * opts.EdgeWeight

	s := 1.41 - math.Sqrt(px*px+py*py)
	if opts.RuleOfThirds {
		s += math.Max(0, s+d+0.5) * 1.2 * (thirds(px) + thirds(py))
	}

	return s + d
}

// thirds is 1 on the thirds line and falls to 0 within 1/16 of it
func thirds(x float64) float64 {
	x = (math.Mod(x-1.0/3.0+1.0, 2.0)*0.5 - 0.5) * 16
	return math.Max(1-x*x, 0)
}

// Score evaluates a candidate against a downsampled scratch buffer. Each
// scratch pixel stands for a ScoreDownSample block of the analysed image.
func Score(opts types.Options, output *types.ScratchBuffer, crop types.Candidate) types.Score {
	var score types.Score
	downSample := opts.ScoreDownSample

	for v := 0; v < output.Height; v++ {
		y := v * downSample
		for u := 0; u < output.Width; u++ {
			x := u * downSample
			k := v*output.Width + u
			p := k * 4

			imp := Importance(opts, crop, x, y)
			detail := float64(output.Pix[p+1]) / 255

			score.Skin += float64(output.Pix[p]) / 255 * (detail + opts.SkinBias) * imp
			score.Detail += detail * imp
			score.Saturation += float64(output.Pix[p+2]) / 255 * (detail + opts.SaturationBias) * imp
			score.Boost += output.Boost[k] / 255 * imp
		}
	}

	score.Total = (score.Detail*opts.DetailWeight +
		score.Skin*opts.SkinWeight +
		score.Saturation*opts.SaturationWeight +
		score.Boost*opts.BoostWeight) /
		(crop.Width * crop.Height)

	return score
}
