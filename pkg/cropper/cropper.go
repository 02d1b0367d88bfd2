package cropper

import (
	"github.com/menta2k/smartcrop/pkg/types"
)

// scaleEpsilon absorbs float drift when stepping from MaxScale down to MinScale
const scaleEpsilon = 1e-9

// AspectRatio represents common aspect ratios
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Ratio returns width divided by height
func (a AspectRatio) Ratio() float64 {
	return float64(a.Width) / float64(a.Height)
}

// Common aspect ratios
var (
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Widescreen, Instagram, Story}
}

// LookupAspectRatio finds a preset by name
func LookupAspectRatio(name string) (AspectRatio, bool) {
	for _, ratio := range CommonAspectRatios() {
		if ratio.Name == name {
			return ratio, true
		}
	}
	return AspectRatio{}, false
}

// GenerateCandidates enumerates every crop rectangle that fits in a
// width x height image. Scales run from MaxScale down to MinScale, positions
// follow a Step grid in row-major order. The order decides ties only.
// Sizes are not rounded, so the fit check and scoring see the exact
// cropWidth*scale.
func GenerateCandidates(opts types.Options, width, height int) []types.Candidate {
	minDimension := width
	if height < minDimension {
		minDimension = height
	}
	cropWidth := opts.CropWidth
	if cropWidth == 0 {
		cropWidth = minDimension
	}
	cropHeight := opts.CropHeight
	if cropHeight == 0 {
		cropHeight = minDimension
	}

	var results []types.Candidate
	for _, scale := range scales(opts) {
		w := float64(cropWidth) * scale
		h := float64(cropHeight) * scale
		if w <= 0 || h <= 0 {
			continue
		}
		for y := 0; float64(y)+h <= float64(height); y += opts.Step {
			for x := 0; float64(x)+w <= float64(width); x += opts.Step {
				results = append(results, types.Candidate{
					X:      x,
					Y:      y,
					Width:  w,
					Height: h,
					Scale:  scale,
				})
			}
		}
	}
	return results
}

func scales(opts types.Options) []float64 {
	if opts.ScaleStep <= 0 || opts.MinScale >= opts.MaxScale {
		return []float64{opts.MaxScale}
	}
	var out []float64
	for i := 0; ; i++ {
		scale := opts.MaxScale - float64(i)*opts.ScaleStep
		if scale < opts.MinScale-scaleEpsilon {
			break
		}
		out = append(out, scale)
	}
	return out
}
