package vision

import (
	"math"

	"github.com/menta2k/smartcrop/pkg/types"
)

// EdgeDetect writes a Laplacian detail score into the green channel of out.
// Border pixels get the raw luma since they have no full neighbourhood.
func EdgeDetect(in *types.PixelBuffer, out *types.ScratchBuffer) {
	width, height := in.Width, in.Height
	data := in.Pix
	stride := width * 4

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := (y*width + x) * 4
			var lightness float64

			if x == 0 || x >= width-1 || y == 0 || y >= height-1 {
				lightness = sample(data, p)
			} else {
				lightness = sample(data, p)*4 -
					sample(data, p-stride) -
					sample(data, p-4) -
					sample(data, p+4) -
					sample(data, p+stride)
			}

			out.Pix[p+1] = clampByte(lightness)
		}
	}
}

// SkinDetect writes a rescaled skin likelihood into the red channel of out
func SkinDetect(opts types.Options, in *types.PixelBuffer, out *types.ScratchBuffer) {
	data := in.Pix
	scale := 255 / (1 - opts.SkinThreshold)

	for p := 0; p < len(data); p += 4 {
		r, g, b := float64(data[p]), float64(data[p+1]), float64(data[p+2])
		lightness := cie(r, g, b) / 255
		skin := skinColor(opts.SkinColor, r, g, b)

		isSkinColor := skin > opts.SkinThreshold
		isSkinBrightness := lightness >= opts.SkinBrightnessMin && lightness <= opts.SkinBrightnessMax
		if isSkinColor && isSkinBrightness {
			out.Pix[p] = clampByte((skin - opts.SkinThreshold) * scale)
		} else {
			out.Pix[p] = 0
		}
	}
}

// SaturationDetect writes a rescaled HSL saturation into the blue channel of out
func SaturationDetect(opts types.Options, in *types.PixelBuffer, out *types.ScratchBuffer) {
	data := in.Pix
	scale := 255 / (1 - opts.SaturationThreshold)

	for p := 0; p < len(data); p += 4 {
		r, g, b := float64(data[p]), float64(data[p+1]), float64(data[p+2])
		lightness := cie(r, g, b) / 255
		sat := saturation(r, g, b)

		acceptableSaturation := sat > opts.SaturationThreshold
		acceptableLightness := lightness >= opts.SaturationBrightnessMin && lightness <= opts.SaturationBrightnessMax
		if acceptableLightness && acceptableSaturation {
			out.Pix[p+2] = clampByte((sat - opts.SaturationThreshold) * scale)
		} else {
			out.Pix[p+2] = 0
		}
	}
}

// cie is the luma used by every detector. The red and blue weights are
// swapped relative to Rec. 709; reference outputs depend on these values.
func cie(r, g, b float64) float64 {
	return 0.5126*b + 0.7152*g + 0.0722*r
}

func sample(data []uint8, p int) float64 {
	return cie(float64(data[p]), float64(data[p+1]), float64(data[p+2]))
}

// skinColor returns 1 minus the distance between the normalized pixel colour
// and the reference skin colour. Black has no direction and scores 0.
func skinColor(ref [3]float64, r, g, b float64) float64 {
	mag := math.Sqrt(r*r + g*g + b*b)
	if mag == 0 {
		return 0
	}
	rd := r/mag - ref[0]
	gd := g/mag - ref[1]
	bd := b/mag - ref[2]
	d := math.Sqrt(rd*rd + gd*gd + bd*bd)
	return 1 - d
}

func saturation(r, g, b float64) float64 {
	maximum := math.Max(r, math.Max(g, b)) / 255
	minimum := math.Min(r, math.Min(g, b)) / 255

	if maximum == minimum {
		return 0
	}

	l := (maximum + minimum) / 2
	d := maximum - minimum

	if l > 0.5 {
		return d / (2 - maximum - minimum)
	}
	return d / (maximum + minimum)
}

// clampByte stores v the way a clamped 8-bit canvas array does:
// NaN becomes 0, values are clamped to [0,255] and rounded half to even.
func clampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
