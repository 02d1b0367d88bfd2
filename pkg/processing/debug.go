package processing

import (
	"image"
	"image/color"
	"math"

	"github.com/menta2k/smartcrop/pkg/cropper"
	"github.com/menta2k/smartcrop/pkg/types"
)

// RenderScratch turns a scratch buffer into a viewable image:
// red is skin, green is detail, blue is saturation.
func RenderScratch(s *types.ScratchBuffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			i := s.Offset(x, y)
			j := img.PixOffset(x, y)
			img.Pix[j] = s.Pix[i]
			img.Pix[j+1] = s.Pix[i+1]
			img.Pix[j+2] = s.Pix[i+2]
			img.Pix[j+3] = 255
		}
	}
	return img
}

// RenderImportance tints img by the importance map of crop: positive weights
// push green up, negative weights push red up.
func RenderImportance(opts types.Options, img image.Image, crop types.Candidate) *image.NRGBA {
	buf := PixelData(img)
	out := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	copy(out.Pix, buf.Pix)

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			i := out.PixOffset(x, y)
			r := float64(out.Pix[i])
			g := float64(out.Pix[i+1])

			imp := cropper.Importance(opts, crop, x, y)
			if imp > 0 {
				g += imp * 32
			} else if imp < 0 {
				r += imp * -64
			}

			out.Pix[i] = uint8(bound(r))
			out.Pix[i+1] = uint8(bound(g))
			out.Pix[i+3] = 255
		}
	}
	return out
}

// RenderBoosts visualises the boost plane as a grayscale mask
func RenderBoosts(s *types.ScratchBuffer) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(bound(s.Boost[y*s.Width+x]))})
		}
	}
	return img
}

func bound(v float64) float64 {
	return math.Min(math.Max(v, 0), 255)
}
