package processing

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/smartcrop/pkg/types"
)

var (
	boostColor       = color.NRGBA{0, 255, 0, 255}
	cropColor        = color.NRGBA{255, 204, 0, 255}
	cropCenterColor  = color.NRGBA{255, 0, 0, 255}
	imageCenterColor = color.NRGBA{0, 170, 255, 255}
)

// CreateDebugOverlay returns a copy of img with the boost regions outlined in
// green, the chosen crop in gold with a red center mark, and a blue mark on
// the image center
func (p *Processor) CreateDebugOverlay(img image.Image, crop image.Rectangle, boosts []types.BoostRegion) image.Image {
	out := imaging.Clone(img)
	b := out.Bounds()
	side := min(b.Dx(), b.Dy())
	stroke := max(2, side/250)
	arm := max(4, side/100)

	for _, r := range boosts {
		outline(out, image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height)), boostColor, stroke)
	}
	if !crop.Empty() {
		outline(out, crop, cropColor, stroke)
		center := crop.Min.Add(crop.Max).Div(2)
		crosshair(out, center, arm, cropCenterColor)
	}
	crosshair(out, image.Pt(b.Dx()/2, b.Dy()/2), 6, imageCenterColor)
	return out
}

// outline draws the stroke wide border of r, inside r
func outline(dst draw.Image, r image.Rectangle, c color.Color, stroke int) {
	if r.Empty() {
		return
	}
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+stroke), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-stroke, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+stroke, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-stroke, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func crosshair(dst draw.Image, p image.Point, arm int, c color.Color) {
	fill(dst, image.Rect(p.X-arm, p.Y, p.X+arm, p.Y+1), c)
	fill(dst, image.Rect(p.X, p.Y-arm, p.X+1, p.Y+arm), c)
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}
