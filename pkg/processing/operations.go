package processing

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/smartcrop/pkg/types"
)

// ImageOperations abstracts the image backend used by the crop pipeline
type ImageOperations interface {
	// Open loads an image from a file path or http(s) URL
	Open(source string) (image.Image, error)
	// Resample scales img to exactly width x height
	Resample(img image.Image, width, height int) image.Image
	// PixelData returns the non-premultiplied RGBA pixels of img
	PixelData(img image.Image) *types.PixelBuffer
}

// ImagingOperations is the default backend, resampling with a Lanczos filter
type ImagingOperations struct {
	processor *Processor
	filter    imaging.ResampleFilter
}

// NewImagingOperations creates the imaging backend
func NewImagingOperations() *ImagingOperations {
	return &ImagingOperations{
		processor: NewProcessor(),
		filter:    imaging.Lanczos,
	}
}

func (o *ImagingOperations) Open(source string) (image.Image, error) {
	return o.processor.Open(source)
}

func (o *ImagingOperations) Resample(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, o.filter)
}

func (o *ImagingOperations) PixelData(img image.Image) *types.PixelBuffer {
	return PixelData(img)
}

// DrawOperations resamples with x/image/draw. It is faster than Lanczos and
// good enough for an analysis-only prescale.
type DrawOperations struct {
	processor *Processor
	scaler    draw.Scaler
}

// NewDrawOperations creates the x/image/draw backend
func NewDrawOperations() *DrawOperations {
	return &DrawOperations{
		processor: NewProcessor(),
		scaler:    draw.ApproxBiLinear,
	}
}

func (o *DrawOperations) Open(source string) (image.Image, error) {
	return o.processor.Open(source)
}

func (o *DrawOperations) Resample(img image.Image, width, height int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	o.scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func (o *DrawOperations) PixelData(img image.Image) *types.PixelBuffer {
	return PixelData(img)
}

// PixelData copies img into a tightly packed RGBA buffer with the origin at (0,0)
func PixelData(img image.Image) *types.PixelBuffer {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()
	if nrgba.Stride == w*4 {
		return &types.PixelBuffer{Width: w, Height: h, Pix: nrgba.Pix[:w*h*4]}
	}

	buf := types.NewPixelBuffer(w, h)
	for y := 0; y < h; y++ {
		copy(buf.Pix[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
	}
	return buf
}
