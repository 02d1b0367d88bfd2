package types

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidBuffer is returned when pixel data does not match its dimensions
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// PixelBuffer is a raw RGBA image, four bytes per pixel in row-major order
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed buffer of the given size
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// NewPixelBufferFromData wraps existing RGBA data without copying it
func NewPixelBufferFromData(width, height int, data []uint8) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidBuffer, width, height)
	}
	if len(data) != width*height*4 {
		return nil, fmt.Errorf("%w: expected %d bytes for %dx%d, got %d",
			ErrInvalidBuffer, width*height*4, width, height, len(data))
	}
	return &PixelBuffer{Width: width, Height: height, Pix: data}, nil
}

// Offset returns the index of the red byte of pixel (x, y)
func (b *PixelBuffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// Validate checks that the buffer is internally consistent
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidBuffer, b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidBuffer, b.Width*b.Height*4, len(b.Pix))
	}
	return nil
}

// ScratchBuffer holds per-pixel feature scores.
//
// Pix keeps the clamped byte channels: R skin, G detail, B saturation and A a
// narrowed copy of the boost plane. Boost is the unclamped boost accumulator.
type ScratchBuffer struct {
	Width  int
	Height int
	Pix    []uint8
	Boost  []float64
}

// NewScratchBuffer allocates a zeroed scratch buffer
func NewScratchBuffer(width, height int) *ScratchBuffer {
	return &ScratchBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
		Boost:  make([]float64, width*height),
	}
}

// Offset returns the index of the red byte of pixel (x, y)
func (s *ScratchBuffer) Offset(x, y int) int {
	return (y*s.Width + x) * 4
}

// BoostRegion is an externally supplied area of interest, e.g. a detected face
type BoostRegion struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Score holds the accumulated feature sums of a candidate
type Score struct {
	Detail     float64 `json:"detail"`
	Saturation float64 `json:"saturation"`
	Skin       float64 `json:"skin"`
	Boost      float64 `json:"boost"`
	Total      float64 `json:"total"`
}

// Candidate is a proposed crop rectangle. Positions sit on the integer step
// grid; Width and Height are the exact scaled crop size and may be fractional.
type Candidate struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
	Score  Score   `json:"score"`
}

// Rect returns the candidate as an image.Rectangle, truncating the size
func (c Candidate) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+int(c.Width), c.Y+int(c.Height))
}

func (c Candidate) String() string {
	return fmt.Sprintf("%gx%g@%d,%d (%f)", c.Width, c.Height, c.X, c.Y, c.Score.Total)
}

// AnalysisResult is the outcome of one analysis run.
// Crops, Scratch and Options are only populated in debug mode.
type AnalysisResult struct {
	TopCrop Candidate      `json:"top_crop"`
	Crops   []Candidate    `json:"crops,omitempty"`
	Scratch *ScratchBuffer `json:"-"`
	Options *Options       `json:"options,omitempty"`
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Primary represents the primary subject detected in an image
type Primary struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
	Cx         float64 `json:"cx"`
	Cy         float64 `json:"cy"`
}

// SubjectResult is what a vision model reports about an image
type SubjectResult struct {
	Primary     Primary  `json:"primary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
