package types

import (
	"errors"
	"image"
	"testing"
)

func TestNewPixelBufferFromData(t *testing.T) {
	if _, err := NewPixelBufferFromData(2, 2, make([]uint8, 16)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := NewPixelBufferFromData(2, 2, make([]uint8, 15))
	if !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("expected ErrInvalidBuffer for short data, got %v", err)
	}

	_, err = NewPixelBufferFromData(0, 2, nil)
	if !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("expected ErrInvalidBuffer for zero width, got %v", err)
	}
}

func TestPixelBufferOffset(t *testing.T) {
	buf := NewPixelBuffer(10, 5)
	if got := buf.Offset(3, 2); got != (2*10+3)*4 {
		t.Errorf("Offset(3,2) = %d", got)
	}
	if err := buf.Validate(); err != nil {
		t.Errorf("fresh buffer should validate: %v", err)
	}

	var nilBuf *PixelBuffer
	if err := nilBuf.Validate(); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("nil buffer should not validate, got %v", err)
	}
}

func TestNewScratchBuffer(t *testing.T) {
	s := NewScratchBuffer(4, 3)
	if len(s.Pix) != 48 {
		t.Errorf("expected 48 bytes, got %d", len(s.Pix))
	}
	if len(s.Boost) != 12 {
		t.Errorf("expected 12 boost cells, got %d", len(s.Boost))
	}
}

func TestCandidateRect(t *testing.T) {
	c := Candidate{X: 8, Y: 16, Width: 100, Height: 50}
	want := image.Rect(8, 16, 108, 66)
	if c.Rect() != want {
		t.Errorf("Rect() = %v, want %v", c.Rect(), want)
	}
}

func TestDefaultOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.Validate(); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
	if opts.ScoreDownSample != 8 || opts.Step != 8 {
		t.Errorf("unexpected sampling defaults: %d/%d", opts.ScoreDownSample, opts.Step)
	}
	if opts.SkinColor != [3]float64{0.78, 0.57, 0.44} {
		t.Errorf("unexpected skin color %v", opts.SkinColor)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"min above max", func(o *Options) { o.MinScale = 1.2; o.MaxScale = 1.0 }},
		{"zero scale", func(o *Options) { o.MinScale = 0 }},
		{"negative crop", func(o *Options) { o.CropWidth = -1 }},
		{"zero step", func(o *Options) { o.Step = 0 }},
		{"zero downsample", func(o *Options) { o.ScoreDownSample = 0 }},
		{"range without step", func(o *Options) { o.MinScale = 0.5; o.ScaleStep = 0 }},
		{"threshold of one", func(o *Options) { o.SkinThreshold = 1 }},
		{"prescale without size", func(o *Options) { o.PrescaleSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			if err := opts.Validate(); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}
