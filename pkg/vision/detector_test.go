package vision

import (
	"testing"

	"github.com/menta2k/smartcrop/pkg/types"
)

// createUniformBuffer creates a buffer filled with a single colour
func createUniformBuffer(width, height int, r, g, b uint8) *types.PixelBuffer {
	buf := types.NewPixelBuffer(width, height)
	for p := 0; p < len(buf.Pix); p += 4 {
		buf.Pix[p] = r
		buf.Pix[p+1] = g
		buf.Pix[p+2] = b
		buf.Pix[p+3] = 255
	}
	return buf
}

func TestEdgeDetectFlatField(t *testing.T) {
	in := createUniformBuffer(10, 10, 128, 128, 128)
	out := types.NewScratchBuffer(10, 10)

	EdgeDetect(in, out)

	// 128 * (0.0722 + 0.7152 + 0.5126) = 166.4
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			got := out.Pix[out.Offset(x, y)+1]
			border := x == 0 || y == 0 || x == 9 || y == 9
			if border && got != 166 {
				t.Errorf("border pixel (%d,%d) = %d, want raw luma 166", x, y, got)
			}
			if !border && got != 0 {
				t.Errorf("interior pixel (%d,%d) = %d, want 0", x, y, got)
			}
		}
	}
}

func TestEdgeDetectBrightSpot(t *testing.T) {
	in := createUniformBuffer(5, 5, 0, 0, 0)
	p := in.Offset(2, 2)
	in.Pix[p], in.Pix[p+1], in.Pix[p+2] = 50, 50, 50
	out := types.NewScratchBuffer(5, 5)

	EdgeDetect(in, out)

	if got := out.Pix[out.Offset(2, 2)+1]; got != 255 {
		t.Errorf("bright spot should saturate the detail channel, got %d", got)
	}
	// neighbours see a negative response, stored as 0
	if got := out.Pix[out.Offset(2, 1)+1]; got != 0 {
		t.Errorf("negative response should clamp to 0, got %d", got)
	}
}

func TestSkinDetect(t *testing.T) {
	opts := types.DefaultOptions()

	tests := []struct {
		name    string
		r, g, b uint8
		want    bool
	}{
		{"skin tone", 200, 146, 113, true},
		{"gray", 128, 128, 128, false},
		{"black", 0, 0, 0, false},
		{"too dark", 20, 14, 11, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createUniformBuffer(2, 2, tt.r, tt.g, tt.b)
			out := types.NewScratchBuffer(2, 2)
			SkinDetect(opts, in, out)

			got := out.Pix[0]
			if tt.want && got == 0 {
				t.Errorf("expected a skin score, got 0")
			}
			if !tt.want && got != 0 {
				t.Errorf("expected no skin score, got %d", got)
			}
		})
	}
}

func TestSaturationDetect(t *testing.T) {
	opts := types.DefaultOptions()

	red := createUniformBuffer(2, 2, 255, 0, 0)
	out := types.NewScratchBuffer(2, 2)
	SaturationDetect(opts, red, out)
	if got := out.Pix[2]; got != 255 {
		t.Errorf("pure red should score 255, got %d", got)
	}

	gray := createUniformBuffer(2, 2, 90, 90, 90)
	out = types.NewScratchBuffer(2, 2)
	SaturationDetect(opts, gray, out)
	if got := out.Pix[2]; got != 0 {
		t.Errorf("gray has no saturation, got %d", got)
	}

	// fully saturated but too bright for the default bounds
	white := createUniformBuffer(2, 2, 255, 255, 250)
	out = types.NewScratchBuffer(2, 2)
	SaturationDetect(opts, white, out)
	if got := out.Pix[2]; got != 0 {
		t.Errorf("near white should be rejected by brightness, got %d", got)
	}
}

func TestSaturation(t *testing.T) {
	if s := saturation(10, 10, 10); s != 0 {
		t.Errorf("equal channels should give 0, got %f", s)
	}
	if s := saturation(255, 0, 0); s != 1 {
		t.Errorf("pure red should give 1, got %f", s)
	}
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-12, 0},
		{0.5, 0},
		{1.5, 2},
		{127.5, 128},
		{254.6, 255},
		{300, 255},
	}
	for _, tt := range tests {
		if got := clampByte(tt.in); got != tt.want {
			t.Errorf("clampByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func BenchmarkDetectors(b *testing.B) {
	in := createUniformBuffer(256, 256, 200, 146, 113)
	out := types.NewScratchBuffer(256, 256)
	opts := types.DefaultOptions()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EdgeDetect(in, out)
		SkinDetect(opts, in, out)
		SaturationDetect(opts, in, out)
	}
}
