package vision

import (
	"testing"

	"github.com/menta2k/smartcrop/pkg/types"
)

func TestDownsampleBlend(t *testing.T) {
	in := types.NewScratchBuffer(2, 2)
	reds := []uint8{0, 0, 0, 200}
	blues := []uint8{0, 40, 0, 40}
	for i := 0; i < 4; i++ {
		in.Pix[i*4] = reds[i]
		in.Pix[i*4+1] = 100
		in.Pix[i*4+2] = blues[i]
	}
	in.Boost[0] = 510

	out := Downsample(in, 2)

	if out.Width != 1 || out.Height != 1 {
		t.Fatalf("expected 1x1, got %dx%d", out.Width, out.Height)
	}
	// 0.5 * mean(50) + 0.5 * max(200)
	if out.Pix[0] != 125 {
		t.Errorf("red = %d, want 125", out.Pix[0])
	}
	if out.Pix[1] != 100 {
		t.Errorf("green = %d, want 100", out.Pix[1])
	}
	if out.Pix[2] != 20 {
		t.Errorf("blue = %d, want 20", out.Pix[2])
	}
	if out.Boost[0] != 127.5 {
		t.Errorf("boost = %f, want 127.5", out.Boost[0])
	}
	if out.Pix[3] != 128 {
		t.Errorf("alpha = %d, want 128", out.Pix[3])
	}
}

func TestDownsampleDimensions(t *testing.T) {
	out := Downsample(types.NewScratchBuffer(17, 9), 8)
	if out.Width != 2 || out.Height != 1 {
		t.Errorf("expected 2x1, got %dx%d", out.Width, out.Height)
	}

	out = Downsample(types.NewScratchBuffer(7, 7), 8)
	if out.Width != 0 || out.Height != 0 {
		t.Errorf("expected empty output, got %dx%d", out.Width, out.Height)
	}
}

func TestDownsampleKeepsSparseDetail(t *testing.T) {
	in := types.NewScratchBuffer(8, 8)
	in.Pix[in.Offset(4, 4)+1] = 255

	out := Downsample(in, 8)

	// mean alone would be ~4, the max term keeps it visible
	if out.Pix[1] < 76 {
		t.Errorf("sparse detail washed out: %d", out.Pix[1])
	}
}

func BenchmarkDownsample(b *testing.B) {
	in := types.NewScratchBuffer(256, 256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Downsample(in, 8)
	}
}
