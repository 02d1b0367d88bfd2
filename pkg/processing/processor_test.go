package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/smartcrop/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.NRGBA{r, g, 128, 255})
		}
	}
	return img
}

func TestSaveAndLoadImage(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	img := createTestImage(40, 30)

	for _, name := range []string{"out.png", "out.jpg", "out.webp"} {
		path := filepath.Join(dir, name)
		if err := p.SaveImage(img, path, "", 90, true); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", name, err)
		}
		loaded, err := p.LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage(%s) failed: %v", name, err)
		}
		if loaded.Bounds().Dx() != 40 || loaded.Bounds().Dy() != 30 {
			t.Errorf("%s: unexpected size %v", name, loaded.Bounds())
		}
	}
}

func TestSaveImageUnsupportedFormat(t *testing.T) {
	p := NewProcessor()
	err := p.SaveImage(createTestImage(4, 4), filepath.Join(t.TempDir(), "out.tiff"), "", 90, false)
	if err == nil {
		t.Error("tiff output should be rejected")
	}
}

func TestLoadImageMissing(t *testing.T) {
	p := NewProcessor()
	if _, err := p.LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadImageUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewProcessor().Open(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the file, got %v", err)
	}
}

func TestLoadImageFromURL(t *testing.T) {
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, createTestImage(16, 8)); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/image.png":
			if !strings.HasPrefix(r.Header.Get("User-Agent"), "smartcrop/") {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Write(encoded.Bytes())
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := NewProcessorWithClient(server.Client())

	img, err := p.Open(server.URL + "/image.png")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("unexpected size %v", img.Bounds())
	}

	if _, err := p.LoadImageFromURL(server.URL + "/page"); err == nil {
		t.Error("non-image content type should fail")
	}
	if _, err := p.LoadImageFromURL(server.URL + "/missing"); err == nil {
		t.Error("404 should fail")
	}
	if _, err := p.LoadImageFromURL("ftp://example.com/a.png"); err == nil {
		t.Error("ftp scheme should be rejected")
	}
}

func TestCropAndResize(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(200, 100)

	cropped, err := p.CropImage(img, image.Rect(50, 0, 150, 100))
	if err != nil {
		t.Fatalf("CropImage failed: %v", err)
	}
	if cropped.Bounds().Dx() != 100 || cropped.Bounds().Dy() != 100 {
		t.Errorf("unexpected crop size %v", cropped.Bounds())
	}

	resized, err := p.CropAndResize(img, image.Rect(50, 0, 150, 100), 32, 32)
	if err != nil {
		t.Fatalf("CropAndResize failed: %v", err)
	}
	if resized.Bounds().Dx() != 32 || resized.Bounds().Dy() != 32 {
		t.Errorf("unexpected resize %v", resized.Bounds())
	}

	if _, err := p.CropImage(img, image.Rect(300, 300, 400, 400)); err == nil {
		t.Error("crop outside the image should fail")
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	encoded, err := p.PrepareImageForModel(createTestImage(800, 400), "png", 200, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("output is not base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("expected 200x100, got %v", img.Bounds())
	}
}

func TestBoxToRect(t *testing.T) {
	r := BoxToRect(types.Box{X: 0.25, Y: 0.5, W: 0.5, H: 0.75}, 200, 100)
	want := image.Rect(50, 50, 150, 100)
	if r != want {
		t.Errorf("BoxToRect = %v, want %v", r, want)
	}
}

func TestCreateDebugOverlay(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(100, 100)

	overlay := p.CreateDebugOverlay(img, image.Rect(10, 10, 60, 60),
		[]types.BoostRegion{{X: 70, Y: 70, Width: 20, Height: 20, Weight: 1}})

	if got := color.NRGBAModel.Convert(overlay.At(10, 30)).(color.NRGBA); got != (color.NRGBA{255, 204, 0, 255}) {
		t.Errorf("crop outline missing, got %v", got)
	}
	if got := color.NRGBAModel.Convert(overlay.At(70, 80)).(color.NRGBA); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("boost outline missing, got %v", got)
	}
	if got := color.NRGBAModel.Convert(overlay.At(35, 35)).(color.NRGBA); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("crop center mark missing, got %v", got)
	}
	if img.NRGBAAt(10, 30) == (color.NRGBA{255, 204, 0, 255}) {
		t.Error("overlay must not modify the source image")
	}
}
