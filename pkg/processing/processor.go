package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/smartcrop/pkg/types"
)

const userAgent = "smartcrop/1.0 (+https://github.com/menta2k/smartcrop)"

// maxImageBytes bounds how much of a file or response is read before decoding
const maxImageBytes = 64 << 20

// ErrUnsupportedFormat is returned when no registered decoder accepts the data
var ErrUnsupportedFormat = errors.New("unknown or unsupported image format")

// Processor loads, crops and saves images
type Processor struct {
	client *http.Client
}

// NewProcessor creates a processor with a 30s download timeout
func NewProcessor() *Processor {
	return NewProcessorWithClient(&http.Client{Timeout: 30 * time.Second})
}

// NewProcessorWithClient creates a processor that downloads with the given client
func NewProcessorWithClient(client *http.Client) *Processor {
	return &Processor{client: client}
}

// Open loads an image from a file path or an http(s) URL
func (p *Processor) Open(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// LoadImage decodes the file at path
func (p *Processor) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f, path)
}

// LoadImageFromURL downloads and decodes an image. Only http and https are
// accepted and the response must carry an image content type.
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", u.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", ct)
	}
	return decode(resp.Body, imageURL)
}

// decode reads r fully and tries the registered decoders, then the libwebp
// decoder for WebP variants x/image/webp rejects. name labels errors.
func decode(r io.Reader, name string) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", name, maxImageBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
}

// PrepareImageForModel shrinks img so its longer side is at most maxDim and
// returns it base64 encoded, as png or (default) jpeg
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if b := img.Bounds(); maxDim > 0 && max(b.Dx(), b.Dy()) > maxDim {
		if b.Dx() >= b.Dy() {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	var err error
	if strings.EqualFold(format, "png") {
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CropImage cuts rect out of img. rect is relative to the image origin.
func (p *Processor) CropImage(img image.Image, rect image.Rectangle) (image.Image, error) {
	bounds := img.Bounds()
	rect = rect.Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("empty crop rectangle")
	}
	return imaging.Crop(img, rect), nil
}

// CropAndResize crops img to rect and scales the result to exactly
// targetWidth x targetHeight. A zero target keeps the cropped size.
func (p *Processor) CropAndResize(img image.Image, rect image.Rectangle, targetWidth, targetHeight int) (image.Image, error) {
	cropped, err := p.CropImage(img, rect)
	if err != nil {
		return nil, err
	}
	if targetWidth > 0 && targetHeight > 0 {
		cropped = imaging.Fill(cropped, targetWidth, targetHeight, imaging.Center, imaging.Lanczos)
	}
	return cropped, nil
}

// SaveImage saves an image to a file with the specified format and quality.
// An empty format is taken from the file extension.
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := webp.Encode(f, img, &webp.Options{Lossless: lossless, Quality: float32(quality)}); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case "png":
		return imaging.Save(img, path, imaging.PNGCompressionLevel(png.DefaultCompression))
	case "jpg", "jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// BoxToRect converts a normalized box to pixel coordinates inside a w x h image
func BoxToRect(box types.Box, w, h int) image.Rectangle {
	px := func(v float64, size int) int {
		return int(min(max(v, 0), 1)*float64(size) + 0.5)
	}
	return image.Rect(px(box.X, w), px(box.Y, h), px(box.X+box.W, w), px(box.Y+box.H, h))
}
