// Package smartcrop finds the best crop of an image for a target size or
// aspect ratio.
//
// Candidate crops are scored on edge detail, skin tones and saturation, with
// a penalty near the crop border and a bonus along the rule-of-thirds lines.
// Boost regions, such as detected faces or the subject reported by a vision
// model, pull the crop towards them.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/menta2k/smartcrop"
//		"github.com/menta2k/smartcrop/pkg/cropper"
//	)
//
//	func main() {
//		sc := smartcrop.New()
//
//		img, err := sc.LoadImage("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := sc.CropToAspectRatio(context.Background(), img, cropper.Square)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if err := sc.SaveImage(result.Image, "photo_square.jpg"); err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("Cropped to %v (score %.4f)\n", result.Rect, result.Crop.Score.Total)
//	}
//
// The package is layered:
//
//  1. Vision (pkg/vision): per-pixel edge, skin and saturation detectors
//  2. Cropper (pkg/cropper): candidate generation and scoring
//  3. Analyzer (pkg/analyzer): runs a single analysis over a raw RGBA buffer
//  4. Processing (pkg/processing): decoding, resampling and debug rendering
//
// Face detection (pkg/facedetect) and vision-model subject detection
// (pkg/detection) plug in as boost sources.
package smartcrop

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"math"

	"github.com/menta2k/smartcrop/internal/utils"
	"github.com/menta2k/smartcrop/pkg/analyzer"
	"github.com/menta2k/smartcrop/pkg/cropper"
	"github.com/menta2k/smartcrop/pkg/processing"
	"github.com/menta2k/smartcrop/pkg/types"
)

// Version of the smartcrop library
const Version = "1.0.0"

// BoostSource finds regions of interest in an image. Regions are in pixel
// coordinates relative to the image origin.
type BoostSource interface {
	Boosts(ctx context.Context, img image.Image) ([]types.BoostRegion, error)
}

// CropResult describes one crop of one image
type CropResult struct {
	Name   string              `json:"name,omitempty"`
	Rect   image.Rectangle     `json:"rect"`
	Crop   types.Candidate     `json:"crop"`
	Boosts []types.BoostRegion `json:"boosts,omitempty"`
	Image  image.Image         `json:"-"`

	// Crops holds every scored candidate in image coordinates, debug mode only
	Crops []types.Candidate `json:"crops,omitempty"`

	// Prescale is the factor the image was shrunk by before analysis
	Prescale float64 `json:"prescale"`
	// Analysis is the raw result at analysis scale, kept in debug mode.
	// Its TopCrop lines up with Analysis.Scratch.
	Analysis *types.AnalysisResult `json:"-"`
}

// SmartCrop ties image loading, boost sources and the analyzer together
type SmartCrop struct {
	opts      types.Options
	ops       processing.ImageOperations
	processor *processing.Processor
	sources   []BoostSource
	log       *log.Logger

	format   string
	quality  int
	lossless bool
}

// New creates a SmartCrop with default options and the imaging backend
func New() *SmartCrop {
	return NewWithConfig(types.DefaultOptions(), processing.NewImagingOperations())
}

// NewWithConfig creates a SmartCrop with custom options and image backend.
// A nil backend selects the imaging backend.
func NewWithConfig(opts types.Options, ops processing.ImageOperations) *SmartCrop {
	if ops == nil {
		ops = processing.NewImagingOperations()
	}
	return &SmartCrop{
		opts:      opts,
		ops:       ops,
		processor: processing.NewProcessor(),
		log:       log.New(io.Discard, "", 0),
		format:    "jpg",
		quality:   90,
	}
}

// Options returns a copy of the crop options
func (s *SmartCrop) Options() types.Options {
	return s.opts
}

// SetLogger enables debug logging of the pipeline. nil disables it.
func (s *SmartCrop) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	s.log = l
}

// SetOutput sets the format and quality used by SaveImage and ProcessImageFile.
// An empty format keeps the input format. lossless only affects webp.
func (s *SmartCrop) SetOutput(format string, quality int, lossless bool) {
	s.format = format
	s.quality = quality
	s.lossless = lossless
}

// AddBoostSource registers a source consulted on every crop
func (s *SmartCrop) AddBoostSource(src BoostSource) {
	s.sources = append(s.sources, src)
}

// LoadImage loads an image from a file path or URL
func (s *SmartCrop) LoadImage(source string) (image.Image, error) {
	return s.ops.Open(source)
}

// SaveImage writes img, picking the format from the path extension
func (s *SmartCrop) SaveImage(img image.Image, path string) error {
	return s.processor.SaveImage(img, path, "", s.quality, s.lossless)
}

// FindBestCrop analyses img and returns the best crop in image coordinates.
// boosts are added to those of the registered boost sources.
func (s *SmartCrop) FindBestCrop(ctx context.Context, img image.Image, boosts []types.BoostRegion) (*CropResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := s.opts
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	imgW, imgH := bounds.Dx(), bounds.Dy()
	if imgW == 0 || imgH == 0 {
		return nil, fmt.Errorf("%w: empty image", analyzer.ErrInvalidBuffer)
	}

	boosts, err := s.collectBoosts(ctx, img, boosts)
	if err != nil {
		return nil, err
	}

	targetW, targetH := float64(opts.Width), float64(opts.Height)
	if opts.Aspect > 0 {
		targetW, targetH = opts.Aspect, 1
	}
	if targetW > 0 && targetH > 0 {
		scale := math.Min(float64(imgW)/targetW, float64(imgH)/targetH)
		opts.CropWidth = int(targetW * scale)
		opts.CropHeight = int(targetH * scale)
		opts.MinScale = math.Min(opts.MaxScale, math.Max(1/scale, opts.MinScale))
	}

	collected := boosts
	analysisImg := img
	prescale := 1.0
	if opts.Prescale {
		size := float64(opts.PrescaleSize)
		prescale = math.Min(math.Max(size/float64(imgW), size/float64(imgH)), 1)
		if prescale < 1 {
			analysisImg = s.ops.Resample(img, int(float64(imgW)*prescale), int(float64(imgH)*prescale))
			opts.CropWidth = int(float64(opts.CropWidth) * prescale)
			opts.CropHeight = int(float64(opts.CropHeight) * prescale)
			boosts = scaleBoosts(boosts, prescale)
		} else {
			prescale = 1
		}
	}
	s.log.Printf("image %dx%d, prescale %f, crop %dx%d, min scale %f",
		imgW, imgH, prescale, opts.CropWidth, opts.CropHeight, opts.MinScale)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := analyzer.NewWithConfig(opts)
	a.SetLogger(s.log)
	result, err := a.Analyze(s.ops.PixelData(analysisImg), boosts)
	if err != nil {
		return nil, fmt.Errorf("crop analysis failed: %w", err)
	}

	top := unscaleCandidate(result.TopCrop, prescale, imgW, imgH)
	cr := &CropResult{
		Rect:     top.Rect(),
		Crop:     top,
		Boosts:   collected,
		Prescale: prescale,
	}
	if opts.Debug {
		cr.Crops = unscaleCandidates(result.Crops, prescale, imgW, imgH)
		cr.Analysis = result
	}
	return cr, nil
}

// CropImage finds the best crop and cuts it out of img. When Width and
// Height are set the crop is also resized to exactly that size.
func (s *SmartCrop) CropImage(ctx context.Context, img image.Image, boosts []types.BoostRegion) (*CropResult, error) {
	cr, err := s.FindBestCrop(ctx, img, boosts)
	if err != nil {
		return nil, err
	}

	cropped, err := s.processor.CropAndResize(img, cr.Rect, s.opts.Width, s.opts.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to crop image: %w", err)
	}
	cr.Image = cropped
	return cr, nil
}

// Target is one requested crop: an exact output size or an aspect ratio
type Target struct {
	Name   string
	Width  int
	Height int
	Aspect float64
}

// SizeTarget requests a crop resized to exactly width x height
func SizeTarget(width, height int) Target {
	return Target{Name: fmt.Sprintf("%dx%d", width, height), Width: width, Height: height}
}

// RatioTarget requests the largest crop of the given aspect ratio
func RatioTarget(ratio cropper.AspectRatio) Target {
	t := Target{Name: ratio.Name}
	if ratio.Width > 0 && ratio.Height > 0 {
		t.Aspect = ratio.Ratio()
	}
	return t
}

// CropToAspectRatio crops img to the given aspect ratio at the largest size that fits
func (s *SmartCrop) CropToAspectRatio(ctx context.Context, img image.Image, ratio cropper.AspectRatio) (*CropResult, error) {
	results, err := s.CropAll(ctx, img, []Target{RatioTarget(ratio)})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// CropAll queries the boost sources once and crops img for every target.
// Results are returned in target order.
func (s *SmartCrop) CropAll(ctx context.Context, img image.Image, targets []Target) ([]*CropResult, error) {
	for _, t := range targets {
		if t.Aspect <= 0 && (t.Width <= 0 || t.Height <= 0) {
			return nil, fmt.Errorf("%w: target %q needs a size or an aspect ratio", types.ErrInvalidOptions, t.Name)
		}
	}

	boosts, err := s.collectBoosts(ctx, img, nil)
	if err != nil {
		return nil, err
	}

	results := make([]*CropResult, 0, len(targets))
	for _, t := range targets {
		opts := s.opts
		opts.Width, opts.Height, opts.Aspect = t.Width, t.Height, t.Aspect
		if t.Aspect > 0 {
			opts.Width, opts.Height = 0, 0
		}

		c := s.withOptions(opts)
		c.sources = nil
		cr, err := c.CropImage(ctx, img, boosts)
		if err != nil {
			return results, fmt.Errorf("target %s: %w", t.Name, err)
		}
		cr.Name = t.Name
		results = append(results, cr)
	}
	return results, nil
}

// ProcessImageFile loads inputPath, crops it for every target and writes the
// results to outputDir as <name>_<target>.<format>. It returns the written paths.
func (s *SmartCrop) ProcessImageFile(ctx context.Context, inputPath, outputDir string, targets []Target) ([]string, error) {
	img, err := s.LoadImage(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	if err := utils.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results, err := s.CropAll(ctx, img, targets)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, result := range results {
		outputPath := utils.GenerateOutputFilename(inputPath, outputDir, "", "_"+result.Name, s.format)
		if err := s.processor.SaveImage(result.Image, outputPath, s.format, s.quality, s.lossless); err != nil {
			return written, fmt.Errorf("failed to save crop %s: %w", result.Name, err)
		}
		written = append(written, outputPath)
	}
	return written, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

func (s *SmartCrop) withOptions(opts types.Options) *SmartCrop {
	c := *s
	c.opts = opts
	return &c
}

// collectBoosts queries every boost source. A failing source is logged and
// skipped; only a cancelled context aborts the crop.
func (s *SmartCrop) collectBoosts(ctx context.Context, img image.Image, explicit []types.BoostRegion) ([]types.BoostRegion, error) {
	boosts := append([]types.BoostRegion(nil), explicit...)
	for _, src := range s.sources {
		found, err := src.Boosts(ctx, img)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.log.Printf("boost source %T failed: %v", src, err)
			continue
		}
		boosts = append(boosts, found...)
	}
	return boosts, nil
}

func scaleBoosts(boosts []types.BoostRegion, factor float64) []types.BoostRegion {
	out := make([]types.BoostRegion, len(boosts))
	for i, b := range boosts {
		out[i] = types.BoostRegion{
			X:      math.Trunc(b.X * factor),
			Y:      math.Trunc(b.Y * factor),
			Width:  math.Trunc(b.Width * factor),
			Height: math.Trunc(b.Height * factor),
			Weight: b.Weight,
		}
	}
	return out
}

// unscaleCandidate maps a candidate from analysis scale back to the image
// and pulls it inside the image bounds
func unscaleCandidate(c types.Candidate, prescale float64, imgW, imgH int) types.Candidate {
	c.X = int(float64(c.X) / prescale)
	c.Y = int(float64(c.Y) / prescale)
	c.Width = min(math.Trunc(c.Width/prescale), float64(imgW))
	c.Height = min(math.Trunc(c.Height/prescale), float64(imgH))
	c.X = max(0, min(c.X, imgW-int(c.Width)))
	c.Y = max(0, min(c.Y, imgH-int(c.Height)))
	return c
}

func unscaleCandidates(crops []types.Candidate, prescale float64, imgW, imgH int) []types.Candidate {
	out := make([]types.Candidate, len(crops))
	for i, c := range crops {
		out[i] = unscaleCandidate(c, prescale, imgW, imgH)
	}
	return out
}
