// Package facedetect finds faces with a pigo cascade and reports them as
// crop boosts.
package facedetect

import (
	"context"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/menta2k/smartcrop/pkg/types"
)

// Config tunes the cascade run
type Config struct {
	MinSizePct   int     `json:"min_size_pct" yaml:"min_size_pct"`   // smallest face as % of the shorter side
	ShiftFactor  float64 `json:"shift_factor" yaml:"shift_factor"`   // window stride
	ScaleFactor  float64 `json:"scale_factor" yaml:"scale_factor"`   // window growth between passes
	IoUThreshold float64 `json:"iou_threshold" yaml:"iou_threshold"` // clustering
	MinQuality   float32 `json:"min_quality" yaml:"min_quality"`     // detections below are dropped
	Weight       float64 `json:"weight" yaml:"weight"`
}

// DefaultConfig returns the stock cascade tuning
func DefaultConfig() Config {
	return Config{
		MinSizePct:   1,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinQuality:   10.0,
		Weight:       1.0,
	}
}

// FaceDetector is a boost source backed by a pigo classifier
type FaceDetector struct {
	classifier *pigo.Pigo
	cfg        Config
}

// LoadFaceDetector reads a pigo cascade file such as facefinder
func LoadFaceDetector(path string, cfg Config) (*FaceDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read face cascade: %w", err)
	}
	return NewFaceDetector(data, cfg)
}

// NewFaceDetector unpacks a cascade held in memory
func NewFaceDetector(cascade []byte, cfg Config) (*FaceDetector, error) {
	// pigo indexes the header without bounds checks
	if len(cascade) < 16 {
		return nil, fmt.Errorf("face cascade too short: %d bytes", len(cascade))
	}
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack face cascade: %w", err)
	}
	return &FaceDetector{classifier: classifier, cfg: cfg}, nil
}

// Boosts runs the cascade over img and returns one boost per face
func (f *FaceDetector) Boosts(ctx context.Context, img image.Image) ([]types.BoostRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	if cols == 0 || rows == 0 {
		return nil, nil
	}

	minDim := min(cols, rows)
	params := pigo.CascadeParams{
		MinSize:     max(minDim*f.cfg.MinSizePct/100, 20),
		MaxSize:     max(cols, rows),
		ShiftFactor: f.cfg.ShiftFactor,
		ScaleFactor: f.cfg.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(rebase(img)),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := f.classifier.RunCascade(params, 0.0)
	dets = f.classifier.ClusterDetections(dets, f.cfg.IoUThreshold)

	return detectionsToBoosts(dets, f.cfg), nil
}

// detectionsToBoosts keeps confident detections. Each face is a square
// centred on (Col, Row) with side Scale.
func detectionsToBoosts(dets []pigo.Detection, cfg Config) []types.BoostRegion {
	var boosts []types.BoostRegion
	for _, d := range dets {
		if d.Q < cfg.MinQuality || d.Scale <= 0 {
			continue
		}
		half := float64(d.Scale) / 2
		boosts = append(boosts, types.BoostRegion{
			X:      float64(d.Col) - half,
			Y:      float64(d.Row) - half,
			Width:  float64(d.Scale),
			Height: float64(d.Scale),
			Weight: cfg.Weight,
		})
	}
	return boosts
}

// rebase moves the image origin to (0,0) so pixel indexes line up with the cascade
func rebase(img image.Image) image.Image {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
