package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/menta2k/smartcrop/pkg/client"
	"github.com/menta2k/smartcrop/pkg/processing"
	"github.com/menta2k/smartcrop/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt is the default prompt for subject detection
const DefaultPrompt = `You are an image subject locator.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
    "cx": 0.0,
    "cy": 0.0
  },
  "description": "short neutral sentence (≤ 20 words)",
  "tags": ["tag1", "tag2", "tag3", "tag4", "tag5"]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box should tightly include the visually dominant subject (prefer people/vehicles/animals; else the most salient object).
- Confidence reflects how sure you are that the box contains the subject.
- Description must be brief and factual. Do not guess real identities.
- Tags: lowercase, concise, no punctuation or duplicates.
- If no subject is found, return:
  {
    "primary":{"label":"none","confidence":0.0,"box":{"x":0.25,"y":0.25,"w":0.50,"h":0.50},"cx":0.5,"cy":0.5},
    "description":"generic scene",
    "tags":["generic","scene"]
  }
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Default image preparation for the model
const (
	DefaultMaxDim  = 1024
	DefaultQuality = 85
)

// Detector finds the primary subject of an image with a vision model and
// reports it as a crop boost
type Detector struct {
	client    client.VisionClient
	processor *processing.Processor
	model     string
	prompt    string

	// Images are downscaled so the longer side is at most MaxDim before upload
	MaxDim  int
	Quality int
	// Weight scales the confidence of the detected subject
	Weight float64
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient, model string) *Detector {
	return &Detector{
		client:    client,
		processor: processing.NewProcessor(),
		model:     model,
		prompt:    DefaultPrompt,
		MaxDim:    DefaultMaxDim,
		Quality:   DefaultQuality,
		Weight:    1,
	}
}

// SetPrompt replaces the subject detection prompt
func (d *Detector) SetPrompt(prompt string) {
	d.prompt = prompt
}

// DetectSubject analyzes an image and detects the primary subject
func (d *Detector) DetectSubject(ctx context.Context, imageB64 string) (*types.SubjectResult, error) {
	result, err := d.DetectSubjectWithPrompt(ctx, imageB64, d.prompt)
	if err != nil {
		return nil, err
	}
	return validateResult(result), nil
}

// DetectSubjectWithPrompt analyzes an image with a custom prompt
func (d *Detector) DetectSubjectWithPrompt(ctx context.Context, imageB64, prompt string) (*types.SubjectResult, error) {
	result, err := d.client.AnalyzeImage(ctx, d.model, prompt, imageB64)
	if err != nil {
		return nil, err
	}

	result.Primary.Box = normalizeBox(result.Primary.Box)
	result.Tags = normalizeTags(result.Tags)
	return result, nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, d.model, SimpleTestPrompt, imageB64)
}

// Boosts reports the detected subject of img as a boost region in pixel
// coordinates. No subject means no boosts.
func (d *Detector) Boosts(ctx context.Context, img image.Image) ([]types.BoostRegion, error) {
	encoded, err := d.processor.PrepareImageForModel(img, "jpg", d.MaxDim, d.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image for model: %w", err)
	}

	result, err := d.DetectSubject(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("subject detection failed: %w", err)
	}

	b := img.Bounds()
	boost, ok := SubjectToBoost(result, b.Dx(), b.Dy())
	if !ok {
		return nil, nil
	}
	boost.Weight *= d.Weight
	return []types.BoostRegion{boost}, nil
}

// SubjectToBoost converts a normalized subject box into a pixel boost region
// weighted by the model confidence
func SubjectToBoost(result *types.SubjectResult, width, height int) (types.BoostRegion, bool) {
	if result == nil || strings.EqualFold(result.Primary.Label, "none") {
		return types.BoostRegion{}, false
	}
	weight := clamp(result.Primary.Confidence, 0, 1)
	if weight == 0 {
		return types.BoostRegion{}, false
	}

	r := processing.BoxToRect(result.Primary.Box, width, height)
	if r.Empty() {
		return types.BoostRegion{}, false
	}
	return types.BoostRegion{
		X:      float64(r.Min.X),
		Y:      float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
		Weight: weight,
	}, true
}

// validateResult demotes fallback-looking answers to "none"
func validateResult(result *types.SubjectResult) *types.SubjectResult {
	if strings.EqualFold(result.Primary.Label, "none") {
		return result
	}

	if math.IsNaN(result.Primary.Cx) || math.IsNaN(result.Primary.Cy) {
		result.Primary.Cx, result.Primary.Cy = 0.5, 0.5
	}
	result.Primary.Cx = clamp(result.Primary.Cx, 0, 1)
	result.Primary.Cy = clamp(result.Primary.Cy, 0, 1)

	fallbackIndicators := []string{"unclear", "empty", "parse", "error", "fallback", "non-json", "generic"}
	label := strings.ToLower(result.Primary.Label)
	description := strings.ToLower(result.Description)
	for _, indicator := range fallbackIndicators {
		if strings.Contains(label, indicator) || strings.Contains(description, indicator) {
			result.Primary.Label = "none"
			result.Primary.Confidence = 0.0
			break
		}
	}
	return result
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox keeps the box inside the unit square
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

// normalizeTags ensures tags are cleaned and limited to 5 entries
func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 5)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 5 {
			break
		}
	}
	return out
}
