package detection

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/smartcrop/pkg/types"
)

type fakeClient struct {
	result *types.SubjectResult
	err    error

	model  string
	prompt string
	image  string
}

func (f *fakeClient) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	f.model, f.prompt, f.image = model, prompt, imgB64
	return "a test image", f.err
}

func (f *fakeClient) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.SubjectResult, error) {
	f.model, f.prompt, f.image = model, prompt, imgB64
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

func subject(label string, confidence float64, box types.Box) *types.SubjectResult {
	return &types.SubjectResult{
		Primary:     types.Primary{Label: label, Confidence: confidence, Box: box, Cx: 0.5, Cy: 0.5},
		Description: "test subject",
	}
}

func TestBoosts(t *testing.T) {
	fc := &fakeClient{result: subject("dog", 0.8, types.Box{X: 0.5, Y: 0, W: 0.25, H: 1})}
	d := NewDetector(fc, "llava")

	boosts, err := d.Boosts(context.Background(), image.NewNRGBA(image.Rect(0, 0, 200, 100)))
	require.NoError(t, err)
	require.Len(t, boosts, 1)

	assert.Equal(t, types.BoostRegion{X: 100, Y: 0, Width: 50, Height: 100, Weight: 0.8}, boosts[0])
	assert.Equal(t, "llava", fc.model)
	assert.Equal(t, DefaultPrompt, fc.prompt)
	assert.NotEmpty(t, fc.image)
}

func TestBoostsNoSubject(t *testing.T) {
	fc := &fakeClient{result: subject("none", 0, types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5})}
	d := NewDetector(fc, "llava")

	boosts, err := d.Boosts(context.Background(), image.NewNRGBA(image.Rect(0, 0, 64, 64)))
	require.NoError(t, err)
	assert.Empty(t, boosts)
}

func TestBoostsClientError(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection refused")}
	d := NewDetector(fc, "llava")

	_, err := d.Boosts(context.Background(), image.NewNRGBA(image.Rect(0, 0, 64, 64)))
	require.Error(t, err)
	assert.ErrorIs(t, err, fc.err)
}

func TestBoostsWeightScaling(t *testing.T) {
	fc := &fakeClient{result: subject("cat", 1.5, types.Box{X: 0, Y: 0, W: 0.5, H: 0.5})}
	d := NewDetector(fc, "m")
	d.Weight = 0.5

	boosts, err := d.Boosts(context.Background(), image.NewNRGBA(image.Rect(0, 0, 10, 10)))
	require.NoError(t, err)
	require.Len(t, boosts, 1)
	assert.Equal(t, 0.5, boosts[0].Weight, "confidence is clamped to 1 before scaling")
}

func TestSubjectToBoost(t *testing.T) {
	tests := []struct {
		name   string
		result *types.SubjectResult
		ok     bool
	}{
		{"nil", nil, false},
		{"none label", subject("None", 0.9, types.Box{W: 1, H: 1}), false},
		{"zero confidence", subject("cat", 0, types.Box{W: 1, H: 1}), false},
		{"empty box", subject("cat", 0.5, types.Box{X: 0.5, Y: 0.5}), false},
		{"valid", subject("cat", 0.5, types.Box{W: 1, H: 1}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := SubjectToBoost(tt.result, 100, 100)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestDetectSubjectDemotesFallbacks(t *testing.T) {
	r := subject("unclear image", 0.4, types.Box{W: 1, H: 1})
	d := NewDetector(&fakeClient{result: r}, "m")

	result, err := d.DetectSubject(context.Background(), "aGk=")
	require.NoError(t, err)
	assert.Equal(t, "none", result.Primary.Label)
	assert.Zero(t, result.Primary.Confidence)
}

func TestDetectSubjectNormalizes(t *testing.T) {
	r := subject("Car", 0.9, types.Box{X: 0.8, Y: -0.2, W: 0.5, H: 0.5})
	r.Tags = []string{" Car ", "car", "RED", "", "street", "night", "wet", "blur"}
	d := NewDetector(&fakeClient{result: r}, "m")

	result, err := d.DetectSubject(context.Background(), "aGk=")
	require.NoError(t, err)
	assert.Equal(t, []string{"car", "red", "street", "night", "wet"}, result.Tags)
	assert.Equal(t, 0.0, result.Primary.Box.Y)
	assert.InDelta(t, 0.2, result.Primary.Box.W, 1e-9)
}

func TestTestVision(t *testing.T) {
	fc := &fakeClient{}
	d := NewDetector(fc, "m")

	got, err := d.TestVision(context.Background(), "aGk=")
	require.NoError(t, err)
	assert.Equal(t, "a test image", got)
	assert.Equal(t, SimpleTestPrompt, fc.prompt)
}
