package client

import (
	"context"

	"github.com/menta2k/smartcrop/pkg/types"
)

// VisionClient talks to a multimodal model that can locate the main subject
// of an image. Images are passed base64 encoded.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.SubjectResult, error)
}
