package geometry

import (
	"context"
	"image"

	"github.com/repack-io/backbreaker-api/internal/vision"
)

// Prompt key and use case for card geometry analysis.
const (
	analysisPromptKey = "card_crop"
	analysisUseCase   = "card-analysis"
)

// VisionAnalyzer obtains geometry analyses from the vision model.
type VisionAnalyzer struct {
	client *vision.Client
}

// NewVisionAnalyzer constructs an analyzer on top of the vision client.
func NewVisionAnalyzer(client *vision.Client) *VisionAnalyzer {
	return &VisionAnalyzer{client: client}
}

// AnalyzeCard sends the photo to the card-analysis model and decodes its reply.
func (a *VisionAnalyzer) AnalyzeCard(ctx context.Context, img image.Image) (Analysis, error) {
	prompt, err := a.client.Prompt(ctx, analysisPromptKey)
	if err != nil {
		return Analysis{}, err
	}

	data, err := EncodeJPEG(img)
	if err != nil {
		return Analysis{}, err
	}

	return vision.Invoke[Analysis](ctx, a.client, analysisUseCase, [][]byte{data}, prompt)
}
