package geometry

import (
	"context"
	"image"
)

// BoundingBox locates the card within a photo as fractions of the image size.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the box satisfies the geometry invariants: the card
// occupies at least half the frame in both dimensions and stays inside it.
func (b BoundingBox) Valid() bool {
	if b.Left < 0 || b.Left > 0.5 {
		return false
	}
	if b.Top < 0 || b.Top > 0.5 {
		return false
	}
	if b.Width < 0.5 || b.Width > 1.0 {
		return false
	}
	if b.Height < 0.5 || b.Height > 1.0 {
		return false
	}
	if b.Left+b.Width > 1.0 {
		return false
	}
	if b.Top+b.Height > 1.0 {
		return false
	}
	return true
}

// Analysis is the vision model's read of a card photo.
type Analysis struct {
	BoundingBox     BoundingBox `json:"bounding_box"`
	RotationDegrees float64     `json:"rotation_degrees"`
	Confidence      float64     `json:"confidence"`
	Reasoning       string      `json:"reasoning"`
}

// Analyzer obtains a geometry analysis for a card photo.
type Analyzer interface {
	AnalyzeCard(ctx context.Context, img image.Image) (Analysis, error)
}
