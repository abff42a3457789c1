package geometry

import (
	"context"
	"image"
	"math"

	"go.uber.org/zap"
)

const (
	defaultConfidenceThreshold = 70.0
	defaultPaddingPercent      = 5
	defaultFallbackCropPercent = 5
	defaultTargetSize          = 500
)

// Corrector crops, orients, and resizes card photos, using the vision model's
// analysis when it is trustworthy and a deterministic center crop otherwise.
// Correct never fails: every bad analysis degrades to the fallback path, so the
// pipeline always gets an image back.
type Corrector struct {
	analyzer            Analyzer
	confidenceThreshold float64
	paddingPercent      int
	fallbackCropPercent int
	targetSize          int
	logger              *zap.Logger
}

// Option configures a Corrector.
type Option func(*Corrector)

// WithConfidenceThreshold sets the confidence below which analysis is distrusted.
func WithConfidenceThreshold(threshold float64) Option {
	return func(c *Corrector) { c.confidenceThreshold = threshold }
}

// WithPaddingPercent sets the box expansion applied before cropping. Zero disables it.
func WithPaddingPercent(percent int) Option {
	return func(c *Corrector) { c.paddingPercent = percent }
}

// WithFallbackCropPercent sets how much the fallback trims off each edge.
func WithFallbackCropPercent(percent int) Option {
	return func(c *Corrector) { c.fallbackCropPercent = percent }
}

// WithTargetSize sets the output size of the longer image dimension.
func WithTargetSize(size int) Option {
	return func(c *Corrector) { c.targetSize = size }
}

// NewCorrector constructs a corrector with the stock thresholds.
func NewCorrector(analyzer Analyzer, logger *zap.Logger, opts ...Option) *Corrector {
	c := &Corrector{
		analyzer:            analyzer,
		confidenceThreshold: defaultConfidenceThreshold,
		paddingPercent:      defaultPaddingPercent,
		fallbackCropPercent: defaultFallbackCropPercent,
		targetSize:          defaultTargetSize,
		logger:              logger.Named("geometry"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correct returns the cropped, oriented, resized card image.
func (c *Corrector) Correct(ctx context.Context, img image.Image) image.Image {
	bounds := img.Bounds()
	c.logger.Info("analyzing card photo",
		zap.Int("width", bounds.Dx()), zap.Int("height", bounds.Dy()))

	analysis, err := c.analyzer.AnalyzeCard(ctx, img)
	if err != nil {
		c.logger.Warn("analysis failed, using fallback crop", zap.Error(err))
		return c.fallback(img)
	}

	if analysis.Confidence < c.confidenceThreshold {
		c.logger.Warn("analysis confidence below threshold, using fallback crop",
			zap.Float64("confidence", analysis.Confidence),
			zap.Float64("threshold", c.confidenceThreshold))
		return c.fallback(img)
	}

	box := analysis.BoundingBox
	if !box.Valid() {
		c.logger.Warn("invalid bounding box, using fallback crop",
			zap.Float64("left", box.Left), zap.Float64("top", box.Top),
			zap.Float64("width", box.Width), zap.Float64("height", box.Height))
		return c.fallback(img)
	}

	cropped, ok := c.cropWithBox(img, box)
	if !ok {
		return c.fallback(img)
	}

	rotated := Rotate(cropped, analysis.RotationDegrees)
	resized := Resize(rotated, c.targetSize)

	out := resized.Bounds()
	c.logger.Info("correction complete",
		zap.Float64("confidence", analysis.Confidence),
		zap.Float64("rotation_degrees", analysis.RotationDegrees),
		zap.Int("width", out.Dx()), zap.Int("height", out.Dy()))
	return resized
}

// cropWithBox converts the fractional box to pixels, expands it by the padding
// percentage clamped to the frame, and crops. A degenerate rectangle reports
// failure so the caller falls back instead of cropping.
func (c *Corrector) cropWithBox(img image.Image, box BoundingBox) (image.Image, bool) {
	bounds := img.Bounds()
	imgW, imgH := bounds.Dx(), bounds.Dy()

	x := int(math.Round(box.Left * float64(imgW)))
	y := int(math.Round(box.Top * float64(imgH)))
	w := int(math.Round(box.Width * float64(imgW)))
	h := int(math.Round(box.Height * float64(imgH)))

	if c.paddingPercent > 0 {
		hPad := int(math.Round(float64(w) * float64(c.paddingPercent) / 100))
		vPad := int(math.Round(float64(h) * float64(c.paddingPercent) / 100))

		x = max(0, x-hPad)
		y = max(0, y-vPad)
		w += 2 * hPad
		h += 2 * vPad
	}

	// Rounding alone can push the far edge one pixel past the frame even for a
	// valid box, so clamp regardless of padding.
	w = min(imgW-x, w)
	h = min(imgH-y, h)

	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > imgW || y+h > imgH {
		c.logger.Warn("degenerate crop rectangle, using fallback crop",
			zap.Int("x", x), zap.Int("y", y), zap.Int("width", w), zap.Int("height", h))
		return nil, false
	}

	c.logger.Info("cropping to bounding box",
		zap.Int("x", x), zap.Int("y", y), zap.Int("width", w), zap.Int("height", h),
		zap.Int("padding_percent", c.paddingPercent))
	rect := image.Rect(x, y, x+w, y+h)
	return crop(img, rect), true
}

// fallback applies the conservative center crop, rotates landscape photos to
// portrait, and resizes.
func (c *Corrector) fallback(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	cropX := w * c.fallbackCropPercent / 100
	cropY := h * c.fallbackCropPercent / 100
	cropW := w - 2*cropX
	cropH := h - 2*cropY

	cropped := img
	if cropW > 0 && cropH > 0 {
		c.logger.Info("fallback center crop",
			zap.Int("width", cropW), zap.Int("height", cropH),
			zap.Int("crop_percent", c.fallbackCropPercent))
		cropped = crop(img, image.Rect(cropX, cropY, cropX+cropW, cropY+cropH))
	}

	// Most cards are portrait; landscape output here means the photo was sideways.
	cb := cropped.Bounds()
	if cb.Dx() > cb.Dy() {
		c.logger.Info("fallback rotating landscape image to portrait")
		cropped = Rotate(cropped, 90)
	}

	return Resize(cropped, c.targetSize)
}
