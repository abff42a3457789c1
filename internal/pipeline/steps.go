package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/repack-io/backbreaker-api/internal/extraction"
	"github.com/repack-io/backbreaker-api/internal/geometry"
	"github.com/repack-io/backbreaker-api/internal/models"
	"github.com/repack-io/backbreaker-api/internal/storage"
)

// StatusRepository resolves processing status codes for the status steps.
type StatusRepository interface {
	FindByCode(ctx context.Context, code string) (*models.CardProcessingStatus, error)
}

// Corrector fixes a card photo's geometry. It never fails.
type Corrector interface {
	Correct(ctx context.Context, img image.Image) image.Image
}

// DetailExtractor extracts structured attributes for one card.
type DetailExtractor interface {
	ExtractCardDetails(ctx context.Context, seriesCardID int64) (*extraction.Result, error)
}

// MarkProcessingStep flags the card as in flight.
type MarkProcessingStep struct {
	Statuses StatusRepository
}

func (s *MarkProcessingStep) Name() string { return "mark-processing" }
func (s *MarkProcessingStep) Order() int   { return OrderMarkProcessing }

func (s *MarkProcessingStep) Handle(ctx context.Context, cc *CardContext) error {
	status, err := s.Statuses.FindByCode(ctx, "processing")
	if err != nil {
		return fmt.Errorf("processing status not configured: %w", err)
	}
	cc.Card.ProcessingStatusID = &status.ID
	return nil
}

// DownloadStep resolves the card's scan locations and fetches both originals.
type DownloadStep struct {
	Store         storage.ImageStore
	UploadsBucket string
}

func (s *DownloadStep) Name() string { return "download-originals" }
func (s *DownloadStep) Order() int   { return OrderDownload }

func (s *DownloadStep) Handle(ctx context.Context, cc *CardContext) error {
	frontLocation, err := storage.ResolveLocation(cc.Card.FrontImgURL, s.UploadsBucket)
	if err != nil {
		return err
	}
	backLocation, err := storage.ResolveLocation(cc.Card.BackImgURL, s.UploadsBucket)
	if err != nil {
		return err
	}
	cc.FrontOriginalLocation = frontLocation
	cc.BackOriginalLocation = backLocation

	front, err := s.downloadImage(ctx, frontLocation)
	if err != nil {
		return err
	}
	back, err := s.downloadImage(ctx, backLocation)
	if err != nil {
		return err
	}
	cc.FrontOriginal = front
	cc.BackOriginal = back
	return nil
}

func (s *DownloadStep) downloadImage(ctx context.Context, loc storage.Location) (image.Image, error) {
	data, err := s.Store.Download(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, err
	}
	return geometry.Decode(data)
}

// CropStep corrects the geometry of both scans.
type CropStep struct {
	Corrector Corrector
}

func (s *CropStep) Name() string { return "crop-images" }
func (s *CropStep) Order() int   { return OrderCrop }

func (s *CropStep) Handle(ctx context.Context, cc *CardContext) error {
	if cc.FrontOriginal == nil || cc.BackOriginal == nil {
		return errors.New("original images not downloaded")
	}
	cc.FrontProcessed = s.Corrector.Correct(ctx, cc.FrontOriginal)
	cc.BackProcessed = s.Corrector.Correct(ctx, cc.BackOriginal)
	return nil
}

// UploadStep writes the processed scans and records their locations on the card.
type UploadStep struct {
	Store           storage.ImageStore
	ProcessedBucket string
}

func (s *UploadStep) Name() string { return "upload-processed" }
func (s *UploadStep) Order() int   { return OrderUpload }

func (s *UploadStep) Handle(ctx context.Context, cc *CardContext) error {
	baseKey := fmt.Sprintf("processed/series/%d/cards/%d", cc.Series.ID, cc.Card.ID)
	frontLocation := storage.Location{Bucket: s.ProcessedBucket, Key: baseKey + "/front_cropped.jpg"}
	backLocation := storage.Location{Bucket: s.ProcessedBucket, Key: baseKey + "/back_cropped.jpg"}

	cc.FrontProcessedLocation = frontLocation
	cc.BackProcessedLocation = backLocation

	if err := s.uploadImage(ctx, frontLocation, firstNonNil(cc.FrontProcessed, cc.FrontOriginal)); err != nil {
		return err
	}
	if err := s.uploadImage(ctx, backLocation, firstNonNil(cc.BackProcessed, cc.BackOriginal)); err != nil {
		return err
	}

	frontURL := frontLocation.S3URI()
	backURL := backLocation.S3URI()
	cc.Card.ProcessedFrontImgURL = frontURL
	cc.Card.ProcessedBackImgURL = backURL
	cc.Card.FrontScanResults = scanResultsJSON(frontURL)
	cc.Card.BackScanResults = scanResultsJSON(backURL)
	return nil
}

func (s *UploadStep) uploadImage(ctx context.Context, loc storage.Location, img image.Image) error {
	if img == nil {
		return errors.New("no image to upload")
	}
	data, err := geometry.EncodeJPEG(img)
	if err != nil {
		return err
	}
	return s.Store.Upload(ctx, loc.Bucket, loc.Key, data, "image/jpeg")
}

func firstNonNil(preferred, fallback image.Image) image.Image {
	if preferred != nil {
		return preferred
	}
	return fallback
}

func scanResultsJSON(processedURL string) string {
	payload, _ := json.Marshal(map[string]string{"processed_image_url": processedURL})
	return string(payload)
}

// ExtractDetailsStep runs the structured extraction for the card. A card that
// already has details keeps them; re-runs must not fail the chain on the
// idempotency guard.
type ExtractDetailsStep struct {
	Extractor DetailExtractor
}

func (s *ExtractDetailsStep) Name() string { return "extract-details" }
func (s *ExtractDetailsStep) Order() int   { return OrderExtractDetails }

func (s *ExtractDetailsStep) Handle(ctx context.Context, cc *CardContext) error {
	_, err := s.Extractor.ExtractCardDetails(ctx, cc.Card.ID)
	if errors.Is(err, extraction.ErrAlreadyProcessed) {
		return nil
	}
	return err
}

// MarkCompleteStep flags the card done and stamps the completion time.
type MarkCompleteStep struct {
	Statuses StatusRepository
}

func (s *MarkCompleteStep) Name() string { return "mark-complete" }
func (s *MarkCompleteStep) Order() int   { return OrderMarkComplete }

func (s *MarkCompleteStep) Handle(ctx context.Context, cc *CardContext) error {
	status, err := s.Statuses.FindByCode(ctx, "done")
	if err != nil {
		return fmt.Errorf("done status not configured: %w", err)
	}
	now := time.Now().UTC()
	cc.Card.ProcessingStatusID = &status.ID
	cc.Card.ProcessedAt = &now
	return nil
}
