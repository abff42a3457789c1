package extraction

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/repack-io/backbreaker-api/internal/geometry"
	"github.com/repack-io/backbreaker-api/internal/logging"
	"github.com/repack-io/backbreaker-api/internal/models"
	"github.com/repack-io/backbreaker-api/internal/repository"
	"github.com/repack-io/backbreaker-api/internal/storage"
	"github.com/repack-io/backbreaker-api/internal/vision"
)

// ErrAlreadyProcessed reports that a card already has extracted details.
var ErrAlreadyProcessed = errors.New("card details already extracted")

// ErrIncompleteExtraction reports that required fields were missing from the
// model's reply.
var ErrIncompleteExtraction = errors.New("incomplete extraction")

// Prompt key and use case for structured card extraction.
const (
	extractionPromptKey = "card_details_extraction"
	extractionUseCase   = "card-details-extraction"
)

// defaultCardStatusID marks a freshly extracted card as available.
const defaultCardStatusID = 1

// ExtractedCardData is the vision model's structured read of a card.
type ExtractedCardData struct {
	PlayerFirstName string `json:"player_first_name"`
	PlayerLastName  string `json:"player_last_name"`
	CardCategory    string `json:"card_category"`
	TeamName        string `json:"team_name"`
	ParallelType    string `json:"parallel_type"`
	SerialNumber    string `json:"serial_number"`
	CardYear        string `json:"card_year"`
	USDValueRange   string `json:"usd_value_range"`
	Confidence      string `json:"confidence"`
}

// CardRepository is the card lookup surface the service needs.
type CardRepository interface {
	FindCardByID(ctx context.Context, id int64) (*models.SeriesCard, error)
}

// Catalog is the reference-entity surface the service needs.
type Catalog interface {
	FindCategoryID(ctx context.Context, category string) (int, error)
	DetailExists(ctx context.Context, seriesCardID int64) (bool, error)
	SaveDetail(ctx context.Context, detail *models.CardDetail) error
	GetOrCreatePlayer(ctx context.Context, firstName, lastName string, categoryID int) (*models.Player, error)
	GetOrCreateTeam(ctx context.Context, name string, categoryID int) (*models.Team, error)
}

// Result reports what was extracted and which entities it resolved to.
type Result struct {
	CardDetailID int64             `json:"card_detail_id"`
	SeriesCardID int64             `json:"series_card_id"`
	PlayerID     int64             `json:"player_id"`
	PlayerName   string            `json:"player_name"`
	TeamID       *int64            `json:"team_id,omitempty"`
	TeamName     string            `json:"team_name,omitempty"`
	ParallelType string            `json:"parallel_type"`
	SerialNumber string            `json:"serial_number"`
	Extracted    ExtractedCardData `json:"extracted_data"`
}

// Service extracts structured card attributes from a card's scans.
type Service struct {
	cards             CardRepository
	catalog           Catalog
	store             storage.ImageStore
	visionClient      *vision.Client
	uploadsBucket     string
	defaultCategoryID int
	logger            *zap.Logger
}

// NewService constructs an extraction service.
func NewService(cards CardRepository, catalog Catalog, store storage.ImageStore,
	visionClient *vision.Client, uploadsBucket string, defaultCategoryID int,
	logger *zap.Logger) *Service {
	return &Service{
		cards:             cards,
		catalog:           catalog,
		store:             store,
		visionClient:      visionClient,
		uploadsBucket:     uploadsBucket,
		defaultCategoryID: defaultCategoryID,
		logger:            logger.Named("extraction"),
	}
}

// ExtractCardDetails analyzes both scans of a card and persists the resolved
// attributes as a new detail record. Re-extraction on an already-processed card
// fails with ErrAlreadyProcessed.
func (s *Service) ExtractCardDetails(ctx context.Context, seriesCardID int64) (*Result, error) {
	cardID := strconv.FormatInt(seriesCardID, 10)
	opLogger := logging.WithOperation(s.logger, "extraction.card_details", cardID)
	opLogger.Info("extracting card details")

	card, err := s.cards.FindCardByID(ctx, seriesCardID)
	if err != nil {
		return nil, logging.NewOperationError("extraction.find_card", cardID, err)
	}

	exists, err := s.catalog.DetailExists(ctx, seriesCardID)
	if err != nil {
		return nil, logging.NewOperationError("extraction.detail_exists", cardID, err)
	}
	if exists {
		return nil, ErrAlreadyProcessed
	}

	front, err := s.downloadImage(ctx, card.FrontImgURL)
	if err != nil {
		return nil, logging.NewOperationError("extraction.download_front", cardID, err)
	}
	back, err := s.downloadImage(ctx, card.BackImgURL)
	if err != nil {
		return nil, logging.NewOperationError("extraction.download_back", cardID, err)
	}

	prompt, err := s.visionClient.Prompt(ctx, extractionPromptKey)
	if err != nil {
		return nil, err
	}

	extracted, err := vision.Invoke[ExtractedCardData](ctx, s.visionClient,
		extractionUseCase, [][]byte{front, back}, prompt)
	if err != nil {
		return nil, logging.NewOperationError("extraction.invoke_vision", cardID, err)
	}

	opLogger.Info("vision analysis complete",
		zap.String("player", extracted.PlayerFirstName+" "+extracted.PlayerLastName),
		zap.String("team", extracted.TeamName),
		zap.String("confidence", extracted.Confidence))

	if extracted.PlayerFirstName == "" || extracted.PlayerLastName == "" || extracted.CardCategory == "" {
		return nil, ErrIncompleteExtraction
	}

	// The category lookup never fails the extraction; unknown categories fall
	// back to the configured default id.
	categoryID, err := s.catalog.FindCategoryID(ctx, extracted.CardCategory)
	if err != nil {
		opLogger.Warn("unknown card category, using default",
			zap.String("category", extracted.CardCategory),
			zap.Int("default_category_id", s.defaultCategoryID))
		categoryID = s.defaultCategoryID
	}

	player, err := s.catalog.GetOrCreatePlayer(ctx,
		extracted.PlayerFirstName, extracted.PlayerLastName, categoryID)
	if err != nil {
		return nil, logging.NewOperationError("extraction.resolve_player", cardID, err)
	}

	var team *models.Team
	if strings.TrimSpace(extracted.TeamName) != "" {
		team, err = s.catalog.GetOrCreateTeam(ctx, extracted.TeamName, categoryID)
		if err != nil {
			return nil, logging.NewOperationError("extraction.resolve_team", cardID, err)
		}
	}

	detail := &models.CardDetail{
		SeriesCardID:       seriesCardID,
		PlayerID:           player.ID,
		ParallelType:       extracted.ParallelType,
		SerialNumber:       extracted.SerialNumber,
		CardCategoryTypeID: categoryID,
		CardStatusID:       defaultCardStatusID,
		ProductTierID:      card.ProductTierID,
		USDValueRange:      extracted.USDValueRange,
		Confidence:         extracted.Confidence,
	}
	if team != nil {
		detail.TeamID = &team.ID
	}
	if year, convErr := strconv.Atoi(strings.TrimSpace(extracted.CardYear)); convErr == nil {
		detail.CardYear = &year
	}

	if err := s.catalog.SaveDetail(ctx, detail); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrAlreadyProcessed
		}
		return nil, logging.NewOperationError("extraction.save_detail", cardID, err)
	}
	opLogger.Info("card detail created", zap.Int64("card_detail_id", detail.ID))

	result := &Result{
		CardDetailID: detail.ID,
		SeriesCardID: seriesCardID,
		PlayerID:     player.ID,
		PlayerName:   player.FullName(),
		ParallelType: detail.ParallelType,
		SerialNumber: detail.SerialNumber,
		Extracted:    extracted,
	}
	if team != nil {
		result.TeamID = &team.ID
		result.TeamName = team.Name
	}
	return result, nil
}

// downloadImage resolves a raw key, s3:// URI, or https S3 URL, downloads it,
// and re-encodes it as JPEG. Stored scans may be PNG; the model request
// declares every image as image/jpeg, so the bytes must match.
func (s *Service) downloadImage(ctx context.Context, ref string) ([]byte, error) {
	location, err := storage.ResolveLocation(ref, s.uploadsBucket)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Download(ctx, location.Bucket, location.Key)
	if err != nil {
		return nil, err
	}
	img, err := geometry.Decode(data)
	if err != nil {
		return nil, err
	}
	return geometry.EncodeJPEG(img)
}
