package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/repack-io/backbreaker-api/internal/models"
)

// SeriesRepository provides persistence APIs for series and their cards.
type SeriesRepository struct {
	db *gorm.DB
}

// NewSeriesRepository creates a new repository instance.
func NewSeriesRepository(db *gorm.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

// AutoMigrate ensures the schema is available.
func (r *SeriesRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&models.ProductSeries{},
		&models.SeriesCard{},
		&models.CardProcessingStatus{},
		&models.CardCategory{},
		&models.AiPrompt{},
		&models.Player{},
		&models.Team{},
		&models.CardDetail{},
	)
}

// FindSeriesByID retrieves a product series.
func (r *SeriesRepository) FindSeriesByID(ctx context.Context, id int64) (*models.ProductSeries, error) {
	var series models.ProductSeries
	if err := r.db.WithContext(ctx).First(&series, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &series, nil
}

// FinalizeSeries marks a series finalized. Returns the number of updated rows,
// which is zero when the series was already finalized.
func (r *SeriesRepository) FinalizeSeries(ctx context.Context, id int64) (int64, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.ProductSeries{}).
		Where("id = ? AND finalized = ?", id, false).
		Updates(map[string]interface{}{"finalized": true, "finalized_at": now})
	return result.RowsAffected, result.Error
}

// FindProcessableCards returns the cards of a series that have both scans present.
func (r *SeriesRepository) FindProcessableCards(ctx context.Context, seriesID int64) ([]*models.SeriesCard, error) {
	var cards []*models.SeriesCard
	err := r.db.WithContext(ctx).
		Where("series_id = ? AND front_img_url <> '' AND back_img_url <> ''", seriesID).
		Order("id").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// FindCardByID retrieves a single series card.
func (r *SeriesRepository) FindCardByID(ctx context.Context, id int64) (*models.SeriesCard, error) {
	var card models.SeriesCard
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &card, nil
}

// SaveCard persists the current state of a card.
func (r *SeriesRepository) SaveCard(ctx context.Context, card *models.SeriesCard) error {
	return r.db.WithContext(ctx).Save(card).Error
}
