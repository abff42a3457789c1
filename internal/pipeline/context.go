package pipeline

import (
	"image"

	"github.com/repack-io/backbreaker-api/internal/models"
	"github.com/repack-io/backbreaker-api/internal/storage"
)

// CardContext is the transient working state for one card's trip through the
// step chain. It is created per card, mutated in place by each step, and owned
// exclusively by the single run processing that card.
type CardContext struct {
	Series *models.ProductSeries
	Card   *models.SeriesCard

	FrontOriginalLocation  storage.Location
	BackOriginalLocation   storage.Location
	FrontProcessedLocation storage.Location
	BackProcessedLocation  storage.Location

	FrontOriginal  image.Image
	BackOriginal   image.Image
	FrontProcessed image.Image
	BackProcessed  image.Image
}

// NewCardContext builds the context for one card of a series.
func NewCardContext(series *models.ProductSeries, card *models.SeriesCard) *CardContext {
	return &CardContext{Series: series, Card: card}
}
