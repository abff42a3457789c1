package pipeline

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/repack-io/backbreaker-api/internal/logging"
	"github.com/repack-io/backbreaker-api/internal/models"
)

const defaultWorkers = 4

// CardRepository is the persistence surface the runner needs.
type CardRepository interface {
	FindProcessableCards(ctx context.Context, seriesID int64) ([]*models.SeriesCard, error)
	SaveCard(ctx context.Context, card *models.SeriesCard) error
}

// Runner executes the ordered step chain over every card of a series.
type Runner struct {
	cards    CardRepository
	handlers []Handler
	workers  int
	logger   *zap.Logger
}

// NewRunner constructs a runner. Handlers are sorted by their declared order;
// workers bounds how many cards run concurrently.
func NewRunner(cards CardRepository, handlers []Handler, workers int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Runner{
		cards:    cards,
		handlers: sortHandlers(handlers),
		workers:  workers,
		logger:   logger.Named("pipeline"),
	}
}

// Run processes every card of the series that has both scans present. A card's
// failure is recorded in the report and never aborts the rest of the batch.
func (r *Runner) Run(ctx context.Context, series *models.ProductSeries) (*Report, error) {
	cards, err := r.cards.FindProcessableCards(ctx, series.ID)
	if err != nil {
		return nil, logging.NewOperationError("pipeline.load_cards",
			strconv.FormatInt(series.ID, 10), err)
	}

	report := NewReport(series.ID, len(cards))
	if len(cards) == 0 || len(r.handlers) == 0 {
		r.logger.Info("series has no cards or handlers to process",
			zap.Int64("series_id", series.ID), zap.Int("cards", len(cards)))
		return report, nil
	}

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for _, card := range cards {
		wg.Add(1)
		sem <- struct{}{}
		go func(card *models.SeriesCard) {
			defer wg.Done()
			defer func() { <-sem }()
			r.processCard(ctx, series, card, report)
		}(card)
	}
	wg.Wait()

	r.logger.Info("series processing complete",
		zap.Int64("series_id", series.ID),
		zap.Int("total", report.TotalCards),
		zap.Int("succeeded", report.ProcessedCards()),
		zap.Int("failed", len(report.Failures())))
	return report, nil
}

// ProcessCard runs the chain for a single card and commits it, outside of any
// batch. Used by the queue worker.
func (r *Runner) ProcessCard(ctx context.Context, series *models.ProductSeries, card *models.SeriesCard) error {
	cc := NewCardContext(series, card)
	if err := r.runChain(ctx, cc); err != nil {
		return err
	}
	return r.cards.SaveCard(ctx, card)
}

func (r *Runner) processCard(ctx context.Context, series *models.ProductSeries, card *models.SeriesCard, report *Report) {
	cc := NewCardContext(series, card)
	if err := r.runChain(ctx, cc); err != nil {
		r.logger.Error("card processing failed",
			zap.Int64("series_id", series.ID),
			zap.Int64("card_id", card.ID),
			zap.Error(err))
		report.MarkFailure(card.ID, err.Error())
		return
	}

	if err := r.cards.SaveCard(ctx, card); err != nil {
		r.logger.Error("failed to persist processed card",
			zap.Int64("card_id", card.ID), zap.Error(err))
		report.MarkFailure(card.ID, err.Error())
		return
	}
	report.MarkSuccess()
}

func (r *Runner) runChain(ctx context.Context, cc *CardContext) error {
	for _, handler := range r.handlers {
		if err := handler.Handle(ctx, cc); err != nil {
			return logging.NewOperationError("pipeline."+handler.Name(),
				strconv.FormatInt(cc.Card.ID, 10), err)
		}
	}
	return nil
}
