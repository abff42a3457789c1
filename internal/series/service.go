package series

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/repack-io/backbreaker-api/internal/logging"
	"github.com/repack-io/backbreaker-api/internal/models"
	"github.com/repack-io/backbreaker-api/internal/pipeline"
	"github.com/repack-io/backbreaker-api/internal/repository"
)

const reportCacheTTL = 24 * time.Hour

// SeriesRepository is the persistence surface the service needs.
type SeriesRepository interface {
	FindSeriesByID(ctx context.Context, id int64) (*models.ProductSeries, error)
	FinalizeSeries(ctx context.Context, id int64) (int64, error)
}

// BatchRunner executes the card pipeline over a whole series.
type BatchRunner interface {
	Run(ctx context.Context, series *models.ProductSeries) (*pipeline.Report, error)
}

// FinalizeResult reports whether a finalize request was accepted and, in the
// synchronous variant, carries the completed report.
type FinalizeResult struct {
	SeriesID          int64              `json:"series_id"`
	Finalized         bool               `json:"finalized"`
	ProcessingStarted bool               `json:"processing_started"`
	Report            *pipeline.Snapshot `json:"report,omitempty"`
}

// Service finalizes series and triggers their processing run.
type Service struct {
	repo   SeriesRepository
	runner BatchRunner
	cache  Cache
	logger *zap.Logger

	// asyncSem bounds how many series runs execute concurrently.
	asyncSem chan struct{}
}

// NewService constructs a series service with a bounded async pool.
func NewService(repo SeriesRepository, runner BatchRunner, cache Cache, asyncWorkers int, logger *zap.Logger) *Service {
	if asyncWorkers <= 0 {
		asyncWorkers = 2
	}
	return &Service{
		repo:     repo,
		runner:   runner,
		cache:    cache,
		logger:   logger.Named("series"),
		asyncSem: make(chan struct{}, asyncWorkers),
	}
}

// Finalize marks the series finalized and triggers the processing run. Only the
// series lookup can fail the caller; in async mode the run is dispatched
// fire-and-forget and the result carries no report. A started run has no
// cancellation primitive: it completes or dies with the process.
func (s *Service) Finalize(ctx context.Context, seriesID int64, sync bool) (*FinalizeResult, error) {
	entityID := strconv.FormatInt(seriesID, 10)
	opLogger := logging.WithOperation(s.logger, "series.finalize", entityID)

	found, err := s.repo.FindSeriesByID(ctx, seriesID)
	if err != nil {
		return nil, logging.NewOperationError("series.finalize", entityID, err)
	}

	updated, err := s.repo.FinalizeSeries(ctx, seriesID)
	if err != nil {
		return nil, logging.NewOperationError("series.finalize", entityID, err)
	}

	result := &FinalizeResult{SeriesID: seriesID}
	if updated == 0 {
		opLogger.Warn("finalize request did not update any rows")
		return result, nil
	}
	result.Finalized = true

	if sync {
		report, err := s.runSeries(ctx, found)
		if err != nil {
			return nil, err
		}
		snapshot := report.Snapshot()
		result.Report = &snapshot
		result.ProcessingStarted = true
		return result, nil
	}

	go func() {
		s.asyncSem <- struct{}{}
		defer func() { <-s.asyncSem }()
		// The run outlives the triggering request on purpose.
		if _, err := s.runSeries(context.Background(), found); err != nil {
			s.logger.Error("async series run failed",
				zap.Int64("series_id", seriesID), zap.Error(err))
		}
	}()
	result.ProcessingStarted = true
	opLogger.Info("series accepted for async processing")
	return result, nil
}

// GetReport returns the cached report of the latest completed run for a series.
func (s *Service) GetReport(ctx context.Context, seriesID int64) (*pipeline.Snapshot, error) {
	cached, err := s.cache.Get(ctx, reportCacheKey(seriesID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, logging.NewOperationError("series.get_report",
			strconv.FormatInt(seriesID, 10), err)
	}

	var snapshot pipeline.Snapshot
	if err := json.Unmarshal([]byte(cached), &snapshot); err != nil {
		return nil, logging.NewOperationError("series.get_report",
			strconv.FormatInt(seriesID, 10), err)
	}
	return &snapshot, nil
}

func (s *Service) runSeries(ctx context.Context, found *models.ProductSeries) (*pipeline.Report, error) {
	runID := uuid.NewString()
	s.logger.Info("starting series run",
		zap.Int64("series_id", found.ID), zap.String("run_id", runID))

	report, err := s.runner.Run(ctx, found)
	if err != nil {
		return nil, err
	}

	serialized, err := json.Marshal(report.Snapshot())
	if err == nil {
		if cacheErr := s.cache.Set(ctx, reportCacheKey(found.ID), string(serialized), reportCacheTTL); cacheErr != nil {
			s.logger.Warn("failed to cache series report",
				zap.Int64("series_id", found.ID), zap.Error(cacheErr))
		}
	}
	return report, nil
}

func reportCacheKey(seriesID int64) string {
	return fmt.Sprintf("series:report:%d", seriesID)
}
