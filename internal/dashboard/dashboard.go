// Package dashboard runs one fetch, harmonize and aggregate pass for the
// dashboard page.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estensen/chain-dashboard/internal/aggregator"
	"github.com/estensen/chain-dashboard/internal/database"
	"github.com/estensen/chain-dashboard/internal/dune"
	"github.com/estensen/chain-dashboard/internal/harmonizer"
	"github.com/estensen/chain-dashboard/internal/models"
)

// Class groups failures by the boundary they happened at.
type Class string

const (
	ClassConfig    Class = "config"
	ClassAPI       Class = "api"
	ClassWarehouse Class = "warehouse"
	ClassData      Class = "data"
)

// StageError is a failure of one pipeline stage.
type StageError struct {
	Class Class
	RunID string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ClassOf returns the class of err, or ClassData when err has none.
func ClassOf(err error) Class {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Class
	}
	return ClassData
}

// Service builds dashboard summaries. It holds no state between runs.
type Service struct {
	API          dune.RowFetcher
	Warehouse    database.Opener
	Harmonizer   *harmonizer.Harmonizer
	Aggregator   aggregator.Aggregator
	QueryTimeout time.Duration
	Logger       *zap.Logger
	now          func() time.Time
}

func NewService(api dune.RowFetcher, wh database.Opener, h *harmonizer.Harmonizer, agg aggregator.Aggregator, queryTimeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		API:          api,
		Warehouse:    wh,
		Harmonizer:   h,
		Aggregator:   agg,
		QueryTimeout: queryTimeout,
		Logger:       logger,
		now:          time.Now,
	}
}

// Build fetches both sources, harmonizes them and computes the aggregates.
// Sources are fetched one after the other; nothing is cached between calls.
func (s *Service) Build(ctx context.Context) (*models.Summary, error) {
	runID := uuid.NewString()
	logger := s.Logger.With(zap.String("run_id", runID))
	start := s.now()

	apiRows, err := s.API.FetchRows(ctx)
	if err != nil {
		logger.Error("query API fetch failed", zap.Error(err))
		return nil, &StageError{Class: ClassAPI, RunID: runID, Err: err}
	}

	var whRows []models.WarehouseRow
	err = database.WithWarehouse(ctx, s.Warehouse, func(wh database.Warehouse) error {
		queryCtx, cancel := context.WithTimeout(ctx, s.QueryTimeout)
		defer cancel()

		var ferr error
		whRows, ferr = wh.FetchDailyTxns(queryCtx)
		return ferr
	})
	if err != nil {
		logger.Error("warehouse fetch failed", zap.Error(err))
		return nil, &StageError{Class: ClassWarehouse, RunID: runID, Err: err}
	}
	if len(whRows) == 0 {
		logger.Warn("warehouse returned no rows, dashboard shows API rows only")
	}

	dataset, err := s.Harmonizer.Harmonize(apiRows, whRows)
	if err != nil {
		logger.Error("harmonizing sources failed", zap.Error(err))
		return nil, &StageError{Class: ClassData, RunID: runID, Err: err}
	}

	summary := &models.Summary{
		RunID:         runID,
		GeneratedAt:   s.now().UTC(),
		APIRows:       len(apiRows),
		WarehouseRows: len(whRows),
		Dataset:       dataset,
		Totals:        s.Aggregator.TotalPerChain(dataset),
		Averages:      s.Aggregator.AveragePerChain(dataset),
		Series:        s.Aggregator.DailySeries(dataset),
	}

	logger.Info("dashboard data ready",
		zap.Int("api_rows", summary.APIRows),
		zap.Int("warehouse_rows", summary.WarehouseRows),
		zap.Int("chains", len(summary.Totals)),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return summary, nil
}
