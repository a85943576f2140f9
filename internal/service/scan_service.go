package service

import (
	"context"

	"harvestguard/internal/batch"
	"harvestguard/internal/calibration"
	apperrors "harvestguard/internal/errors"
	"harvestguard/internal/imaging"
	"harvestguard/internal/logger"
	"harvestguard/internal/scoring"
	"harvestguard/pkg/models"
)

// ScanService is the application-facing surface of the scoring core:
// single scans, batch scans, and threshold calibration.
type ScanService interface {
	// ScanBytes scores one in-memory image. A failed image yields an
	// explicit ERROR outcome, not a blanket failure. A persistence
	// failure is returned as a persistence-typed error alongside the
	// computed result.
	ScanBytes(ctx context.Context, name string, data []byte, opts ScanOptions) (models.ScanResult, error)

	// ScanBatch scores a batch input with per-item failure isolation.
	ScanBatch(ctx context.Context, in batch.Input, opts ScanOptions) (models.BatchSummary, error)

	// Calibrate recalibrates the threshold from a reference corpus and
	// persists the new snapshot. Zero valid samples fail the run without
	// touching the stored snapshot.
	Calibrate(ctx context.Context, referenceDir string) (models.CalibrationStatistics, error)

	// Calibration returns the current calibration snapshot.
	Calibration() (models.CalibrationStatistics, error)
}

// ScanOptions carries per-call settings.
type ScanOptions struct {
	// ThresholdOverride supersedes the calibrated snapshot for this call
	// only.
	ThresholdOverride *float64
	// UserID identifies the owning user for the persistence collaborator.
	UserID string
}

type scanService struct {
	normalizer   *imaging.Normalizer
	pipeline     *scoring.Pipeline
	document     *calibration.Document
	calibrator   *calibration.Calibrator
	orchestrator *batch.Orchestrator
	recorder     Recorder
}

// Recorder is the single-result persistence contract consumed here; the
// batch orchestrator consumes batch.Recorder directly.
type Recorder interface {
	batch.Recorder
	Record(ctx context.Context, result models.ScanResult, userID string) error
}

// NewScanService wires the scoring core.
func NewScanService(
	normalizer *imaging.Normalizer,
	pipeline *scoring.Pipeline,
	document *calibration.Document,
	calibrator *calibration.Calibrator,
	orchestrator *batch.Orchestrator,
	recorder Recorder,
) ScanService {
	return &scanService{
		normalizer:   normalizer,
		pipeline:     pipeline,
		document:     document,
		calibrator:   calibrator,
		orchestrator: orchestrator,
		recorder:     recorder,
	}
}

func (s *scanService) ScanBytes(ctx context.Context, name string, data []byte, opts ScanOptions) (models.ScanResult, error) {
	threshold, err := s.resolveThreshold(opts)
	if err != nil {
		return models.ScanResult{}, err
	}

	tensor, err := s.normalizer.NormalizeBytes(data)
	if err != nil {
		return scoring.ErrorResult(name, err), nil
	}

	result, err := s.pipeline.Scan(name, tensor, threshold)
	if err != nil {
		return scoring.ErrorResult(name, err), nil
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, result, opts.UserID); err != nil {
			logger.WithError(err).WithField("image", name).Error("Failed to persist scan result")
			return result, apperrors.NewPersistenceError("failed to persist scan result", err)
		}
	}
	return result, nil
}

func (s *scanService) ScanBatch(ctx context.Context, in batch.Input, opts ScanOptions) (models.BatchSummary, error) {
	threshold, err := s.resolveThreshold(opts)
	if err != nil {
		return models.BatchSummary{}, err
	}
	return s.orchestrator.Process(ctx, in, batch.Options{
		Threshold: threshold,
		UserID:    opts.UserID,
	})
}

func (s *scanService) Calibrate(ctx context.Context, referenceDir string) (models.CalibrationStatistics, error) {
	stats, err := s.calibrator.CalibrateDir(ctx, referenceDir)
	if err != nil {
		return models.CalibrationStatistics{}, err
	}
	if err := s.document.Store(stats); err != nil {
		return models.CalibrationStatistics{}, err
	}
	return stats, nil
}

func (s *scanService) Calibration() (models.CalibrationStatistics, error) {
	return s.document.Load()
}

// resolveThreshold captures the decision boundary once per call: either
// the per-call override or the snapshot current at call start.
func (s *scanService) resolveThreshold(opts ScanOptions) (float64, error) {
	if opts.ThresholdOverride != nil {
		return *opts.ThresholdOverride, nil
	}
	stats, err := s.document.Load()
	if err != nil {
		return 0, err
	}
	return stats.Threshold, nil
}
