package batch

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"harvestguard/internal/imaging"
	"harvestguard/internal/logger"
	"harvestguard/internal/scoring"
	"harvestguard/pkg/models"
)

// Recorder is the persistence collaborator. Batch recording is expected
// to be transactional; its failure is reported separately from scoring
// outcomes and never discards already-computed results.
type Recorder interface {
	RecordBatch(ctx context.Context, results []models.ScanResult, userID string) error
}

// Options configures one batch call.
type Options struct {
	// Threshold is the decision boundary captured from the calibration
	// snapshot (or a per-call override) before the batch starts.
	Threshold float64
	// UserID is handed to the persistence collaborator with each result.
	UserID string
}

// Orchestrator normalizes a batch input into ordered sources, scores
// each through the pipeline with per-item failure isolation, and
// reassembles results in input order.
type Orchestrator struct {
	normalizer *imaging.Normalizer
	pipeline   *scoring.Pipeline
	workers    int
	recorder   Recorder
}

// NewOrchestrator creates a batch orchestrator. recorder may be nil to
// disable persistence. workers <= 0 means NumCPU.
func NewOrchestrator(normalizer *imaging.Normalizer, pipeline *scoring.Pipeline, workers int, recorder Recorder) *Orchestrator {
	return &Orchestrator{
		normalizer: normalizer,
		pipeline:   pipeline,
		workers:    workers,
		recorder:   recorder,
	}
}

// Process runs one batch. One bad image never aborts the batch: its slot
// carries an ERROR outcome and processing continues. Cancellation stops
// issuing new items, lets in-flight items finish, and returns the
// partial result set. Archive scratch space is removed on every exit path.
func (o *Orchestrator) Process(ctx context.Context, in Input, opts Options) (models.BatchSummary, error) {
	sources, cleanup, err := resolve(in)
	if err != nil {
		return models.BatchSummary{}, err
	}
	defer cleanup()

	batchID := uuid.NewString()
	logger.WithFields(logrus.Fields{
		"batch_id":  batchID,
		"items":     len(sources),
		"threshold": opts.Threshold,
	}).Info("Starting batch scan")

	results := make([]models.ScanResult, len(sources))
	pool := NewWorkerPool(o.workers)
	pool.Start()

	submitted := 0
	for i := range sources {
		if ctx.Err() != nil {
			break
		}
		idx := i
		src := &sources[i]
		pool.Submit(func() {
			results[idx] = o.scoreOne(src, opts.Threshold)
		})
		submitted++
	}
	pool.Wait()
	pool.Close()

	results = results[:submitted]
	summary := models.BatchSummary{
		BatchID:      batchID,
		Results:      results,
		TotalScanned: len(results),
	}
	for i := range results {
		if results[i].Failed() {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}

	if o.recorder != nil && len(results) > 0 {
		// Persistence failure is reported alongside the results, not as a
		// scoring failure: the computed results still go back to the caller.
		if err := o.recorder.RecordBatch(ctx, results, opts.UserID); err != nil {
			logger.WithError(err).WithField("batch_id", batchID).Error("Failed to persist batch results")
			summary.PersistenceError = err.Error()
		}
	}

	logger.WithFields(logrus.Fields{
		"batch_id":  batchID,
		"total":     summary.TotalScanned,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("Batch scan complete")

	return summary, nil
}

func (o *Orchestrator) scoreOne(src *Source, threshold float64) models.ScanResult {
	data, err := src.Read()
	if err != nil {
		return scoring.ErrorResult(src.Name, err)
	}
	tensor, err := o.normalizer.NormalizeBytes(data)
	if err != nil {
		return scoring.ErrorResult(src.Name, err)
	}
	result, err := o.pipeline.Scan(src.Name, tensor, threshold)
	if err != nil {
		return scoring.ErrorResult(src.Name, err)
	}
	return result
}
