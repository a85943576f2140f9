package calibration

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "harvestguard/internal/errors"
	"harvestguard/internal/imaging"
	"harvestguard/internal/logger"
	"harvestguard/internal/scoring"
	"harvestguard/pkg/models"
)

// DefaultMultiplier is the calibration constant k in threshold =
// mean + k*std. The original calibration of this system used 2.0.
const DefaultMultiplier = 2.0

// Calibrator derives the decision threshold from the reconstruction
// error distribution of a trusted reference corpus. A calibration run
// produces a new immutable snapshot; it never mutates an existing one.
type Calibrator struct {
	normalizer   *imaging.Normalizer
	scorer       *scoring.Scorer
	multiplier   float64
	modelVersion string
}

// NewCalibrator creates a calibrator. A multiplier <= 0 falls back to
// the default constant.
func NewCalibrator(normalizer *imaging.Normalizer, scorer *scoring.Scorer, multiplier float64, modelVersion string) *Calibrator {
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	return &Calibrator{
		normalizer:   normalizer,
		scorer:       scorer,
		multiplier:   multiplier,
		modelVersion: modelVersion,
	}
}

// CalibrateDir scores every reference image under root (recursively, in
// sorted path order) and derives the threshold. Images that fail to read
// or decode are logged and skipped; a run that yields zero valid samples
// fails with an empty corpus error rather than producing a degenerate
// threshold.
func (c *Calibrator) CalibrateDir(ctx context.Context, root string) (models.CalibrationStatistics, error) {
	paths, err := collectImagePaths(root)
	if err != nil {
		return models.CalibrationStatistics{}, apperrors.NewValidationError("failed to read reference corpus", err)
	}

	errors := make([]float64, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return models.CalibrationStatistics{}, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("Skipping unreadable reference sample")
			continue
		}
		tensor, err := c.normalizer.NormalizeBytes(data)
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("Skipping undecodable reference sample")
			continue
		}
		reconErr, err := c.scorer.ReconstructionError(tensor)
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("Skipping unscorable reference sample")
			continue
		}
		errors = append(errors, reconErr)
	}

	return c.FromErrors(errors)
}

// FromErrors derives the calibration snapshot from an already-computed
// error distribution.
func (c *Calibrator) FromErrors(errors []float64) (models.CalibrationStatistics, error) {
	if len(errors) == 0 {
		return models.CalibrationStatistics{}, apperrors.NewEmptyCorpusError(
			"calibration produced zero valid samples", nil)
	}

	mean := meanOf(errors)
	std := populationStd(errors, mean)
	stats := models.CalibrationStatistics{
		SampleCount:  len(errors),
		MeanError:    mean,
		StdError:     std,
		Multiplier:   c.multiplier,
		Threshold:    mean + c.multiplier*std,
		ModelVersion: c.modelVersion,
		CalibratedAt: time.Now().UTC(),
	}

	logger.WithFields(logrus.Fields{
		"samples":   stats.SampleCount,
		"mean":      stats.MeanError,
		"std":       stats.StdError,
		"threshold": stats.Threshold,
	}).Info("Threshold calibration complete")

	return stats, nil
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStd(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func collectImagePaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if isImageFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func isImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
