package calibration

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"harvestguard/internal/logger"
	"harvestguard/pkg/models"
)

// DefaultThreshold is returned when no calibration document exists or
// the document carries no usable threshold. It is deliberately non-zero:
// a zero threshold would flag every image.
const DefaultThreshold = 0.015

// Document is the persisted calibration snapshot: a YAML key-value file
// with at least anomaly_threshold. DecisionFusion reads it once at call
// start; the calibrator rewrites it wholesale after a successful run.
type Document struct {
	path string
}

// NewDocument points at a calibration file; the file may not exist yet.
func NewDocument(path string) *Document {
	return &Document{path: path}
}

// Path returns the backing file location.
func (d *Document) Path() string {
	return d.path
}

// Load reads the current snapshot. A missing file or missing/degenerate
// threshold key yields the documented fallback constant, never zero.
func (d *Document) Load() (models.CalibrationStatistics, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithField("path", d.path).Warn("No calibration document found, using fallback threshold")
			return fallbackStats(), nil
		}
		return models.CalibrationStatistics{}, fmt.Errorf("read calibration document: %w", err)
	}

	var stats models.CalibrationStatistics
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return models.CalibrationStatistics{}, fmt.Errorf("parse calibration document: %w", err)
	}
	if stats.Threshold <= 0 {
		logger.WithField("path", d.path).Warn("Calibration document has no usable threshold, using fallback")
		stats.Threshold = DefaultThreshold
	}
	return stats, nil
}

// Store atomically replaces the snapshot: write to a temp file in the
// same directory, then rename over the old document. Readers holding a
// snapshot from a previous Load keep using it unchanged.
func (d *Document) Store(stats models.CalibrationStatistics) error {
	data, err := yaml.Marshal(&stats)
	if err != nil {
		return fmt.Errorf("encode calibration document: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create calibration directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".calibration-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp calibration file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write calibration document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close calibration document: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace calibration document: %w", err)
	}
	return nil
}

func fallbackStats() models.CalibrationStatistics {
	return models.CalibrationStatistics{Threshold: DefaultThreshold}
}
