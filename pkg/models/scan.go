package models

import "time"

// Decision values for a scored image. ERROR marks a per-item failure
// inside a batch; the batch itself continues.
const (
	DecisionAccept = "Accept"
	DecisionFlag   = "Flag"
	DecisionError  = "ERROR"
)

// ScanResult is the outcome of scoring one image. Produced once,
// immutable afterward; ownership passes to the caller. The core never
// stores it.
type ScanResult struct {
	ID                  string    `json:"id"`
	ImageIdentifier     string    `json:"image_identifier"`
	ReconstructionError float64   `json:"reconstruction_error"`
	IsAnomaly           bool      `json:"is_anomaly"`
	Decision            string    `json:"decision"`
	AgentAction         int       `json:"agent_action"`
	Confidence          float64   `json:"confidence"`
	Error               string    `json:"error,omitempty"`
	ScannedAt           time.Time `json:"scanned_at"`
}

// Failed reports whether this result is a per-item error outcome.
func (r *ScanResult) Failed() bool {
	return r.Decision == DecisionError
}

// BatchSummary is the ordered outcome of one batch call. Results follow
// the sorted input order regardless of worker completion order.
type BatchSummary struct {
	BatchID          string       `json:"batch_id"`
	Results          []ScanResult `json:"results"`
	TotalScanned     int          `json:"total_scanned"`
	Succeeded        int          `json:"succeeded"`
	Failed           int          `json:"failed"`
	PersistenceError string       `json:"persistence_error,omitempty"`
}

// CalibrationStatistics is an immutable snapshot of one calibration run.
// A new run replaces the snapshot wholesale; it is never mutated in
// place. A snapshot is only valid for the exact model weight version it
// was computed against.
type CalibrationStatistics struct {
	SampleCount  int       `json:"sample_count" yaml:"sample_count"`
	MeanError    float64   `json:"mean_error" yaml:"mean_error"`
	StdError     float64   `json:"std_error" yaml:"std_error"`
	Multiplier   float64   `json:"multiplier" yaml:"multiplier"`
	Threshold    float64   `json:"threshold" yaml:"anomaly_threshold"`
	ModelVersion string    `json:"model_version" yaml:"model_version"`
	CalibratedAt time.Time `json:"calibrated_at" yaml:"calibrated_at"`
}
