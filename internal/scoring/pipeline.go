package scoring

import (
	"time"

	"github.com/google/uuid"

	"harvestguard/internal/imaging"
	"harvestguard/internal/model"
	"harvestguard/pkg/models"
)

// Pipeline runs one normalized image through both models and fuses the
// outputs into a ScanResult. It holds only read-only model handles and a
// policy, so a single pipeline is shared across all scoring calls.
type Pipeline struct {
	scorer     *Scorer
	classifier model.Classifier
	fusion     *Fusion
}

// NewPipeline wires the scoring stages over a loaded inference context.
func NewPipeline(ic *model.InferenceContext, policy FusionPolicy) *Pipeline {
	return &Pipeline{
		scorer:     NewScorer(ic.Reconstructor()),
		classifier: ic.Classifier(),
		fusion:     NewFusion(policy),
	}
}

// Scorer exposes the reconstruction-error stage, used directly by the
// threshold calibrator.
func (p *Pipeline) Scorer() *Scorer {
	return p.scorer
}

// Scan scores one image against the given threshold. The threshold is
// captured by the caller from a calibration snapshot (or a per-call
// override) before the call; the pipeline never reads shared mutable state.
func (p *Pipeline) Scan(identifier string, t *imaging.Tensor, threshold float64) (models.ScanResult, error) {
	reconErr, err := p.scorer.ReconstructionError(t)
	if err != nil {
		return models.ScanResult{}, err
	}

	probs, err := p.classifier.Classify(t)
	if err != nil {
		return models.ScanResult{}, err
	}

	verdict := p.fusion.Decide(reconErr, threshold, probs)

	return models.ScanResult{
		ID:                  uuid.NewString(),
		ImageIdentifier:     identifier,
		ReconstructionError: reconErr,
		IsAnomaly:           verdict.IsAnomaly,
		Decision:            verdict.Decision,
		AgentAction:         verdict.AgentAction,
		Confidence:          verdict.Confidence,
		ScannedAt:           time.Now().UTC(),
	}, nil
}

// ErrorResult builds the per-item failure outcome for a source that
// could not be scored. Decision is ERROR, confidence 0, anomaly false.
func ErrorResult(identifier string, cause error) models.ScanResult {
	msg := "scoring failed"
	if cause != nil {
		msg = cause.Error()
	}
	return models.ScanResult{
		ID:              uuid.NewString(),
		ImageIdentifier: identifier,
		Decision:        models.DecisionError,
		Confidence:      0,
		IsAnomaly:       false,
		Error:           msg,
		ScannedAt:       time.Now().UTC(),
	}
}
