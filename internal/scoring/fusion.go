package scoring

import "harvestguard/pkg/models"

// FusionPolicy selects which signal is authoritative for the final
// decision. Historical variants of this pipeline disagreed on the
// precedence, so it is an explicit configuration value rather than an
// inferred behavior.
type FusionPolicy string

const (
	// PolicyReconstructionPrimary is the canonical rule: the threshold
	// comparison decides, the classifier's vote is reported alongside.
	PolicyReconstructionPrimary FusionPolicy = "reconstruction_primary"
	// PolicyClassifierPrimary lets the classifier's argmax decide; the
	// anomaly flag still reflects the threshold comparison.
	PolicyClassifierPrimary FusionPolicy = "classifier_primary"
)

// Classifier action indices.
const (
	ActionAccept = 0
	ActionFlag   = 1
)

// Verdict is the fused outcome for one image.
type Verdict struct {
	Decision    string
	Confidence  float64
	IsAnomaly   bool
	AgentAction int
}

// Fusion combines the reconstruction error (against the calibrated
// threshold) with the secondary classifier's distribution into one
// decision and confidence. No side effects; pure given its inputs.
type Fusion struct {
	policy FusionPolicy
}

// NewFusion creates a fusion stage. An empty policy falls back to the
// canonical reconstruction-primary rule.
func NewFusion(policy FusionPolicy) *Fusion {
	if policy == "" {
		policy = PolicyReconstructionPrimary
	}
	return &Fusion{policy: policy}
}

// Policy returns the configured policy.
func (f *Fusion) Policy() FusionPolicy {
	return f.policy
}

// Decide fuses one reconstruction error with one classifier distribution.
// IsAnomaly is always the threshold comparison, regardless of policy; the
// classifier may steer the decision but never silently rewrites the flag.
func (f *Fusion) Decide(reconErr, threshold float64, probs [2]float64) Verdict {
	isAnomaly := reconErr > threshold

	action := ActionAccept
	if probs[ActionFlag] > probs[ActionAccept] {
		action = ActionFlag
	}
	confidence := clamp01(probs[action])

	var flagged bool
	switch f.policy {
	case PolicyClassifierPrimary:
		flagged = action == ActionFlag
	default:
		flagged = isAnomaly
	}

	decision := models.DecisionAccept
	if flagged {
		decision = models.DecisionFlag
	}

	return Verdict{
		Decision:    decision,
		Confidence:  confidence,
		IsAnomaly:   isAnomaly,
		AgentAction: action,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
