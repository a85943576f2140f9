package scoring

import (
	"harvestguard/internal/imaging"
	"harvestguard/internal/model"

	apperrors "harvestguard/internal/errors"
)

// Scorer computes the primary anomaly signal: the mean squared
// difference between an image and its reconstruction. Deterministic for
// fixed weights and fixed input; smaller error means closer to the
// learned normal manifold.
type Scorer struct {
	reconstructor model.Reconstructor
}

// NewScorer creates a scorer over a loaded reconstruction model.
func NewScorer(reconstructor model.Reconstructor) *Scorer {
	return &Scorer{reconstructor: reconstructor}
}

// ReconstructionError returns the non-negative scalar error for one image.
func (s *Scorer) ReconstructionError(t *imaging.Tensor) (float64, error) {
	recon, err := s.reconstructor.Reconstruct(t)
	if err != nil {
		return 0, apperrors.NewInternalError("reconstruction failed", err)
	}
	if !t.SameShape(recon) {
		return 0, apperrors.NewInternalError("reconstruction shape mismatch", nil)
	}

	var sum float64
	for i, v := range t.Data {
		d := v - recon.Data[i]
		sum += d * d
	}
	return sum / float64(len(t.Data)), nil
}
