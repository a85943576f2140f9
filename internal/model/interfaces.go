package model

import "harvestguard/internal/imaging"

// Reconstructor maps a normalized image to a reconstruction of identical
// shape. Implementations are opaque scoring functions: expensive to
// construct, loaded once at process start, read-only afterward, safe for
// concurrent use.
type Reconstructor interface {
	Reconstruct(t *imaging.Tensor) (*imaging.Tensor, error)
}

// Classifier maps a normalized image to a probability distribution over
// the two decision classes. Index 0 is Accept, index 1 is Flag; the two
// values sum to 1.
type Classifier interface {
	Classify(t *imaging.Tensor) ([2]float64, error)
}

// Backend loads model implementations from versioned weight artifacts.
// Artifacts are opaque binary blobs addressed by path; versioning is by
// filename and location, not embedded metadata.
type Backend interface {
	Name() string
	LoadReconstructor(path string) (Reconstructor, error)
	LoadClassifier(path string) (Classifier, error)
}
