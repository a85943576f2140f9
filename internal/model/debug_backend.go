package model

import (
	"fmt"
	"os"

	"harvestguard/internal/imaging"
)

// DebugBackend is a built-in backend for exercising the scoring pipeline
// without real model weights. The reconstructor slightly dampens the
// input so reconstruction error is small but non-zero, and the
// classifier votes Accept with fixed confidence. It still insists on the
// weight artifacts existing, so artifact wiring failures surface the
// same way they would with a production backend.
type DebugBackend struct{}

func (DebugBackend) Name() string { return "debug" }

func (DebugBackend) LoadReconstructor(path string) (Reconstructor, error) {
	if err := checkArtifact(path); err != nil {
		return nil, err
	}
	return &dampedReconstructor{factor: 0.99}, nil
}

func (DebugBackend) LoadClassifier(path string) (Classifier, error) {
	if err := checkArtifact(path); err != nil {
		return nil, err
	}
	return &constantClassifier{acceptProb: 0.75}, nil
}

func checkArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("weight artifact unreadable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("weight artifact %s is a directory", path)
	}
	return nil
}

type dampedReconstructor struct {
	factor float64
}

func (r *dampedReconstructor) Reconstruct(t *imaging.Tensor) (*imaging.Tensor, error) {
	out := t.Clone()
	for i := range out.Data {
		out.Data[i] *= r.factor
	}
	return out, nil
}

type constantClassifier struct {
	acceptProb float64
}

func (c *constantClassifier) Classify(t *imaging.Tensor) ([2]float64, error) {
	return [2]float64{c.acceptProb, 1 - c.acceptProb}, nil
}
