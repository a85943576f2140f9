package model

import (
	"fmt"
	"path/filepath"

	apperrors "harvestguard/internal/errors"
	"harvestguard/internal/logger"

	"github.com/sirupsen/logrus"
)

// InferenceContext holds the loaded model handles shared by all scoring
// calls. It is constructed once at process start and torn down at
// shutdown; a load failure is fatal and never retried, since scoring
// against stale or missing weights is worse than refusing to start.
type InferenceContext struct {
	reconstructor Reconstructor
	classifier    Classifier
	version       string
	backend       string
}

// NewInferenceContext loads both models through the given backend.
// Returns a model load error if either weight artifact cannot be loaded.
func NewInferenceContext(backend Backend, reconstructorPath, classifierPath string) (*InferenceContext, error) {
	if backend == nil {
		return nil, apperrors.NewModelLoadError("no model backend configured", nil)
	}

	reconstructor, err := backend.LoadReconstructor(reconstructorPath)
	if err != nil {
		return nil, apperrors.NewModelLoadError(
			fmt.Sprintf("failed to load reconstruction model from %s", reconstructorPath), err)
	}

	classifier, err := backend.LoadClassifier(classifierPath)
	if err != nil {
		return nil, apperrors.NewModelLoadError(
			fmt.Sprintf("failed to load classifier from %s", classifierPath), err)
	}

	version := fmt.Sprintf("%s+%s", filepath.Base(reconstructorPath), filepath.Base(classifierPath))

	logger.WithFields(logrus.Fields{
		"backend": backend.Name(),
		"version": version,
	}).Info("Model artifacts loaded")

	return &InferenceContext{
		reconstructor: reconstructor,
		classifier:    classifier,
		version:       version,
		backend:       backend.Name(),
	}, nil
}

// Reconstructor returns the loaded reconstruction model.
func (ic *InferenceContext) Reconstructor() Reconstructor {
	return ic.reconstructor
}

// Classifier returns the loaded secondary classifier.
func (ic *InferenceContext) Classifier() Classifier {
	return ic.classifier
}

// Version identifies the weight artifacts this context was loaded from.
// Calibration snapshots record it so a stats/weights mismatch is visible.
func (ic *InferenceContext) Version() string {
	return ic.version
}

// Close releases model resources.
func (ic *InferenceContext) Close() error {
	type closer interface{ Close() error }
	if c, ok := ic.reconstructor.(closer); ok {
		if err := c.Close(); err != nil {
			return err
		}
	}
	if c, ok := ic.classifier.(closer); ok {
		return c.Close()
	}
	return nil
}
