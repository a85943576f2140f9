package model

// NewStaticContext wraps already-constructed model implementations in an
// inference context. Used by in-process backends and tests that build
// their models directly rather than loading weight artifacts.
func NewStaticContext(r Reconstructor, c Classifier, version string) *InferenceContext {
	return &InferenceContext{
		reconstructor: r,
		classifier:    c,
		version:       version,
		backend:       "static",
	}
}
