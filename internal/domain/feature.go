package domain

import "fmt"

// Feature is one of the gated AI study capabilities.
type Feature string

// Known features.
const (
	FeatureQuiz     Feature = "quiz"
	FeatureSummary  Feature = "summary"
	FeatureHomework Feature = "homework"
)

// Features returns all known features in stable order.
func Features() []Feature {
	return []Feature{FeatureQuiz, FeatureSummary, FeatureHomework}
}

// ParseFeature validates a raw feature identifier.
func ParseFeature(s string) (Feature, error) {
	switch Feature(s) {
	case FeatureQuiz, FeatureSummary, FeatureHomework:
		return Feature(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFeature, s)
}

// Valid reports whether f is a known feature.
func (f Feature) Valid() bool {
	_, err := ParseFeature(string(f))
	return err == nil
}
