package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Classifier interface {
	Predict(features []float64) (int, error)
	Classes() []int
	NumFeatures() int
}

type ClassifierDecoder func(params json.RawMessage) (Classifier, error)

var classifierDecoders = map[string]ClassifierDecoder{
	"logistic_regression": func(params json.RawMessage) (Classifier, error) {
		return decodeLogisticRegression(params)
	},
	"decision_tree": func(params json.RawMessage) (Classifier, error) {
		return decodeDecisionTree(params)
	},
}

func decodeClassifier(kind string, params json.RawMessage) (Classifier, error) {
	decode, ok := classifierDecoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassifier, kind)
	}
	return decode(params)
}

// LogisticRegression is a fitted binary linear classifier. It predicts
// Classes[1] when the decision function is positive.
type LogisticRegression struct {
	ClassLabels []int     `json:"classes"`
	Coef        []float64 `json:"coef"`
	Intercept   float64   `json:"intercept"`
}

func decodeLogisticRegression(params json.RawMessage) (*LogisticRegression, error) {
	var lr LogisticRegression
	if err := json.Unmarshal(params, &lr); err != nil {
		return nil, errors.Join(ErrCorruptArtifact, err)
	}
	if len(lr.ClassLabels) != 2 {
		return nil, fmt.Errorf("%w: logistic regression needs 2 classes, got %d", ErrCorruptArtifact, len(lr.ClassLabels))
	}
	if len(lr.Coef) == 0 {
		return nil, fmt.Errorf("%w: logistic regression has no coefficients", ErrCorruptArtifact)
	}
	return &lr, nil
}

func (lr *LogisticRegression) DecisionFunction(features []float64) (float64, error) {
	if len(features) != len(lr.Coef) {
		return 0, shapeErr("", "expected %d features, got %d", len(lr.Coef), len(features))
	}
	z := lr.Intercept
	for i, c := range lr.Coef {
		z += c * features[i]
	}
	return z, nil
}

func (lr *LogisticRegression) Predict(features []float64) (int, error) {
	z, err := lr.DecisionFunction(features)
	if err != nil {
		return 0, err
	}
	if z > 0 {
		return lr.ClassLabels[1], nil
	}
	return lr.ClassLabels[0], nil
}

func (lr *LogisticRegression) Classes() []int { return append([]int(nil), lr.ClassLabels...) }

func (lr *LogisticRegression) NumFeatures() int { return len(lr.Coef) }
