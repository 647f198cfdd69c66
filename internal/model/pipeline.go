// Package model loads a fitted preprocessing + classifier pipeline from a
// JSON artifact and runs inference with it.
package model

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/sha3"
)

const FormatPipelineV1 = "pipeline/v1"

type artifact struct {
	Format       string             `json:"format"`
	Name         string             `json:"name"`
	Version      string             `json:"version"`
	InputColumns []string           `json:"input_columns"`
	LabelColumn  string             `json:"label_column"`
	Preprocessor *ColumnTransformer `json:"preprocessor"`
	Classifier   struct {
		Kind   string          `json:"kind"`
		Params json.RawMessage `json:"params"`
	} `json:"classifier"`
}

// Pipeline is immutable once loaded and safe for concurrent use.
type Pipeline struct {
	name         string
	version      string
	inputColumns []string
	labelColumn  string
	preprocessor *ColumnTransformer
	classifier   Classifier
	kind         string
	digest       string
}

type Step struct {
	Name      string
	Estimator any
}

type Info struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	InputColumns []string `json:"input_columns"`
	Classes      []int    `json:"classes"`
	Classifier   string   `json:"classifier"`
	Digest       string   `json:"digest"`
}

// Load reads the artifact at pattern, which may be a literal path or a glob
// that must resolve to exactly one file.
func Load(pattern string) (*Pipeline, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad model pattern %q: %w", pattern, err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNoArtifact, pattern)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %q matches %s", ErrAmbiguousArtifact, pattern, strings.Join(matches, ", "))
	}

	payload, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	p, err := Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", matches[0], err)
	}
	return p, nil
}

func Decode(payload []byte) (*Pipeline, error) {
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, errors.Join(ErrCorruptArtifact, err)
	}
	if a.Format != FormatPipelineV1 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, a.Format)
	}
	if len(a.InputColumns) == 0 {
		return nil, fmt.Errorf("%w: no input columns", ErrCorruptArtifact)
	}
	if a.Preprocessor == nil {
		return nil, fmt.Errorf("%w: no preprocessor", ErrCorruptArtifact)
	}
	if err := a.Preprocessor.init(); err != nil {
		return nil, err
	}
	inputs := make(map[string]bool, len(a.InputColumns))
	for _, c := range a.InputColumns {
		inputs[c] = true
	}
	for _, t := range a.Preprocessor.Transformers {
		for _, c := range t.Columns {
			if !inputs[c] {
				return nil, fmt.Errorf("%w: transformer %q uses %q which is not an input column", ErrCorruptArtifact, t.Name, c)
			}
		}
	}

	clf, err := decodeClassifier(a.Classifier.Kind, a.Classifier.Params)
	if err != nil {
		return nil, err
	}
	if clf.NumFeatures() != a.Preprocessor.Width() {
		return nil, fmt.Errorf("%w: classifier expects %d features, preprocessor produces %d", ErrCorruptArtifact, clf.NumFeatures(), a.Preprocessor.Width())
	}

	sum := sha3.Sum256(payload)
	return &Pipeline{
		name:         a.Name,
		version:      a.Version,
		inputColumns: a.InputColumns,
		labelColumn:  a.LabelColumn,
		preprocessor: a.Preprocessor,
		classifier:   clf,
		kind:         a.Classifier.Kind,
		digest:       hex.EncodeToString(sum[:]),
	}, nil
}

// Predict returns one label per row of f.
func (p *Pipeline) Predict(ctx context.Context, f *Frame) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x, err := p.preprocessor.Transform(f)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(x))
	for i, row := range x {
		if i%1024 == 0 && i > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		labels[i], err = p.classifier.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return labels, nil
}

// PredictVector predicts a single row given positionally in InputColumns order.
func (p *Pipeline) PredictVector(ctx context.Context, values []any) (int, error) {
	f, err := FrameFromVector(p.inputColumns, values)
	if err != nil {
		return 0, err
	}
	labels, err := p.Predict(ctx, f)
	if err != nil {
		return 0, err
	}
	return labels[0], nil
}

// Score returns the share of rows of f whose prediction equals expected.
func (p *Pipeline) Score(ctx context.Context, f *Frame, expected []int) (float64, error) {
	if len(expected) != f.Len() {
		return 0, shapeErr("", "%d labels for %d rows", len(expected), f.Len())
	}
	labels, err := p.Predict(ctx, f)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i, l := range labels {
		if l == expected[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}

func (p *Pipeline) Steps() []Step {
	return []Step{
		{Name: "preprocessor", Estimator: p.preprocessor},
		{Name: "classifier", Estimator: p.classifier},
	}
}

func (p *Pipeline) Classes() []int { return p.classifier.Classes() }

func (p *Pipeline) InputColumns() []string { return append([]string(nil), p.inputColumns...) }

func (p *Pipeline) LabelColumn() string { return p.labelColumn }

func (p *Pipeline) Digest() string { return p.digest }

func (p *Pipeline) Info() Info {
	return Info{
		Name:         p.name,
		Version:      p.version,
		InputColumns: p.InputColumns(),
		Classes:      p.Classes(),
		Classifier:   p.kind,
		Digest:       p.digest,
	}
}
