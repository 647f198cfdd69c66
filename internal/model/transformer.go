package model

import (
	"fmt"
)

const (
	KindNumeric = "numeric"
	KindOneHot  = "onehot"
)

// Transformer is one branch of a ColumnTransformer. Numeric branches impute
// missing values with Statistics and optionally standardize with Mean and
// Scale. One-hot branches impute with Fill and expand each column into one
// indicator per category; unknown categories encode as all zeros.
type Transformer struct {
	Name       string     `json:"name"`
	Kind       string     `json:"kind"`
	Columns    []string   `json:"columns"`
	Statistics []float64  `json:"statistics,omitempty"`
	Mean       []float64  `json:"mean,omitempty"`
	Scale      []float64  `json:"scale,omitempty"`
	Fill       []string   `json:"fill,omitempty"`
	Categories [][]string `json:"categories,omitempty"`

	lookup []map[string]int
}

// ColumnTransformer turns a Frame into a dense feature matrix. Columns no
// transformer names are dropped.
type ColumnTransformer struct {
	Transformers []*Transformer `json:"transformers"`

	width int
}

func (ct *ColumnTransformer) init() error {
	if len(ct.Transformers) == 0 {
		return fmt.Errorf("%w: preprocessor has no transformers", ErrCorruptArtifact)
	}
	ct.width = 0
	for _, t := range ct.Transformers {
		if t == nil || len(t.Columns) == 0 {
			return fmt.Errorf("%w: transformer without columns", ErrCorruptArtifact)
		}
		switch t.Kind {
		case KindNumeric:
			if len(t.Statistics) != len(t.Columns) {
				return fmt.Errorf("%w: transformer %q: %d statistics for %d columns", ErrCorruptArtifact, t.Name, len(t.Statistics), len(t.Columns))
			}
			scaled := len(t.Mean) > 0 || len(t.Scale) > 0
			if scaled && (len(t.Mean) != len(t.Columns) || len(t.Scale) != len(t.Columns)) {
				return fmt.Errorf("%w: transformer %q: scaler does not match columns", ErrCorruptArtifact, t.Name)
			}
			ct.width += len(t.Columns)
		case KindOneHot:
			if len(t.Categories) != len(t.Columns) || len(t.Fill) != len(t.Columns) {
				return fmt.Errorf("%w: transformer %q: categories do not match columns", ErrCorruptArtifact, t.Name)
			}
			t.lookup = make([]map[string]int, len(t.Columns))
			for i, cats := range t.Categories {
				t.lookup[i] = make(map[string]int, len(cats))
				for j, c := range cats {
					t.lookup[i][c] = j
				}
				ct.width += len(cats)
			}
		default:
			return fmt.Errorf("%w: transformer %q: unknown kind %q", ErrCorruptArtifact, t.Name, t.Kind)
		}
	}
	return nil
}

// Width is the number of features produced per row.
func (ct *ColumnTransformer) Width() int { return ct.width }

// Transform returns one feature vector per row of f.
func (ct *ColumnTransformer) Transform(f *Frame) ([][]float64, error) {
	for _, t := range ct.Transformers {
		for _, name := range t.Columns {
			if _, ok := f.Column(name); !ok {
				return nil, shapeErr(name, "missing column")
			}
		}
	}

	out := make([][]float64, f.Len())
	for row := range out {
		out[row] = make([]float64, ct.width)
	}

	offset := 0
	for _, t := range ct.Transformers {
		for i, name := range t.Columns {
			values, _ := f.Column(name)
			switch t.Kind {
			case KindNumeric:
				for row, v := range values {
					x, missing, err := numeric(name, v)
					if err != nil {
						return nil, err
					}
					if missing {
						x = t.Statistics[i]
					}
					if len(t.Scale) > 0 {
						scale := t.Scale[i]
						if scale == 0 {
							scale = 1
						}
						x = (x - t.Mean[i]) / scale
					}
					out[row][offset] = x
				}
				offset++
			case KindOneHot:
				for row, v := range values {
					c, missing, err := categorical(name, v)
					if err != nil {
						return nil, err
					}
					if missing {
						c = t.Fill[i]
					}
					if j, ok := t.lookup[i][c]; ok {
						out[row][offset+j] = 1
					}
				}
				offset += len(t.Categories[i])
			}
		}
	}
	return out, nil
}
