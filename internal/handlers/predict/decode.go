package predict

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"predict-api/internal/model"
	"predict-api/internal/shared"
)

// Request is a decoded prediction body. Exactly one of Vector and Batch is set.
type Request struct {
	Variant string
	Vector  []any
	Batch   *model.Frame
}

func (r *Request) Rows() int {
	if r.Batch != nil {
		return r.Batch.Len()
	}
	return 1
}

// Decode accepts either {"X": [v1, ..., vN]}, a single feature vector, or a
// column batch where every top level value is an array of equal length.
func Decode(body []byte) (*Request, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, invalidBody(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, invalidBody(errors.New("trailing data after JSON object"))
	}
	if len(fields) == 0 {
		return nil, invalidBody(errors.New("empty object"))
	}

	if x, ok := fields["X"]; ok && len(fields) == 1 {
		vector, ok := x.([]any)
		if !ok {
			return nil, invalidBody(errors.New(`"X" must be an array of feature values`))
		}
		return &Request{Variant: shared.VariantVector, Vector: vector}, nil
	}

	columns := make(map[string][]any, len(fields))
	for name, v := range fields {
		values, ok := v.([]any)
		if !ok {
			return nil, invalidBody(fmt.Errorf("column %q must be an array", name))
		}
		columns[name] = values
	}
	frame, err := model.NewFrame(columns)
	if err != nil {
		return nil, shared.BadInput(err)
	}
	return &Request{Variant: shared.VariantBatch, Batch: frame}, nil
}

func invalidBody(err error) *shared.RequestError {
	return &shared.RequestError{
		StatusCode: shared.ErrInvalidRequest.StatusCode,
		Err:        fmt.Errorf("%w: %w", shared.ErrInvalidRequest.Err, err),
	}
}
