// Package predict serves predictions from a loaded pipeline.
package predict

import (
	"context"

	"predict-api/internal/model"
	"predict-api/internal/shared"

	"go.uber.org/zap"
)

// Predictor is the read-only view of a loaded pipeline the handler needs.
type Predictor interface {
	Predict(ctx context.Context, f *model.Frame) ([]int, error)
	PredictVector(ctx context.Context, values []any) (int, error)
	Info() model.Info
	Digest() string
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Recorder interface {
	Record(rec shared.PredictionRecord)
}

// PredictHandler is built once at startup and shared by every request. None
// of its fields change after construction.
type PredictHandler struct {
	model    Predictor
	info     model.Info
	log      *zap.SugaredLogger
	cache    Cache
	recorder Recorder
}

type Option func(*PredictHandler)

func WithCache(c Cache) Option {
	return func(ph *PredictHandler) { ph.cache = c }
}

func WithRecorder(r Recorder) Option {
	return func(ph *PredictHandler) { ph.recorder = r }
}

func NewPredictHandler(m Predictor, log *zap.SugaredLogger, opts ...Option) *PredictHandler {
	ph := &PredictHandler{
		model: m,
		info:  m.Info(),
		log:   log,
	}
	for _, opt := range opts {
		opt(ph)
	}
	return ph
}

func (ph *PredictHandler) ModelInfo() model.Info {
	return ph.info
}
