package predict

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"predict-api/internal/metrics"
	"predict-api/internal/model"
	"predict-api/internal/shared"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

type PredictInput struct {
	Body      []byte
	RequestID string
}

type PredictOutput struct {
	Variant string
	Rows    int
	Labels  []int
	Cached  bool

	// JSON response body
	Body []byte
}

type cachedResponse struct {
	Prediction  *int  `json:"prediction"`
	Predictions []int `json:"predictions"`
}

// Predict only returns errors when no response body exists. Input problems
// come back as a *shared.RequestError carrying a 400.
func (ph *PredictHandler) Predict(ctx context.Context, input PredictInput) (*PredictOutput, error) {
	start := time.Now()
	req, err := Decode(input.Body)
	if err != nil {
		metrics.RequestCount.WithLabelValues(ph.info.Name, "unknown", "bad_request").Inc()
		return nil, err
	}

	out, err := ph.predict(ctx, req, input.Body)
	if err != nil {
		status := "error"
		if model.IsInputError(err) {
			status = "bad_request"
			err = shared.BadInput(err)
		} else {
			metrics.ErrorCount.WithLabelValues(ph.info.Name, req.Variant, "predict").Inc()
		}
		metrics.RequestCount.WithLabelValues(ph.info.Name, req.Variant, status).Inc()
		return nil, err
	}

	duration := time.Since(start)
	metrics.RequestCount.WithLabelValues(ph.info.Name, req.Variant, "success").Inc()
	metrics.RequestDuration.WithLabelValues(ph.info.Name, req.Variant).Observe(duration.Seconds())
	if req.Variant == shared.VariantBatch {
		metrics.BatchRows.WithLabelValues(ph.info.Name).Observe(float64(out.Rows))
	}
	for _, label := range out.Labels {
		metrics.PredictedLabels.WithLabelValues(ph.info.Name, strconv.Itoa(label)).Inc()
	}

	if ph.recorder != nil {
		ph.recorder.Record(shared.PredictionRecord{
			ID:           uuid.NewString(),
			RequestID:    input.RequestID,
			Model:        ph.info.Name,
			ModelVersion: ph.info.Version,
			Variant:      out.Variant,
			Rows:         out.Rows,
			Labels:       out.Labels,
			Cached:       out.Cached,
			Duration:     duration,
			CreatedAt:    start,
		})
	}
	return out, nil
}

func (ph *PredictHandler) predict(ctx context.Context, req *Request, body []byte) (*PredictOutput, error) {
	out := &PredictOutput{Variant: req.Variant, Rows: req.Rows()}
	key := CacheKey(ph.model.Digest(), body)

	if cached, ok := ph.lookup(ctx, key); ok {
		out.Labels = cached.labels()
		if len(out.Labels) == out.Rows {
			encoded, err := json.Marshal(cached.payload(req.Variant))
			if err != nil {
				return nil, fmt.Errorf("failed to encode cached prediction: %w", err)
			}
			out.Cached = true
			out.Body = encoded
			return out, nil
		}
	}

	var payload any
	switch req.Variant {
	case shared.VariantVector:
		label, err := ph.model.PredictVector(ctx, req.Vector)
		if err != nil {
			return nil, err
		}
		out.Labels = []int{label}
		payload = shared.VectorResponse{Prediction: label}
	default:
		labels, err := ph.model.Predict(ctx, req.Batch)
		if err != nil {
			return nil, err
		}
		out.Labels = labels
		payload = shared.BatchResponse{Predictions: labels}
	}

	var err error
	out.Body, err = json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prediction: %w", err)
	}
	ph.store(key, out.Body)
	return out, nil
}

func (ph *PredictHandler) lookup(ctx context.Context, key string) (*cachedResponse, bool) {
	if ph.cache == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, shared.PredictionCacheTimeout)
	defer cancel()

	value, ok, err := ph.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			ph.log.Warnw("Prediction cache lookup failed", "error", err)
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	var cached cachedResponse
	if err := json.Unmarshal(value, &cached); err != nil {
		ph.log.Errorw("Error unmarshalling cached prediction", "error", err, "key", key)
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &cached, true
}

func (ph *PredictHandler) store(key string, body []byte) {
	if ph.cache == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), shared.PredictionCacheWriteTimeout)
		defer cancel()
		if err := ph.cache.Set(ctx, key, body); err != nil {
			ph.log.Warnw("Failed to cache prediction", "error", err)
		}
	}()
}

func (c *cachedResponse) labels() []int {
	if c.Prediction != nil {
		return []int{*c.Prediction}
	}
	return c.Predictions
}

func (c *cachedResponse) payload(variant string) any {
	if variant == shared.VariantVector {
		return shared.VectorResponse{Prediction: c.labels()[0]}
	}
	return shared.BatchResponse{Predictions: c.labels()}
}

// CacheKey identifies a response by model and raw request body, so a new
// artifact never serves stale predictions.
func CacheKey(modelDigest string, body []byte) string {
	sum := sha3.Sum256(body)
	return fmt.Sprintf("%s:%s:%s", shared.PredictionCachePrefix, modelDigest, hex.EncodeToString(sum[:]))
}
