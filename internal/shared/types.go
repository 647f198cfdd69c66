package shared

import "time"

const (
	VariantVector = "vector"
	VariantBatch  = "batch"
)

type VectorResponse struct {
	Prediction int `json:"prediction"`
}

type BatchResponse struct {
	Predictions []int `json:"predictions"`
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type ErrorBody struct {
	Error APIError `json:"error"`
}

// PredictionRecord is what gets persisted for each served prediction.
type PredictionRecord struct {
	ID           string
	RequestID    string
	Model        string
	ModelVersion string
	Variant      string
	Rows         int
	Labels       []int
	Cached       bool
	Duration     time.Duration
	CreatedAt    time.Time
}
