package database

import (
	"strings"
	"testing"
	"time"

	"predict-api/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPredictionInsert(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []shared.PredictionRecord{
		{ID: "a", RequestID: "req_1", Model: "titanic", ModelVersion: "0.0.1", Variant: shared.VariantVector, Rows: 1, Labels: []int{0}, Duration: 3 * time.Millisecond, CreatedAt: created},
		{ID: "b", RequestID: "req_2", Model: "titanic", ModelVersion: "0.0.1", Variant: shared.VariantBatch, Rows: 2, Labels: []int{1, 0}, Cached: true, CreatedAt: created},
	}

	query, vals, err := buildPredictionInsert(records)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(query, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	assert.False(t, strings.HasSuffix(query, ","))
	require.Len(t, vals, 20)

	assert.Equal(t, "a", vals[0])
	assert.Equal(t, "[0]", vals[6])
	assert.Equal(t, int64(3), vals[8])
	assert.Equal(t, "[1,0]", vals[16])
	assert.Equal(t, true, vals[17])
	assert.Equal(t, created, vals[19])
}
