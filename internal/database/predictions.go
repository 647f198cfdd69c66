// Package database defines the insertions and transactions to the database
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"predict-api/internal/shared"

	"go.uber.org/zap"
)

type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: db, log: log}
}

// Open connects and pings the write database.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed initializing sqlClient: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed ping to sql db: %w", err)
	}
	return db, nil
}

// SavePredictions writes every record in a single multi row insert inside a
// transaction.
func (s *Store) SavePredictions(ctx context.Context, records []shared.PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}
	query, vals, err := buildPredictionInsert(records)
	if err != nil {
		return err
	}
	return ExecuteTransaction(ctx, s.db, []func(*sql.Tx) error{
		func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, query, vals...); err != nil {
				return fmt.Errorf("failed to save predictions: %w", err)
			}
			return nil
		},
	})
}

func buildPredictionInsert(records []shared.PredictionRecord) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO prediction (
            id, request_id, model, model_version, variant,
            row_count, labels, cached, duration_ms, created_at
        ) VALUES `)

	vals := make([]any, 0, len(records)*10)
	for i, rec := range records {
		labels, err := json.Marshal(rec.Labels)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode labels for %s: %w", rec.ID, err)
		}
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		vals = append(vals,
			rec.ID, rec.RequestID, rec.Model, rec.ModelVersion, rec.Variant,
			rec.Rows, string(labels), rec.Cached, rec.Duration.Milliseconds(), rec.CreatedAt,
		)
	}
	return sb.String(), vals, nil
}

// ExecuteTransaction executes one transaction with one or multiple database executions.
func ExecuteTransaction(ctx context.Context, writeDB *sql.DB, fns []func(*sql.Tx) error) error {
	tx, err := writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, fn := range fns {
		if err := fn(tx); err != nil {
			return fmt.Errorf("failed to execute transaction function: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
