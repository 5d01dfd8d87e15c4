package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceService hands out gapless document reference numbers per type code
// (PUR, SAL, RET). Numbers are generated inside the caller's transaction so a
// rolled-back document never burns a number.
type SequenceService interface {
	// NextRefNoTx reserves the next number for typeCode and returns it
	// formatted, e.g. "PUR-00042".
	NextRefNoTx(ctx context.Context, tx pgx.Tx, typeCode string) (string, error)
}

type sequenceService struct {
	pool *pgxpool.Pool
}

func NewSequenceService(pool *pgxpool.Pool) SequenceService {
	return &sequenceService{pool: pool}
}

func (s *sequenceService) NextRefNoTx(ctx context.Context, tx pgx.Tx, typeCode string) (string, error) {
	if typeCode == "" {
		return "", fmt.Errorf("sequence type code cannot be empty")
	}

	// Concurrency-safe gapless sequence generation: the upsert takes a row
	// lock, serializing concurrent callers of the same type code.
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO ref_sequences (type_code, last_number)
		VALUES ($1, 1)
		ON CONFLICT (type_code)
		DO UPDATE SET last_number = ref_sequences.last_number + 1
		RETURNING last_number
	`, typeCode).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to generate sequence number for %s: %w", typeCode, err)
	}

	return fmt.Sprintf("%s-%05d", typeCode, lastNumber), nil
}
