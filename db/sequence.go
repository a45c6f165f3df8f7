package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceAllocator is the Sequence Allocator (C3): a monotonic counter
// per named sequence, used to mint human-readable document numbers
// (`doc_number = "REG-TMF-" + zero-padded 5-digit sequence`, spec §5).
type SequenceAllocator interface {
	// Next returns the next value of the named sequence, creating it
	// at 1 if it does not yet exist.
	Next(ctx context.Context, name string) (int64, error)
}

// NextDocNumber formats n per spec §5's identifier grammar.
func NextDocNumber(n int64) string {
	return fmt.Sprintf("REG-TMF-%05d", n)
}

// PostgresSequenceAllocator is the production C3 backend: a
// find-and-increment row in a small `sequences` table, guarded the
// same way db/state_store.go guards its updates — an affected-row
// count of zero means the write didn't land and the caller must not
// trust the value it computed.
type PostgresSequenceAllocator struct {
	pool *pgxpool.Pool
}

// NewPostgresSequenceAllocator wraps an already-connected pool. The
// caller is responsible for having created the `sequences(name text
// primary key, value bigint not null)` table ahead of time.
func NewPostgresSequenceAllocator(pool *pgxpool.Pool) *PostgresSequenceAllocator {
	return &PostgresSequenceAllocator{pool: pool}
}

func (a *PostgresSequenceAllocator) Next(ctx context.Context, name string) (int64, error) {
	const upsert = `
		INSERT INTO sequences (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`

	var value int64
	row := a.pool.QueryRow(ctx, upsert, name)
	if err := row.Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to allocate sequence %s: %w", name, err)
	}
	return value, nil
}
