// Package pgvector implements the vector index on PostgreSQL with the
// pgvector extension, for knowledge bases shared between machines.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

// Ensure Index implements the interfaces.
var (
	_ driven.VectorIndex    = (*Index)(nil)
	_ driven.IdentityPinner = (*Index)(nil)
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS notebook_vectors (
    id        TEXT PRIMARY KEY,
    doc_id    TEXT NOT NULL,
    content   TEXT NOT NULL,
    metadata  JSONB NOT NULL,
    embedding vector NOT NULL
);

CREATE INDEX IF NOT EXISTS notebook_vectors_doc_idx ON notebook_vectors (doc_id);

CREATE TABLE IF NOT EXISTS notebook_identity (
    singleton  INTEGER PRIMARY KEY CHECK (singleton = 1),
    model      TEXT NOT NULL,
    dimensions INTEGER NOT NULL
);
`

// Index is a pgvector-backed vector index.
type Index struct {
	pool *pgxpool.Pool
}

// NewIndex connects to dsn and creates the schema if needed.
func NewIndex(ctx context.Context, dsn string) (*Index, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Index{pool: pool}, nil
}

// Upsert stores records, replacing any with the same ID.
func (x *Index) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata of %s: %w", r.ID, err)
		}
		batch.Queue(`
			INSERT INTO notebook_vectors (id, doc_id, content, metadata, embedding)
			VALUES ($1, $2, $3, $4::jsonb, $5)
			ON CONFLICT (id) DO UPDATE SET
				doc_id = EXCLUDED.doc_id,
				content = EXCLUDED.content,
				metadata = EXCLUDED.metadata,
				embedding = EXCLUDED.embedding
		`, r.ID, r.Metadata.DocID, r.Content, string(meta), pgv.NewVector(r.Embedding))
	}

	tx, err := x.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting vectors: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteByIDs removes records. Unknown IDs are ignored.
func (x *Index) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := x.pool.Exec(ctx, "DELETE FROM notebook_vectors WHERE id = ANY($1)", ids); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Query returns the k records nearest to embedding by cosine distance.
func (x *Index) Query(ctx context.Context, embedding []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := x.pool.Query(ctx, `
		SELECT id, content, metadata, embedding <=> $1 AS distance
		FROM notebook_vectors
		ORDER BY distance, id
		LIMIT $2
	`, pgv.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var (
			hit  driven.VectorHit
			meta []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Content, &meta, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		if err := json.Unmarshal(meta, &hit.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata of %s: %w", hit.ID, err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// GetByIDs returns the subset of ids that exist.
func (x *Index) GetByIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return x.selectIDs(ctx, "SELECT id FROM notebook_vectors WHERE id = ANY($1) ORDER BY id", ids)
}

// IDsForDocument returns every record ID belonging to docID.
func (x *Index) IDsForDocument(ctx context.Context, docID string) ([]string, error) {
	return x.selectIDs(ctx, "SELECT id FROM notebook_vectors WHERE doc_id = $1 ORDER BY id", docID)
}

// DocumentIDs returns the distinct document IDs present.
func (x *Index) DocumentIDs(ctx context.Context) ([]string, error) {
	return x.selectIDs(ctx, "SELECT DISTINCT doc_id FROM notebook_vectors ORDER BY doc_id")
}

func (x *Index) selectIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := x.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting ids: %w", err)
	}
	return ids, nil
}

// Count returns the number of records.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.pool.QueryRow(ctx, "SELECT COUNT(*) FROM notebook_vectors").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// PinIdentity records id on first use and rejects a different one later.
func (x *Index) PinIdentity(ctx context.Context, id driven.EmbeddingIdentity) error {
	_, err := x.pool.Exec(ctx, `
		INSERT INTO notebook_identity (singleton, model, dimensions)
		VALUES (1, $1, $2)
		ON CONFLICT (singleton) DO NOTHING
	`, id.Model, id.Dimensions)
	if err != nil {
		return fmt.Errorf("saving embedding identity: %w", err)
	}

	return x.CheckIdentity(ctx, id)
}

// CheckIdentity compares id with the recorded identity, if any.
func (x *Index) CheckIdentity(ctx context.Context, id driven.EmbeddingIdentity) error {
	var pinned driven.EmbeddingIdentity
	err := x.pool.QueryRow(ctx, "SELECT model, dimensions FROM notebook_identity WHERE singleton = 1").
		Scan(&pinned.Model, &pinned.Dimensions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading embedding identity: %w", err)
	}
	if pinned != id {
		return fmt.Errorf("%w: index built with %s (%d dims), configured %s (%d dims)",
			domain.ErrEmbeddingMismatch, pinned.Model, pinned.Dimensions, id.Model, id.Dimensions)
	}
	return nil
}

// ResetIdentity forgets the recorded identity.
func (x *Index) ResetIdentity(ctx context.Context) error {
	if _, err := x.pool.Exec(ctx, "DELETE FROM notebook_identity"); err != nil {
		return fmt.Errorf("resetting embedding identity: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (x *Index) Close() error {
	x.pool.Close()
	return nil
}
