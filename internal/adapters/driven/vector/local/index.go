// Package local implements a durable vector index in a SQLite file.
//
// Vectors are stored as little-endian float32 blobs and mirrored in
// memory; queries scan the mirror with cosine distance and keep the k
// best in a heap. This suits the single-user knowledge bases the CLI
// manages. Larger collections should use the pgvector backend.
package local

import (
	"container/heap"
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// IndexFile is the index path relative to the data directory.
var IndexFile = filepath.Join("vectors", "index.db")

// Ensure Index implements the interfaces.
var (
	_ driven.VectorIndex    = (*Index)(nil)
	_ driven.IdentityPinner = (*Index)(nil)
)

type entry struct {
	embedding []float32
	content   string
	metadata  domain.ChunkMetadata
}

// Index is a SQLite-backed vector index with an in-memory mirror.
type Index struct {
	db   *sql.DB
	path string

	mu      sync.RWMutex
	entries map[string]entry
}

// NewIndex opens or creates the index under dataDir and loads it.
func NewIndex(dataDir string) (*Index, error) {
	path := filepath.Join(dataDir, IndexFile)
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}

	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := sqlite.Migrate(db, sub); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	idx := &Index{db: db, path: path, entries: make(map[string]entry)}
	if err := idx.load(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Path returns the index file path.
func (x *Index) Path() string {
	return x.path
}

func (x *Index) load() error {
	rows, err := x.db.Query("SELECT id, content, metadata, embedding FROM vectors")
	if err != nil {
		return fmt.Errorf("loading vectors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, content, meta string
			blob              []byte
		)
		if err := rows.Scan(&id, &content, &meta, &blob); err != nil {
			return fmt.Errorf("scanning vector: %w", err)
		}
		var md domain.ChunkMetadata
		if err := json.Unmarshal([]byte(meta), &md); err != nil {
			return fmt.Errorf("decoding metadata of %s: %w", id, err)
		}
		x.entries[id] = entry{embedding: bytesToFloat32Slice(blob), content: content, metadata: md}
	}
	return rows.Err()
}

// Upsert stores records, replacing any with the same ID.
func (x *Index) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, doc_id, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc_id = excluded.doc_id,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata of %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Metadata.DocID, r.Content, string(meta),
			float32SliceToBytes(r.Embedding)); err != nil {
			return fmt.Errorf("saving vector %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	for _, r := range records {
		emb := make([]float32, len(r.Embedding))
		copy(emb, r.Embedding)
		x.entries[r.ID] = entry{embedding: emb, content: r.Content, metadata: r.Metadata}
	}
	return nil
}

// DeleteByIDs removes records. Unknown IDs are ignored.
func (x *Index) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "DELETE FROM vectors WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting vector %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	for _, id := range ids {
		delete(x.entries, id)
	}
	return nil
}

// Query returns the k records nearest to embedding.
func (x *Index) Query(ctx context.Context, embedding []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	h := &hitHeap{}
	for id, e := range x.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(e.embedding) != len(embedding) {
			return nil, fmt.Errorf("%w: query has %d dimensions, index holds %d",
				domain.ErrEmbeddingMismatch, len(embedding), len(e.embedding))
		}
		hit := driven.VectorHit{
			ID:       id,
			Content:  e.content,
			Metadata: e.metadata,
			Distance: domain.CosineDistance(embedding, e.embedding),
		}
		if h.Len() < k {
			heap.Push(h, hit)
		} else if worse((*h)[0], hit) {
			(*h)[0] = hit
			heap.Fix(h, 0)
		}
	}

	hits := make([]driven.VectorHit, h.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(h).(driven.VectorHit) //nolint:forcetypeassert // heap only holds hits
	}
	return hits, nil
}

// GetByIDs returns the subset of ids that exist.
func (x *Index) GetByIDs(_ context.Context, ids []string) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var found []string
	for _, id := range ids {
		if _, ok := x.entries[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

// IDsForDocument returns every record ID belonging to docID.
func (x *Index) IDsForDocument(_ context.Context, docID string) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var ids []string
	for id, e := range x.entries {
		if e.metadata.DocID == docID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// DocumentIDs returns the distinct document IDs present.
func (x *Index) DocumentIDs(_ context.Context) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range x.entries {
		seen[e.metadata.DocID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Count returns the number of records.
func (x *Index) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

// PinIdentity records id on first use and rejects a different one later.
func (x *Index) PinIdentity(ctx context.Context, id driven.EmbeddingIdentity) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	pinned, ok, err := x.pinned(ctx)
	switch {
	case err != nil:
		return err
	case !ok:
		_, err = x.db.ExecContext(ctx,
			"INSERT INTO identity (singleton, model, dimensions) VALUES (1, ?, ?)", id.Model, id.Dimensions)
		if err != nil {
			return fmt.Errorf("saving embedding identity: %w", err)
		}
		return nil
	default:
		return compareIdentity(pinned, id)
	}
}

// CheckIdentity compares id with the recorded identity, if any.
func (x *Index) CheckIdentity(ctx context.Context, id driven.EmbeddingIdentity) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	pinned, ok, err := x.pinned(ctx)
	if err != nil || !ok {
		return err
	}
	return compareIdentity(pinned, id)
}

func (x *Index) pinned(ctx context.Context) (driven.EmbeddingIdentity, bool, error) {
	var pinned driven.EmbeddingIdentity
	err := x.db.QueryRowContext(ctx, "SELECT model, dimensions FROM identity WHERE singleton = 1").
		Scan(&pinned.Model, &pinned.Dimensions)
	if errors.Is(err, sql.ErrNoRows) {
		return pinned, false, nil
	}
	if err != nil {
		return pinned, false, fmt.Errorf("reading embedding identity: %w", err)
	}
	return pinned, true, nil
}

func compareIdentity(pinned, configured driven.EmbeddingIdentity) error {
	if pinned == configured {
		return nil
	}
	return fmt.Errorf("%w: index built with %s (%d dims), configured %s (%d dims)",
		domain.ErrEmbeddingMismatch, pinned.Model, pinned.Dimensions, configured.Model, configured.Dimensions)
}

// ResetIdentity forgets the recorded identity.
func (x *Index) ResetIdentity(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, err := x.db.ExecContext(ctx, "DELETE FROM identity"); err != nil {
		return fmt.Errorf("resetting embedding identity: %w", err)
	}
	return nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// hitHeap is a max-heap on distance so the worst of the best k is on top.
type hitHeap []driven.VectorHit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)        { *h = append(*h, x.(driven.VectorHit)) } //nolint:forcetypeassert
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// worse reports whether a ranks below b. Ties break on ID for stable output.
func worse(a, b driven.VectorHit) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.ID > b.ID
}

// float32SliceToBytes converts []float32 to a little-endian blob.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a blob back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
