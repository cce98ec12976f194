package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interfaces.
var (
	_ driven.VectorIndex    = (*VectorIndex)(nil)
	_ driven.IdentityPinner = (*VectorIndex)(nil)
)

// VectorIndex is an in-memory brute-force implementation of driven.VectorIndex.
type VectorIndex struct {
	mu       sync.RWMutex
	records  map[string]domain.VectorRecord
	identity *driven.EmbeddingIdentity
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		records: make(map[string]domain.VectorRecord),
	}
}

// Upsert stores records, replacing any with the same ID.
func (v *VectorIndex) Upsert(_ context.Context, records []domain.VectorRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range records {
		emb := make([]float32, len(r.Embedding))
		copy(emb, r.Embedding)
		r.Embedding = emb
		v.records[r.ID] = r
	}
	return nil
}

// DeleteByIDs removes records by ID.
func (v *VectorIndex) DeleteByIDs(_ context.Context, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range ids {
		delete(v.records, id)
	}
	return nil
}

// Query returns the k nearest records by cosine distance.
func (v *VectorIndex) Query(_ context.Context, embedding []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(v.records))
	for id := range v.records {
		r := v.records[id]
		if len(r.Embedding) != len(embedding) {
			return nil, fmt.Errorf("%w: query has %d dimensions, index holds %d",
				domain.ErrEmbeddingMismatch, len(embedding), len(r.Embedding))
		}
		hits = append(hits, driven.VectorHit{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
			Distance: domain.CosineDistance(embedding, r.Embedding),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance == hits[j].Distance {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// GetByIDs returns the subset of ids present in the index.
func (v *VectorIndex) GetByIDs(_ context.Context, ids []string) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var found []string
	for _, id := range ids {
		if _, ok := v.records[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

// IDsForDocument returns every record ID belonging to docID.
func (v *VectorIndex) IDsForDocument(_ context.Context, docID string) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var ids []string
	for id := range v.records {
		if v.records[id].Metadata.DocID == docID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// DocumentIDs returns the distinct document IDs referenced by records.
func (v *VectorIndex) DocumentIDs(_ context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	seen := make(map[string]struct{})
	for id := range v.records {
		seen[v.records[id].Metadata.DocID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Count returns the number of records.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records), nil
}

// PinIdentity records the embedding identity on first use.
func (v *VectorIndex) PinIdentity(_ context.Context, id driven.EmbeddingIdentity) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.identity == nil {
		v.identity = &id
		return nil
	}
	if *v.identity != id {
		return domain.ErrEmbeddingMismatch
	}
	return nil
}

// CheckIdentity compares id with the recorded identity, if any.
func (v *VectorIndex) CheckIdentity(_ context.Context, id driven.EmbeddingIdentity) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.identity != nil && *v.identity != id {
		return domain.ErrEmbeddingMismatch
	}
	return nil
}

// ResetIdentity forgets the recorded identity.
func (v *VectorIndex) ResetIdentity(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.identity = nil
	return nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}
