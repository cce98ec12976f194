package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// IndexerService writes one document at a time to the vector index and
// the metadata store.
//
// The steps run in a fixed order: chunk, embed, existence check, delete,
// vector upsert, metadata upsert, chunk replace. Vectors are written
// before metadata, so an interrupted call can leave vectors the metadata
// store does not list; RepairService removes them.
type IndexerService struct {
	store    driven.MetadataStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	chunker  driven.Chunker
	locks    *KeyedMutex
	metrics  driven.MetricsRecorder
	now      func() time.Time
}

// NewIndexerService creates an indexer. locks serialises writes per
// document ID and should be shared with every other writer (delete,
// repair). A nil locks gets a private one; nil metrics records nothing.
func NewIndexerService(
	store driven.MetadataStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	chunker driven.Chunker,
	locks *KeyedMutex,
	metrics driven.MetricsRecorder,
) *IndexerService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &IndexerService{
		store:    store,
		index:    index,
		embedder: embedder,
		chunker:  chunker,
		locks:    locks,
		metrics:  metricsOrNoop(metrics),
		now:      time.Now,
	}
}

// IndexDocument chunks, embeds and stores a document, replacing whatever
// was stored for the same document ID before.
func (s *IndexerService) IndexDocument(ctx context.Context, req driving.IndexRequest) (*domain.IndexResult, error) {
	if !req.SourceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, req.SourceType)
	}
	if strings.TrimSpace(req.SourceRef) == "" {
		return nil, fmt.Errorf("%w: source reference is required", domain.ErrInvalidInput)
	}

	docID := req.DocID
	if docID == "" {
		seed := req.Seed
		if seed == "" {
			seed = req.SourceRef
		}
		docID = domain.DocumentID(req.SourceType.IDPrefix(), seed)
	}

	unlock := s.locks.Lock(docID)
	defer unlock()

	start := s.now()
	result, err := s.indexLocked(ctx, docID, req)
	chunks := 0
	if result != nil {
		chunks = result.Chunks
	}
	s.metrics.ObserveIndex(string(req.SourceType), chunks, s.now().Sub(start), err)
	if err != nil {
		logger.Warn("indexing %s failed: %v", docID, err)
		return nil, err
	}

	logger.L().Info().
		Str("doc_id", docID).
		Str("source_type", string(req.SourceType)).
		Int("chunks", result.Chunks).
		Int("replaced", result.Replaced).
		Msg("document indexed")
	return result, nil
}

//nolint:gocyclo // Sequential pipeline with a check after each step
func (s *IndexerService) indexLocked(
	ctx context.Context,
	docID string,
	req driving.IndexRequest,
) (*domain.IndexResult, error) {
	// 1. Chunk
	chunks, err := s.chunker.Chunk(docID, domain.NormaliseText(req.Text))
	if err != nil {
		return nil, fmt.Errorf("chunking: %w", err)
	}
	logger.Debug("chunked %s into %d chunks", docID, len(chunks))

	// 2. Embed, one batch for the whole document
	var embeddings [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		if embeddings, err = embedTexts(ctx, s.embedder, texts); err != nil {
			return nil, fmt.Errorf("embedding: %w", err)
		}
		if err := s.pinIdentity(ctx, len(embeddings[0])); err != nil {
			return nil, err
		}
	}

	// 3. Existence check over the new IDs and whatever metadata says
	// the previous chunking produced
	previous, err := s.store.ChunkIDs(ctx, docID)
	if err != nil {
		return nil, &domain.StorageError{Step: "loading previous chunk ids", Err: err}
	}
	candidates := make([]string, 0, len(previous)+len(chunks))
	seen := make(map[string]struct{}, len(previous)+len(chunks))
	for _, id := range previous {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			candidates = append(candidates, id)
		}
	}
	for _, c := range chunks {
		if _, ok := seen[c.ID]; !ok {
			seen[c.ID] = struct{}{}
			candidates = append(candidates, c.ID)
		}
	}

	var existing []string
	if len(candidates) > 0 {
		if existing, err = s.index.GetByIDs(ctx, candidates); err != nil {
			return nil, &domain.StorageError{Step: "vector existence check", Err: err}
		}
	}

	// 4. Delete
	if len(existing) > 0 {
		if err := s.index.DeleteByIDs(ctx, existing); err != nil {
			return nil, &domain.StorageError{Step: "vector delete", Err: err}
		}
		logger.Debug("deleted %d existing vectors for %s", len(existing), docID)
	}

	now := s.now().UTC()
	doc := &domain.Document{
		ID:         docID,
		SourceType: req.SourceType,
		SourceRef:  req.SourceRef,
		Title:      req.Title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// 5. Vector upsert
	if len(chunks) > 0 {
		records := make([]domain.VectorRecord, len(chunks))
		for i, c := range chunks {
			records[i] = domain.VectorRecord{
				ID:        c.ID,
				Embedding: embeddings[i],
				Content:   c.Content,
				Metadata:  domain.NewChunkMetadata(doc, c.Position),
			}
		}
		if err := s.index.Upsert(ctx, records); err != nil {
			return nil, &domain.StorageError{Step: "vector upsert", Err: err}
		}
	}

	// 6. Metadata upsert, even when there are no chunks
	if err := s.store.UpsertDocument(ctx, doc); err != nil {
		return nil, &domain.StorageError{Step: "document upsert", Err: err}
	}

	// 7. Chunk replace
	if err := s.store.ReplaceChunks(ctx, docID, chunks); err != nil {
		return nil, &domain.StorageError{Step: "chunk replace", Err: err}
	}

	return &domain.IndexResult{
		DocID:    docID,
		Chunks:   len(chunks),
		Replaced: len(existing),
	}, nil
}

// pinIdentity records the embedding model on indexes that support it.
func (s *IndexerService) pinIdentity(ctx context.Context, dims int) error {
	pinner, ok := s.index.(driven.IdentityPinner)
	if !ok {
		return nil
	}
	id := driven.EmbeddingIdentity{Model: s.embedder.ModelName(), Dimensions: dims}
	if err := pinner.PinIdentity(ctx, id); err != nil {
		return fmt.Errorf("pinning embedding identity: %w", err)
	}
	return nil
}
