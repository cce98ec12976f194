package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// Ensure RepairService implements the interface.
var _ driving.RepairService = (*RepairService)(nil)

// RepairService treats the metadata store as the source of truth and the
// vector index as a projection of it. A pass deletes vectors with no
// matching chunk and re-embeds chunks with no matching vector.
type RepairService struct {
	store    driven.MetadataStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	locks    *KeyedMutex
}

// NewRepairService creates a repair service. locks must be the same
// KeyedMutex the indexer uses.
func NewRepairService(
	store driven.MetadataStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	locks *KeyedMutex,
) *RepairService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &RepairService{
		store:    store,
		index:    index,
		embedder: embedder,
		locks:    locks,
	}
}

// Repair reconciles the vector index with the metadata store.
func (s *RepairService) Repair(ctx context.Context, opts driving.RepairOptions) (*domain.RepairReport, error) {
	logger.Section("Repair")
	report := &domain.RepairReport{DryRun: opts.DryRun}

	known, orphaned, err := s.documentSets(ctx, opts.DocID)
	if err != nil {
		return nil, err
	}

	if opts.Rebuild && opts.DocID == "" && !opts.DryRun {
		if pinner, ok := s.index.(driven.IdentityPinner); ok {
			if err := pinner.ResetIdentity(ctx); err != nil {
				return nil, &domain.StorageError{Step: "resetting embedding identity", Err: err}
			}
		}
	}

	for _, docID := range known {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.repairDocument(ctx, docID, opts, report); err != nil {
			return report, fmt.Errorf("repairing %s: %w", docID, err)
		}
		report.Documents++
	}

	for _, docID := range orphaned {
		if err := s.dropOrphanDocument(ctx, docID, opts, report); err != nil {
			return report, fmt.Errorf("removing orphan vectors of %s: %w", docID, err)
		}
	}

	logger.L().Info().
		Int("documents", report.Documents).
		Int("orphans", report.Orphans).
		Int("missing", report.Missing).
		Int("rebuilt", report.Rebuilt).
		Bool("dry_run", report.DryRun).
		Msg("repair finished")
	return report, nil
}

// documentSets splits the documents to inspect into those the metadata
// store knows and those that exist only in the vector index.
func (s *RepairService) documentSets(ctx context.Context, docID string) (known, orphaned []string, err error) {
	if docID != "" {
		if _, err := s.store.GetDocument(ctx, docID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, []string{docID}, nil
			}
			return nil, nil, err
		}
		return []string{docID}, nil, nil
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, nil, &domain.StorageError{Step: "listing documents", Err: err}
	}
	inMetadata := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		known = append(known, d.ID)
		inMetadata[d.ID] = struct{}{}
	}

	vectorDocs, err := s.index.DocumentIDs(ctx)
	if err != nil {
		return nil, nil, &domain.StorageError{Step: "listing vector documents", Err: err}
	}
	for _, id := range vectorDocs {
		if _, ok := inMetadata[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	return known, orphaned, nil
}

//nolint:gocyclo // Compare, delete, re-embed, upsert
func (s *RepairService) repairDocument(
	ctx context.Context,
	docID string,
	opts driving.RepairOptions,
	report *domain.RepairReport,
) error {
	unlock := s.locks.Lock(docID)
	defer unlock()

	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	chunks, err := s.store.GetChunks(ctx, docID)
	if err != nil {
		return &domain.StorageError{Step: "loading chunks", Err: err}
	}
	vectorIDs, err := s.index.IDsForDocument(ctx, docID)
	if err != nil {
		return &domain.StorageError{Step: "listing vectors", Err: err}
	}

	wanted := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		wanted[c.ID] = struct{}{}
	}
	present := make(map[string]struct{}, len(vectorIDs))
	var orphans []string
	for _, id := range vectorIDs {
		present[id] = struct{}{}
		if _, ok := wanted[id]; !ok {
			orphans = append(orphans, id)
		}
	}

	var missing []domain.Chunk
	for _, c := range chunks {
		if _, ok := present[c.ID]; !ok {
			missing = append(missing, c)
		}
	}

	report.Orphans += len(orphans)
	report.Missing += len(missing)
	if len(orphans) > 0 || len(missing) > 0 {
		logger.Debug("%s: %d orphan vectors, %d missing vectors", docID, len(orphans), len(missing))
	}
	if opts.DryRun {
		return nil
	}

	toDelete := orphans
	toEmbed := missing
	if opts.Rebuild {
		toDelete = vectorIDs
		toEmbed = chunks
	}

	if len(toDelete) > 0 {
		if err := s.index.DeleteByIDs(ctx, toDelete); err != nil {
			return &domain.StorageError{Step: "vector delete", Err: err}
		}
	}
	if len(toEmbed) == 0 {
		return nil
	}

	texts := make([]string, len(toEmbed))
	for i, c := range toEmbed {
		texts[i] = c.Content
	}
	embeddings, err := embedTexts(ctx, s.embedder, texts)
	if err != nil {
		return err
	}
	if pinner, ok := s.index.(driven.IdentityPinner); ok {
		id := driven.EmbeddingIdentity{Model: s.embedder.ModelName(), Dimensions: len(embeddings[0])}
		if err := pinner.PinIdentity(ctx, id); err != nil {
			return err
		}
	}

	records := make([]domain.VectorRecord, len(toEmbed))
	for i, c := range toEmbed {
		records[i] = domain.VectorRecord{
			ID:        c.ID,
			Embedding: embeddings[i],
			Content:   c.Content,
			Metadata:  domain.NewChunkMetadata(doc, c.Position),
		}
	}
	if err := s.index.Upsert(ctx, records); err != nil {
		return &domain.StorageError{Step: "vector upsert", Err: err}
	}
	report.Rebuilt += len(records)
	return nil
}

func (s *RepairService) dropOrphanDocument(
	ctx context.Context,
	docID string,
	opts driving.RepairOptions,
	report *domain.RepairReport,
) error {
	unlock := s.locks.Lock(docID)
	defer unlock()

	ids, err := s.index.IDsForDocument(ctx, docID)
	if err != nil {
		return &domain.StorageError{Step: "listing vectors", Err: err}
	}
	report.Orphans += len(ids)
	if opts.DryRun || len(ids) == 0 {
		return nil
	}
	logger.Debug("%s: removing %d vectors with no metadata record", docID, len(ids))
	if err := s.index.DeleteByIDs(ctx, ids); err != nil {
		return &domain.StorageError{Step: "vector delete", Err: err}
	}
	return nil
}
