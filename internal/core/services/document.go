package services

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists and manages indexed documents.
type DocumentService struct {
	store  driven.MetadataStore
	index  driven.VectorIndex
	locks  *KeyedMutex
	opener func(target string) error
}

// NewDocumentService creates a document service. locks must be the same
// KeyedMutex the indexer uses.
func NewDocumentService(store driven.MetadataStore, index driven.VectorIndex, locks *KeyedMutex) *DocumentService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &DocumentService{
		store:  store,
		index:  index,
		locks:  locks,
		opener: openURL,
	}
}

// List returns documents, most recently added first.
func (s *DocumentService) List(ctx context.Context, limit int) ([]domain.Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, documentID)
}

// GetChunks returns a document's chunks in reading order.
func (s *DocumentService) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	chunks, err := s.store.GetChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Position < chunks[j].Position
	})
	return chunks, nil
}

// GetContent returns the chunk texts joined in reading order.
// Overlapping text between neighbouring chunks is repeated.
func (s *DocumentService) GetContent(ctx context.Context, documentID string) (string, error) {
	chunks, err := s.GetChunks(ctx, documentID)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(chunk.Content)
	}

	return builder.String(), nil
}

// GetDetails returns metadata for display, including whether the two
// stores agree on the document's chunk count.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunkIDs, err := s.store.ChunkIDs(ctx, documentID)
	if err != nil {
		return nil, err
	}

	vectorCount := 0
	if s.index != nil {
		ids, err := s.index.IDsForDocument(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("counting vectors: %w", err)
		}
		vectorCount = len(ids)
	}

	return &driving.DocumentDetails{
		ID:          doc.ID,
		SourceType:  doc.SourceType,
		SourceRef:   doc.SourceRef,
		Title:       doc.Title,
		ChunkCount:  len(chunkIDs),
		VectorCount: vectorCount,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// Delete removes a document's vectors and then its metadata.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	unlock := s.locks.Lock(documentID)
	defer unlock()

	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return err
	}

	if s.index != nil {
		ids, err := s.index.IDsForDocument(ctx, documentID)
		if err != nil {
			return &domain.StorageError{Step: "listing vectors", Err: err}
		}
		if len(ids) > 0 {
			if err := s.index.DeleteByIDs(ctx, ids); err != nil {
				return &domain.StorageError{Step: "vector delete", Err: err}
			}
		}
	}

	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return &domain.StorageError{Step: "document delete", Err: err}
	}

	logger.Info("Removed document %s", documentID)
	return nil
}

// Open opens the document's source in the default application.
func (s *DocumentService) Open(ctx context.Context, documentID string) error {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	return s.opener(doc.SourceRef)
}

// openURL opens a URL/path using the system default handler.
func openURL(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
