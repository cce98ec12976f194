package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

func sampleDocuments() []domain.Document {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return []domain.Document{
		{ID: "file_aaa", SourceType: domain.SourceTypeFile, SourceRef: "/notes/a.md", Title: "Alpha", CreatedAt: created, UpdatedAt: created},
		{ID: "url_bbb", SourceType: domain.SourceTypeURL, SourceRef: "https://example.com/b", CreatedAt: created, UpdatedAt: created},
	}
}

func TestSourcesCmd(t *testing.T) {
	a := newTestApp(t, sampleDocuments()...)

	out, err := run(t, a, "sources")

	require.NoError(t, err)
	assert.Contains(t, out, "- file | Alpha | /notes/a.md")
	assert.Contains(t, out, "- url | untitled | https://example.com/b")
	assert.NotContains(t, out, "id:")
	assert.Equal(t, defaultListLimit, a.docs.lastLimit)
}

func TestSourcesCmd_VerboseAndLimit(t *testing.T) {
	a := newTestApp(t, sampleDocuments()...)

	out, err := run(t, a, "ls", "-v", "-n", "1")

	require.NoError(t, err)
	assert.Equal(t, 1, a.docs.lastLimit)
	assert.Contains(t, out, "id: file_aaa")
	assert.NotContains(t, out, "url_bbb")
}

func TestSourcesCmd_Empty(t *testing.T) {
	out, err := run(t, newTestApp(t), "sources")

	require.NoError(t, err)
	assert.Contains(t, out, "No sources indexed yet")
}

func TestShowCmd(t *testing.T) {
	a := newTestApp(t, sampleDocuments()...)
	a.docs.chunks["file_aaa"] = []domain.Chunk{
		{ID: "file_aaa__0", DocumentID: "file_aaa", Content: "first part", Position: 0},
		{ID: "file_aaa__1", DocumentID: "file_aaa", Content: "second part", Position: 1},
	}

	out, err := run(t, a, "show", "file_aaa", "--chunks", "--content")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: file_aaa")
	assert.Contains(t, out, "Title:    Alpha")
	assert.Contains(t, out, "Chunks:   2")
	assert.Contains(t, out, "Vectors:  2")
	assert.Contains(t, out, "[1] file_aaa__1")
	assert.Contains(t, out, "first part\nsecond part")
	assert.NotContains(t, out, "Warning")
}

func TestShowCmd_OutOfSync(t *testing.T) {
	a := newTestApp(t, sampleDocuments()...)
	a.docs.chunks["file_aaa"] = []domain.Chunk{{ID: "file_aaa__0", Content: "x"}}
	a.docs.vectors["file_aaa"] = 0

	out, err := run(t, a, "show", "file_aaa")

	require.NoError(t, err)
	assert.Contains(t, out, "notebook repair --doc file_aaa")
}

func TestShowCmd_Open(t *testing.T) {
	a := newTestApp(t, sampleDocuments()...)

	out, err := run(t, a, "show", "url_bbb", "--open")

	require.NoError(t, err)
	assert.Equal(t, []string{"url_bbb"}, a.docs.opened)
	assert.Contains(t, out, "Opened url_bbb")
}

func TestShowCmd_NotFound(t *testing.T) {
	_, err := run(t, newTestApp(t), "show", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveCmd(t *testing.T) {
	a := newTestApp(t, sampleDocuments()...)

	out, err := run(t, a, "rm", "file_aaa", "url_bbb")

	require.NoError(t, err)
	assert.Equal(t, []string{"file_aaa", "url_bbb"}, a.docs.deleted)
	assert.Contains(t, out, "✓ Removed file_aaa")
	assert.Contains(t, out, "✓ Removed url_bbb")
}

func TestRemoveCmd_PartialFailure(t *testing.T) {
	a := newTestApp(t, sampleDocuments()...)

	out, err := run(t, a, "remove", "file_aaa", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "1 of 2 sources failed")
	assert.Contains(t, out, "✗ missing")
}

func TestRemoveCmd_SingleFailureIsReturnedAsIs(t *testing.T) {
	_, err := run(t, newTestApp(t), "remove", "missing")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "sources failed")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
