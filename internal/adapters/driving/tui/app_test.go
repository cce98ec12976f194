package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

type mockQueryEngine struct {
	chunks []domain.ContextChunk
}

func (m *mockQueryEngine) Query(context.Context, string, domain.QueryOptions) ([]domain.ContextChunk, error) {
	return m.chunks, nil
}

func (m *mockQueryEngine) Context(ctx context.Context, q string, opts domain.QueryOptions) ([]domain.ContextChunk, error) {
	return m.Query(ctx, q, opts)
}

type mockDocumentService struct {
	docs []domain.Document
}

func (m *mockDocumentService) List(context.Context, int) ([]domain.Document, error) {
	return m.docs, nil
}

func (m *mockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetChunks(context.Context, string) ([]domain.Chunk, error) {
	return []domain.Chunk{{ID: "file-a__0", DocumentID: "file-a", Content: "hello world"}}, nil
}

func (m *mockDocumentService) GetContent(context.Context, string) (string, error) {
	return "hello world", nil
}

func (m *mockDocumentService) GetDetails(_ context.Context, id string) (*driving.DocumentDetails, error) {
	return &driving.DocumentDetails{ID: id, Title: "Doc A", ChunkCount: 1, VectorCount: 1, CreatedAt: time.Now()}, nil
}

func (m *mockDocumentService) Delete(context.Context, string) error {
	return nil
}

func (m *mockDocumentService) Open(context.Context, string) error {
	return nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(&Ports{
		Query: &mockQueryEngine{chunks: []domain.ContextChunk{{
			ChunkID:  "file-a__0",
			Text:     "hello world",
			Metadata: domain.ChunkMetadata{DocID: "file-a", Title: "Doc A", SourceRef: "/tmp/a.md"},
		}}},
		Documents: &mockDocumentService{docs: []domain.Document{
			{ID: "file-a", SourceType: domain.SourceTypeFile, SourceRef: "/tmp/a.md", Title: "Doc A"},
		}},
	})
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

// drain runs cmd and feeds its message back, following chains of commands.
func drain(app *App, cmd tea.Cmd) {
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if msg == nil {
			return
		}
		if _, ok := msg.(tea.BatchMsg); ok {
			return
		}
		_, cmd = app.Update(msg)
	}
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingQueryEngine)
	assert.ErrorIs(t, (&Ports{Query: &mockQueryEngine{}}).Validate(), ErrMissingDocumentService)
	assert.NoError(t, (&Ports{Query: &mockQueryEngine{}, Documents: &mockDocumentService{}}).Validate())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingQueryEngine)

	_, err = NewApp(nil)
	assert.Error(t, err)
}

func TestApp_InitialState(t *testing.T) {
	app, err := NewApp(&Ports{Query: &mockQueryEngine{}, Documents: &mockDocumentService{}})
	require.NoError(t, err)

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
	assert.Same(t, app, app.WithContext(context.Background()).WithTopK(3))
}

func TestApp_WindowSize(t *testing.T) {
	app := newTestApp(t)

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Notebook")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_AskFlow(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewAsk})
	assert.Equal(t, messages.ViewAsk, app.CurrentView())
	assert.NotNil(t, cmd)

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello?")})
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(app, cmd)

	out := app.View()
	assert.Contains(t, out, "No answer model is configured")
	assert.Contains(t, out, "Doc A | /tmp/a.md")

	// Open the reference, then come back without losing the answer.
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(app, cmd)
	assert.Equal(t, messages.ViewDocument, app.CurrentView())
	assert.Contains(t, app.View(), "hello world")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(app, cmd)
	assert.Equal(t, messages.ViewAsk, app.CurrentView())
	assert.Contains(t, app.View(), "Doc A | /tmp/a.md")
}

func TestApp_SourcesFlow(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewSources})
	drain(app, cmd)
	assert.Contains(t, app.View(), "Doc A")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(app, cmd)
	assert.Equal(t, messages.ViewDocument, app.CurrentView())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(app, cmd)
	assert.Equal(t, messages.ViewSources, app.CurrentView())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(app, cmd)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "Add a file, web page or YouTube video")

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t)

	app.Update(messages.ErrorOccurred{Err: domain.ErrNotFound})

	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
}
