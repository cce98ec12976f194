// Package sources provides the indexed sources view for the TUI.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

var (
	// ErrNoDocumentService indicates that no document service was provided.
	ErrNoDocumentService = errors.New("document service not available")

	// ErrNoIngestService indicates that sources cannot be added.
	ErrNoIngestService = errors.New("ingest service not available")
)

// View lists indexed documents and lets the user add or remove them.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	field     *input.Field
	statusbar *status.Bar

	documents driving.DocumentService
	ingest    driving.IngestService
	ctx       context.Context

	docs     []domain.Document
	selected int
	adding   bool
	pending  int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new sources view. ingest may be nil, which disables
// adding sources.
func NewView(s *styles.Styles, documents driving.DocumentService, ingest driving.IngestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()

	field := input.NewField(s, "Add: ", "path, URL or YouTube link")
	field.Blur()

	return &View{
		styles:    s,
		keymap:    km,
		field:     field,
		statusbar: status.NewBar(s, km),
		documents: documents,
		ingest:    ingest,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.statusbar.SetState(status.StateLoading)
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, svc := v.ctx, v.documents
	return func() tea.Msg {
		if svc == nil {
			return messages.SourcesLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx, 0)
		return messages.SourcesLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.adding {
			return v.handleAddKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.SourcesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.docs = msg.Documents
		if v.selected >= len(v.docs) {
			v.selected = max(len(v.docs)-1, 0)
		}
		v.statusbar.SetState(status.StateSources)
		v.statusbar.SetCount(len(v.docs))
		return v, nil

	case messages.SourceAdded:
		v.pending--
		if msg.Err != nil {
			v.setError(fmt.Errorf("adding %s: %w", msg.Locator, msg.Err))
			return v, nil
		}
		chunks := 0
		if msg.Result != nil {
			chunks = msg.Result.Chunks
		}
		v.statusbar.SetMessage(fmt.Sprintf("Added %s (%d chunks)", msg.Locator, chunks))
		return v, v.load()

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.statusbar.SetMessage("Removed " + msg.DocumentID)
		return v, v.load()

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	if v.adding {
		var cmd tea.Cmd
		v.field, cmd = v.field.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()
	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(keyStr, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(keyStr, v.keymap.Down):
		if v.selected < len(v.docs)-1 {
			v.selected++
		}
	case keymap.Matches(keyStr, v.keymap.Select):
		if doc := v.SelectedDocument(); doc != nil {
			id := doc.ID
			return v, func() tea.Msg {
				return messages.DocumentSelected{DocumentID: id}
			}
		}
	case keymap.Matches(keyStr, v.keymap.Add):
		if v.ingest == nil {
			v.setError(ErrNoIngestService)
			return v, nil
		}
		v.adding = true
		v.field.Reset()
		return v, v.field.Focus()
	case keymap.Matches(keyStr, v.keymap.Delete):
		if doc := v.SelectedDocument(); doc != nil {
			return v, v.remove(doc.ID)
		}
	case keymap.Matches(keyStr, v.keymap.Refresh):
		v.loading = true
		v.statusbar.SetMessage("")
		return v, v.load()
	}
	return v, nil
}

func (v *View) handleAddKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()
	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		v.adding = false
		v.field.Blur()
		return v, nil
	case keymap.Matches(keyStr, v.keymap.Submit):
		locator := strings.TrimSpace(v.field.Value())
		if locator == "" {
			return v, nil
		}
		v.adding = false
		v.field.Blur()
		v.pending++
		v.statusbar.SetMessage("Adding " + locator + "...")
		return v, v.add(locator)
	}
	var cmd tea.Cmd
	v.field, cmd = v.field.Update(msg)
	return v, cmd
}

// add ingests locator, guessing its source type.
func (v *View) add(locator string) tea.Cmd {
	ctx, svc := v.ctx, v.ingest
	return func() tea.Msg {
		req := domain.IngestRequest{
			SourceType: domain.DetectSourceType(locator),
			Locator:    locator,
		}
		result, err := svc.Ingest(ctx, req)
		return messages.SourceAdded{Locator: locator, Result: result, Err: err}
	}
}

func (v *View) remove(id string) tea.Cmd {
	ctx, svc := v.ctx, v.documents
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: id, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{DocumentID: id, Err: svc.Delete(ctx, id)}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sources"))
	b.WriteString("\n\n")

	if v.adding {
		b.WriteString(v.field.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Help.Render("[enter] add  [esc] cancel"))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading sources..."))
	case v.err != nil && len(v.docs) == 0:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.docs) == 0:
		b.WriteString(v.styles.Muted.Render("No sources yet. Press [a] to add a file, web page or video."))
	default:
		start, end := v.window()
		for i := start; i < end; i++ {
			b.WriteString(v.renderDocument(i, &v.docs[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

// window returns the visible slice of documents around the selection.
func (v *View) window() (int, int) {
	visible := v.height - 8
	if visible < 1 {
		visible = 1
	}
	start := 0
	if v.selected >= visible {
		start = v.selected - visible + 1
	}
	end := start + visible
	if end > len(v.docs) {
		end = len(v.docs)
	}
	return start, end
}

// renderDocument renders "type | title | ref" for one document.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	typeStr := fmt.Sprintf("%-8s", doc.SourceType)
	refWidth := v.width - 48
	if refWidth < 16 {
		refWidth = 16
	}
	title := list.Truncate(doc.DisplayTitle(), 30)
	ref := list.Truncate(doc.SourceRef, refWidth)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %s %-30s %s", typeStr, title, ref))
	}
	return v.styles.Normal.Render("  ") +
		v.styles.Subtitle.Render(typeStr) + " " +
		v.styles.Normal.Render(fmt.Sprintf("%-30s ", title)) +
		v.styles.Muted.Render(ref)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.field.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Documents returns the loaded documents.
func (v *View) Documents() []domain.Document {
	return v.docs
}

// SelectedIndex returns the index of the selected document.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the selected document, or nil.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < 0 || v.selected >= len(v.docs) {
		return nil
	}
	return &v.docs[v.selected]
}

// Adding returns true while the add field is open.
func (v *View) Adding() bool {
	return v.adding
}

// Pending returns the number of additions still running.
func (v *View) Pending() int {
	return v.pending
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
