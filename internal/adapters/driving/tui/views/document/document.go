// Package document provides the document view: details plus the
// document's chunks in reading order.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

const timeLayout = "2006-01-02 15:04:05"

// View shows one document.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	documents driving.DocumentService
	ctx       context.Context

	docID   string
	back    messages.ViewType
	details *driving.DocumentDetails
	chunks  []domain.Chunk
	lines   []string
	scroll  int
	notice  string

	width   int
	height  int
	ready   bool
	err     error
	loading bool
}

// NewView creates a new document view.
func NewView(s *styles.Styles, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		keymap:    keymap.DefaultKeyMap(),
		documents: documents,
		ctx:       context.Background(),
		back:      messages.ViewSources,
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetDocument switches to the document and loads it. Esc returns to back.
func (v *View) SetDocument(id string, back messages.ViewType) tea.Cmd {
	v.docID = id
	v.back = back
	v.details = nil
	v.chunks = nil
	v.lines = nil
	v.scroll = 0
	v.notice = ""
	v.err = nil
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, svc, id := v.ctx, v.documents, v.docID
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentLoaded{DocumentID: id, Err: ErrNoDocumentService}
		}
		details, err := svc.GetDetails(ctx, id)
		if err != nil {
			return messages.DocumentLoaded{DocumentID: id, Err: err}
		}
		chunks, err := svc.GetChunks(ctx, id)
		return messages.DocumentLoaded{DocumentID: id, Details: details, Chunks: chunks, Err: err}
	}
}

// Update handles messages for the document view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentLoaded:
		if msg.DocumentID != v.docID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.details = msg.Details
		v.chunks = msg.Chunks
		v.buildLines()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()
	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	case keymap.Matches(keyStr, v.keymap.Up):
		if v.scroll > 0 {
			v.scroll--
		}
	case keymap.Matches(keyStr, v.keymap.Down):
		if v.scroll < v.maxScroll() {
			v.scroll++
		}
	case keyStr == "pgup" || keyStr == "ctrl+u":
		v.scroll = max(v.scroll-v.visibleLines(), 0)
	case keyStr == "pgdown" || keyStr == "ctrl+d":
		v.scroll = min(v.scroll+v.visibleLines(), v.maxScroll())
	case keyStr == "home" || keyStr == "g":
		v.scroll = 0
	case keyStr == "end" || keyStr == "G":
		v.scroll = v.maxScroll()
	case keymap.Matches(keyStr, v.keymap.Open):
		v.open()
	}
	return v, nil
}

// open launches the document's source in the default application.
func (v *View) open() {
	if v.documents == nil || v.docID == "" {
		return
	}
	if err := v.documents.Open(v.ctx, v.docID); err != nil {
		v.notice = "Open: " + err.Error()
		return
	}
	v.notice = "Opening source..."
}

// buildLines lays out the header and chunks as wrapped lines.
func (v *View) buildLines() {
	v.lines = nil
	if v.details == nil {
		return
	}
	d := v.details

	v.lines = append(v.lines,
		formatField("ID", d.ID),
		formatField("Type", d.SourceType.String()),
		formatField("Source", d.SourceRef),
		formatField("Chunks", fmt.Sprintf("%d (%d vectors)", d.ChunkCount, d.VectorCount)))
	if !d.CreatedAt.IsZero() {
		v.lines = append(v.lines, formatField("Created", d.CreatedAt.Local().Format(timeLayout)))
	}
	if !d.UpdatedAt.IsZero() {
		v.lines = append(v.lines, formatField("Updated", d.UpdatedAt.Local().Format(timeLayout)))
	}
	if !d.InSync() {
		v.lines = append(v.lines, v.styles.Warning.Render("Index out of sync. Run `notebook repair --doc "+d.ID+"`."))
	}
	v.lines = append(v.lines, "")

	width := v.width - 4
	if width < 20 {
		width = 20
	}
	wrap := lipgloss.NewStyle().Width(width)
	for _, c := range v.chunks {
		v.lines = append(v.lines, v.styles.Position.Render(fmt.Sprintf("[%d]", c.Position)))
		v.lines = append(v.lines, strings.Split(wrap.Render(c.Content), "\n")...)
		v.lines = append(v.lines, "")
	}
	if v.scroll > v.maxScroll() {
		v.scroll = v.maxScroll()
	}
}

func formatField(label, value string) string {
	return fmt.Sprintf("%-10s %s", label+":", value)
}

func (v *View) visibleLines() int {
	return max(v.height-6, 1)
}

func (v *View) maxScroll() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the document view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.details != nil && v.details.Title != "" {
		title = v.details.Title
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading document..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		end := min(v.scroll+v.visibleLines(), len(v.lines))
		for _, line := range v.lines[v.scroll:end] {
			b.WriteString(line)
			b.WriteString("\n")
		}
		if len(v.lines) > v.visibleLines() {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Line %d-%d of %d", v.scroll+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	if v.notice != "" {
		b.WriteString(v.styles.Muted.Render(v.notice))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [o] open source  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.buildLines()
}

// DocumentID returns the displayed document's ID.
func (v *View) DocumentID() string {
	return v.docID
}

// Details returns the loaded details, or nil.
func (v *View) Details() *driving.DocumentDetails {
	return v.details
}

// Chunks returns the loaded chunks.
func (v *View) Chunks() []domain.Chunk {
	return v.chunks
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
