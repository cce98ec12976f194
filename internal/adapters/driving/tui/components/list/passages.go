// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// PassageList displays retrieved chunks in a navigable list.
type PassageList struct {
	passages []domain.ContextChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates a new passage list component.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &PassageList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the passage list.
func (p *PassageList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (p *PassageList) Update(msg tea.Msg) (*PassageList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			p.MoveUp()
		case "down", "j":
			p.MoveDown()
		}
	}
	return p, nil
}

// View renders the passage list.
func (p *PassageList) View() string {
	if len(p.passages) == 0 {
		return p.styles.Muted.Render("No passages")
	}

	lines := make([]string, 0, len(p.passages)*2+2)
	lines = append(lines, p.styles.Subtitle.Render(fmt.Sprintf("References (%d)", len(p.passages))), "")

	// Each passage takes two lines.
	visibleCount := (p.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if p.selected >= visibleCount {
		start = p.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(p.passages) {
		end = len(p.passages)
	}

	for i := start; i < end; i++ {
		lines = append(lines, p.renderPassage(i, &p.passages[i]))
	}

	return strings.Join(lines, "\n")
}

// renderPassage formats a passage as a title line and a preview line.
func (p *PassageList) renderPassage(index int, c *domain.ContextChunk) string {
	indicator := "  "
	if index == p.selected {
		indicator = "> "
	}

	title := c.Metadata.Title
	if title == "" {
		title = "untitled"
	}
	maxTitleLen := p.width - 24
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	title = Truncate(title, maxTitleLen)

	meta := fmt.Sprintf("#%d  %.3f", c.Metadata.Position, c.Distance)

	var titleLine string
	if index == p.selected {
		titleLine = p.styles.Selected.Render(indicator+title) + "  " + p.styles.Position.Render(meta)
	} else {
		titleLine = p.styles.Normal.Render(indicator+title) + "  " + p.styles.Muted.Render(meta)
	}

	maxPreviewLen := p.width - 6
	if maxPreviewLen < 20 {
		maxPreviewLen = 20
	}
	preview := Truncate(strings.Join(strings.Fields(c.Text), " "), maxPreviewLen)

	return titleLine + "\n" + p.styles.Muted.Render("    "+preview)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetPassages replaces the list contents.
func (p *PassageList) SetPassages(passages []domain.ContextChunk) {
	p.passages = passages
	p.selected = 0
}

// Passages returns the current passages.
func (p *PassageList) Passages() []domain.ContextChunk {
	return p.passages
}

// Selected returns the index of the selected passage.
func (p *PassageList) Selected() int {
	return p.selected
}

// SelectedPassage returns the currently selected passage, or nil if none.
func (p *PassageList) SelectedPassage() *domain.ContextChunk {
	if p.selected < 0 || p.selected >= len(p.passages) {
		return nil
	}
	return &p.passages[p.selected]
}

// MoveUp moves selection up.
func (p *PassageList) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown moves selection down.
func (p *PassageList) MoveDown() {
	if p.selected < len(p.passages)-1 {
		p.selected++
	}
}

// SetDimensions sets the component dimensions.
func (p *PassageList) SetDimensions(width, height int) {
	p.width = width
	p.height = height
}

// Count returns the number of passages.
func (p *PassageList) Count() int {
	return len(p.passages)
}
