// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

// Focus identifies which pane receives keys.
type Focus int

const (
	// FocusInput sends keys to the question field.
	FocusInput Focus = iota
	// FocusAnswer scrolls the answer text.
	FocusAnswer
	// FocusReferences moves through the retrieved passages.
	FocusReferences
)

// noModelNotice is shown in place of an answer when only retrieval ran.
const noModelNotice = "No answer model is configured. Showing the most relevant passages."

// View is the ask view: a question field, the answer and its references.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	list      *list.PassageList
	statusbar *status.Bar

	query  driving.QueryEngine
	answer driving.AnswerService
	ctx    context.Context
	topK   int

	question    string
	result      *domain.Answer
	answerLines []string
	scroll      int

	width  int
	height int
	ready  bool
	err    error
	focus  Focus
}

// NewView creates a new ask view. answer may be nil, in which case
// questions are answered with retrieved passages only.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	query driving.QueryEngine,
	answer driving.AnswerService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewQuestionInput(s),
		list:      list.NewPassageList(s),
		statusbar: status.NewBar(s, km),
		query:     query,
		answer:    answer,
		ctx:       context.Background(),
		width:     80,
		height:    24,
		focus:     FocusInput,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets the number of passages to retrieve. Zero uses the
// configured default.
func (v *View) WithTopK(k int) *View {
	v.topK = k
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AskCompleted:
		v.handleAskCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focus == FocusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	if keymap.Matches(keyStr, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focus == FocusInput {
		if keymap.Matches(keyStr, v.keymap.Submit) {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.NewQuestion):
		return v, v.newQuestion()
	case keymap.Matches(keyStr, v.keymap.Tab):
		if v.focus == FocusAnswer && v.list.Count() > 0 {
			v.focus = FocusReferences
		} else {
			v.focus = FocusAnswer
		}
	case keymap.Matches(keyStr, v.keymap.Up):
		if v.focus == FocusReferences {
			v.list.MoveUp()
		} else if v.scroll > 0 {
			v.scroll--
		}
	case keymap.Matches(keyStr, v.keymap.Down):
		if v.focus == FocusReferences {
			v.list.MoveDown()
		} else if v.scroll < v.maxScroll() {
			v.scroll++
		}
	case keymap.Matches(keyStr, v.keymap.Select):
		if v.focus != FocusReferences {
			return v, nil
		}
		if p := v.list.SelectedPassage(); p != nil && p.Metadata.DocID != "" {
			docID := p.Metadata.DocID
			return v, func() tea.Msg {
				return messages.DocumentSelected{DocumentID: docID}
			}
		}
	}
	return v, nil
}

// submit starts answering the current question.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" {
		return nil
	}
	v.question = question
	v.err = nil
	v.input.Blur()
	v.focus = FocusAnswer
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateAsking)
	return v.ask(question)
}

// ask returns a command that answers question. Without an answer model
// it falls back to retrieval alone.
func (v *View) ask(question string) tea.Cmd {
	ctx, topK := v.ctx, v.topK
	answerSvc, querySvc := v.answer, v.query
	return func() tea.Msg {
		opts := domain.QueryOptions{TopK: topK}
		if answerSvc != nil {
			ans, err := answerSvc.Ask(ctx, question, opts)
			if err == nil {
				return messages.AskCompleted{Question: question, Answer: ans}
			}
			if !errors.Is(err, domain.ErrLLMUnavailable) {
				return messages.AskCompleted{Question: question, Err: err}
			}
		}
		if querySvc == nil {
			return messages.AskCompleted{Question: question, Err: ErrNoQueryEngine}
		}
		chunks, err := querySvc.Context(ctx, question, opts)
		if err != nil {
			return messages.AskCompleted{Question: question, Err: err}
		}
		return messages.AskCompleted{
			Question: question,
			Answer: &domain.Answer{
				Context: chunks,
				Sources: domain.SourcesFromContext(chunks),
			},
		}
	}
}

func (v *View) handleAskCompleted(msg messages.AskCompleted) {
	if msg.Question != v.question {
		return
	}
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	ans := msg.Answer
	if ans == nil {
		ans = &domain.Answer{}
	}
	v.err = nil
	v.result = ans
	v.scroll = 0
	v.list.SetPassages(ans.Context)
	v.wrapAnswer()
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetCount(len(ans.Sources))
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// newQuestion clears the answer and focuses the input.
func (v *View) newQuestion() tea.Cmd {
	v.focus = FocusInput
	v.input.SetValue("")
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
	return v.input.Focus()
}

// wrapAnswer splits the answer text into lines that fit the view.
func (v *View) wrapAnswer() {
	v.answerLines = nil
	if v.result == nil {
		return
	}
	text := v.result.Text
	if text == "" {
		text = noModelNotice
	}
	width := v.width - 4
	if width < 20 {
		width = 20
	}
	wrapped := lipgloss.NewStyle().Width(width).Render(text)
	v.answerLines = strings.Split(wrapped, "\n")
}

// answerHeight is the number of answer lines shown at once.
func (v *View) answerHeight() int {
	h := (v.height - 8) / 2
	if h < 3 {
		h = 3
	}
	return h
}

func (v *View) maxScroll() int {
	m := len(v.answerLines) - v.answerHeight()
	if m < 0 {
		return 0
	}
	return m
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("Notebook"), "", v.input.View(), "")

	switch {
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	case v.result != nil:
		sections = append(sections, v.renderAnswer(), "", v.renderReferences(), "", v.list.View())
	case v.statusbar.State() == status.StateAsking:
		sections = append(sections, v.styles.Muted.Render("Thinking..."))
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderAnswer() string {
	header := v.styles.Subtitle.Render("Answer")
	if v.focus == FocusAnswer {
		header += v.styles.Muted.Render(" *")
	}

	end := v.scroll + v.answerHeight()
	if end > len(v.answerLines) {
		end = len(v.answerLines)
	}
	body := strings.Join(v.answerLines[v.scroll:end], "\n")
	if len(v.answerLines) > v.answerHeight() {
		body += "\n" + v.styles.Muted.Render(fmt.Sprintf("[%d-%d of %d]", v.scroll+1, end, len(v.answerLines)))
	}
	return header + "\n" + v.styles.Answer.Render(body)
}

// renderReferences lists the distinct documents behind the answer.
func (v *View) renderReferences() string {
	lines := []string{v.styles.Subtitle.Render("Sources")}
	if len(v.result.Sources) == 0 {
		return strings.Join(append(lines, v.styles.Muted.Render("- (no references)")), "\n")
	}
	for _, src := range v.result.Sources {
		title := src.Title
		if title == "" {
			title = "untitled"
		}
		lines = append(lines, v.styles.Reference.Render(fmt.Sprintf("- %s | %s", title, src.SourceRef)))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-v.answerHeight()-12)
	v.statusbar.SetWidth(width)
	v.wrapAnswer()
	if v.scroll > v.maxScroll() {
		v.scroll = v.maxScroll()
	}
}

// Reset returns the view to an empty question.
func (v *View) Reset() {
	v.question = ""
	v.result = nil
	v.answerLines = nil
	v.scroll = 0
	v.err = nil
	v.list.SetPassages(nil)
	v.newQuestion()
}

// Question returns the last submitted question.
func (v *View) Question() string {
	return v.question
}

// Answer returns the last answer, or nil.
func (v *View) Answer() *domain.Answer {
	return v.result
}

// Focus returns the pane that receives keys.
func (v *View) Focus() Focus {
	return v.focus
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view has dimensions.
func (v *View) Ready() bool {
	return v.ready
}
