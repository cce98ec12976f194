package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Built-in prompts, used when no PromptStore is set or it has no override.
const (
	defaultAnswerSystemPrompt = "You are a local notebook assistant. " +
		"Answer strictly from the provided context. " +
		"If the context does not support an answer, say that you don't know."

	defaultAnswerUserPrompt = "Question:\n" + questionPlaceholder + "\n\nContext:\n" + contextPlaceholder

	noContextText = "(no context found)"
)

// Placeholders in the user prompt template.
const (
	questionPlaceholder = "{question}"
	contextPlaceholder  = "{context}"
)

// AnswerService asks a language model to answer from retrieved context.
type AnswerService struct {
	engine      driving.QueryEngine
	llm         driven.LLMService
	prompts     driven.PromptStore
	temperature float64
}

// NewAnswerService creates an answer service. llm may be nil, in which
// case Ask returns domain.ErrLLMUnavailable.
func NewAnswerService(engine driving.QueryEngine, llm driven.LLMService, temperature float64) *AnswerService {
	return &AnswerService{
		engine:      engine,
		llm:         llm,
		temperature: temperature,
	}
}

// DefaultPrompts returns the built-in prompt templates by name. Prompt
// stores use them to seed editable copies.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptAnswerSystem: defaultAnswerSystemPrompt,
		driven.PromptAnswerUser:   defaultAnswerUserPrompt,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Ask retrieves context for question and generates a grounded answer.
func (s *AnswerService) Ask(ctx context.Context, question string, opts domain.QueryOptions) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	chunks, err := s.engine.Context(ctx, question, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Answering from %d context chunks with %s", len(chunks), s.llm.ModelName())

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: s.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystemPrompt)},
		{Role: driven.RoleUser, Content: s.userPrompt(strings.TrimSpace(question), FormatContext(chunks))},
	}

	text, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: s.temperature})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &domain.Answer{
		Text:    strings.TrimSpace(text),
		Context: chunks,
		Sources: domain.SourcesFromContext(chunks),
	}, nil
}

func (s *AnswerService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}

// userPrompt fills the user template. An override missing either
// placeholder is ignored in favour of the built-in template.
func (s *AnswerService) userPrompt(question, blocks string) string {
	tmpl := s.loadPrompt(driven.PromptAnswerUser, defaultAnswerUserPrompt)
	if !strings.Contains(tmpl, questionPlaceholder) || !strings.Contains(tmpl, contextPlaceholder) {
		logger.Warn("Prompt %s lacks %s or %s, using the built-in prompt",
			driven.PromptAnswerUser, questionPlaceholder, contextPlaceholder)
		tmpl = defaultAnswerUserPrompt
	}
	return strings.NewReplacer(questionPlaceholder, question, contextPlaceholder, blocks).Replace(tmpl)
}

// FormatContext renders chunks as numbered context blocks for a prompt.
func FormatContext(chunks []domain.ContextChunk) string {
	if len(chunks) == 0 {
		return noContextText
	}

	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		title := c.Metadata.Title
		if title == "" {
			title = "untitled"
		}
		ref := c.Metadata.SourceRef
		if ref == "" {
			ref = "unknown"
		}
		blocks[i] = fmt.Sprintf("[Context %d] title=%s source=%s\n%s", i+1, title, ref, c.Text)
	}
	return strings.Join(blocks, "\n\n")
}
