package driven

// PromptStore provides access to LLM prompt templates.
// Implementations load prompts from files under the config directory and
// fall back to built-in defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system prompt for grounded answers.
	// It has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser frames the question and the retrieved context.
	// It must contain the {question} and {context} placeholders.
	PromptAnswerUser = "answer_user"
)
