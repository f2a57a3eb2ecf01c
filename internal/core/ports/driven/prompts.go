package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptGroundedSystem is the system instruction for grounded answers.
	// It has no format placeholders.
	PromptGroundedSystem = "grounded_system"

	// PromptGroundedAnswer lays out context, history and question.
	// It expects three %s placeholders in that order.
	PromptGroundedAnswer = "grounded_answer"
)
