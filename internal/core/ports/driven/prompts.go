package driven

// Prompt identifiers for the PromptStore.
const (
	// PromptCaption instructs the vision model to produce a one-sentence
	// first-person caption for an image.
	PromptCaption = "caption"

	// PromptPickSingle asks the LLM for the single best-matching lyric
	// line. Takes (caption, candidate list).
	PromptPickSingle = "pick_single"

	// PromptPickMulti asks the LLM for N diverse lyric lines. Takes
	// (count, caption, candidate list).
	PromptPickMulti = "pick_multi"
)

// PromptStore loads LLM prompt templates, allowing user customisation.
type PromptStore interface {
	// Load returns the prompt template for the given identifier.
	Load(name string) (string, error)
}
