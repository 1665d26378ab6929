package driven

// PromptStore provides access to LLM prompt templates.
// Users may edit the templates on disk; missing files fall back to built-in defaults.
type PromptStore interface {
	// Load returns the template for name.
	Load(name string) (string, error)

	// Reload drops cached templates so edits take effect.
	Reload()
}

// Prompt names.
const (
	// PromptFactExtraction asks the LLM for contract facts as JSON.
	// The contract text replaces PromptAgreementPlaceholder.
	PromptFactExtraction = "fact_extraction"
)

// PromptAgreementPlaceholder marks where the agreement text goes in a template.
// Everything else in the template is sent verbatim.
const PromptAgreementPlaceholder = "{{agreement}}"
