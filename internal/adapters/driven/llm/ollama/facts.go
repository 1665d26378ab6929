package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/logger"
)

// Ensure FactExtractor implements the interface.
var _ driven.FactExtractor = (*FactExtractor)(nil)

// DefaultMaxPromptChars bounds the contract text sent to the model.
const DefaultMaxPromptChars = 12000

// defaultFactPrompt is the fallback prompt when no PromptStore is configured.
const defaultFactPrompt = `Extract the parties, effective_date, expiration_date, term and governing_law
from this non-disclosure agreement. Dates as YYYY-MM-DD. Return ONLY a JSON object.

Agreement:
` + driven.PromptAgreementPlaceholder

// factAliases maps key spellings models commonly use to canonical fact keys.
var factAliases = map[string]string{
	"expiry_date":       domain.FactExpirationDate,
	"expiration":        domain.FactExpirationDate,
	"end_date":          domain.FactExpirationDate,
	"termination_date":  domain.FactExpirationDate,
	"effective":         domain.FactEffectiveDate,
	"start_date":        domain.FactEffectiveDate,
	"commencement_date": domain.FactEffectiveDate,
	"duration":          domain.FactTerm,
	"jurisdiction":      domain.FactGoverningLaw,
	"disclosing_party":  domain.FactPartyA,
	"receiving_party":   domain.FactPartyB,
}

// FactExtractor asks the LLM for contract facts as a JSON object.
type FactExtractor struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	maxChars int
}

// NewFactExtractor creates a fact extractor. prompts may be nil.
func NewFactExtractor(llm driven.LLMService, prompts driven.PromptStore) *FactExtractor {
	return &FactExtractor{
		llm:      llm,
		prompts:  prompts,
		maxChars: DefaultMaxPromptChars,
	}
}

// Name identifies the extractor in logs.
func (e *FactExtractor) Name() string {
	return "ollama:" + e.llm.ModelName()
}

// ExtractFacts prompts the model and parses its JSON answer.
func (e *FactExtractor) ExtractFacts(ctx context.Context, text string) (map[string]string, error) {
	prompt := renderPrompt(e.loadPrompt(), truncateMiddle(text, e.maxChars))

	raw, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   512,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	facts, err := parseFacts(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}
	logger.Debug("ollama facts: %d keys", len(facts))
	return domain.NormaliseFacts(facts), nil
}

func (e *FactExtractor) loadPrompt() string {
	if e.prompts == nil {
		return defaultFactPrompt
	}
	prompt, err := e.prompts.Load(driven.PromptFactExtraction)
	if err != nil {
		logger.Warn("fact prompt: %v, using built-in", err)
		return defaultFactPrompt
	}
	return prompt
}

// renderPrompt puts the agreement text into the template. Templates are user
// text: nothing but the placeholder is interpreted. A template without the
// placeholder gets the agreement appended.
func renderPrompt(template, agreement string) string {
	if !strings.Contains(template, driven.PromptAgreementPlaceholder) {
		return strings.TrimRight(template, "\n") + "\n\n" + agreement
	}
	return strings.ReplaceAll(template, driven.PromptAgreementPlaceholder, agreement)
}

// parseFacts reads the first JSON object in raw. Models sometimes wrap the
// object in prose or code fences even in JSON mode.
func parseFacts(raw string) (map[string]string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	facts := make(map[string]string, len(obj))
	for key, value := range obj {
		s, ok := factValue(value)
		if !ok {
			continue
		}
		canon, aliased := canonicalKey(key)
		if _, exists := facts[canon]; exists && aliased {
			continue
		}
		facts[canon] = s
	}
	return facts, nil
}

// canonicalKey lowercases key and resolves aliases. A canonical spelling
// beats an alias when a model reports both.
func canonicalKey(key string) (string, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if canon, ok := factAliases[key]; ok {
		return canon, true
	}
	return key, false
}

// factValue flattens a JSON value to a string. Empty and null values are
// dropped; lists (e.g. of parties) are joined.
func factValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "unknown") {
			return "", false
		}
		return s, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := factValue(item); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, "; "), true
	default:
		return "", false
	}
}

// truncateMiddle keeps the head and tail of long contracts; parties and
// dates sit in the preamble, term and signature blocks at the end.
func truncateMiddle(text string, maxChars int) string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return text
	}
	head := maxChars * 2 / 3
	tail := maxChars - head
	return string(runes[:head]) + "\n...\n" + string(runes[len(runes)-tail:])
}
