package services

// stopWords are English function words and interrogatives dropped from
// queries before keyword matching. Tokens of two runes or fewer are dropped
// separately, so short words need not be listed.
var stopWords = map[string]struct{}{
	// interrogatives
	"what": {}, "which": {}, "who": {}, "whom": {}, "whose": {}, "where": {},
	"when": {}, "why": {}, "how": {}, "whether": {}, "whatever": {}, "whichever": {},

	// articles, determiners and pronouns
	"the": {}, "this": {}, "that": {}, "these": {}, "those": {}, "any": {},
	"all": {}, "each": {}, "every": {}, "some": {}, "such": {}, "both": {},
	"either": {}, "neither": {}, "own": {}, "other": {}, "another": {},
	"you": {}, "your": {}, "yours": {}, "they": {}, "them": {}, "their": {},
	"theirs": {}, "she": {}, "her": {}, "hers": {}, "him": {}, "his": {},
	"its": {}, "our": {}, "ours": {}, "mine": {}, "myself": {}, "yourself": {},
	"itself": {}, "themselves": {}, "ourselves": {},

	// auxiliaries and modals
	"are": {}, "was": {}, "were": {}, "been": {}, "being": {}, "have": {},
	"has": {}, "had": {}, "having": {}, "does": {}, "did": {}, "doing": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "shall": {}, "should": {},
	"may": {}, "might": {}, "must": {},

	// prepositions and conjunctions
	"and": {}, "but": {}, "for": {}, "nor": {}, "yet": {}, "with": {},
	"from": {}, "into": {}, "onto": {}, "upon": {}, "about": {}, "above": {},
	"below": {}, "over": {}, "under": {}, "between": {}, "among": {},
	"through": {}, "during": {}, "before": {}, "after": {}, "against": {},
	"within": {}, "without": {}, "than": {}, "then": {}, "because": {},
	"while": {}, "until": {}, "unless": {}, "although": {}, "though": {},
	"also": {}, "just": {}, "only": {}, "very": {}, "too": {}, "not": {},
	"there": {}, "here": {}, "out": {}, "off": {}, "again": {}, "further": {},
	"once": {}, "more": {}, "most": {}, "few": {}, "same": {}, "via": {},

	// conversational filler common in questions
	"please": {}, "tell": {}, "show": {}, "give": {}, "find": {}, "list": {},
	"doesn": {}, "don": {}, "isn": {}, "aren": {}, "wasn": {},
}

// isStopWord reports whether a lowercased token is a stop word.
func isStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
