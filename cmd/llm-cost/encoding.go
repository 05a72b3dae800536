package main

import "strings"

// encodingForModel returns the tiktoken-compatible encoding a model
// family uses. Only OpenAI's own models enjoy bit-exact parity with
// the reference tokenizer (spec.md §1); other providers' token counts
// are necessarily an approximation, using the user's configured
// default vocabulary (internal/appconfig), since their own tokenizers
// are out of this tool's non-goals (spec.md §1).
func encodingForModel(model string) string {
	switch {
	case strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"),
		strings.HasPrefix(model, "gpt-5"):
		return "o200k_base"
	case strings.HasPrefix(model, "gpt-4"),
		strings.HasPrefix(model, "gpt-3.5"):
		return "cl100k_base"
	default:
		if cfg.DefaultVocabulary != "" {
			return cfg.DefaultVocabulary
		}
		return "o200k_base"
	}
}
