package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/classifier.txt
var classifierRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier string
}

// LoadPromptSet returns the embedded prompts, trimmed. Safe for
// concurrent use; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
	}
}
