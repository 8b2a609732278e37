package tokenizer

import (
	"fmt"
	"strings"
	"sync"
)

// Tokenizer counts tokens for a model family.
type Tokenizer interface {
	// CountTokens returns the token count for the given text.
	CountTokens(text string) (int, error)

	// CountMessages returns the total token count for a message list,
	// including per-message overhead (role markers, separators).
	CountMessages(messages []Message) (int, error)

	// Encode converts text to a token ID list.
	Encode(text string) ([]int, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int) (string, error)

	// MaxTokens returns the model's maximum context length.
	MaxTokens() int

	// Name identifies the tokenizer.
	Name() string
}

// Message is a lightweight message view used by this package to avoid
// a cycle with the llm package.
type Message struct {
	Role    string
	Content string
}

var (
	modelTokenizers   = make(map[string]Tokenizer)
	modelTokenizersMu sync.RWMutex
)

// RegisterTokenizer registers a tokenizer for the given model name.
// The name also acts as a prefix for versioned variants.
func RegisterTokenizer(model string, t Tokenizer) {
	modelTokenizersMu.Lock()
	defer modelTokenizersMu.Unlock()
	modelTokenizers[model] = t
}

// GetTokenizer resolves the tokenizer for a model name. Exact matches
// win; otherwise the longest registered prefix does, so "gpt-4o-mini"
// beats "gpt-4o" for a "gpt-4o-mini-2024-07-18" request. Router-style
// IDs with a vendor segment ("openai/gpt-4o") are retried on the part
// after the last slash.
func GetTokenizer(model string) (Tokenizer, error) {
	modelTokenizersMu.RLock()
	defer modelTokenizersMu.RUnlock()

	if t, ok := lookupLocked(model); ok {
		return t, nil
	}
	if i := strings.LastIndex(model, "/"); i >= 0 {
		if t, ok := lookupLocked(model[i+1:]); ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no tokenizer registered for model: %s", model)
}

func lookupLocked(model string) (Tokenizer, bool) {
	if t, ok := modelTokenizers[model]; ok {
		return t, true
	}

	var best Tokenizer
	bestLen := -1
	for prefix, t := range modelTokenizers {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen = t, len(prefix)
		}
	}
	return best, best != nil
}

// GetTokenizerOrEstimator resolves the registered tokenizer for the
// model, falling back to the generic estimator when none is known.
func GetTokenizerOrEstimator(model string) Tokenizer {
	t, err := GetTokenizer(model)
	if err != nil {
		return NewEstimatorTokenizer(model, 0)
	}
	return t
}
