package providers

import "fmt"

// Kind selects the remote backend variant.
type Kind string

const (
	KindOpenRouter Kind = "openrouter"
	KindMoonshot   Kind = "moonshot"
	KindGroq       Kind = "groq"
	KindGemini     Kind = "gemini"
)

// defaultBaseURLs maps OpenAI-compatible kinds to their API endpoints.
var defaultBaseURLs = map[Kind]string{
	KindOpenRouter: "https://openrouter.ai/api/v1",
	KindMoonshot:   "https://api.moonshot.ai/v1",
	KindGroq:       "https://api.groq.com/openai/v1",
}

// ParseKind validates a remote provider name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindOpenRouter, KindMoonshot, KindGroq, KindGemini:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown remote provider %q", s)
}
