package classifier

import (
	"strings"

	"github.com/jobscout-ai/jobscout/internal/agent/model"
)

var (
	simpleKeywords = []string{"hello", "hi", "hey", "what is", "define", "who is", "when was"}

	draftKeywords = []string{"draft", "write", "compose", "cover letter", "application"}

	analysisKeywords = []string{"analyze", "explain in detail", "compare", "evaluate", "research"}

	toolKeywords = []string{"search", "find", "look up", "browse", "email", "job", "document", "file"}
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Heuristic classifies a query with keyword rules alone. It is the fallback
// path when no classifier model is reachable, and it never fails.
func Heuristic(query string) *model.Classification {
	lower := strings.ToLower(query)
	wordCount := len(strings.Fields(query))

	requiresTools := containsAny(lower, toolKeywords)

	switch {
	case containsAny(lower, simpleKeywords) && wordCount < 10:
		return &model.Classification{
			Complexity:      model.ComplexitySimple,
			Reasoning:       "Short greeting or factual query",
			RequiresTools:   requiresTools,
			EstimatedTokens: 50,
		}
	case containsAny(lower, draftKeywords):
		return &model.Classification{
			Complexity:      model.ComplexityComplex,
			Reasoning:       "Drafting or composition task",
			RequiresTools:   requiresTools,
			EstimatedTokens: 600,
		}
	case wordCount > 50 || containsAny(lower, analysisKeywords):
		return &model.Classification{
			Complexity:      model.ComplexityComplex,
			Reasoning:       "Long or analytical query",
			RequiresTools:   requiresTools,
			EstimatedTokens: 800,
		}
	default:
		return &model.Classification{
			Complexity:      model.ComplexityMedium,
			Reasoning:       "Standard query",
			RequiresTools:   requiresTools,
			EstimatedTokens: 200,
		}
	}
}
