package model

// Complexity is the classifier's task complexity level.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Valid reports whether the complexity is one of the known levels.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		return true
	}
	return false
}

// Classification is the classifier output for one query. It is created fresh
// per query, never mutated, and consumed once by the router.
type Classification struct {
	Complexity      Complexity `json:"complexity"`
	Reasoning       string     `json:"reasoning"`
	RequiresTools   bool       `json:"requires_tools"`
	EstimatedTokens int        `json:"estimated_tokens"`
}
