// Package classifier estimates query complexity, tool needs and output size
// before routing. It prefers a small LLM with structured JSON output and
// degrades to keyword heuristics when that model is unreachable or returns
// garbage. Classification itself never fails a run.
package classifier

import (
	"context"
	_ "embed"
	"encoding/json"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/jobscout-ai/jobscout/internal/agent/model"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

//go:embed template/classify_prompt.txt
var classifyPrompt string

// ModelSource provides the small classifier chat model. The source may fail
// (e.g. local runtime down); the classifier treats that as a heuristic signal,
// not an error.
type ModelSource interface {
	ClassifierModel(ctx context.Context) (einomodel.BaseChatModel, error)
}

// Classifier turns raw queries into Classifications.
type Classifier struct {
	source ModelSource
}

// New creates a Classifier. source may be nil, in which case every call uses
// the heuristic path.
func New(source ModelSource) *Classifier {
	return &Classifier{source: source}
}

// Classify analyzes a query. It always returns a usable Classification.
func (c *Classifier) Classify(ctx context.Context, query string) *model.Classification {
	if c.source == nil {
		return Heuristic(query)
	}

	cm, err := c.source.ClassifierModel(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("Classifier model unavailable, using heuristic")
		return Heuristic(query)
	}

	prompt := strings.ReplaceAll(classifyPrompt, "{query}", query)
	out, err := cm.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		logx.Warn().Err(err).Msg("Classifier generation failed, using heuristic")
		return Heuristic(query)
	}

	cls, err := parseClassification(out.Content)
	if err != nil {
		logx.Warn().Err(err).Str("content", out.Content).Msg("Classifier output unparseable, using heuristic")
		return Heuristic(query)
	}

	// The model decides complexity; tool detection stays keyword based so a
	// small model cannot silently disable the tool loop.
	if !cls.RequiresTools {
		cls.RequiresTools = containsAny(strings.ToLower(query), toolKeywords)
	}
	return cls
}

func parseClassification(content string) (*model.Classification, error) {
	// Models wrap JSON in fences or prose despite instructions. Take the
	// outermost object.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, errNoJSON
	}

	var cls model.Classification
	if err := json.Unmarshal([]byte(content[start:end+1]), &cls); err != nil {
		return nil, err
	}
	if !cls.Complexity.Valid() {
		return nil, errBadComplexity
	}
	if cls.EstimatedTokens <= 0 {
		cls.EstimatedTokens = 200
	}
	return &cls, nil
}
