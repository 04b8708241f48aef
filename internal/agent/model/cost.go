package model

import (
	"github.com/cloudwego/eino/schema"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides hardcoded USD pricing per 1M text tokens for the
// remote candidates. Local models run free of charge and resolve to zero.
var defaultPricing = map[string]Pricing{
	"deepseek/deepseek-chat":            {InputPerM: 0.27, OutputPerM: 1.10},
	"google/gemini-2.0-flash-exp:free":  {InputPerM: 0, OutputPerM: 0},
	"meta-llama/llama-3.3-70b-instruct": {InputPerM: 0.12, OutputPerM: 0.30},
	"anthropic/claude-3.5-haiku":        {InputPerM: 0.80, OutputPerM: 4.00},
	"moonshotai/kimi-k2":                {InputPerM: 0.55, OutputPerM: 2.20},
}

// CostEnabled returns whether to compute/log cost.
func CostEnabled() bool {
	// always enable cost computation.
	return true
}

// ResolvePricing returns hardcoded pricing for a model.
func ResolvePricing(model string) Pricing {
	var p Pricing
	var ok bool
	if p, ok = defaultPricing[model]; !ok {
		// fallback to zero pricing if unknown
		p = Pricing{}
	}
	return p
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}
