// Package memory keeps conversation history inside each model's context
// window. Trimming is deterministic and idempotent: system messages always
// survive in their original order, and running the manager over its own
// output changes nothing.
package memory

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/jobscout-ai/jobscout/internal/agent/model"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

// Strategy names a context-management approach. Only sliding window is
// implemented; the others degrade to it with a warning.
type Strategy string

const (
	StrategySlidingWindow Strategy = "sliding_window"
	StrategySummarize     Strategy = "summarize"
	StrategyHybrid        Strategy = "hybrid"
)

// toolCallTokens is the flat token charge per tool call entry on a message.
const toolCallTokens = 50

// tokenFudge inflates the word count to approximate tokenization overhead.
const tokenFudge = 1.3

// CandidateSource resolves a model id to its configured limits.
type CandidateSource interface {
	Candidates(tier model.Tier) []model.ModelDescriptor
}

// Manager trims histories to fit a model's usable context budget.
type Manager struct {
	strategy      Strategy
	maxMessages   int
	reserveTokens int
	source        CandidateSource

	warnedStrategy bool
}

// New creates a Manager. source may be nil, in which case every model resolves
// to the default limits.
func New(strategy Strategy, maxMessages, reserveTokens int, source CandidateSource) *Manager {
	return &Manager{
		strategy:      strategy,
		maxMessages:   maxMessages,
		reserveTokens: reserveTokens,
		source:        source,
	}
}

// EstimateTokens approximates the token footprint of a message list. It is
// monotonic: adding a message never lowers the estimate.
func EstimateTokens(messages []*schema.Message) int {
	words, toolCalls := messageUnits(messages)
	return estimate(words, toolCalls)
}

func messageUnits(messages []*schema.Message) (words, toolCalls int) {
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		words += len(strings.Fields(msg.Content))
		toolCalls += len(msg.ToolCalls)
	}
	return
}

func estimate(words, toolCalls int) int {
	return int(float64(words+toolCalls*toolCallTokens) * tokenFudge)
}

// ManageContext returns a history that fits modelID's budget. The input slice
// is never mutated.
func (m *Manager) ManageContext(ctx context.Context, messages []*schema.Message, modelID string) []*schema.Message {
	switch m.strategy {
	case StrategySlidingWindow:
	case StrategySummarize, StrategyHybrid:
		if !m.warnedStrategy {
			logx.Warn().Str("strategy", string(m.strategy)).Msg("Strategy not implemented, degrading to sliding window")
			m.warnedStrategy = true
		}
	default:
		if !m.warnedStrategy {
			logx.Warn().Str("strategy", string(m.strategy)).Msg("Unknown strategy, degrading to sliding window")
			m.warnedStrategy = true
		}
	}

	out := messages
	if m.maxMessages > 0 && nonSystemCount(out) > m.maxMessages {
		out = slidingWindowByCount(out, m.maxMessages)
	}

	budget := m.tokenBudget(modelID)
	if EstimateTokens(out) <= budget {
		return out
	}
	trimmed := slidingWindowByTokens(out, budget)
	logx.Debug().
		Str("model", modelID).
		Int("budget", budget).
		Int("before", len(out)).
		Int("after", len(trimmed)).
		Msg("Trimmed history to context budget")
	return trimmed
}

// tokenBudget computes the usable input budget for a model: its context
// window minus its output allowance minus the configured reserve.
func (m *Manager) tokenBudget(modelID string) int {
	contextWindow := model.DefaultContextWindow
	maxOutput := model.DefaultMaxOutputTokens
	if desc, ok := m.lookup(modelID); ok {
		contextWindow = desc.ContextWindow
		maxOutput = desc.MaxOutputTokens
	}
	budget := contextWindow - maxOutput - m.reserveTokens
	if budget < 0 {
		budget = 0
	}
	return budget
}

func (m *Manager) lookup(modelID string) (model.ModelDescriptor, bool) {
	if m.source == nil || modelID == "" {
		return model.ModelDescriptor{}, false
	}
	for _, tier := range []model.Tier{model.TierLocal, model.TierRemote} {
		if desc, ok := model.FindDescriptor(m.source.Candidates(tier), modelID); ok {
			return desc, true
		}
	}
	return model.ModelDescriptor{}, false
}

func nonSystemCount(messages []*schema.Message) int {
	n := 0
	for _, msg := range messages {
		if msg != nil && msg.Role != schema.System {
			n++
		}
	}
	return n
}

// slidingWindowByCount keeps every system message plus the most recent max
// non-system messages, all in original order. System messages never count
// against the cap.
func slidingWindowByCount(messages []*schema.Message, max int) []*schema.Message {
	// Index of the first non-system message to keep.
	cutoff := len(messages)
	seen := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i] == nil || messages[i].Role == schema.System {
			continue
		}
		seen++
		if seen > max {
			break
		}
		cutoff = i
	}

	out := make([]*schema.Message, 0, len(messages))
	for i, msg := range messages {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System || i >= cutoff {
			out = append(out, msg)
		}
	}
	return out
}

// slidingWindowByTokens drops the oldest non-system messages until the
// estimate fits the budget. System messages are unconditional; a history of
// system messages alone is returned even when it exceeds the budget.
func slidingWindowByTokens(messages []*schema.Message, budget int) []*schema.Message {
	var system []*schema.Message
	var rest []*schema.Message
	restIdx := make([]int, 0, len(messages))
	for i, msg := range messages {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System {
			system = append(system, msg)
		} else {
			rest = append(rest, msg)
			restIdx = append(restIdx, i)
		}
	}

	// Walk recent-first, keeping non-system messages while they fit. Words
	// and tool calls are accumulated raw so the running estimate equals the
	// joint EstimateTokens of the kept set.
	words, toolCalls := messageUnits(system)
	keep := make(map[int]bool, len(rest))
	for i := len(rest) - 1; i >= 0; i-- {
		w, tc := messageUnits([]*schema.Message{rest[i]})
		if estimate(words+w, toolCalls+tc) > budget {
			break
		}
		words += w
		toolCalls += tc
		keep[restIdx[i]] = true
	}

	out := make([]*schema.Message, 0, len(system)+len(keep))
	for i, msg := range messages {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System || keep[i] {
			out = append(out, msg)
		}
	}
	return out
}
