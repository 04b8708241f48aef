package workflow

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/jobscout-ai/jobscout/internal/agent/locker"
	"github.com/jobscout-ai/jobscout/internal/agent/memory"
	"github.com/jobscout-ai/jobscout/internal/agent/model"
	"github.com/jobscout-ai/jobscout/internal/agent/router"
	"github.com/jobscout-ai/jobscout/internal/agent/tools"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

// Node names.
const (
	NodeClassify = "classify"
	NodeRoute    = "route"
	NodeAgent    = "agent"
	NodeTools    = "tools"
	NodeFinish   = "finish"
)

// NewClassifyPreHandler seeds run state from the input before classification.
func NewClassifyPreHandler() func(context.Context, model.QueryInput, *model.AgentState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AgentState) (model.QueryInput, error) {
		s.ConversationID = in.ConversationID
		s.Query = in.Query
		s.History = append(s.History, in.History...)
		s.ForceModel = in.ForceModel
		s.RetryCount = 0
		s.RemoteEscalations = 0
		s.ToolCallsMade = 0
		s.ToolLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewClassifyNode classifies the query and emits the user message that the
// agent loop will carry forward.
func (b *Builder) NewClassifyNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) (*schema.Message, error) {
		cls := b.classifier.Classify(ctx, input.Query)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AgentState) error {
			s.Classification = cls
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		logx.Debug().
			Str("complexity", string(cls.Complexity)).
			Bool("requires_tools", cls.RequiresTools).
			Int("estimated_tokens", cls.EstimatedTokens).
			Str("reasoning", cls.Reasoning).
			Msg("Query classified")
		return schema.UserMessage(input.Query), nil
	})
}

// NewRouteNode selects and locks the serving tier. On a fresh query it applies
// the routing rules; after a failure it applies the retry ladder instead.
func (b *Builder) NewRouteNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input *schema.Message) (*schema.Message, error) {
		return input, compose.ProcessState(ctx, func(ctx context.Context, s *model.AgentState) error {
			if s.LastError == nil {
				return b.routeFresh(ctx, s)
			}
			return b.routeRetry(ctx, s)
		})
	})
}

func (b *Builder) routeFresh(ctx context.Context, s *model.AgentState) error {
	avail := b.availability(ctx)
	if !avail.Local && !avail.Remote {
		s.Fatal = true
		s.LastError = fmt.Errorf("no model available in any tier")
		return nil
	}

	tier := b.router.Route(s.Classification, memory.EstimateTokens(s.History), s.ForceModel, avail)
	// Transient failures from earlier queries must not shrink this query's
	// candidate pool.
	b.locker.ResetEpisode(tier)

	if _, err := b.locker.EnsureLocked(ctx, tier); err != nil {
		other := tier.Other()
		logx.Warn().Err(err).Str("tier", tier.String()).Msg("Tier lock failed, trying other tier")
		if _, err2 := b.locker.EnsureLocked(ctx, other); err2 != nil {
			s.Fatal = true
			s.LastError = fmt.Errorf("no model available: %v; %v", err, err2)
			return nil
		}
		tier = other
	}
	s.Tier = tier
	return nil
}

// routeRetry advances the failure ladder: cycle remote candidates up to the
// escalation cap, fall back to local when remote is exhausted, escalate local
// failures to remote when it is reachable.
func (b *Builder) routeRetry(ctx context.Context, s *model.AgentState) error {
	logx.Info().
		Err(s.LastError).
		Str("tier", s.Tier.String()).
		Int("retry_count", s.RetryCount).
		Msg("Retrying after model failure")

	b.locker.Unlock(s.Tier)

	if s.Tier == model.TierRemote {
		if s.RemoteEscalations < maxRemoteEscalations {
			if _, err := b.locker.Relock(ctx, model.TierRemote); err == nil {
				s.RemoteEscalations++
				s.LastError = nil
				return nil
			}
		}
		// Remote is out of candidates; local is the last resort.
		b.locker.ResetEpisode(model.TierLocal)
		if _, err := b.locker.EnsureLocked(ctx, model.TierLocal); err != nil {
			s.Fatal = true
			s.LastError = fmt.Errorf("all tiers exhausted: %w", err)
			return nil
		}
		s.Tier = model.TierLocal
		s.LastError = nil
		return nil
	}

	next := router.ShouldEscalate(s.Tier, b.availability(ctx))
	if _, err := b.locker.EnsureLocked(ctx, next); err != nil {
		s.Fatal = true
		s.LastError = fmt.Errorf("all tiers exhausted: %w", err)
		return nil
	}
	s.Tier = next
	s.LastError = nil
	return nil
}

// NewAgentNode invokes the locked model over the managed history. Invocation
// errors are captured into state for the retry branch, never returned.
func (b *Builder) NewAgentNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input *schema.Message) (*schema.Message, error) {
		var (
			lm       *locker.LockedModel
			messages []*schema.Message
			fatal    bool
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AgentState) error {
			if s.Fatal {
				fatal = true
				return nil
			}
			var err error
			lm, err = b.locker.Model(s.Tier)
			if err != nil {
				return fmt.Errorf("tier %s: %w", s.Tier, err)
			}
			if input != nil && input.Role == schema.User && !containsMessage(s.History, input) {
				s.History = append(s.History, input)
			}
			if s.ToolLimitReached && !hasWrapUpNotice(s.History) {
				s.History = append(s.History, wrapUpNotice(b.maxIterations))
			}
			messages = b.memory.ManageContext(ctx, s.History, lm.Descriptor.ID)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		if fatal {
			return input, nil
		}

		cm := einomodel.BaseChatModel(lm.Model)
		if len(b.toolInfos) > 0 {
			bound, bindErr := lm.Model.WithTools(b.toolInfos)
			if bindErr != nil {
				return nil, fmt.Errorf("bind tools to %s: %w", lm.Descriptor.ID, bindErr)
			}
			cm = bound
		}

		logx.Debug().Str("model", lm.Descriptor.ID).Msg("AI thinking...")
		out, genErr := cm.Generate(ctx, messages)

		stateErr := compose.ProcessState(ctx, func(_ context.Context, s *model.AgentState) error {
			if genErr != nil {
				s.LastError = genErr
				s.RetryCount++
				return nil
			}
			s.LastError = nil
			s.ModelUsed = lm.Descriptor.ID
			b.locker.ResetEpisode(s.Tier)
			b.recordUsage(s, lm.Descriptor.ID, out)
			normalizeToolCallIDs(s, out)
			s.History = append(s.History, out)
			return nil
		})
		if stateErr != nil {
			return nil, fmt.Errorf("failed to access state: %w", stateErr)
		}
		if genErr != nil {
			logx.Warn().Err(genErr).Str("model", lm.Descriptor.ID).Msg("Model invocation failed")
			return input, nil
		}
		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}
		return out, nil
	})
}

// NewToolsNode executes the requested tool calls and appends the results.
func (b *Builder) NewToolsNode(executor *tools.Executor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input *schema.Message) (*schema.Message, error) {
		results, err := executor.Execute(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("tool execution: %w", err)
		}

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.AgentState) error {
			s.ToolCallsMade += len(input.ToolCalls)
			s.History = append(s.History, results...)
			if s.ToolCallsMade >= b.maxIterations {
				s.ToolLimitReached = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return results[len(results)-1], nil
	})
}

// NewFinishNode assembles the terminal RunResult from state.
func (b *Builder) NewFinishNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input *schema.Message) (*model.RunResult, error) {
		result := &model.RunResult{}
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AgentState) error {
			result.Messages = s.History
			result.ModelUsed = s.ModelUsed
			result.ToolCallsMade = s.ToolCallsMade
			result.TotalCostUSD = s.TotalCostUSD
			if s.Fatal && s.LastError != nil {
				result.Error = s.LastError.Error()
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return result, nil
	})
}

// NewAgentCondition routes the agent output: retry after failure, tools when
// requested and within budget, otherwise finish.
func (b *Builder) NewAgentCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var (
			failed       bool
			fatal        bool
			retryCount   int
			limitReached bool
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AgentState) error {
			failed = s.LastError != nil
			fatal = s.Fatal
			retryCount = s.RetryCount
			limitReached = s.ToolLimitReached
			if failed && !fatal && retryCount >= b.maxIterations/2 {
				s.Fatal = true
				fatal = true
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		if fatal {
			logx.Error().Int("retry_count", retryCount).Msg("Run terminated with error")
			return NodeFinish, nil
		}
		if failed {
			return NodeRoute, nil
		}
		if input != nil && len(input.ToolCalls) > 0 {
			if limitReached {
				// The model ignored the wrap-up notice; end anyway.
				logx.Warn().Msg("Tool limit reached, ending run")
				return NodeFinish, nil
			}
			return NodeTools, nil
		}
		return NodeFinish, nil
	}
}

// availability probes both tiers through the lock manager.
func (b *Builder) availability(ctx context.Context) router.Availability {
	return router.Availability{
		Local:  b.locker.Available(ctx, model.TierLocal),
		Remote: b.locker.Available(ctx, model.TierRemote),
	}
}

func (b *Builder) recordUsage(s *model.AgentState, modelID string, out *schema.Message) {
	if !model.CostEnabled() || out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelID)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
	logx.Debug().
		Str("conversation_id", s.ConversationID).
		Str("model", modelID).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
	s.TotalCostUSD += totalC
}

// normalizeToolCallIDs fills in tool call ids some providers omit.
func normalizeToolCallIDs(s *model.AgentState, out *schema.Message) {
	if out == nil {
		return
	}
	for i := range out.ToolCalls {
		if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
			s.ToolCallIDSeq++
			out.ToolCalls[i].ID = fmt.Sprintf("call_%d", s.ToolCallIDSeq)
		}
	}
}

func wrapUpNotice(max int) *schema.Message {
	return schema.SystemMessage(fmt.Sprintf(
		"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
			"Please synthesize a helpful response using the information you've already gathered. "+
			"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
		max,
	))
}

func hasWrapUpNotice(history []*schema.Message) bool {
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m != nil && m.Role == schema.System && strings.HasPrefix(m.Content, "SYSTEM NOTICE:") {
			return true
		}
	}
	return false
}

func containsMessage(history []*schema.Message, msg *schema.Message) bool {
	for _, m := range history {
		if m == msg {
			return true
		}
	}
	return false
}
