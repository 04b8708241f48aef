// Package agent assembles the routing core into a conversational service:
// classification, tier routing, model locking, context management, tools and
// persistence behind a single Ask entry point.
package agent

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	basetool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/jobscout-ai/jobscout/internal/agent/classifier"
	"github.com/jobscout-ai/jobscout/internal/agent/locker"
	"github.com/jobscout-ai/jobscout/internal/agent/memory"
	"github.com/jobscout-ai/jobscout/internal/agent/model"
	"github.com/jobscout-ai/jobscout/internal/agent/providers"
	"github.com/jobscout-ai/jobscout/internal/agent/router"
	"github.com/jobscout-ai/jobscout/internal/agent/tools"
	"github.com/jobscout-ai/jobscout/internal/agent/workflow"
	errx "github.com/jobscout-ai/jobscout/internal/core/error"
	"github.com/jobscout-ai/jobscout/internal/email"
	"github.com/jobscout-ai/jobscout/internal/track"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

//go:embed template/system_prompt.txt
var systemPrompt string

// Deps carries the external collaborators of the service. Zero-value fields
// fall back to in-process implementations.
type Deps struct {
	ConversationRepo model.ConversationRepository
	StickyStore      model.StickyStore
	Mailbox          email.Provider
	Tracker          track.Tracker
	Documents        tools.DocumentIndex
}

// Service is the conversational agent.
type Service struct {
	cfg    model.Config
	runner workflow.Runner
	repo   model.ConversationRepository
	locker *locker.Manager
	pool   *providers.Pool
}

// NewService wires the full agent from config and dependencies.
func NewService(ctx context.Context, cfg model.Config, deps Deps) (*Service, error) {
	pool, err := providers.NewPool(cfg.Local, cfg.Remote)
	if err != nil {
		return nil, fmt.Errorf("provider pool: %w", err)
	}

	var sticky model.StickyStore
	if cfg.Routing.StickyModel {
		sticky = deps.StickyStore
	}
	lockMgr := locker.NewManager(pool, sticky, time.Duration(cfg.Routing.ProbeTimeoutSeconds)*time.Second)

	mem := memory.New(
		memory.Strategy(cfg.Memory.Strategy),
		cfg.Memory.MaxMessages,
		cfg.Memory.ReserveTokens,
		pool,
	)

	toolSet, err := buildTools(deps)
	if err != nil {
		return nil, err
	}

	runner, err := workflow.Build(ctx, workflow.Config{
		Classifier:    classifier.New(pool),
		Router:        router.New(cfg.Routing.PreferLocal),
		Locker:        lockMgr,
		Memory:        mem,
		Tools:         toolSet,
		MaxIterations: cfg.Agent.MaxIterations,
	})
	if err != nil {
		return nil, fmt.Errorf("build workflow: %w", err)
	}

	repo := deps.ConversationRepo
	if repo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}

	return &Service{
		cfg:    cfg,
		runner: runner,
		repo:   repo,
		locker: lockMgr,
		pool:   pool,
	}, nil
}

func buildTools(deps Deps) ([]basetool.BaseTool, error) {
	mailbox := deps.Mailbox
	if mailbox == nil {
		var err error
		if mailbox, err = email.New(email.KindMemory, email.Options{}); err != nil {
			return nil, fmt.Errorf("email provider: %w", err)
		}
	}
	tracker := deps.Tracker
	if tracker == nil {
		tracker = track.NewMemoryTracker()
	}
	documents := deps.Documents
	if documents == nil {
		documents = tools.NewMemoryDocumentIndex(tools.SampleDocuments())
	}
	return tools.New(tools.Deps{
		Mailbox:   mailbox,
		Tracker:   tracker,
		Documents: documents,
	}), nil
}

// Warmup probes both tiers concurrently so the first query does not pay the
// lock latency. Unreachable tiers are tolerated; routing handles them.
func (s *Service) Warmup(ctx context.Context) {
	var wg sync.WaitGroup
	for _, tier := range []model.Tier{model.TierLocal, model.TierRemote} {
		wg.Add(1)
		go func(t model.Tier) {
			defer wg.Done()
			if _, err := s.locker.EnsureLocked(ctx, t); err != nil {
				logx.Warn().Err(err).Str("tier", t.String()).Msg("Warmup lock failed")
				return
			}
			logx.Info().Str("tier", t.String()).Msg("Tier warmed up")
		}(tier)
	}
	wg.Wait()
}

// Ask runs one query in a conversation. Model failures end up inside the
// RunResult; the returned error covers persistence and input problems only.
func (s *Service) Ask(ctx context.Context, conversationID, query string, force model.Tier) (*model.RunResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if force == "" {
		force = model.Tier(s.cfg.Routing.ForceModel)
	}

	history, err := s.repo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	msgs := history.Messages
	if len(msgs) == 0 {
		msgs = []*schema.Message{schema.SystemMessage(systemPrompt)}
		if err := s.repo.AddMessage(ctx, conversationID, msgs[0]); err != nil {
			logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("Failed to persist system prompt")
		}
	}

	result := s.runner.Run(ctx, model.QueryInput{
		ConversationID: conversationID,
		Query:          query,
		ForceModel:     force,
		History:        msgs,
	})

	if err := s.repo.AddMessage(ctx, conversationID, schema.UserMessage(query)); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to persist user message")
	}
	if !result.Failed() {
		reply := result.FinalResponse()
		if err := s.repo.AddMessage(ctx, conversationID, schema.AssistantMessage(reply, nil)); err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to persist assistant message")
		}
	}
	return result, nil
}

// ClearConversation drops a conversation's history and reports how many
// messages were discarded.
func (s *Service) ClearConversation(ctx context.Context, conversationID string) (int, error) {
	n, err := s.repo.GetMessageCount(ctx, conversationID)
	if err != nil {
		return 0, errx.Internal(err)
	}
	if err := s.repo.ClearHistory(ctx, conversationID); err != nil {
		return 0, errx.Internal(err)
	}
	logx.Info().Str("conversation_id", conversationID).Int("messages", n).Msg("Conversation cleared")
	return n, nil
}

// TierStatus describes one tier for Status.
type TierStatus struct {
	Locked     bool   `json:"locked"`
	ModelID    string `json:"model_id,omitempty"`
	Candidates int    `json:"candidates"`
}

// Status is a point-in-time snapshot of the service. It reads existing lock
// state without probing, so it is cheap and side-effect free.
type Status struct {
	Local  TierStatus `json:"local"`
	Remote TierStatus `json:"remote"`
}

// Status reports the current lock state of both tiers.
func (s *Service) Status() Status {
	return Status{
		Local:  s.tierStatus(model.TierLocal),
		Remote: s.tierStatus(model.TierRemote),
	}
}

func (s *Service) tierStatus(tier model.Tier) TierStatus {
	st := TierStatus{Candidates: len(s.pool.Candidates(tier))}
	if lm, err := s.locker.Model(tier); err == nil {
		st.Locked = true
		st.ModelID = lm.Descriptor.ID
	}
	return st
}
