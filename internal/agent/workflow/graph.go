// Package workflow composes the agent graph: classify, route, invoke, run
// tools, retry on failure, finish. The graph owns the retry loop; a run never
// surfaces an error to its caller, failures terminate into the RunResult.
package workflow

import (
	"context"
	"fmt"

	basetool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/jobscout-ai/jobscout/internal/agent/classifier"
	"github.com/jobscout-ai/jobscout/internal/agent/locker"
	"github.com/jobscout-ai/jobscout/internal/agent/model"
	"github.com/jobscout-ai/jobscout/internal/agent/router"
	"github.com/jobscout-ai/jobscout/internal/agent/tools"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

// maxRemoteEscalations caps how many remote candidates one failure episode
// may cycle through before falling back to local.
const maxRemoteEscalations = 3

// Runner executes the compiled graph for one query.
type Runner interface {
	Run(ctx context.Context, in model.QueryInput) *model.RunResult
}

// LockManager is the slice of the lock manager the graph depends on.
type LockManager interface {
	Model(tier model.Tier) (*locker.LockedModel, error)
	EnsureLocked(ctx context.Context, tier model.Tier) (*locker.LockedModel, error)
	Unlock(tier model.Tier)
	Relock(ctx context.Context, tier model.Tier) (*locker.LockedModel, error)
	ResetEpisode(tier model.Tier)
	Available(ctx context.Context, tier model.Tier) bool
}

// ContextManager trims histories to a model's budget.
type ContextManager interface {
	ManageContext(ctx context.Context, messages []*schema.Message, modelID string) []*schema.Message
}

// Config holds everything needed to compose the agent graph.
type Config struct {
	Classifier    *classifier.Classifier
	Router        *router.Router
	Locker        LockManager
	Memory        ContextManager
	Tools         []basetool.BaseTool
	MaxIterations int
}

// Builder constructs the agent graph from its collaborators.
type Builder struct {
	classifier    *classifier.Classifier
	router        *router.Router
	locker        LockManager
	memory        ContextManager
	toolInfos     []*schema.ToolInfo
	maxIterations int

	graph *compose.Graph[model.QueryInput, *model.RunResult]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *model.RunResult]
}

func (r *graphRunner) Run(ctx context.Context, in model.QueryInput) *model.RunResult {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(NewAllCallbacks()))
	if err != nil {
		// Graph-level failures (compile limits, state access) still end in a
		// result, same as model failures.
		logx.Error().Err(err).Str("conversation_id", in.ConversationID).Msg("Graph run failed")
		return &model.RunResult{Error: err.Error()}
	}
	if out == nil {
		return &model.RunResult{Error: "empty graph output"}
	}
	return out
}

// Build compiles the agent graph into a Runner.
func Build(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Classifier == nil || cfg.Router == nil || cfg.Locker == nil || cfg.Memory == nil {
		return nil, fmt.Errorf("graph config is incomplete")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}

	toolInfos, err := tools.GetToolInfos(ctx, cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool infos: %w", err)
	}
	executor, err := tools.NewExecutor(ctx, cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool executor: %w", err)
	}

	b := &Builder{
		classifier:    cfg.Classifier,
		router:        cfg.Router,
		locker:        cfg.Locker,
		memory:        cfg.Memory,
		toolInfos:     toolInfos,
		maxIterations: cfg.MaxIterations,
		graph: compose.NewGraph[model.QueryInput, *model.RunResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.AgentState {
				return &model.AgentState{}
			}),
		),
	}

	b.addNodes(executor)
	b.addEdges()
	if err := b.addBranches(); err != nil {
		return nil, err
	}
	return b.compile(ctx)
}

func (b *Builder) addNodes(executor *tools.Executor) {
	b.graph.AddLambdaNode(NodeClassify, b.NewClassifyNode(),
		compose.WithStatePreHandler(NewClassifyPreHandler()),
	)
	b.graph.AddLambdaNode(NodeRoute, b.NewRouteNode())
	b.graph.AddLambdaNode(NodeAgent, b.NewAgentNode())
	b.graph.AddLambdaNode(NodeTools, b.NewToolsNode(executor))
	b.graph.AddLambdaNode(NodeFinish, b.NewFinishNode())
}

func (b *Builder) addEdges() {
	edges := [][2]string{
		{compose.START, NodeClassify},
		{NodeClassify, NodeRoute},
		{NodeRoute, NodeAgent},
		{NodeTools, NodeAgent},
		{NodeFinish, compose.END},
	}
	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

func (b *Builder) addBranches() error {
	agentBranch := compose.NewGraphBranch(
		b.NewAgentCondition(),
		map[string]bool{
			NodeTools:  true,
			NodeRoute:  true,
			NodeFinish: true,
		},
	)
	if err := b.graph.AddBranch(NodeAgent, agentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding agent branch")
		return fmt.Errorf("error adding agent branch: %w", err)
	}
	return nil
}

func (b *Builder) compile(ctx context.Context) (Runner, error) {
	// Worst case per iteration: agent plus either a tool round or a reroute.
	maxSteps := 10 + b.maxIterations*3
	if maxSteps < 20 {
		maxSteps = 20
	}
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	logx.Debug().Msg("Agent graph compiled successfully")
	return &graphRunner{runnable: runnable}, nil
}
