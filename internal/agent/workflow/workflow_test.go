package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout-ai/jobscout/internal/agent/classifier"
	"github.com/jobscout-ai/jobscout/internal/agent/locker"
	"github.com/jobscout-ai/jobscout/internal/agent/memory"
	"github.com/jobscout-ai/jobscout/internal/agent/model"
	"github.com/jobscout-ai/jobscout/internal/agent/router"
	"github.com/jobscout-ai/jobscout/internal/agent/tools"
	"github.com/jobscout-ai/jobscout/internal/email"
	"github.com/jobscout-ai/jobscout/internal/track"
)

// scriptedModel replays a fixed sequence of generation outcomes.
type scriptedModel struct {
	mu    sync.Mutex
	id    string
	steps []step
	calls int
}

type step struct {
	msg *schema.Message
	err error
}

func reply(content string) step {
	return step{msg: schema.AssistantMessage(content, nil)}
}

func toolCall(name, args string) step {
	return step{msg: schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_1",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})}
}

func failure(msg string) step {
	return step{err: errors.New(msg)}
}

func (s *scriptedModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return nil, fmt.Errorf("model %s: script exhausted after %d calls", s.id, s.calls)
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	s.calls++
	return st.msg, st.err
}

func (s *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (s *scriptedModel) WithTools(infos []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return s, nil
}

// fakeLocker hands out one scripted model per tier without real probing.
type fakeLocker struct {
	mu        sync.Mutex
	models    map[model.Tier]*locker.LockedModel
	available map[model.Tier]bool
	locked    map[model.Tier]bool
	relocks   map[model.Tier]int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{
		models:    map[model.Tier]*locker.LockedModel{},
		available: map[model.Tier]bool{},
		locked:    map[model.Tier]bool{},
		relocks:   map[model.Tier]int{},
	}
}

func (f *fakeLocker) install(tier model.Tier, id string, steps ...step) *scriptedModel {
	cm := &scriptedModel{id: id, steps: steps}
	f.models[tier] = &locker.LockedModel{
		Descriptor: model.ModelDescriptor{ID: id, Tier: tier, ContextWindow: 65536, MaxOutputTokens: 4096},
		Model:      cm,
	}
	f.available[tier] = true
	return cm
}

func (f *fakeLocker) Model(tier model.Tier) (*locker.LockedModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.locked[tier] {
		return nil, locker.ErrNotLocked
	}
	return f.models[tier], nil
}

func (f *fakeLocker) EnsureLocked(ctx context.Context, tier model.Tier) (*locker.LockedModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available[tier] {
		return nil, &locker.ExhaustedError{Tier: tier}
	}
	f.locked[tier] = true
	return f.models[tier], nil
}

func (f *fakeLocker) Unlock(tier model.Tier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked[tier] = false
}

func (f *fakeLocker) Relock(ctx context.Context, tier model.Tier) (*locker.LockedModel, error) {
	f.mu.Lock()
	f.relocks[tier]++
	f.mu.Unlock()
	return f.EnsureLocked(ctx, tier)
}

func (f *fakeLocker) ResetEpisode(tier model.Tier) {}

func (f *fakeLocker) Available(ctx context.Context, tier model.Tier) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available[tier]
}

func buildTestRunner(t *testing.T, lk LockManager, maxIterations int) Runner {
	t.Helper()
	tracker := track.NewMemoryTracker()
	require.NoError(t, tracker.Add(context.Background(), track.Job{
		ID: "job-001", Company: "Nimbus Data", Title: "Senior Backend Engineer", Status: track.StatusApplied,
	}))

	runner, err := Build(context.Background(), Config{
		Classifier: classifier.New(nil),
		Router:     router.New(true),
		Locker:     lk,
		Memory:     memory.New(memory.StrategySlidingWindow, 20, 1000, nil),
		Tools: tools.New(tools.Deps{
			Mailbox:   email.NewMemoryProvider(email.SampleMessages()),
			Tracker:   tracker,
			Documents: tools.NewMemoryDocumentIndex(tools.SampleDocuments()),
		}),
		MaxIterations: maxIterations,
	})
	require.NoError(t, err)
	return runner
}

func TestRunSimpleQueryOnLocal(t *testing.T) {
	lk := newFakeLocker()
	local := lk.install(model.TierLocal, "llama3.1:8b", reply("Hi! How can I help with your job search?"))
	lk.install(model.TierRemote, "deepseek/deepseek-chat")

	runner := buildTestRunner(t, lk, 10)
	result := runner.Run(context.Background(), model.QueryInput{
		ConversationID: "c1",
		Query:          "hello",
	})

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, "llama3.1:8b", result.ModelUsed)
	assert.Equal(t, "Hi! How can I help with your job search?", result.FinalResponse())
	assert.Equal(t, 0, result.ToolCallsMade)
	assert.Equal(t, 1, local.calls)
}

func TestRunToolLoop(t *testing.T) {
	lk := newFakeLocker()
	lk.install(model.TierLocal, "llama3.1:8b",
		toolCall("list_jobs", `{}`),
		reply("You are tracking one application at Nimbus Data."),
	)
	lk.install(model.TierRemote, "deepseek/deepseek-chat")

	runner := buildTestRunner(t, lk, 10)
	result := runner.Run(context.Background(), model.QueryInput{
		ConversationID: "c1",
		Query:          "what jobs am I tracking",
	})

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, 1, result.ToolCallsMade)
	assert.Contains(t, result.FinalResponse(), "Nimbus Data")

	// history carries the tool round: user, assistant tool call, tool result, final
	var roles []schema.RoleType
	for _, m := range result.Messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []schema.RoleType{schema.User, schema.Assistant, schema.Tool, schema.Assistant}, roles)
}

func TestRunEscalatesLocalFailureToRemote(t *testing.T) {
	lk := newFakeLocker()
	lk.install(model.TierLocal, "llama3.1:8b", failure("connection reset"))
	lk.install(model.TierRemote, "deepseek/deepseek-chat", reply("Remote answer."))

	runner := buildTestRunner(t, lk, 10)
	result := runner.Run(context.Background(), model.QueryInput{
		ConversationID: "c1",
		Query:          "hello",
	})

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, "deepseek/deepseek-chat", result.ModelUsed)
	assert.Equal(t, "Remote answer.", result.FinalResponse())
}

func TestRunRemoteRetriesThenFallsBackToLocal(t *testing.T) {
	lk := newFakeLocker()
	lk.install(model.TierLocal, "llama3.1:8b", reply("Local fallback answer."))
	lk.install(model.TierRemote, "deepseek/deepseek-chat",
		failure("rate limited"),
		failure("rate limited"),
		failure("rate limited"),
		failure("rate limited"),
	)

	runner := buildTestRunner(t, lk, 10)
	result := runner.Run(context.Background(), model.QueryInput{
		ConversationID: "c1",
		Query:          "hello",
		ForceModel:     model.TierRemote,
	})

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, "llama3.1:8b", result.ModelUsed)
	assert.Equal(t, 3, lk.relocks[model.TierRemote], "remote cycles its escalation budget before falling back")
}

func TestRunTerminatesAfterRetryBudget(t *testing.T) {
	lk := newFakeLocker()
	lk.install(model.TierLocal, "llama3.1:8b",
		failure("oom"),
		failure("oom"),
		failure("oom"),
	)
	// remote never comes up
	lk.models[model.TierRemote] = nil
	lk.available[model.TierRemote] = false

	runner := buildTestRunner(t, lk, 4)
	result := runner.Run(context.Background(), model.QueryInput{
		ConversationID: "c1",
		Query:          "hello",
	})

	require.True(t, result.Failed())
	assert.Contains(t, result.Error, "oom")
}

func TestRunToolBudgetForcesWrapUp(t *testing.T) {
	lk := newFakeLocker()
	lk.install(model.TierLocal, "llama3.1:8b",
		toolCall("list_jobs", `{}`),
		toolCall("list_jobs", `{}`),
		reply("Here is what I found before running out of tool budget."),
	)
	lk.install(model.TierRemote, "deepseek/deepseek-chat")

	runner := buildTestRunner(t, lk, 2)
	result := runner.Run(context.Background(), model.QueryInput{
		ConversationID: "c1",
		Query:          "what jobs am I tracking",
	})

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, 2, result.ToolCallsMade)
	assert.Contains(t, result.FinalResponse(), "tool budget")

	// the wrap-up notice was injected before the final turn
	found := false
	for _, m := range result.Messages {
		if m.Role == schema.System && len(m.Content) > 0 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRunNoTiersAvailable(t *testing.T) {
	lk := newFakeLocker()
	lk.available[model.TierLocal] = false
	lk.available[model.TierRemote] = false

	runner := buildTestRunner(t, lk, 10)
	result := runner.Run(context.Background(), model.QueryInput{
		ConversationID: "c1",
		Query:          "hello",
	})

	require.True(t, result.Failed())
	assert.Contains(t, result.Error, "no model available")
}
