package agent

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout-ai/jobscout/internal/agent/model"
	"github.com/jobscout-ai/jobscout/internal/agent/repo"
)

func testConfig() model.Config {
	return model.Config{
		Local: model.LocalTierConfig{
			BaseURL:         "http://localhost:11434",
			Models:          "llama3.1:8b|Llama 3.1 8B|8192|2048",
			ClassifierModel: "llama3.2:3b",
			Temperature:     0.7,
		},
		Remote: model.RemoteTierConfig{
			Provider:    "openrouter",
			Models:      "deepseek/deepseek-chat|DeepSeek V3|65536|8192",
			Temperature: 0.6,
			MaxTokens:   4096,
		},
		Routing: model.RoutingConfig{PreferLocal: true, ProbeTimeoutSeconds: 1},
		Memory:  model.MemoryConfig{Strategy: "sliding_window", MaxMessages: 20, ReserveTokens: 1000},
		Agent:   model.AgentConfig{MaxIterations: 4},
	}
}

func TestNewServiceRequiresConversationRepo(t *testing.T) {
	_, err := NewService(context.Background(), testConfig(), Deps{})
	require.Error(t, err)
}

func TestClearConversation(t *testing.T) {
	ctx := context.Background()
	conversations := repo.NewMemoryConversationRepository()
	svc, err := NewService(ctx, testConfig(), Deps{
		ConversationRepo: conversations,
		StickyStore:      repo.NewMemoryStickyStore(),
	})
	require.NoError(t, err)

	require.NoError(t, conversations.AddMessage(ctx, "conv-1", schema.SystemMessage("rules")))
	require.NoError(t, conversations.AddMessage(ctx, "conv-1", schema.UserMessage("hello")))

	n, err := svc.ClearConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := conversations.GetMessageCount(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestClearConversationEmpty(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ctx, testConfig(), Deps{
		ConversationRepo: repo.NewMemoryConversationRepository(),
	})
	require.NoError(t, err)

	n, err := svc.ClearConversation(ctx, "never-seen")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
