// Package providers builds and caches concrete chat model clients for both
// tiers. The local tier talks to an Ollama runtime, the remote tier to one of
// the supported cloud backends.
package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/ollama/api"
	"google.golang.org/genai"

	"github.com/jobscout-ai/jobscout/internal/agent/model"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

// Pool owns every chat model client the agent can reach. Clients are built
// lazily and cached per model id; building is cheap but not free, and probes
// want a stable client identity.
type Pool struct {
	local  model.LocalTierConfig
	remote model.RemoteTierConfig
	kind   Kind

	localModels  []model.ModelDescriptor
	remoteModels []model.ModelDescriptor

	mu         sync.Mutex
	cache      map[string]einomodel.ToolCallingChatModel
	classifier einomodel.BaseChatModel
	geminiOnce sync.Once
	geminiCli  *genai.Client
	geminiErr  error
}

// NewPool parses the tier configs into a Pool. It fails fast on malformed
// model lists or an unknown remote provider.
func NewPool(local model.LocalTierConfig, remote model.RemoteTierConfig) (*Pool, error) {
	kind, err := ParseKind(remote.Provider)
	if err != nil {
		return nil, err
	}

	localModels, err := model.ParseDescriptors(local.Models, model.TierLocal)
	if err != nil {
		return nil, fmt.Errorf("local models: %w", err)
	}
	remoteModels, err := model.ParseDescriptors(remote.Models, model.TierRemote)
	if err != nil {
		return nil, fmt.Errorf("remote models: %w", err)
	}

	return &Pool{
		local:        local,
		remote:       remote,
		kind:         kind,
		localModels:  localModels,
		remoteModels: remoteModels,
		cache:        map[string]einomodel.ToolCallingChatModel{},
	}, nil
}

// Candidates returns the configured descriptors for a tier in priority order.
func (p *Pool) Candidates(tier model.Tier) []model.ModelDescriptor {
	if tier == model.TierLocal {
		return p.localModels
	}
	return p.remoteModels
}

// Build constructs the chat model client for a descriptor, reusing a cached
// instance when one exists.
func (p *Pool) Build(ctx context.Context, desc model.ModelDescriptor) (einomodel.ToolCallingChatModel, error) {
	p.mu.Lock()
	if cm, ok := p.cache[desc.ID]; ok {
		p.mu.Unlock()
		return cm, nil
	}
	p.mu.Unlock()

	var cm einomodel.ToolCallingChatModel
	var err error
	if desc.Tier == model.TierLocal {
		cm, err = p.buildLocal(ctx, desc.ID)
	} else {
		cm, err = p.buildRemote(ctx, desc.ID)
	}
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[desc.ID] = cm
	p.mu.Unlock()
	return cm, nil
}

// Probe sends a minimal generation to verify the model actually answers.
// Reachability of the endpoint is not enough; a pulled-but-broken local model
// or a revoked remote key must fail here, not mid-conversation.
func (p *Pool) Probe(ctx context.Context, cm einomodel.ToolCallingChatModel, desc model.ModelDescriptor) error {
	_, err := cm.Generate(ctx, []*schema.Message{schema.UserMessage("ping")})
	if err != nil {
		return fmt.Errorf("probe %s: %w", desc.ID, err)
	}
	return nil
}

// ClassifierModel returns the small local model used for query classification.
func (p *Pool) ClassifierModel(ctx context.Context) (einomodel.BaseChatModel, error) {
	p.mu.Lock()
	if p.classifier != nil {
		defer p.mu.Unlock()
		return p.classifier, nil
	}
	p.mu.Unlock()

	cm, err := p.buildLocal(ctx, p.local.ClassifierModel)
	if err != nil {
		return nil, fmt.Errorf("classifier model: %w", err)
	}

	p.mu.Lock()
	p.classifier = cm
	p.mu.Unlock()
	return cm, nil
}

func (p *Pool) buildLocal(ctx context.Context, modelID string) (einomodel.ToolCallingChatModel, error) {
	cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: p.local.BaseURL,
		Model:   modelID,
		Options: &api.Options{
			Temperature: p.local.Temperature,
		},
	})
	if err != nil {
		logx.Error().Err(err).Str("model", modelID).Msg("Error creating Ollama model")
		return nil, fmt.Errorf("error creating Ollama model %s: %w", modelID, err)
	}
	return cm, nil
}

func (p *Pool) buildRemote(ctx context.Context, modelID string) (einomodel.ToolCallingChatModel, error) {
	if p.kind == KindGemini {
		return p.buildGemini(ctx, modelID)
	}

	baseURL := p.remote.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURLs[p.kind]
	}

	temperature := p.remote.Temperature
	maxTokens := p.remote.MaxTokens
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      p.remote.APIKey,
		BaseURL:     baseURL,
		Model:       modelID,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", modelID).Msg("Error creating remote model")
		return nil, fmt.Errorf("error creating %s model %s: %w", p.kind, modelID, err)
	}
	return cm, nil
}

func (p *Pool) buildGemini(ctx context.Context, modelID string) (einomodel.ToolCallingChatModel, error) {
	p.geminiOnce.Do(func() {
		clientCfg := &genai.ClientConfig{
			APIKey:  p.remote.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if p.remote.BaseURL != "" {
			clientCfg.HTTPOptions.BaseURL = p.remote.BaseURL
		}
		p.geminiCli, p.geminiErr = genai.NewClient(ctx, clientCfg)
	})
	if p.geminiErr != nil {
		logx.Error().Err(p.geminiErr).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", p.geminiErr)
	}

	temperature := p.remote.Temperature
	maxTokens := p.remote.MaxTokens
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      p.geminiCli,
		Model:       modelID,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", modelID).Msg("Error creating Gemini model")
		return nil, fmt.Errorf("error creating Gemini model %s: %w", modelID, err)
	}
	return cm, nil
}
