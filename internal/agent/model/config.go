package model

// ================ Config ================

// LocalTierConfig configures the Ollama-backed local tier.
type LocalTierConfig struct {
	BaseURL         string  `envconfig:"LOCAL_BASE_URL" default:"http://localhost:11434"`
	Models          string  `envconfig:"LOCAL_MODELS" default:"llama3.1:8b|Llama 3.1 8B|8192|2048, qwen2.5:7b|Qwen 2.5 7B|32768|4096, mistral:7b|Mistral 7B|8192|2048"`
	ClassifierModel string  `envconfig:"LOCAL_CLASSIFIER_MODEL" default:"llama3.2:3b"`
	Temperature     float32 `envconfig:"LOCAL_TEMPERATURE" default:"0.7"`
}

// RemoteTierConfig configures the cloud tier. Provider selects the client
// variant: openrouter, moonshot and groq share the OpenAI-compatible client,
// gemini uses the native Google client.
type RemoteTierConfig struct {
	Provider    string  `envconfig:"REMOTE_PROVIDER" default:"openrouter"`
	APIKey      string  `envconfig:"REMOTE_API_KEY"`
	BaseURL     string  `envconfig:"REMOTE_BASE_URL"`
	Models      string  `envconfig:"REMOTE_MODELS" default:"deepseek/deepseek-chat|DeepSeek V3|65536|8192, google/gemini-2.0-flash-exp:free|Gemini 2.0 Flash|1048576|8192, meta-llama/llama-3.3-70b-instruct|Llama 3.3 70B|131072|4096"`
	Temperature float32 `envconfig:"REMOTE_TEMPERATURE" default:"0.6"`
	MaxTokens   int     `envconfig:"REMOTE_MAX_TOKENS" default:"4096"`
}

// RoutingConfig drives the router and the lock manager.
type RoutingConfig struct {
	PreferLocal         bool   `envconfig:"ROUTING_PREFER_LOCAL" default:"true"`
	StickyModel         bool   `envconfig:"ROUTING_STICKY_MODEL" default:"true"`
	ForceModel          string `envconfig:"ROUTING_FORCE_MODEL"`
	ProbeTimeoutSeconds int    `envconfig:"ROUTING_PROBE_TIMEOUT_SECONDS" default:"5"`
}

// MemoryConfig drives context-window management.
type MemoryConfig struct {
	Strategy      string `envconfig:"MEMORY_STRATEGY" default:"sliding_window"`
	MaxMessages   int    `envconfig:"MEMORY_MAX_MESSAGES" default:"20"`
	ReserveTokens int    `envconfig:"MEMORY_RESERVE_TOKENS" default:"1000"`
}

// AgentConfig bounds the orchestration loop.
type AgentConfig struct {
	MaxIterations int `envconfig:"AGENT_MAX_ITERATIONS" default:"10"`
}

// Config aggregates everything the agent service needs.
type Config struct {
	Local   LocalTierConfig
	Remote  RemoteTierConfig
	Routing RoutingConfig
	Memory  MemoryConfig
	Agent   AgentConfig
}
