package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/jobscout-ai/jobscout/internal/agent"
	"github.com/jobscout-ai/jobscout/internal/agent/model"
	"github.com/jobscout-ai/jobscout/internal/agent/repo"
	"github.com/jobscout-ai/jobscout/internal/core"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
	pkgredis "github.com/jobscout-ai/jobscout/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure. Redis is optional; without it, history and the sticky
	// model live in process memory.
	RedisEnabled    bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Redis           pkgredis.Config
	ConversationTTL string `envconfig:"CONVERSATION_TTL" default:"24h"`

	// Agent configs
	Agent model.Config
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	deps := agent.Deps{}
	if cfg.RedisEnabled {
		ttl, err := time.ParseDuration(cfg.ConversationTTL)
		if err != nil {
			log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", cfg.ConversationTTL, err)
		}
		rdb, err := cfg.Redis.New()
		if err != nil {
			log.Fatalf("Failed to initialise Redis client: %v", err)
		}
		defer rdb.Close()
		deps.ConversationRepo = repo.NewRedisConversationRepository(rdb, ttl)
		deps.StickyStore = repo.NewRedisStickyStore(rdb, 0)
		logx.Info().Msg("Connected to Redis")
	} else {
		deps.ConversationRepo = repo.NewMemoryConversationRepository()
		deps.StickyStore = repo.NewMemoryStickyStore()
	}

	svc, err := agent.NewService(ctx, cfg.Agent, deps)
	if err != nil {
		log.Fatalf("Failed to build agent service: %v", err)
	}

	fmt.Println("Warming up model tiers...")
	svc.Warmup(ctx)

	runREPL(ctx, svc)
}

func runREPL(ctx context.Context, svc *agent.Service) {
	conversationID := fmt.Sprintf("cli-%d", time.Now().Unix())
	var force model.Tier

	fmt.Println("JobScout ready. Commands: /model local|remote|auto, /status, /clear, /quit")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if handleCommand(ctx, line, svc, conversationID, &force) {
				return
			}
			continue
		}

		result, err := svc.Ask(ctx, conversationID, line, force)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(result.FinalResponse())
		if result.ModelUsed != "" {
			fmt.Printf("  [model: %s, tool calls: %d, cost: $%.6f]\n",
				result.ModelUsed, result.ToolCallsMade, result.TotalCostUSD)
		}
	}
}

// handleCommand processes a slash command and reports whether to exit.
func handleCommand(ctx context.Context, line string, svc *agent.Service, conversationID string, force *model.Tier) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		fmt.Println("Bye.")
		return true
	case "/status":
		status := svc.Status()
		printTier("local", status.Local)
		printTier("remote", status.Remote)
	case "/clear":
		n, err := svc.ClearConversation(ctx, conversationID)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Printf("Cleared %d message(s)\n", n)
	case "/model":
		if len(fields) < 2 {
			fmt.Println("usage: /model local|remote|auto")
			return false
		}
		arg := fields[1]
		if arg == "auto" {
			arg = ""
		}
		tier, err := model.ParseTier(arg)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		*force = tier
		if tier == "" {
			fmt.Println("Routing set to automatic")
		} else {
			fmt.Printf("Routing forced to %s tier\n", tier)
		}
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
	}
	return false
}

func printTier(name string, st agent.TierStatus) {
	if st.Locked {
		fmt.Printf("  %s: locked on %s (%d candidates)\n", name, st.ModelID, st.Candidates)
	} else {
		fmt.Printf("  %s: unlocked (%d candidates)\n", name, st.Candidates)
	}
}
