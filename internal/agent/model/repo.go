package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// StickyStore persists the last model id that successfully locked for a tier,
// so a restart can probe that one first. Last-write-wins is sufficient.
type StickyStore interface {
	// GetLastSuccessful returns the persisted model id for the tier,
	// or "" when none is recorded.
	GetLastSuccessful(ctx context.Context, tier Tier) (string, error)

	// SetLastSuccessful overwrites the persisted model id for the tier.
	SetLastSuccessful(ctx context.Context, tier Tier, modelID string) error
}

// ConversationRepository stores per-conversation message history.
type ConversationRepository interface {
	// AddMessage appends a message to the conversation history.
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the conversation history for a conversation.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a conversation.
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the conversation.
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
