package model

import (
	"github.com/cloudwego/eino/schema"
)

// AgentState stores per-run state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type AgentState struct {
	ConversationID string
	Query          string
	History        []*schema.Message // mutated only inside Eino state handlers

	Classification *Classification // set by the classify node, read by route
	Tier           Tier            // currently selected tier
	ForceModel     Tier            // per-run routing override, empty for auto
	ModelUsed      string          // concrete model id of the last successful invocation

	RetryCount        int   // failure retries, strictly increasing
	RemoteEscalations int   // remote candidates cycled in this failure episode
	ToolCallsMade     int   // tool calls requested across the run
	ToolLimitReached  bool  // tool budget spent, next assistant turn is final
	ToolCallIDSeq     int   // sequence for synthesizing missing tool call ids
	LastError         error // last invocation error, nil after a success
	Fatal             bool  // terminal error state, run must end

	// Accumulated total LLM cost (USD) across model invocations for this run.
	TotalCostUSD float64
}

// QueryInput is the input for one agent run.
type QueryInput struct {
	ConversationID string            `json:"conversation_id"`
	Query          string            `json:"query"`
	ForceModel     Tier              `json:"force_model,omitempty"`
	History        []*schema.Message `json:"-"`
}

// RunResult is the terminal snapshot of a run. Failures never escape the run
// boundary; they land in Error with a best-effort Messages list.
type RunResult struct {
	Messages      []*schema.Message
	ModelUsed     string
	ToolCallsMade int
	TotalCostUSD  float64
	Error         string
}

// Failed reports whether the run terminated in an error state.
func (r *RunResult) Failed() bool {
	return r.Error != ""
}

// FinalResponse extracts the last assistant message content, or a readable
// fallback when the run produced none.
func (r *RunResult) FinalResponse() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		m := r.Messages[i]
		if m != nil && m.Role == schema.Assistant && m.Content != "" {
			return m.Content
		}
	}
	if r.Error != "" {
		return "Error: " + r.Error
	}
	return "No response generated"
}
