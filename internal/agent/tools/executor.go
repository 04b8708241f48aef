package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

// Executor runs the tool calls a model requested and turns results into tool
// messages. Individual tool failures become error-content messages so the
// model can recover; only a missing tool-call list is a caller bug.
type Executor struct {
	byName map[string]tool.InvokableTool
}

// NewExecutor indexes the tool set by name. Tools that are not invokable are
// skipped with a warning.
func NewExecutor(ctx context.Context, ts []tool.BaseTool) (*Executor, error) {
	byName := make(map[string]tool.InvokableTool, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		inv, ok := t.(tool.InvokableTool)
		if !ok {
			logx.Warn().Str("tool", info.Name).Msg("Tool is not invokable, skipping")
			continue
		}
		byName[info.Name] = inv
	}
	return &Executor{byName: byName}, nil
}

// Execute runs every tool call on the assistant message sequentially and
// returns one tool message per call, in call order.
func (e *Executor) Execute(ctx context.Context, assistant *schema.Message) ([]*schema.Message, error) {
	if assistant == nil || len(assistant.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls to execute")
	}

	out := make([]*schema.Message, 0, len(assistant.ToolCalls))
	for _, call := range assistant.ToolCalls {
		name := call.Function.Name
		inv, ok := e.byName[name]
		if !ok {
			// Hallucinated tool name; tell the model instead of failing.
			logx.Warn().Str("tool", name).Msg("Unknown tool call")
			out = append(out, schema.ToolMessage(
				fmt.Sprintf(`{"error":"unknown_tool","name":%q}`, name), call.ID))
			continue
		}

		result, err := inv.InvokableRun(ctx, call.Function.Arguments)
		if err != nil {
			logx.Warn().Err(err).Str("tool", name).Msg("Tool execution failed")
			result = fmt.Sprintf(`{"error":%q,"tool":%q}`, err.Error(), name)
		}
		out = append(out, schema.ToolMessage(result, call.ID))
	}
	return out, nil
}
