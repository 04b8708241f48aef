// Package tools exposes the agent's capabilities: mailbox search, the job
// application tracker, and document search. Tool failures are reported back
// to the model as content, never as run-ending errors.
package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/jobscout-ai/jobscout/internal/email"
	"github.com/jobscout-ai/jobscout/internal/track"
)

// Tool name constants for routing and argument sanitizing.
const (
	ToolSearchEmails    = "search_emails"
	ToolListJobs        = "list_jobs"
	ToolGetJobDetails   = "get_job_details"
	ToolUpdateJobStatus = "update_job_status"
	ToolSearchDocuments = "search_documents"
)

// Deps carries the backends the tools operate on.
type Deps struct {
	Mailbox   email.Provider
	Tracker   track.Tracker
	Documents DocumentIndex
}

// New returns the full capability set backed by deps.
func New(deps Deps) []tool.BaseTool {
	return []tool.BaseTool{
		createSearchEmailsTool(deps.Mailbox),
		createListJobsTool(deps.Tracker),
		createGetJobDetailsTool(deps.Tracker),
		createUpdateJobStatusTool(deps.Tracker),
		createSearchDocumentsTool(deps.Documents),
	}
}

// GetToolInfos extracts the ToolInfo of each tool for model binding.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
