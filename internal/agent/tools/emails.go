package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/jobscout-ai/jobscout/internal/email"
)

// ===================================
// Search Emails Tool
// ===================================

type SearchEmailsInput struct {
	Query      string `json:"query"`
	From       string `json:"from,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchEmailsOutput struct {
	Emails []email.Message `json:"emails"`
	Total  int             `json:"total"`
}

func createSearchEmailsTool(mailbox email.Provider) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "search_emails",
			Desc: "Search the user's mailbox for messages. Use this whenever the user asks about emails, recruiter replies, interview invitations, or application confirmations.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Free-text search over subject and body. Examples: interview, application received, Nimbus Data.",
					Required: true,
				},
				"from": {
					Type: "string",
					Desc: "Optional sender filter, matched as a substring of the From address.",
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of emails to return (default: 10)",
				},
			}),
		},
		func(ctx context.Context, in *SearchEmailsInput) (*SearchEmailsOutput, error) {
			if in.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			if in.MaxResults == 0 {
				in.MaxResults = 10
			}

			hits, err := mailbox.Search(ctx, email.Query{
				Text:    in.Query,
				From:    in.From,
				MaxHits: in.MaxResults,
			})
			if err != nil {
				return nil, fmt.Errorf("mailbox search: %w", err)
			}

			// Bodies stay out of search results; GetByID serves full content.
			for i := range hits {
				hits[i].Body = ""
			}
			return &SearchEmailsOutput{Emails: hits, Total: len(hits)}, nil
		},
	)
}
