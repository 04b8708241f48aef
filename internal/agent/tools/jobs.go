package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/jobscout-ai/jobscout/internal/track"
)

// ===================================
// Job Tracker Tools
// ===================================

type ListJobsInput struct {
	Status string `json:"status,omitempty"`
}

type ListJobsOutput struct {
	Jobs  []track.Job `json:"jobs"`
	Total int         `json:"total"`
}

func createListJobsTool(tracker track.Tracker) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "list_jobs",
			Desc: "List tracked job applications, newest first. Use this when the user asks what they have applied to or the state of their pipeline.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"status": {
					Type: "string",
					Desc: "Optional status filter. One of: saved, applied, interviewing, offer, rejected.",
				},
			}),
		},
		func(ctx context.Context, in *ListJobsInput) (*ListJobsOutput, error) {
			var status track.Status
			if in.Status != "" {
				var err error
				if status, err = track.ParseStatus(in.Status); err != nil {
					return nil, err
				}
			}
			jobs, err := tracker.List(ctx, status)
			if err != nil {
				return nil, fmt.Errorf("list jobs: %w", err)
			}
			return &ListJobsOutput{Jobs: jobs, Total: len(jobs)}, nil
		},
	)
}

type GetJobDetailsInput struct {
	JobID string `json:"job_id"`
}

func createGetJobDetailsTool(tracker track.Tracker) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_job_details",
			Desc: "Get the full record of one tracked job application by id, including notes and history.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"job_id": {
					Type:     "string",
					Desc:     "The job id as returned by list_jobs.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetJobDetailsInput) (*track.Job, error) {
			if in.JobID == "" {
				return nil, fmt.Errorf("job_id is required")
			}
			job, err := tracker.Get(ctx, in.JobID)
			if err != nil {
				return nil, err
			}
			return &job, nil
		},
	)
}

type UpdateJobStatusInput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

func createUpdateJobStatusTool(tracker track.Tracker) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "update_job_status",
			Desc: "Move a tracked job application to a new status, optionally appending a note. Use this when the user reports progress like an interview invite or a rejection.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"job_id": {
					Type:     "string",
					Desc:     "The job id as returned by list_jobs.",
					Required: true,
				},
				"status": {
					Type:     "string",
					Desc:     "New status. One of: saved, applied, interviewing, offer, rejected.",
					Required: true,
				},
				"notes": {
					Type: "string",
					Desc: "Optional note appended to the job record.",
				},
			}),
		},
		func(ctx context.Context, in *UpdateJobStatusInput) (*track.Job, error) {
			if in.JobID == "" {
				return nil, fmt.Errorf("job_id is required")
			}
			status, err := track.ParseStatus(in.Status)
			if err != nil {
				return nil, err
			}
			job, err := tracker.UpdateStatus(ctx, in.JobID, status, in.Notes)
			if err != nil {
				return nil, err
			}
			return &job, nil
		},
	)
}
