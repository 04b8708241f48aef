package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout-ai/jobscout/internal/email"
	"github.com/jobscout-ai/jobscout/internal/track"
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	tracker := track.NewMemoryTracker()
	require.NoError(t, tracker.Add(context.Background(), track.Job{
		ID: "job-001", Company: "Nimbus Data", Title: "Senior Backend Engineer", Status: track.StatusApplied,
	}))
	require.NoError(t, tracker.Add(context.Background(), track.Job{
		ID: "job-002", Company: "Corsair Labs", Title: "Staff Engineer", Status: track.StatusSaved,
	}))
	return Deps{
		Mailbox:   email.NewMemoryProvider(email.SampleMessages()),
		Tracker:   tracker,
		Documents: NewMemoryDocumentIndex(SampleDocuments()),
	}
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	exec, err := NewExecutor(context.Background(), New(testDeps(t)))
	require.NoError(t, err)
	return exec
}

func call(name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:       "call_1",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}
}

func TestGetToolInfos(t *testing.T) {
	ts := New(testDeps(t))
	infos, err := GetToolInfos(context.Background(), ts)
	require.NoError(t, err)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.ElementsMatch(t, []string{
		ToolSearchEmails, ToolListJobs, ToolGetJobDetails, ToolUpdateJobStatus, ToolSearchDocuments,
	}, names)
}

func TestExecuteSearchEmails(t *testing.T) {
	exec := newTestExecutor(t)

	assistant := schema.AssistantMessage("", []schema.ToolCall{
		call(ToolSearchEmails, `{"query":"interview"}`),
	})
	out, err := exec.Execute(context.Background(), assistant)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, schema.Tool, out[0].Role)
	assert.Equal(t, "call_1", out[0].ToolCallID)

	var result SearchEmailsOutput
	require.NoError(t, json.Unmarshal([]byte(out[0].Content), &result))
	assert.NotZero(t, result.Total)
	for _, m := range result.Emails {
		assert.Empty(t, m.Body, "search results omit bodies")
	}
}

func TestExecuteListAndUpdateJobs(t *testing.T) {
	exec := newTestExecutor(t)

	assistant := schema.AssistantMessage("", []schema.ToolCall{
		call(ToolListJobs, `{}`),
	})
	out, err := exec.Execute(context.Background(), assistant)
	require.NoError(t, err)

	var listed ListJobsOutput
	require.NoError(t, json.Unmarshal([]byte(out[0].Content), &listed))
	assert.Equal(t, 2, listed.Total)

	assistant = schema.AssistantMessage("", []schema.ToolCall{
		call(ToolUpdateJobStatus, `{"job_id":"job-001","status":"interviewing","notes":"phone screen booked"}`),
	})
	out, err = exec.Execute(context.Background(), assistant)
	require.NoError(t, err)

	var job track.Job
	require.NoError(t, json.Unmarshal([]byte(out[0].Content), &job))
	assert.Equal(t, track.StatusInterviewing, job.Status)
	assert.Contains(t, job.Notes, "phone screen booked")
}

func TestExecuteToolErrorBecomesContent(t *testing.T) {
	exec := newTestExecutor(t)

	assistant := schema.AssistantMessage("", []schema.ToolCall{
		call(ToolGetJobDetails, `{"job_id":"job-999"}`),
	})
	out, err := exec.Execute(context.Background(), assistant)
	require.NoError(t, err, "tool failures never fail the run")
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Content, "error")
}

func TestExecuteUnknownTool(t *testing.T) {
	exec := newTestExecutor(t)

	assistant := schema.AssistantMessage("", []schema.ToolCall{
		call("teleport_to_interview", `{}`),
	})
	out, err := exec.Execute(context.Background(), assistant)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Content, "unknown_tool")
}

func TestExecuteMultipleCallsKeepOrder(t *testing.T) {
	exec := newTestExecutor(t)

	assistant := schema.AssistantMessage("", []schema.ToolCall{
		{ID: "call_a", Function: schema.FunctionCall{Name: ToolListJobs, Arguments: `{}`}},
		{ID: "call_b", Function: schema.FunctionCall{Name: ToolSearchDocuments, Arguments: `{"query":"resume"}`}},
	})
	out, err := exec.Execute(context.Background(), assistant)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "call_a", out[0].ToolCallID)
	assert.Equal(t, "call_b", out[1].ToolCallID)
}

func TestExecuteNoCallsIsError(t *testing.T) {
	exec := newTestExecutor(t)
	_, err := exec.Execute(context.Background(), schema.AssistantMessage("done", nil))
	assert.Error(t, err)
}

func TestDocumentIndexRanksByTermHits(t *testing.T) {
	index := NewMemoryDocumentIndex(SampleDocuments())
	docs, err := index.Search(context.Background(), "cover letter", 10)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, "doc-002", docs[0].ID)
}
