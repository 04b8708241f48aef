package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// ===================================
// Search Documents Tool
// ===================================

// Document is one entry in the user's document collection (resumes, cover
// letters, notes).
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Excerpt string `json:"excerpt"`
}

// DocumentIndex searches the user's documents.
type DocumentIndex interface {
	Search(ctx context.Context, query string, limit int) ([]Document, error)
}

type SearchDocumentsInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchDocumentsOutput struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

func createSearchDocumentsTool(index DocumentIndex) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "search_documents",
			Desc: "Search the user's document collection: resumes, cover letters, and notes. Use this when drafting applications or when the user references their own material.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Free-text search over document titles and content.",
					Required: true,
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of documents to return (default: 5)",
				},
			}),
		},
		func(ctx context.Context, in *SearchDocumentsInput) (*SearchDocumentsOutput, error) {
			if in.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			if in.MaxResults == 0 {
				in.MaxResults = 5
			}
			docs, err := index.Search(ctx, in.Query, in.MaxResults)
			if err != nil {
				return nil, fmt.Errorf("document search: %w", err)
			}
			return &SearchDocumentsOutput{Documents: docs, Total: len(docs)}, nil
		},
	)
}

// MemoryDocumentIndex is the in-process DocumentIndex over a fixed set.
type MemoryDocumentIndex struct {
	docs []Document
}

// NewMemoryDocumentIndex creates an index over a fixed document set.
func NewMemoryDocumentIndex(docs []Document) *MemoryDocumentIndex {
	return &MemoryDocumentIndex{docs: docs}
}

// Search scans titles and excerpts for the query terms.
func (x *MemoryDocumentIndex) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	queryLower := strings.ToLower(query)
	terms := strings.Fields(queryLower)

	type scored struct {
		doc   Document
		score int
	}
	var hits []scored
	for _, doc := range x.docs {
		haystack := strings.ToLower(doc.Title + " " + doc.Kind + " " + doc.Excerpt)
		score := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{doc: doc, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Document, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.doc)
	}
	return out, nil
}

// SampleDocuments returns the seeded development document collection.
func SampleDocuments() []Document {
	return []Document{
		{
			ID:      "doc-001",
			Title:   "Resume - Backend Engineer 2026",
			Kind:    "resume",
			Excerpt: "Backend engineer with 7 years in Go and distributed systems. Led migration of a payments platform to event-driven architecture.",
		},
		{
			ID:      "doc-002",
			Title:   "Cover letter - Nimbus Data",
			Kind:    "cover_letter",
			Excerpt: "Dear hiring team, I am excited to apply for the Senior Backend Engineer role at Nimbus Data...",
		},
		{
			ID:      "doc-003",
			Title:   "Interview prep notes",
			Kind:    "notes",
			Excerpt: "System design: rate limiter, URL shortener. Behavioral: conflict story from the billing rewrite.",
		},
		{
			ID:      "doc-004",
			Title:   "Salary research",
			Kind:    "notes",
			Excerpt: "Market ranges for senior/staff backend roles, remote-first companies, 2026.",
		},
	}
}
