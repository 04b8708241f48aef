package email

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

func init() {
	Register(KindMemory, func(opts Options) (Provider, error) {
		return NewMemoryProvider(SampleMessages()), nil
	})
}

// MemoryProvider is an in-process mailbox. It backs development and tests;
// real deployments register gmail or outlook instead.
type MemoryProvider struct {
	messages []Message
}

// NewMemoryProvider creates a provider over a fixed message set.
func NewMemoryProvider(messages []Message) *MemoryProvider {
	return &MemoryProvider{messages: messages}
}

// Authenticate is a no-op for the in-process mailbox.
func (p *MemoryProvider) Authenticate(ctx context.Context) error { return nil }

// Search scans all messages against the query.
func (p *MemoryProvider) Search(ctx context.Context, q Query) ([]Message, error) {
	text := strings.ToLower(q.Text)
	from := strings.ToLower(q.From)

	var out []Message
	for _, m := range p.messages {
		if from != "" && !strings.Contains(strings.ToLower(m.From), from) {
			continue
		}
		if !q.Since.IsZero() && m.Received.Before(q.Since) {
			continue
		}
		if text != "" {
			haystack := strings.ToLower(m.Subject + " " + m.Snippet + " " + m.Body)
			if !strings.Contains(haystack, text) {
				continue
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Received.After(out[j].Received) })
	if q.MaxHits > 0 && len(out) > q.MaxHits {
		out = out[:q.MaxHits]
	}
	return out, nil
}

// GetByID returns the full message for an id.
func (p *MemoryProvider) GetByID(ctx context.Context, id string) (Message, error) {
	for _, m := range p.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return Message{}, fmt.Errorf("email %s not found", id)
}

// SampleMessages returns the seeded development mailbox.
func SampleMessages() []Message {
	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	return []Message{
		{
			ID:       "em-001",
			From:     "recruiting@nimbusdata.io",
			To:       "me@example.com",
			Subject:  "Interview availability - Senior Backend Engineer",
			Snippet:  "Thanks for applying! Could you share your availability next week for a 45-minute technical screen?",
			Body:     "Hi,\n\nThanks for applying to the Senior Backend Engineer role at Nimbus Data. Could you share your availability next week for a 45-minute technical screen with our platform team?\n\nBest,\nMaya",
			Received: base.Add(72 * time.Hour),
			Labels:   []string{"inbox", "jobs"},
		},
		{
			ID:       "em-002",
			From:     "no-reply@hiredesk.com",
			To:       "me@example.com",
			Subject:  "Application received: Staff Engineer at Corsair Labs",
			Snippet:  "Your application for Staff Engineer has been received and is under review.",
			Received: base.Add(48 * time.Hour),
			Labels:   []string{"inbox", "jobs"},
		},
		{
			ID:       "em-003",
			From:     "talent@ferrocloud.com",
			To:       "me@example.com",
			Subject:  "Update on your Ferrocloud application",
			Snippet:  "After careful consideration we have decided to move forward with other candidates.",
			Received: base.Add(24 * time.Hour),
			Labels:   []string{"inbox", "jobs"},
		},
		{
			ID:       "em-004",
			From:     "newsletter@gophersweekly.dev",
			To:       "me@example.com",
			Subject:  "Gophers Weekly #412",
			Snippet:  "This week: profile-guided optimization in production, and a deep dive on iterators.",
			Received: base.Add(12 * time.Hour),
			Labels:   []string{"inbox", "newsletters"},
		},
		{
			ID:       "em-005",
			From:     "maya@nimbusdata.io",
			To:       "me@example.com",
			Subject:  "Re: Interview availability - Senior Backend Engineer",
			Snippet:  "Great, Tuesday 2pm works. Calendar invite to follow.",
			Received: base.Add(96 * time.Hour),
			Labels:   []string{"inbox", "jobs"},
		},
	}
}
