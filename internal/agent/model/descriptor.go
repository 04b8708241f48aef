package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Default limits used when a model id is not found in the descriptor tables.
const (
	DefaultContextWindow   = 8192
	DefaultMaxOutputTokens = 2048
)

// ModelDescriptor identifies one candidate model for a tier. Descriptors are
// loaded from configuration once and never mutated; the slice order defines
// the warmup/probe priority (lower index is tested first).
type ModelDescriptor struct {
	ID              string
	DisplayName     string
	Tier            Tier
	ContextWindow   int
	MaxOutputTokens int
	Priority        int
}

// ParseDescriptors parses a comma-separated candidate list where each entry
// has the form "id|display name|context window|max output tokens". The
// position in the list becomes the descriptor priority.
func ParseDescriptors(raw string, tier Tier) ([]ModelDescriptor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var out []ModelDescriptor
	for i, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) != 4 {
			return nil, fmt.Errorf("model entry %d: expected id|name|context|max_output, got %q", i, entry)
		}

		id := strings.TrimSpace(parts[0])
		if id == "" {
			return nil, fmt.Errorf("model entry %d: empty id", i)
		}
		window, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || window <= 0 {
			return nil, fmt.Errorf("model entry %d (%s): invalid context window %q", i, id, parts[2])
		}
		maxOut, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil || maxOut <= 0 {
			return nil, fmt.Errorf("model entry %d (%s): invalid max output tokens %q", i, id, parts[3])
		}

		out = append(out, ModelDescriptor{
			ID:              id,
			DisplayName:     strings.TrimSpace(parts[1]),
			Tier:            tier,
			ContextWindow:   window,
			MaxOutputTokens: maxOut,
			Priority:        len(out),
		})
	}
	return out, nil
}

// FindDescriptor looks up a model id in a candidate list.
func FindDescriptor(candidates []ModelDescriptor, id string) (ModelDescriptor, bool) {
	for _, d := range candidates {
		if d.ID == id {
			return d, true
		}
	}
	return ModelDescriptor{}, false
}
