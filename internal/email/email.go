// Package email defines the mailbox abstraction the agent's tools search
// against. Concrete providers (Gmail, Outlook) register constructors keyed by
// provider kind; the default build wires an in-process mailbox seeded with
// sample data.
package email

import (
	"context"
	"fmt"
	"time"
)

// ProviderKind names a mailbox backend.
type ProviderKind string

const (
	KindGmail   ProviderKind = "gmail"
	KindOutlook ProviderKind = "outlook"
	KindMemory  ProviderKind = "memory"
)

// Message is one email as exposed to the agent.
type Message struct {
	ID       string    `json:"id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Snippet  string    `json:"snippet"`
	Body     string    `json:"body,omitempty"`
	Received time.Time `json:"received"`
	Labels   []string  `json:"labels,omitempty"`
}

// Query filters a mailbox search.
type Query struct {
	Text    string
	From    string
	Since   time.Time
	MaxHits int
}

// Provider is a mailbox backend.
type Provider interface {
	// Authenticate establishes the session. Memory providers no-op.
	Authenticate(ctx context.Context) error

	// Search returns messages matching the query, newest first.
	Search(ctx context.Context, q Query) ([]Message, error)

	// GetByID returns a single full message.
	GetByID(ctx context.Context, id string) (Message, error)
}

// Constructor builds a Provider from its options.
type Constructor func(opts Options) (Provider, error)

// Options carries provider credentials and tuning.
type Options struct {
	Credentials string
	Mailbox     string
}

var registry = map[ProviderKind]Constructor{}

// Register installs a constructor for a kind. Last registration wins, which
// lets tests swap backends.
func Register(kind ProviderKind, c Constructor) {
	registry[kind] = c
}

// New builds the provider for a kind.
func New(kind ProviderKind, opts Options) (Provider, error) {
	c, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown email provider %q", kind)
	}
	return c(opts)
}
