// Package router decides which model tier serves a query. Routing is a pure
// function of the classification, the context size and current availability,
// so identical inputs always pick the same tier.
package router

import (
	"github.com/jobscout-ai/jobscout/internal/agent/model"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

// longContextThreshold is the combined token count above which a query goes
// remote regardless of complexity; local context windows are too small for it.
const longContextThreshold = 1000

// Availability reports which tiers currently have at least one reachable model.
type Availability struct {
	Local  bool
	Remote bool
}

// Tier returns the availability of a single tier.
func (a Availability) Tier(t model.Tier) bool {
	if t == model.TierLocal {
		return a.Local
	}
	return a.Remote
}

// Router selects a tier per query.
type Router struct {
	preferLocal bool
}

// New creates a Router. preferLocal breaks the tie for medium-complexity
// queries when both tiers are available.
func New(preferLocal bool) *Router {
	return &Router{preferLocal: preferLocal}
}

// Route picks the tier for one query. force carries a per-run override
// (empty for automatic routing). contextTokens is the token estimate of the
// history that will accompany the query.
//
// Rules apply strictly in order; the first match wins.
func (r *Router) Route(cls *model.Classification, contextTokens int, force model.Tier, avail Availability) model.Tier {
	tier := r.route(cls, contextTokens, force, avail)
	logx.Debug().
		Str("tier", tier.String()).
		Str("complexity", string(cls.Complexity)).
		Int("context_tokens", contextTokens).
		Bool("local_available", avail.Local).
		Bool("remote_available", avail.Remote).
		Msg("Routing decision")
	return tier
}

func (r *Router) route(cls *model.Classification, contextTokens int, force model.Tier, avail Availability) model.Tier {
	if force != "" && avail.Tier(force) {
		return force
	}
	if !avail.Local && avail.Remote {
		return model.TierRemote
	}
	if !avail.Remote && avail.Local {
		return model.TierLocal
	}

	if cls.EstimatedTokens+contextTokens > longContextThreshold {
		return model.TierRemote
	}
	switch cls.Complexity {
	case model.ComplexitySimple:
		return model.TierLocal
	case model.ComplexityComplex:
		return model.TierRemote
	}
	if r.preferLocal {
		return model.TierLocal
	}
	return model.TierRemote
}

// ShouldEscalate picks the tier to retry on after a failure. A local failure
// escalates to remote when remote is reachable; a remote failure stays remote
// (the lock manager cycles candidates within the tier).
func ShouldEscalate(current model.Tier, avail Availability) model.Tier {
	if current == model.TierLocal && avail.Remote {
		return model.TierRemote
	}
	return current
}
