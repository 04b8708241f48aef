// Package locker manages the per-tier model lock. A tier is either unlocked
// or locked onto exactly one concrete model; invocations go to the locked
// model until it fails, at which point the caller unlocks it and relocks the
// tier onto the next healthy candidate.
package locker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/jobscout-ai/jobscout/internal/agent/model"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

// ErrNotLocked is returned by Model when the tier has no locked model.
var ErrNotLocked = fmt.Errorf("tier is not locked")

// ExhaustedError reports that every candidate in a tier failed its probe.
type ExhaustedError struct {
	Tier  model.Tier
	Tried []string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no lockable model in tier %s (tried: %s)", e.Tier, strings.Join(e.Tried, ", "))
}

// Provider supplies candidates and builds/probes concrete chat models.
type Provider interface {
	// Candidates returns the configured descriptors for a tier in priority order.
	Candidates(tier model.Tier) []model.ModelDescriptor

	// Build constructs (or returns a cached) chat model client for a descriptor.
	Build(ctx context.Context, desc model.ModelDescriptor) (einomodel.ToolCallingChatModel, error)

	// Probe performs a minimal liveness check against the model.
	Probe(ctx context.Context, cm einomodel.ToolCallingChatModel, desc model.ModelDescriptor) error
}

// LockedModel is the concrete model a tier is currently pinned to.
type LockedModel struct {
	Descriptor model.ModelDescriptor
	Model      einomodel.ToolCallingChatModel
}

type tierState struct {
	mu     sync.Mutex
	locked *LockedModel
	tried  map[string]bool // model ids that failed in the current episode
}

// Manager holds one lock per tier.
//
// The per-tier mutex is held across the whole probe loop. Concurrent callers
// hitting an unlocked tier serialize: the first one probes, the rest observe
// the fresh lock and reuse it without probing again.
type Manager struct {
	provider     Provider
	sticky       model.StickyStore // nil disables persistence
	probeTimeout time.Duration

	states map[model.Tier]*tierState
}

// NewManager creates a Manager. sticky may be nil.
func NewManager(provider Provider, sticky model.StickyStore, probeTimeout time.Duration) *Manager {
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &Manager{
		provider:     provider,
		sticky:       sticky,
		probeTimeout: probeTimeout,
		states: map[model.Tier]*tierState{
			model.TierLocal:  {tried: map[string]bool{}},
			model.TierRemote: {tried: map[string]bool{}},
		},
	}
}

func (m *Manager) state(tier model.Tier) *tierState {
	return m.states[tier]
}

// Model returns the locked model for a tier, or ErrNotLocked.
func (m *Manager) Model(tier model.Tier) (*LockedModel, error) {
	st := m.state(tier)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.locked == nil {
		return nil, ErrNotLocked
	}
	return st.locked, nil
}

// EnsureLocked returns the current lock, acquiring one first if the tier is
// unlocked.
func (m *Manager) EnsureLocked(ctx context.Context, tier model.Tier) (*LockedModel, error) {
	st := m.state(tier)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.locked != nil {
		return st.locked, nil
	}
	return m.lockLocked(ctx, tier, st)
}

// Unlock releases the tier's lock after a failure. The failed model id is
// excluded from relock attempts until the episode resets.
func (m *Manager) Unlock(tier model.Tier) {
	st := m.state(tier)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.locked == nil {
		return
	}
	id := st.locked.Descriptor.ID
	st.tried[id] = true
	st.locked = nil
	logx.Info().Str("tier", tier.String()).Str("model", id).Msg("Unlocked failed model")
}

// Relock acquires a fresh lock for the tier, skipping models that already
// failed this episode. If another caller locked the tier while this one
// waited on the mutex, that lock is reused as-is.
func (m *Manager) Relock(ctx context.Context, tier model.Tier) (*LockedModel, error) {
	st := m.state(tier)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.locked != nil {
		return st.locked, nil
	}
	return m.lockLocked(ctx, tier, st)
}

// ResetEpisode clears the failure exclusions for a tier. Called when a fresh
// query begins or after a successful invocation, so transient failures do not
// permanently shrink the candidate pool.
func (m *Manager) ResetEpisode(tier model.Tier) {
	st := m.state(tier)
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.tried) > 0 {
		st.tried = map[string]bool{}
	}
}

// Available reports whether the tier has a usable model, locking it as a side
// effect. Probing and availability are the same operation; a tier that cannot
// lock is unavailable.
func (m *Manager) Available(ctx context.Context, tier model.Tier) bool {
	_, err := m.EnsureLocked(ctx, tier)
	return err == nil
}

// lockLocked runs the probe loop. Caller must hold st.mu.
func (m *Manager) lockLocked(ctx context.Context, tier model.Tier, st *tierState) (*LockedModel, error) {
	candidates := m.candidateOrder(ctx, tier)

	tried := make([]string, 0, len(candidates))
	for _, desc := range candidates {
		if st.tried[desc.ID] {
			tried = append(tried, desc.ID)
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
		lm, err := m.tryLock(probeCtx, desc)
		cancel()
		if err != nil {
			logx.Warn().Err(err).Str("tier", tier.String()).Str("model", desc.ID).Msg("Probe failed")
			st.tried[desc.ID] = true
			tried = append(tried, desc.ID)
			continue
		}

		st.locked = lm
		logx.Info().Str("tier", tier.String()).Str("model", desc.ID).Msg("Locked model")
		if m.sticky != nil {
			if err := m.sticky.SetLastSuccessful(ctx, tier, desc.ID); err != nil {
				logx.Warn().Err(err).Str("tier", tier.String()).Msg("Failed to persist sticky model")
			}
		}
		return lm, nil
	}

	return nil, &ExhaustedError{Tier: tier, Tried: tried}
}

func (m *Manager) tryLock(ctx context.Context, desc model.ModelDescriptor) (*LockedModel, error) {
	cm, err := m.provider.Build(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", desc.ID, err)
	}
	if err := m.provider.Probe(ctx, cm, desc); err != nil {
		return nil, fmt.Errorf("probe %s: %w", desc.ID, err)
	}
	return &LockedModel{Descriptor: desc, Model: cm}, nil
}

// candidateOrder returns the tier's candidates with the sticky model (last
// known good) moved to the front.
func (m *Manager) candidateOrder(ctx context.Context, tier model.Tier) []model.ModelDescriptor {
	candidates := m.provider.Candidates(tier)
	if m.sticky == nil || len(candidates) < 2 {
		return candidates
	}

	stickyID, err := m.sticky.GetLastSuccessful(ctx, tier)
	if err != nil || stickyID == "" {
		return candidates
	}

	ordered := make([]model.ModelDescriptor, 0, len(candidates))
	for _, d := range candidates {
		if d.ID == stickyID {
			ordered = append(ordered, d)
		}
	}
	if len(ordered) == 0 {
		return candidates
	}
	for _, d := range candidates {
		if d.ID != stickyID {
			ordered = append(ordered, d)
		}
	}
	return ordered
}
