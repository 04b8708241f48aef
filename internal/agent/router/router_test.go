package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jobscout-ai/jobscout/internal/agent/model"
)

func cls(c model.Complexity, tokens int) *model.Classification {
	return &model.Classification{Complexity: c, EstimatedTokens: tokens}
}

func TestRouteForceWinsWhenAvailable(t *testing.T) {
	r := New(true)
	both := Availability{Local: true, Remote: true}

	assert.Equal(t, model.TierRemote, r.Route(cls(model.ComplexitySimple, 50), 0, model.TierRemote, both))
	assert.Equal(t, model.TierLocal, r.Route(cls(model.ComplexityComplex, 800), 0, model.TierLocal, both))
}

func TestRouteForceIgnoredWhenUnavailable(t *testing.T) {
	r := New(true)
	localOnly := Availability{Local: true, Remote: false}

	// Forced remote but remote is down: normal rules apply and land on local.
	assert.Equal(t, model.TierLocal, r.Route(cls(model.ComplexityComplex, 800), 0, model.TierRemote, localOnly))
}

func TestRouteUnavailableTierFallsOver(t *testing.T) {
	r := New(true)

	remoteOnly := Availability{Local: false, Remote: true}
	assert.Equal(t, model.TierRemote, r.Route(cls(model.ComplexitySimple, 50), 0, "", remoteOnly))

	localOnly := Availability{Local: true, Remote: false}
	assert.Equal(t, model.TierLocal, r.Route(cls(model.ComplexityComplex, 800), 0, "", localOnly))
}

func TestRouteLongContextGoesRemote(t *testing.T) {
	r := New(true)
	both := Availability{Local: true, Remote: true}

	// simple complexity but the combined token load exceeds the threshold
	assert.Equal(t, model.TierRemote, r.Route(cls(model.ComplexitySimple, 50), 2000, "", both))
	assert.Equal(t, model.TierRemote, r.Route(cls(model.ComplexityMedium, 600), 500, "", both))
}

func TestRouteByComplexity(t *testing.T) {
	both := Availability{Local: true, Remote: true}

	preferLocal := New(true)
	assert.Equal(t, model.TierLocal, preferLocal.Route(cls(model.ComplexitySimple, 50), 0, "", both))
	assert.Equal(t, model.TierRemote, preferLocal.Route(cls(model.ComplexityComplex, 800), 0, "", both))
	assert.Equal(t, model.TierLocal, preferLocal.Route(cls(model.ComplexityMedium, 200), 0, "", both))

	preferRemote := New(false)
	assert.Equal(t, model.TierRemote, preferRemote.Route(cls(model.ComplexityMedium, 200), 0, "", both))
}

func TestRouteIsDeterministic(t *testing.T) {
	r := New(true)
	both := Availability{Local: true, Remote: true}
	c := cls(model.ComplexityMedium, 200)

	first := r.Route(c, 100, "", both)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Route(c, 100, "", both))
	}
}

func TestShouldEscalate(t *testing.T) {
	both := Availability{Local: true, Remote: true}
	localOnly := Availability{Local: true, Remote: false}

	assert.Equal(t, model.TierRemote, ShouldEscalate(model.TierLocal, both))
	assert.Equal(t, model.TierLocal, ShouldEscalate(model.TierLocal, localOnly))
	assert.Equal(t, model.TierRemote, ShouldEscalate(model.TierRemote, both))
}
