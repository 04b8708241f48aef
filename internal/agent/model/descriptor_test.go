package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptors(t *testing.T) {
	raw := "llama3.1:8b|Llama 3.1 8B|8192|2048, qwen2.5:7b|Qwen 2.5 7B|32768|4096"
	out, err := ParseDescriptors(raw, TierLocal)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "llama3.1:8b", out[0].ID)
	assert.Equal(t, "Llama 3.1 8B", out[0].DisplayName)
	assert.Equal(t, TierLocal, out[0].Tier)
	assert.Equal(t, 8192, out[0].ContextWindow)
	assert.Equal(t, 2048, out[0].MaxOutputTokens)
	assert.Equal(t, 0, out[0].Priority)
	assert.Equal(t, 1, out[1].Priority)
}

func TestParseDescriptorsEmpty(t *testing.T) {
	out, err := ParseDescriptors("  ", TierLocal)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParseDescriptorsMalformed(t *testing.T) {
	for _, raw := range []string{
		"just-an-id",
		"id|name|not-a-number|2048",
		"id|name|8192|0",
		"|name|8192|2048",
	} {
		_, err := ParseDescriptors(raw, TierRemote)
		assert.Error(t, err, raw)
	}
}

func TestFindDescriptor(t *testing.T) {
	out, err := ParseDescriptors("a|A|100|10, b|B|200|20", TierLocal)
	require.NoError(t, err)

	d, ok := FindDescriptor(out, "b")
	assert.True(t, ok)
	assert.Equal(t, 200, d.ContextWindow)

	_, ok = FindDescriptor(out, "missing")
	assert.False(t, ok)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("local")
	require.NoError(t, err)
	assert.Equal(t, TierLocal, tier)

	tier, err = ParseTier("")
	require.NoError(t, err)
	assert.Equal(t, Tier(""), tier)

	_, err = ParseTier("cloud")
	assert.Error(t, err)
}

func TestTierOther(t *testing.T) {
	assert.Equal(t, TierRemote, TierLocal.Other())
	assert.Equal(t, TierLocal, TierRemote.Other())
}
