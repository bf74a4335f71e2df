package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfan/pixelfan/config"
)

func slotTable(slots map[string]config.SlotConfig, count, enhance int) *config.ProvidersConfig {
	return &config.ProvidersConfig{
		Count:        count,
		EnhanceIndex: enhance,
		Slots:        slots,
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"DALL-E 3", KindOpenAI},
		{"OpenAI GPT-Image", KindOpenAI},
		{"Gemini 2.0 Flash", KindGoogleGemini},
		{"Google Imagen 3.0", KindGoogleImagen},
		{"Nova Canvas", KindBedrockNova},
		{"Bedrock SD3 Large", KindBedrockSD},
		{"Stable Diffusion XL", KindStability},
		{"Stability SD3", KindStability},
		{"FLUX.1 Pro", KindBFL},
		{"Black Forest Labs", KindBFL},
		{"Recraft V3", KindRecraft},
		{"Mystery Model 9000", KindGeneric},
		{"", KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.name))
		})
	}
}

func TestDetectKindPrecedence(t *testing.T) {
	// Overlapping names resolve by rule order, not by accident.
	assert.Equal(t, KindBedrockSD, DetectKind("Bedrock Stable Diffusion"))
	assert.Equal(t, KindBedrockNova, DetectKind("Bedrock Nova Canvas"))
	assert.Equal(t, KindGoogleGemini, DetectKind("Google Gemini Imagen Hybrid"))
}

func TestDetectKindDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Equal(t, KindStability, DetectKind("sTaBLe DiFFuSion"))
	}
}

func TestLoadSkipsMalformedSlots(t *testing.T) {
	cfg := slotTable(map[string]config.SlotConfig{
		"1": {Name: "DALL-E 3", Key: "sk-1"},
		"2": {Name: "No Key Here"}, // key missing: skipped with warning
		"3": {Key: "sk-orphan"},    // name missing: skipped with warning
		"4": {},                    // empty: skipped silently
		"5": {Name: "Recraft V3", Key: "sk-5"},
	}, 5, 1)

	view, err := Load(cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, view.Len())
	entries := view.All()
	assert.Equal(t, 1, entries[0].SlotIndex)
	assert.Equal(t, 5, entries[1].SlotIndex)
	assert.Equal(t, KindRecraft, entries[1].Kind)

	_, ok := view.ByIndex(2)
	assert.False(t, ok)
}

func TestLoadCountShorterThanSlots(t *testing.T) {
	// Slots above count are never read.
	cfg := slotTable(map[string]config.SlotConfig{
		"1": {Name: "DALL-E 3", Key: "sk-1"},
		"2": {Name: "Recraft V3", Key: "sk-2"},
	}, 1, 0)

	view, err := Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Len())
}

func TestLoadFailsWithZeroProviders(t *testing.T) {
	_, err := Load(slotTable(nil, 3, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no providers loaded")
}

func TestEnhancementProvider(t *testing.T) {
	slots := map[string]config.SlotConfig{
		"1": {Name: "DALL-E 3", Key: "sk-1"},
		"2": {Name: "Gemini 2.0 Flash", Key: "sk-2"},
	}

	view, err := Load(slotTable(slots, 2, 2))
	require.NoError(t, err)
	enhance := view.EnhancementProvider()
	require.NotNil(t, enhance)
	assert.Equal(t, "Gemini 2.0 Flash", enhance.DisplayName)

	// Out-of-range index designates nobody.
	view, err = Load(slotTable(slots, 2, 7))
	require.NoError(t, err)
	assert.Nil(t, view.EnhancementProvider())

	view, err = Load(slotTable(slots, 2, 0))
	require.NoError(t, err)
	assert.Nil(t, view.EnhancementProvider())
}
