package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeModelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DALL-E 3", "dall-e-3"},
		{"Stable Diffusion XL", "stable-diffusion-xl"},
		{"Gemini 2.0 Flash", "gemini-20-flash"},
		{"  FLUX.1 [pro]  ", "flux1-pro"},
		{"---", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeModelName(tt.in), "input %q", tt.in)
	}
}

func TestSaveImageRoundTrip(t *testing.T) {
	store := NewImageStore(NewMemoryKV(), "cdn.example.com")
	store.timeNow = func() time.Time {
		return time.Date(2025, 11, 15, 14, 30, 45, 0, time.UTC)
	}

	key, err := store.SaveImage("b64-data", "DALL-E 3", "a sunset",
		map[string]float64{"steps": 30}, "target-1")
	require.NoError(t, err)
	assert.Equal(t, "group-images/target-1/dall-e-3-20251115143045.json", key)

	doc, err := store.GetImage(key)
	require.NoError(t, err)
	assert.Equal(t, "b64-data", doc.Output)
	assert.Equal(t, "DALL-E 3", doc.Model)
	assert.Equal(t, "a sunset", doc.Prompt)
	assert.Equal(t, "target-1", doc.Target)
	assert.False(t, doc.NSFW)
	assert.Equal(t, 30.0, doc.Steps)
	assert.Equal(t, DefaultGuidance, doc.Guidance)
	assert.Equal(t, DefaultControl, doc.Control)

	assert.Equal(t, "https://cdn.example.com/"+key, store.CDNURL(key))
}

func TestListGalleries(t *testing.T) {
	store := NewImageStore(NewMemoryKV(), "")

	_, err := store.SaveImage("x", "m1", "p", nil, "2025-11-14-10-00-00")
	require.NoError(t, err)
	_, err = store.SaveImage("x", "m2", "p", nil, "2025-11-15-10-00-00")
	require.NoError(t, err)
	_, err = store.SaveImage("x", "m3", "p", nil, "2025-11-15-10-00-00")
	require.NoError(t, err)

	galleries, err := store.ListGalleries()
	require.NoError(t, err)
	// Newest first, deduplicated.
	assert.Equal(t, []string{"2025-11-15-10-00-00", "2025-11-14-10-00-00"}, galleries)

	images, err := store.ListGalleryImages("2025-11-15-10-00-00")
	require.NoError(t, err)
	assert.Len(t, images, 2)
}
