// Package registry turns the flat provider slot configuration into an
// immutable, typed view of the configured providers.
//
// A View is built once at process start and passed by handle to every
// component that needs it; it is never mutated afterwards and therefore
// needs no synchronization. A changed slot table takes effect on restart.
package registry

import (
	"github.com/pixelfan/pixelfan/config"
	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/logger"
)

// ProviderEntry is one configured provider slot.
// Kind is detected once at load time and cached here.
type ProviderEntry struct {
	SlotIndex   int    // 1-based ordinal, stable across a deployment
	DisplayName string // used for the UI and for kind detection
	Secret      string // opaque credential, never logged
	Kind        Kind
}

// View is the immutable provider registry.
type View struct {
	entries      []ProviderEntry // ordered by slot index
	byIndex      map[int]ProviderEntry
	enhanceIndex int // 1-based; 0 or out of range means no enhancement provider
}

// Load reads slots 1..cfg.Count and builds the registry view.
//
// Individual malformed slots never fail the load: a slot missing both name
// and key is skipped silently, a slot with exactly one of the two is skipped
// with a warning. Load fails only when zero providers load successfully.
func Load(cfg *config.ProvidersConfig) (*View, error) {
	view := &View{
		byIndex:      make(map[int]ProviderEntry),
		enhanceIndex: cfg.EnhanceIndex,
	}

	for i := 1; i <= cfg.Count; i++ {
		slot, ok := cfg.Slot(i)
		if !ok || (slot.Name == "" && slot.Key == "") {
			continue
		}
		if slot.Name == "" || slot.Key == "" {
			logger.Warnw("Skipping partially configured provider slot",
				logger.FieldSlotIndex, i,
				"has_name", slot.Name != "",
				"has_key", slot.Key != "")
			continue
		}

		entry := ProviderEntry{
			SlotIndex:   i,
			DisplayName: slot.Name,
			Secret:      slot.Key,
			Kind:        DetectKind(slot.Name),
		}
		view.entries = append(view.entries, entry)
		view.byIndex[i] = entry

		logger.Infow("Loaded provider",
			logger.FieldSlotIndex, i,
			logger.FieldProvider, entry.DisplayName,
			logger.FieldProviderKind, string(entry.Kind))
	}

	if len(view.entries) == 0 {
		return nil, errors.Newf("no providers loaded from %d configured slots", cfg.Count)
	}

	if _, ok := view.byIndex[view.enhanceIndex]; !ok && view.enhanceIndex != 0 {
		logger.Warnw("Enhancement provider index does not match a loaded slot; enhancement degrades to pass-through",
			logger.FieldSlotIndex, view.enhanceIndex)
	}

	return view, nil
}

// ByIndex returns the provider at the given 1-based slot index.
func (v *View) ByIndex(i int) (ProviderEntry, bool) {
	entry, ok := v.byIndex[i]
	return entry, ok
}

// EnhancementProvider returns the entry designated for prompt enhancement,
// or nil when none is configured or the configured index did not load.
func (v *View) EnhancementProvider() *ProviderEntry {
	entry, ok := v.byIndex[v.enhanceIndex]
	if !ok {
		return nil
	}
	return &entry
}

// All returns the loaded providers in slot order.
// The returned slice is shared; callers must not mutate it.
func (v *View) All() []ProviderEntry {
	return v.entries
}

// Len returns the number of loaded providers.
func (v *View) Len() int {
	return len(v.entries)
}
