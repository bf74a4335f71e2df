// Package ai holds the provider dispatch table and the uniform generation
// capability behind it: given a provider entry, a prompt, and parameters,
// produce a base64 image or fail. Vendor-specific clients register against
// their detected kind; everything else flows through the generic
// OpenAI-compatible client.
package ai

import (
	"context"

	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/registry"
)

// GenerateFunc is the uniform provider capability: produce a base64-encoded
// image for the prompt, or fail. Implementations must honor ctx.
type GenerateFunc func(ctx context.Context, entry registry.ProviderEntry, prompt string, params map[string]float64) (string, error)

// Table maps provider kinds to generation capabilities.
// The generic kind is the mandatory catch-all: dispatching a kind with no
// registered capability falls through to it.
type Table struct {
	funcs map[registry.Kind]GenerateFunc
}

// NewTable creates a dispatch table with the given catch-all capability.
func NewTable(generic GenerateFunc) *Table {
	if generic == nil {
		panic("dispatch table requires a generic capability")
	}
	return &Table{
		funcs: map[registry.Kind]GenerateFunc{
			registry.KindGeneric: generic,
		},
	}
}

// Register binds a capability to a provider kind, replacing any previous one.
func (t *Table) Register(kind registry.Kind, fn GenerateFunc) {
	t.funcs[kind] = fn
}

// Dispatch invokes the capability for the entry's kind.
func (t *Table) Dispatch(ctx context.Context, entry registry.ProviderEntry, prompt string, params map[string]float64) (string, error) {
	fn, ok := t.funcs[entry.Kind]
	if !ok {
		fn = t.funcs[registry.KindGeneric]
	}

	image, err := fn(ctx, entry, prompt, params)
	if err != nil {
		return "", errors.Wrapf(err, "provider %q (%s) failed", entry.DisplayName, entry.Kind)
	}
	return image, nil
}
