package ai

import (
	"context"
	"strings"

	"github.com/pixelfan/pixelfan/logger"
	"github.com/pixelfan/pixelfan/registry"
)

// enhanceSystemPrompt instructs the enhancement model. The examples anchor
// the expected level of detail.
const enhanceSystemPrompt = `You are an expert at creating detailed, vivid image generation prompts.

Your task is to take a short, simple prompt and expand it into a rich, detailed prompt that will produce better AI-generated images.

Guidelines:
- Add specific details about composition, lighting, style, and mood
- Include artistic references or styles when appropriate
- Keep the core concept from the original prompt
- Make it descriptive but not overly long (2-4 sentences ideal)
- Focus on visual details that AI image generators can understand
- Use adjectives that describe visual qualities

Example transformations:
- "cat" → "A photorealistic portrait of a fluffy orange tabby cat with striking green eyes, sitting on a windowsill bathed in warm afternoon sunlight, shot with shallow depth of field"
- "sunset" → "A breathtaking sunset over a calm ocean, with vibrant orange and purple hues reflecting on the water, dramatic cloud formations, cinematic composition with silhouetted palm trees in the foreground"

Enhance the following prompt:`

// ChatFunc is the text-completion capability the enhancer delegates to.
type ChatFunc func(ctx context.Context, entry registry.ProviderEntry, systemPrompt, userPrompt string) (string, error)

// Enhancer expands short prompts into detailed generation prompts using the
// registry's designated enhancement provider.
//
// Enhancement is strictly best-effort: with no designated provider, or on
// any failure, the original prompt comes back unchanged. Callers never see
// an error.
type Enhancer struct {
	providers *registry.View
	chat      ChatFunc
}

// NewEnhancer creates an enhancer backed by the given chat capability.
func NewEnhancer(providers *registry.View, chat ChatFunc) *Enhancer {
	return &Enhancer{providers: providers, chat: chat}
}

// Enhance returns a richer version of prompt, or prompt itself when
// enhancement is unavailable or fails.
func (e *Enhancer) Enhance(ctx context.Context, prompt string) string {
	if prompt == "" {
		return prompt
	}

	entry := e.providers.EnhancementProvider()
	if entry == nil {
		logger.Debugw("No enhancement provider configured, returning original prompt")
		return prompt
	}

	enhanced, err := e.chat(ctx, *entry, enhanceSystemPrompt, prompt)
	if err != nil {
		logger.Warnw("Prompt enhancement failed, returning original prompt",
			logger.FieldProvider, entry.DisplayName,
			logger.FieldError, err)
		return prompt
	}

	enhanced = strings.TrimSpace(enhanced)
	if enhanced == "" {
		return prompt
	}

	logger.Infow("Enhanced prompt",
		logger.FieldProvider, entry.DisplayName,
		logger.FieldCount, len(enhanced))
	return enhanced
}
