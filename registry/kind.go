package registry

import "strings"

// Kind is the detected category of an AI backend, used purely for dispatch.
type Kind string

const (
	KindOpenAI       Kind = "openai"
	KindGoogleGemini Kind = "google_gemini"
	KindGoogleImagen Kind = "google_imagen"
	KindBedrockNova  Kind = "bedrock_nova"
	KindBedrockSD    Kind = "bedrock_sd"
	KindStability    Kind = "stability"
	KindBFL          Kind = "bfl"
	KindRecraft      Kind = "recraft"
	KindGeneric      Kind = "generic"
)

// kindRule maps a set of name substrings to a kind. Rules are evaluated in
// order and the first match wins, so more specific patterns come first:
// "gemini" and "imagen" before the broad "google", "nova" before "bedrock",
// and the Bedrock-hosted SD names before plain Stability.
type kindRule struct {
	patterns []string
	kind     Kind
}

var kindRules = []kindRule{
	{[]string{"gemini"}, KindGoogleGemini},
	{[]string{"imagen"}, KindGoogleImagen},
	{[]string{"nova"}, KindBedrockNova},
	{[]string{"bedrock"}, KindBedrockSD},
	{[]string{"dall", "gpt-image", "openai"}, KindOpenAI},
	{[]string{"stability", "stable diffusion", "sdxl", "sd3"}, KindStability},
	{[]string{"flux", "black forest"}, KindBFL},
	{[]string{"recraft"}, KindRecraft},
}

// DetectKind classifies a provider display name.
// Matching is case-insensitive substring; no match falls through to generic.
func DetectKind(displayName string) Kind {
	name := strings.ToLower(displayName)
	for _, rule := range kindRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(name, pattern) {
				return rule.kind
			}
		}
	}
	return KindGeneric
}

// Kinds returns the closed set of provider kinds.
func Kinds() []Kind {
	return []Kind{
		KindOpenAI, KindGoogleGemini, KindGoogleImagen,
		KindBedrockNova, KindBedrockSD, KindStability,
		KindBFL, KindRecraft, KindGeneric,
	}
}
