package extract

import (
	"context"
	"fmt"
	"strings"
)

// ProviderOptions selects and configures the fallback extraction backend.
type ProviderOptions struct {
	// Provider is one of "auto", "bedrock", "gemini", "off".
	Provider       string
	BedrockAPI     bedrockConverseAPI
	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string
}

// NewAIExtractor picks the configured provider, or with "auto" the first one
// that is fully configured (bedrock before gemini). Returns (nil, nil) when
// no provider is available; callers treat a nil extractor as heuristics-only.
func NewAIExtractor(ctx context.Context, opts ProviderOptions) (AIExtractor, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))

	bedrockReady := opts.BedrockAPI != nil && strings.TrimSpace(opts.BedrockModelID) != ""
	geminiReady := strings.TrimSpace(opts.GeminiAPIKey) != ""

	switch provider {
	case "off":
		return nil, nil
	case "bedrock":
		return NewBedrockExtractor(opts.BedrockAPI, opts.BedrockModelID)
	case "gemini":
		return NewGeminiExtractor(ctx, opts.GeminiAPIKey, opts.GeminiModelID)
	case "", "auto":
		if bedrockReady {
			return NewBedrockExtractor(opts.BedrockAPI, opts.BedrockModelID)
		}
		if geminiReady {
			return NewGeminiExtractor(ctx, opts.GeminiAPIKey, opts.GeminiModelID)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("extract: unknown AI provider %q", provider)
	}
}
