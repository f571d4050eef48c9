// Package provider implements the model-calling capability against real
// model APIs: Anthropic's Messages API and OpenAI's Responses API, each in
// blocking and streaming form. Adapters own timeout enforcement; the loop
// core only threads the configured value through.
package provider

import (
	"context"
	"strings"
	"time"
)

// IsAnthropicModel reports whether a model name routes to the Anthropic
// adapter. Claude models do; everything else goes to OpenAI.
func IsAnthropicModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "claude")
}

// callContext applies the per-request timeout when one is configured.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}
