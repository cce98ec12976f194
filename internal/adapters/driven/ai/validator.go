package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by building the service and
// pinging it. It backs 'notebook settings check'.
type ConfigValidator struct {
	// Timeout bounds each ping. Zero uses pingTimeout.
	Timeout time.Duration
}

// NewConfigValidator returns a validator with the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{Timeout: pingTimeout}
}

func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	ctx, cancel := v.withTimeout(ctx)
	defer cancel()
	return ValidateEmbeddingConfig(ctx, config)
}

// ValidateLLM accepts an unconfigured LLM, since answers are optional.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	ctx, cancel := v.withTimeout(ctx)
	defer cancel()
	return ValidateLLMConfig(ctx, config)
}

func (v *ConfigValidator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = pingTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
