package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoCodeAlone/todochat/config"
	"github.com/GoCodeAlone/todochat/provider"
	"github.com/GoCodeAlone/todochat/provider/anthropic"
	"github.com/GoCodeAlone/todochat/provider/gemini"
	"github.com/GoCodeAlone/todochat/provider/mock"
	"github.com/GoCodeAlone/todochat/provider/openai"
)

var errOracleDisabled = errors.New("oracle disabled")

// newOracle builds the configured oracle backend. A hosted provider without
// an API key is reported as provider.ErrUnavailable.
func newOracle(ctx context.Context, cfg config.OracleConfig) (provider.Provider, error) {
	switch cfg.Provider {
	case "", config.ProviderNone:
		return nil, errOracleDisabled
	case config.ProviderMock:
		return mock.New(), nil
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%s: no API key: %w", cfg.Provider, provider.ErrUnavailable)
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.ProviderOpenAI:
		return openai.New(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case config.ProviderAnthropic:
		return anthropic.New(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
