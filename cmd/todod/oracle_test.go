package main

import (
	"context"
	"errors"
	"testing"

	"github.com/GoCodeAlone/todochat/config"
	"github.com/GoCodeAlone/todochat/provider"
)

func TestNewOracle(t *testing.T) {
	ctx := context.Background()

	if _, err := newOracle(ctx, config.OracleConfig{Provider: config.ProviderNone}); !errors.Is(err, errOracleDisabled) {
		t.Errorf("none: expected errOracleDisabled, got %v", err)
	}
	if _, err := newOracle(ctx, config.OracleConfig{Provider: config.ProviderOpenAI}); !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("openai without key: expected ErrUnavailable, got %v", err)
	}

	tests := []struct {
		cfg  config.OracleConfig
		want string
	}{
		{config.OracleConfig{Provider: config.ProviderMock}, "mock"},
		{config.OracleConfig{Provider: config.ProviderOpenAI, APIKey: "k"}, "openai"},
		{config.OracleConfig{Provider: config.ProviderAnthropic, APIKey: "k"}, "anthropic"},
		{config.OracleConfig{Provider: config.ProviderGemini, APIKey: "k"}, "gemini"},
	}
	for _, tt := range tests {
		p, err := newOracle(ctx, tt.cfg)
		if err != nil {
			t.Fatalf("%s: %v", tt.cfg.Provider, err)
		}
		if p.Name() != tt.want {
			t.Errorf("Name() = %q, want %q", p.Name(), tt.want)
		}
	}
}
