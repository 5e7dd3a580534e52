// Package provider defines the text-generation backend interface the command
// interpreter consults before falling back to its own rules.
package provider

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by a backend that cannot serve requests, for
// example because it has no credentials.
var ErrUnavailable = errors.New("provider unavailable")

// Role identifies the sender of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn sent to the backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options bounds a single completion.
type Options struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

// Response is a completed (non-streaming) provider response.
type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Provider is a hosted text-generation backend.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini", "openai", "mock").
	Name() string

	// Chat sends a non-streaming request and returns the complete response.
	// A system message, if present, is passed as the backend's system
	// instruction.
	Chat(ctx context.Context, messages []Message, opts Options) (*Response, error)
}

// SplitSystem separates system messages from conversation turns. Multiple
// system messages are joined with blank lines.
func SplitSystem(messages []Message) (system string, turns []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
