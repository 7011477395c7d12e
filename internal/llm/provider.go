// Package llm implements the external generation tiers: a local Ollama
// service and an OpenAI-compatible hosted endpoint, plus the plumbing to
// carve structured plans out of raw model text.
package llm

import "context"

// Provider is one external generation backend. Generate returns the raw
// model text; callers extract structure from it. Probe is a lightweight
// reachability check, never a full generation attempt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	Probe(ctx context.Context) error
}
