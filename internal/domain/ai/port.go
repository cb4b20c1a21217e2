package ai

import "context"

// Call is a single request to the generation service.
type Call struct {
	Model  string
	Prompt string
	Params SamplingParams
}

// Transport talks to a text-generation backend. Generate returns the
// response text trimmed of surrounding whitespace.
type Transport interface {
	Generate(ctx context.Context, call Call) (string, error)
	Models(ctx context.Context) ([]string, error)
}
