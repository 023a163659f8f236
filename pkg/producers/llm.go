// Package producers implements the pipeline's external collaborators:
// the plan producer and the code producer, both backed by a remote
// text-completion service behind the LLMClient interface.
//
// All producer operations are nondeterministic, latency-bearing,
// fallible black boxes from the execution loop's perspective. Transport
// and service failures surface as errors, never as silent empty results;
// unparseable plan output degrades to an explicit fallback plan.
package producers

import "context"

// Params tunes a single generation call.
type Params struct {
	// Temperature controls sampling randomness. Nil uses the service
	// default.
	Temperature *float32

	// MaxTokens caps the completion length. Nil uses the service
	// default.
	MaxTokens *int
}

// LLMClient is the interface to any text-completion backend.
type LLMClient interface {
	// Generate returns the completion for the given system and user
	// prompts. An empty completion is an error, never an empty string.
	Generate(ctx context.Context, system, user string, params Params) (string, error)
}

// float32Ptr and intPtr build optional parameter values.
func float32Ptr(v float32) *float32 { return &v }
func intPtr(v int) *int             { return &v }
