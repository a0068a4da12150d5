// Package translator defines the tagged event model shared by the provider
// adapters. Dynamically-shaped upstream JSON is parsed into these variants at
// the adapter boundary so loosely-typed payloads never travel further into
// the system.
package translator

import "github.com/rotorgate/rotorgate/internal/openai"

// EventKind tags one parsed upstream stream event.
type EventKind int

const (
	// EventTextDelta carries a non-empty forward text increment.
	EventTextDelta EventKind = iota
	// EventToolCall carries one complete model-issued tool call.
	EventToolCall
	// EventDone closes the stream, optionally carrying finish reason and usage.
	EventDone
	// EventUnrecognized marks a frame the adapter could not interpret.
	// Consumers skip it; a single malformed frame is never fatal.
	EventUnrecognized
)

// Event is one parsed upstream stream event. Err is set only on a terminal
// Done event produced after a mid-stream transport failure.
type Event struct {
	Kind         EventKind
	Text         string
	ToolCall     *openai.ToolCall
	FinishReason string
	Usage        *openai.Usage
	Err          error
}

// Finish reasons in OpenAI vocabulary.
const (
	FinishStop      = "stop"
	FinishLength    = "length"
	FinishToolCalls = "tool_calls"
)
