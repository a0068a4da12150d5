// Package normalizer renders parsed upstream events as OpenAI-style
// chat.completion.chunk frames sharing one completion id.
package normalizer

import (
	"encoding/json"

	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/translator"
	log "github.com/sirupsen/logrus"
)

// Normalizer converts one stream of events into chunk JSON. The first delta
// carries the assistant role; tool calls are indexed in arrival order.
type Normalizer struct {
	id       string
	model    string
	sentRole bool
	toolIdx  int
}

// New creates a normalizer for one response stream.
func New(model string) *Normalizer {
	return &Normalizer{id: openai.NewCompletionID(), model: model}
}

// ID returns the completion id shared by every chunk.
func (n *Normalizer) ID() string { return n.id }

// Chunk renders one event as a chunk JSON payload. A nil return means the
// event produces no frame.
func (n *Normalizer) Chunk(event translator.Event) []byte {
	switch event.Kind {
	case translator.EventTextDelta:
		if event.Text == "" {
			return nil
		}
		text := event.Text
		delta := &openai.Delta{Content: &text}
		if !n.sentRole {
			delta.Role = openai.RoleAssistant
			n.sentRole = true
		}
		return n.marshal(openai.Choice{Index: 0, Delta: delta}, nil)
	case translator.EventToolCall:
		if event.ToolCall == nil {
			return nil
		}
		fn := event.ToolCall.Function
		delta := &openai.Delta{ToolCalls: []openai.ToolDelta{{
			Index:    n.toolIdx,
			ID:       event.ToolCall.ID,
			Type:     "function",
			Function: &fn,
		}}}
		if !n.sentRole {
			delta.Role = openai.RoleAssistant
			n.sentRole = true
		}
		n.toolIdx++
		return n.marshal(openai.Choice{Index: 0, Delta: delta}, nil)
	case translator.EventDone:
		finish := event.FinishReason
		if finish == "" {
			finish = translator.FinishStop
		}
		return n.marshal(openai.Choice{Index: 0, Delta: &openai.Delta{}, FinishReason: &finish}, event.Usage)
	default:
		return nil
	}
}

func (n *Normalizer) marshal(choice openai.Choice, usage *openai.Usage) []byte {
	chunk := openai.NewChunk(n.id, n.model)
	chunk.Choices = []openai.Choice{choice}
	chunk.Usage = usage
	data, err := json.Marshal(chunk)
	if err != nil {
		log.Errorf("normalizer: marshal chunk: %v", err)
		return nil
	}
	return data
}
