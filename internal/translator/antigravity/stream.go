package antigravity

import (
	"github.com/rotorgate/rotorgate/internal/translator"
	"github.com/tidwall/gjson"
)

// StreamState tracks what a single upstream stream has produced so far, so
// the terminal finish reason can distinguish tool-call turns.
type StreamState struct {
	sawToolCall bool
}

// ParseLine converts one SSE payload (the JSON after the "data: " prefix)
// into zero or more events. A frame that is not valid JSON yields a single
// Unrecognized event; the stream continues.
func (s *StreamState) ParseLine(payload []byte) []translator.Event {
	if !gjson.ValidBytes(payload) {
		return []translator.Event{{Kind: translator.EventUnrecognized}}
	}
	root := responseRoot(payload)
	candidate := root.Get("candidates.0")

	var events []translator.Event
	candidate.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
		if part.Get("thought").Bool() {
			return true
		}
		if t := part.Get("text"); t.Exists() {
			if t.String() != "" {
				events = append(events, translator.Event{Kind: translator.EventTextDelta, Text: t.String()})
			}
			return true
		}
		if call := part.Get("functionCall"); call.Exists() {
			s.sawToolCall = true
			toolCall := toolCallFromPart(call)
			events = append(events, translator.Event{Kind: translator.EventToolCall, ToolCall: &toolCall})
		}
		return true
	})

	if reason := candidate.Get("finishReason"); reason.Exists() && reason.String() != "" {
		done := translator.Event{
			Kind:         translator.EventDone,
			FinishReason: MapFinishReason(reason.String(), s.sawToolCall),
		}
		done.Usage = usageFrom(root)
		events = append(events, done)
	}
	return events
}
