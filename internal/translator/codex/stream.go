package codex

import (
	"strings"

	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/translator"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// StreamState tracks one upstream stream: the longest text prefix already
// emitted and any function call whose arguments are still accumulating.
//
// The upstream resends the full accumulated text on each text event rather
// than an increment, so the adapter computes the forward difference before
// yielding a delta. Text that is not an extension of what was already
// emitted violates the prefix-stability assumption; such an event is logged
// and skipped rather than guessed at.
type StreamState struct {
	emitted     string
	sawToolCall bool

	pendingCall map[string]*pendingCall
}

type pendingCall struct {
	callID string
	name   string
	args   strings.Builder
}

// NewStreamState creates the per-stream parser state.
func NewStreamState() *StreamState {
	return &StreamState{pendingCall: make(map[string]*pendingCall)}
}

// ParseLine converts one SSE payload into zero or more events. Unparseable
// frames yield a single Unrecognized event and the stream continues.
func (s *StreamState) ParseLine(payload []byte) []translator.Event {
	if !gjson.ValidBytes(payload) {
		return []translator.Event{{Kind: translator.EventUnrecognized}}
	}
	data := gjson.ParseBytes(payload)

	switch data.Get("type").String() {
	case "response.output_text.delta":
		return s.textEvents(data.Get("delta").String())
	case "response.output_item.added":
		item := data.Get("item")
		if item.Get("type").String() == "function_call" {
			id := item.Get("id").String()
			if id == "" {
				id = item.Get("call_id").String()
			}
			call := &pendingCall{
				callID: item.Get("call_id").String(),
				name:   item.Get("name").String(),
			}
			call.args.WriteString(item.Get("arguments").String())
			s.pendingCall[id] = call
		}
		return nil
	case "response.function_call_arguments.delta":
		if call, ok := s.pendingCall[data.Get("item_id").String()]; ok {
			call.args.WriteString(data.Get("delta").String())
		}
		return nil
	case "response.output_item.done":
		return s.finishItem(data.Get("item"))
	case "response.completed":
		finish := translator.FinishStop
		if s.sawToolCall {
			finish = translator.FinishToolCalls
		}
		return []translator.Event{{
			Kind:         translator.EventDone,
			FinishReason: finish,
			Usage:        usageFrom(data.Get("response")),
		}}
	case "":
		// older conversation-message shape resends the whole text
		if parts := data.Get("message.content.parts"); parts.IsArray() {
			return s.textEvents(parts.Get("0").String())
		}
		return []translator.Event{{Kind: translator.EventUnrecognized}}
	default:
		return nil
	}
}

// textEvents diffs the accumulated upstream text against what was already
// emitted and yields the non-empty forward difference.
func (s *StreamState) textEvents(accumulated string) []translator.Event {
	if accumulated == "" || accumulated == s.emitted {
		return nil
	}
	if !strings.HasPrefix(accumulated, s.emitted) {
		if strings.HasPrefix(s.emitted, accumulated) {
			// stale repeat of an earlier prefix
			return nil
		}
		log.Warnf("codex stream: text is not an extension of the emitted prefix (%d emitted, %d received), skipping event", len(s.emitted), len(accumulated))
		return nil
	}
	delta := accumulated[len(s.emitted):]
	s.emitted = accumulated
	return []translator.Event{{Kind: translator.EventTextDelta, Text: delta}}
}

func (s *StreamState) finishItem(item gjson.Result) []translator.Event {
	if item.Get("type").String() != "function_call" {
		return nil
	}
	id := item.Get("id").String()
	if id == "" {
		id = item.Get("call_id").String()
	}
	callID := item.Get("call_id").String()
	name := item.Get("name").String()
	args := item.Get("arguments").String()
	if call, ok := s.pendingCall[id]; ok {
		if callID == "" {
			callID = call.callID
		}
		if name == "" {
			name = call.name
		}
		if args == "" {
			args = call.args.String()
		}
		delete(s.pendingCall, id)
	}
	if callID == "" {
		callID = openai.NewToolCallID()
	}
	if args == "" {
		args = "{}"
	}
	s.sawToolCall = true
	toolCall := &openai.ToolCall{
		ID:   callID,
		Type: "function",
		Function: openai.FunctionCall{Name: name, Arguments: args},
	}
	return []translator.Event{{Kind: translator.EventToolCall, ToolCall: toolCall}}
}
