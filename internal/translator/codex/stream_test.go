package codex

import (
	"testing"

	"github.com/rotorgate/rotorgate/internal/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamPrefixDiff(t *testing.T) {
	state := NewStreamState()

	events := state.ParseLine([]byte(`{"type":"response.output_text.delta","delta":"Hel"}`))
	require.Len(t, events, 1)
	assert.Equal(t, "Hel", events[0].Text)

	events = state.ParseLine([]byte(`{"type":"response.output_text.delta","delta":"Hello wo"}`))
	require.Len(t, events, 1)
	assert.Equal(t, "lo wo", events[0].Text)

	// repeat of the accumulated text yields nothing
	events = state.ParseLine([]byte(`{"type":"response.output_text.delta","delta":"Hello wo"}`))
	assert.Empty(t, events)

	events = state.ParseLine([]byte(`{"type":"response.output_text.delta","delta":"Hello world"}`))
	require.Len(t, events, 1)
	assert.Equal(t, "rld", events[0].Text)
}

func TestStreamNeverEmitsEmptyDelta(t *testing.T) {
	state := NewStreamState()
	payloads := []string{
		`{"type":"response.output_text.delta","delta":""}`,
		`{"type":"response.output_text.delta","delta":"abc"}`,
		`{"type":"response.output_text.delta","delta":"abc"}`,
		`{"type":"response.output_text.delta","delta":"ab"}`,
	}
	for _, payload := range payloads {
		for _, event := range state.ParseLine([]byte(payload)) {
			if event.Kind == translator.EventTextDelta {
				assert.NotEmpty(t, event.Text)
			}
		}
	}
}

func TestStreamNonMonotonicTextIsSkipped(t *testing.T) {
	state := NewStreamState()
	state.ParseLine([]byte(`{"type":"response.output_text.delta","delta":"alpha"}`))
	events := state.ParseLine([]byte(`{"type":"response.output_text.delta","delta":"beta"}`))
	assert.Empty(t, events)
	// the emitted prefix is unchanged afterwards
	events = state.ParseLine([]byte(`{"type":"response.output_text.delta","delta":"alphabet"}`))
	require.Len(t, events, 1)
	assert.Equal(t, "bet", events[0].Text)
}

func TestStreamFunctionCallAccumulation(t *testing.T) {
	state := NewStreamState()

	assert.Empty(t, state.ParseLine([]byte(`{"type":"response.output_item.added","item":{"type":"function_call","id":"item_1","call_id":"call_1","name":"search","arguments":""}}`)))
	assert.Empty(t, state.ParseLine([]byte(`{"type":"response.function_call_arguments.delta","item_id":"item_1","delta":"{\"q\":"}`)))
	assert.Empty(t, state.ParseLine([]byte(`{"type":"response.function_call_arguments.delta","item_id":"item_1","delta":"\"go\"}"}`)))

	events := state.ParseLine([]byte(`{"type":"response.output_item.done","item":{"type":"function_call","id":"item_1","call_id":"call_1","name":"search"}}`))
	require.Len(t, events, 1)
	require.Equal(t, translator.EventToolCall, events[0].Kind)
	call := events[0].ToolCall
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "search", call.Function.Name)
	assert.JSONEq(t, `{"q":"go"}`, call.Function.Arguments)
}

func TestStreamCompleted(t *testing.T) {
	state := NewStreamState()
	state.ParseLine([]byte(`{"type":"response.output_item.added","item":{"type":"function_call","id":"i","call_id":"c","name":"f"}}`))
	state.ParseLine([]byte(`{"type":"response.output_item.done","item":{"type":"function_call","id":"i"}}`))

	events := state.ParseLine([]byte(`{"type":"response.completed","response":{"usage":{"input_tokens":4,"output_tokens":1,"total_tokens":5}}}`))
	require.Len(t, events, 1)
	assert.Equal(t, translator.EventDone, events[0].Kind)
	assert.Equal(t, translator.FinishToolCalls, events[0].FinishReason)
	require.NotNil(t, events[0].Usage)
	assert.Equal(t, 5, events[0].Usage.TotalTokens)
}

func TestStreamOlderShapeResendsFullText(t *testing.T) {
	state := NewStreamState()

	events := state.ParseLine([]byte(`{"message":{"content":{"parts":["Hi"]}}}`))
	require.Len(t, events, 1)
	assert.Equal(t, "Hi", events[0].Text)

	events = state.ParseLine([]byte(`{"message":{"content":{"parts":["Hi there"]}}}`))
	require.Len(t, events, 1)
	assert.Equal(t, " there", events[0].Text)
}

func TestStreamMalformedFrame(t *testing.T) {
	state := NewStreamState()
	events := state.ParseLine([]byte(`{"type":`))
	require.Len(t, events, 1)
	assert.Equal(t, translator.EventUnrecognized, events[0].Kind)
}
