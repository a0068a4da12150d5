package normalizer

import (
	"testing"

	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestFirstChunkCarriesRole(t *testing.T) {
	norm := New("gpt-5")

	first := norm.Chunk(translator.Event{Kind: translator.EventTextDelta, Text: "Hel"})
	require.NotNil(t, first)
	root := gjson.ParseBytes(first)
	assert.Equal(t, "chat.completion.chunk", root.Get("object").String())
	assert.Equal(t, norm.ID(), root.Get("id").String())
	assert.Equal(t, "assistant", root.Get("choices.0.delta.role").String())
	assert.Equal(t, "Hel", root.Get("choices.0.delta.content").String())
	assert.True(t, root.Get("choices.0.finish_reason").Type == gjson.Null)

	second := norm.Chunk(translator.Event{Kind: translator.EventTextDelta, Text: "lo"})
	assert.False(t, gjson.GetBytes(second, "choices.0.delta.role").Exists())
}

func TestToolCallChunksAreIndexed(t *testing.T) {
	norm := New("gpt-5")
	call := func(id string) translator.Event {
		return translator.Event{Kind: translator.EventToolCall, ToolCall: &openai.ToolCall{
			ID: id, Type: "function",
			Function: openai.FunctionCall{Name: "f", Arguments: "{}"},
		}}
	}
	first := norm.Chunk(call("call_a"))
	second := norm.Chunk(call("call_b"))

	assert.Equal(t, int64(0), gjson.GetBytes(first, "choices.0.delta.tool_calls.0.index").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(second, "choices.0.delta.tool_calls.0.index").Int())
	assert.Equal(t, "call_b", gjson.GetBytes(second, "choices.0.delta.tool_calls.0.id").String())
}

func TestDoneChunk(t *testing.T) {
	norm := New("gpt-5")
	done := norm.Chunk(translator.Event{
		Kind:         translator.EventDone,
		FinishReason: translator.FinishStop,
		Usage:        &openai.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
	})
	root := gjson.ParseBytes(done)
	assert.Equal(t, "stop", root.Get("choices.0.finish_reason").String())
	assert.Equal(t, int64(5), root.Get("usage.total_tokens").Int())
}

func TestIgnoredEvents(t *testing.T) {
	norm := New("gpt-5")
	assert.Nil(t, norm.Chunk(translator.Event{Kind: translator.EventUnrecognized}))
	assert.Nil(t, norm.Chunk(translator.Event{Kind: translator.EventTextDelta, Text: ""}))
}
