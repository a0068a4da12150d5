package codex

import (
	"testing"

	"github.com/rotorgate/rotorgate/internal/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseOutputItems(t *testing.T) {
	body := []byte(`{"output":[
		{"type":"reasoning","summary":[]},
		{"type":"message","content":[{"type":"output_text","text":"Hello "},{"type":"output_text","text":"world"}]}
	],"usage":{"input_tokens":9,"output_tokens":2,"total_tokens":11}}`)

	completion, err := ParseResponse(body, "gpt-5")
	require.NoError(t, err)
	choice := completion.Choices[0]
	assert.Equal(t, "Hello world", *choice.Message.Content)
	assert.Equal(t, translator.FinishStop, *choice.FinishReason)
	require.NotNil(t, completion.Usage)
	assert.Equal(t, 11, completion.Usage.TotalTokens)
}

func TestParseResponseOlderMessageShape(t *testing.T) {
	body := []byte(`{"message":{"content":{"parts":["full text answer"]}}}`)
	completion, err := ParseResponse(body, "gpt-5")
	require.NoError(t, err)
	assert.Equal(t, "full text answer", *completion.Choices[0].Message.Content)
}

func TestParseResponseNewerShapeTakesPrecedence(t *testing.T) {
	body := []byte(`{
		"output":[{"type":"message","content":[{"type":"output_text","text":"newer"}]}],
		"message":{"content":{"parts":["older"]}}
	}`)
	completion, err := ParseResponse(body, "gpt-5")
	require.NoError(t, err)
	assert.Equal(t, "newer", *completion.Choices[0].Message.Content)
}

func TestParseResponseFunctionCall(t *testing.T) {
	body := []byte(`{"output":[
		{"type":"function_call","call_id":"call_3","name":"search","arguments":"{\"q\":\"go\"}"}
	]}`)
	completion, err := ParseResponse(body, "gpt-5")
	require.NoError(t, err)
	choice := completion.Choices[0]
	require.Len(t, choice.Message.ToolCalls, 1)
	assert.Equal(t, "call_3", choice.Message.ToolCalls[0].ID)
	assert.Equal(t, "search", choice.Message.ToolCalls[0].Function.Name)
	assert.Equal(t, translator.FinishToolCalls, *choice.FinishReason)
}

func TestParseResponseUnrecognizedShape(t *testing.T) {
	_, err := ParseResponse([]byte(`{"something":"else"}`), "gpt-5")
	assert.Error(t, err)
}
