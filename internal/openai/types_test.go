package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentAcceptsStringAndParts(t *testing.T) {
	var fromString Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"plain"}`), &fromString))
	assert.False(t, fromString.Content.IsParts())
	assert.Equal(t, "plain", fromString.Content.PlainText())

	var fromParts Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`), &fromParts))
	assert.True(t, fromParts.Content.IsParts())
	assert.Equal(t, "a\nb", fromParts.Content.PlainText())
	assert.Len(t, fromParts.Content.PartList(), 2)
}

func TestContentMarshalPreservesClientForm(t *testing.T) {
	data, err := json.Marshal(Message{Role: RoleUser, Content: Text("hi")})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content":"hi"`)

	data, err = json.Marshal(Message{Role: RoleUser, Content: Parts(ContentPart{Type: "text", Text: "hi"})})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content":[{"type":"text","text":"hi"}]`)
}

func TestHasToolHistory(t *testing.T) {
	assert.False(t, HasToolHistory([]Message{
		{Role: RoleUser, Content: Text("hi")},
		{Role: RoleAssistant, Content: Text("hello")},
	}))
	assert.True(t, HasToolHistory([]Message{
		{Role: RoleTool, ToolCallID: "call_1", Content: Text("ok")},
	}))
	assert.True(t, HasToolHistory([]Message{
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Type: "function"}}},
	}))
}

func TestValidateRequest(t *testing.T) {
	assert.Error(t, ValidateRequest(nil))
	assert.Error(t, ValidateRequest(&ChatRequest{Messages: []Message{{Role: RoleUser}}}))
	assert.Error(t, ValidateRequest(&ChatRequest{Model: "m"}))
	assert.NoError(t, ValidateRequest(&ChatRequest{Model: "m", Messages: []Message{{Role: RoleUser, Content: Text("x")}}}))
}

func TestNewToolCallID(t *testing.T) {
	id := NewToolCallID()
	assert.Len(t, id, len("call_")+24)
	assert.NotEqual(t, id, NewToolCallID())
}
