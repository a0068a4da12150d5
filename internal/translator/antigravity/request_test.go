package antigravity

import (
	"encoding/json"
	"testing"

	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func claudeEntry() registry.ModelEntry {
	return registry.ModelEntry{
		ID:            "claude-sonnet-4.5-thinking",
		Provider:      registry.ProviderAntigravity,
		UpstreamModel: "claude-sonnet-4-5-thinking",
		OutputLimit:   64000,
		Thinking:      registry.ThinkingConfig{Mode: registry.ThinkingBudget, Budget: 16384},
	}
}

func geminiEntry() registry.ModelEntry {
	return registry.ModelEntry{
		ID:            "gemini-3-pro",
		Provider:      registry.ProviderAntigravity,
		UpstreamModel: "gemini-3-pro-high",
		OutputLimit:   65536,
		Thinking:      registry.ThinkingConfig{Mode: registry.ThinkingLevel, Level: "high"},
	}
}

func TestBuildRequestBasicShape(t *testing.T) {
	req := &openai.ChatRequest{
		Model: "gemini-3-pro",
		Messages: []openai.Message{
			{Role: openai.RoleSystem, Content: openai.Text("Be terse.")},
			{Role: openai.RoleSystem, Content: openai.Text("Answer in English.")},
			{Role: openai.RoleUser, Content: openai.Text("Hello!")},
			{Role: openai.RoleAssistant, Content: openai.Text("Hi.")},
		},
	}
	body, err := BuildRequest(req, geminiEntry(), "project-1")
	require.NoError(t, err)
	root := gjson.ParseBytes(body)

	assert.Equal(t, "gemini-3-pro-high", root.Get("model").String())
	assert.Equal(t, "project-1", root.Get("project").String())
	assert.NotEmpty(t, root.Get("requestId").String())
	assert.Equal(t, "Be terse.\n\nAnswer in English.", root.Get("request.systemInstruction.parts.0.text").String())

	contents := root.Get("request.contents").Array()
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Get("role").String())
	assert.Equal(t, "Hello!", contents[0].Get("parts.0.text").String())
	assert.Equal(t, "model", contents[1].Get("role").String())
	assert.Equal(t, "Hi.", contents[1].Get("parts.0.text").String())

	assert.Equal(t, "high", root.Get("request.generationConfig.thinkingConfig.thinkingLevel").String())
	assert.Equal(t, int64(65536), root.Get("request.generationConfig.maxOutputTokens").Int())
}

func TestBuildRequestToolRoundTrip(t *testing.T) {
	req := &openai.ChatRequest{
		Model: "gemini-3-pro",
		Messages: []openai.Message{
			{Role: openai.RoleUser, Content: openai.Text("weather?")},
			{Role: openai.RoleAssistant, ToolCalls: []openai.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: openai.FunctionCall{Name: "get_weather", Arguments: `{"city":"Oslo"}`},
			}}},
			{Role: openai.RoleTool, ToolCallID: "call_1", Name: "get_weather", Content: openai.Text(`{"temp":3}`)},
			{Role: openai.RoleUser, Content: openai.Text("and tomorrow?")},
		},
		Tools: []openai.Tool{{
			Type: "function",
			Function: openai.FunctionDef{
				Name:       "get_weather",
				Parameters: json.RawMessage(`{"type":"object","properties":{"city":{"type":"string","minLength":1}}}`),
			},
		}},
	}
	body, err := BuildRequest(req, geminiEntry(), "p")
	require.NoError(t, err)
	root := gjson.ParseBytes(body)

	contents := root.Get("request.contents").Array()
	require.Len(t, contents, 4)
	assert.Equal(t, "get_weather", contents[1].Get("parts.0.functionCall.name").String())
	assert.Equal(t, "Oslo", contents[1].Get("parts.0.functionCall.args.city").String())

	// the buffered tool result flushes as a user turn before the next user turn
	assert.Equal(t, "user", contents[2].Get("role").String())
	assert.Equal(t, "get_weather", contents[2].Get("parts.0.functionResponse.name").String())
	assert.Equal(t, int64(3), contents[2].Get("parts.0.functionResponse.response.temp").Int())
	assert.Equal(t, "and tomorrow?", contents[3].Get("parts.0.text").String())

	decl := root.Get("request.tools.0.functionDeclarations.0")
	assert.Equal(t, "get_weather", decl.Get("name").String())
	assert.False(t, decl.Get("parameters.properties.city.minLength").Exists())
}

func TestBuildRequestTrailingToolResultFlushes(t *testing.T) {
	req := &openai.ChatRequest{
		Model: "gemini-3-pro",
		Messages: []openai.Message{
			{Role: openai.RoleUser, Content: openai.Text("go")},
			{Role: openai.RoleAssistant, ToolCalls: []openai.ToolCall{{
				ID: "call_9", Type: "function",
				Function: openai.FunctionCall{Name: "run", Arguments: `{}`},
			}}},
			{Role: openai.RoleTool, ToolCallID: "call_9", Name: "run", Content: openai.Text("done")},
		},
	}
	body, err := BuildRequest(req, geminiEntry(), "p")
	require.NoError(t, err)

	contents := gjson.GetBytes(body, "request.contents").Array()
	require.Len(t, contents, 3)
	last := contents[2]
	assert.Equal(t, "user", last.Get("role").String())
	assert.Equal(t, "done", last.Get("parts.0.functionResponse.response.result").String())
}

func TestThinkingSuppressedForClaudeWithToolHistory(t *testing.T) {
	req := &openai.ChatRequest{
		Model: "claude-sonnet-4.5-thinking",
		Messages: []openai.Message{
			{Role: openai.RoleUser, Content: openai.Text("go")},
			{Role: openai.RoleAssistant, ToolCalls: []openai.ToolCall{{
				ID: "call_1", Type: "function",
				Function: openai.FunctionCall{Name: "run", Arguments: "{}"},
			}}},
			{Role: openai.RoleTool, ToolCallID: "call_1", Content: openai.Text("ok")},
		},
	}
	body, err := BuildRequest(req, claudeEntry(), "p")
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(body, "request.generationConfig.thinkingConfig").Exists())
}

func TestThinkingEnabledForClaudeWithoutToolHistory(t *testing.T) {
	req := &openai.ChatRequest{
		Model: "claude-sonnet-4.5-thinking",
		Messages: []openai.Message{
			{Role: openai.RoleUser, Content: openai.Text("hi")},
		},
	}
	body, err := BuildRequest(req, claudeEntry(), "p")
	require.NoError(t, err)
	cfg := gjson.GetBytes(body, "request.generationConfig.thinkingConfig")
	require.True(t, cfg.Exists())
	assert.Equal(t, int64(16384), cfg.Get("thinkingBudget").Int())
	assert.True(t, cfg.Get("includeThoughts").Bool())
}

func TestThinkingBudgetRaisesStarvedMaxTokens(t *testing.T) {
	req := &openai.ChatRequest{
		Model:     "claude-sonnet-4.5-thinking",
		MaxTokens: 4096,
		Messages: []openai.Message{
			{Role: openai.RoleUser, Content: openai.Text("hi")},
		},
	}
	body, err := BuildRequest(req, claudeEntry(), "p")
	require.NoError(t, err)
	assert.Equal(t, int64(64000), gjson.GetBytes(body, "request.generationConfig.maxOutputTokens").Int())
}

func TestToolChoiceStringModes(t *testing.T) {
	tools := []openai.Tool{{
		Type:     "function",
		Function: openai.FunctionDef{Name: "get_weather"},
	}}
	cases := map[string]string{
		"auto":     "AUTO",
		"none":     "NONE",
		"required": "ANY",
	}
	for choice, mode := range cases {
		req := &openai.ChatRequest{
			Model:      "gemini-3-pro",
			Messages:   []openai.Message{{Role: openai.RoleUser, Content: openai.Text("hi")}},
			Tools:      tools,
			ToolChoice: choice,
		}
		body, err := BuildRequest(req, geminiEntry(), "p")
		require.NoError(t, err)
		assert.Equal(t, mode, gjson.GetBytes(body, "request.toolConfig.functionCallingConfig.mode").String(), choice)
	}
}

func TestToolChoiceNamedFunction(t *testing.T) {
	req := &openai.ChatRequest{
		Model:    "gemini-3-pro",
		Messages: []openai.Message{{Role: openai.RoleUser, Content: openai.Text("hi")}},
		Tools: []openai.Tool{{
			Type:     "function",
			Function: openai.FunctionDef{Name: "get_weather"},
		}},
		ToolChoice: map[string]any{
			"type":     "function",
			"function": map[string]any{"name": "get_weather"},
		},
	}
	body, err := BuildRequest(req, geminiEntry(), "p")
	require.NoError(t, err)

	cfg := gjson.GetBytes(body, "request.toolConfig.functionCallingConfig")
	assert.Equal(t, "ANY", cfg.Get("mode").String())
	assert.Equal(t, "get_weather", cfg.Get("allowedFunctionNames.0").String())
}

func TestToolChoiceAbsentLeavesConfigOut(t *testing.T) {
	req := &openai.ChatRequest{
		Model:    "gemini-3-pro",
		Messages: []openai.Message{{Role: openai.RoleUser, Content: openai.Text("hi")}},
		Tools: []openai.Tool{{
			Type:     "function",
			Function: openai.FunctionDef{Name: "get_weather"},
		}},
	}
	body, err := BuildRequest(req, geminiEntry(), "p")
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(body, "request.toolConfig").Exists())
}

func TestInlineImagePart(t *testing.T) {
	req := &openai.ChatRequest{
		Model: "gemini-3-pro",
		Messages: []openai.Message{
			{Role: openai.RoleUser, Content: openai.Parts(
				openai.ContentPart{Type: "text", Text: "what is this?"},
				openai.ContentPart{Type: "image_url", ImageURL: &openai.ImageURL{URL: "data:image/png;base64,aGVsbG8="}},
			)},
		},
	}
	body, err := BuildRequest(req, geminiEntry(), "p")
	require.NoError(t, err)

	parts := gjson.GetBytes(body, "request.contents.0.parts").Array()
	require.Len(t, parts, 2)
	assert.Equal(t, "what is this?", parts[0].Get("text").String())
	assert.Equal(t, "image/png", parts[1].Get("inlineData.mimeType").String())
	assert.Equal(t, "aGVsbG8=", parts[1].Get("inlineData.data").String())
}
