// Package antigravity converts canonical chat requests and responses to and
// from the Google generative-content wire format: contents/parts messages,
// functionCall and functionResponse parts, sanitized tool schemas and the
// thinkingConfig generation knob.
package antigravity

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/registry"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// maxTokensCeiling is applied when a fixed thinking budget would starve the
// requested output limit.
const maxTokensCeiling = 64000

// ClaudeFamily reports whether an upstream model name belongs to the Claude
// family, which rejects thinking configuration once the conversation replays
// tool calls.
func ClaudeFamily(upstreamModel string) bool {
	return strings.Contains(strings.ToLower(upstreamModel), "claude")
}

// BuildRequest renders the upstream generateContent envelope for one chat
// request.
func BuildRequest(req *openai.ChatRequest, entry registry.ModelEntry, projectID string) ([]byte, error) {
	out := `{"model":"","project":"","requestId":"","request":{}}`
	out, _ = sjson.Set(out, "model", entry.UpstreamModel)
	out, _ = sjson.Set(out, "project", projectID)
	out, _ = sjson.Set(out, "requestId", "agent-"+uuid.NewString())

	if system := collectSystemText(req.Messages); system != "" {
		part, _ := sjson.Set(`{"text":""}`, "text", system)
		out, _ = sjson.SetRaw(out, "request.systemInstruction", `{"role":"user","parts":[`+part+`]}`)
	}

	contents, err := buildContents(req.Messages)
	if err != nil {
		return nil, err
	}
	out, _ = sjson.SetRaw(out, "request.contents", contents)

	if len(req.Tools) > 0 {
		decls := "[]"
		for _, tool := range req.Tools {
			decl, _ := sjson.Set(`{"name":""}`, "name", tool.Function.Name)
			if tool.Function.Description != "" {
				decl, _ = sjson.Set(decl, "description", tool.Function.Description)
			}
			if len(tool.Function.Parameters) > 0 {
				decl, _ = sjson.SetRaw(decl, "parameters", string(SanitizeSchema(tool.Function.Parameters)))
			}
			decls, _ = sjson.SetRaw(decls, "-1", decl)
		}
		out, _ = sjson.SetRaw(out, "request.tools", `[{"functionDeclarations":`+decls+`}]`)
		out = applyToolChoice(out, req.ToolChoice)
	}

	out = applyGenerationConfig(out, req, entry)
	return []byte(out), nil
}

// applyToolChoice maps the OpenAI tool_choice value onto the upstream
// functionCallingConfig. Unrecognized values are left out rather than
// guessed at.
func applyToolChoice(out string, choice any) string {
	switch value := choice.(type) {
	case string:
		switch value {
		case "auto":
			out, _ = sjson.Set(out, "request.toolConfig.functionCallingConfig.mode", "AUTO")
		case "none":
			out, _ = sjson.Set(out, "request.toolConfig.functionCallingConfig.mode", "NONE")
		case "required":
			out, _ = sjson.Set(out, "request.toolConfig.functionCallingConfig.mode", "ANY")
		}
	case map[string]any:
		fn, _ := value["function"].(map[string]any)
		name, _ := fn["name"].(string)
		if name != "" {
			out, _ = sjson.Set(out, "request.toolConfig.functionCallingConfig.mode", "ANY")
			out, _ = sjson.Set(out, "request.toolConfig.functionCallingConfig.allowedFunctionNames.0", name)
		}
	}
	return out
}

// collectSystemText collapses every system message into one block, blank-line
// separated, in message order.
func collectSystemText(messages []openai.Message) string {
	var blocks []string
	for i := range messages {
		if messages[i].Role != openai.RoleSystem {
			continue
		}
		if text := messages[i].Content.PlainText(); text != "" {
			blocks = append(blocks, text)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// buildContents walks the non-system messages in order. Tool results are
// buffered and flushed as a user turn of functionResponse parts immediately
// before the next non-tool message, with a trailing flush when the list ends
// on tool results.
func buildContents(messages []openai.Message) (string, error) {
	contents := "[]"
	var pendingResults []string

	flush := func() {
		if len(pendingResults) == 0 {
			return
		}
		turn := `{"role":"user","parts":[]}`
		for _, part := range pendingResults {
			turn, _ = sjson.SetRaw(turn, "parts.-1", part)
		}
		contents, _ = sjson.SetRaw(contents, "-1", turn)
		pendingResults = nil
	}

	for i := range messages {
		msg := &messages[i]
		switch msg.Role {
		case openai.RoleSystem:
			continue
		case openai.RoleTool:
			pendingResults = append(pendingResults, functionResponsePart(msg))
		case openai.RoleUser:
			flush()
			turn := `{"role":"user","parts":[]}`
			for _, part := range contentParts(msg.Content) {
				turn, _ = sjson.SetRaw(turn, "parts.-1", part)
			}
			contents, _ = sjson.SetRaw(contents, "-1", turn)
		case openai.RoleAssistant:
			flush()
			turn := `{"role":"model","parts":[]}`
			if text := msg.Content.PlainText(); text != "" {
				part, _ := sjson.Set(`{"text":""}`, "text", text)
				turn, _ = sjson.SetRaw(turn, "parts.-1", part)
			}
			for _, call := range msg.ToolCalls {
				turn, _ = sjson.SetRaw(turn, "parts.-1", functionCallPart(&call))
			}
			contents, _ = sjson.SetRaw(contents, "-1", turn)
		}
	}
	flush()
	return contents, nil
}

// contentParts renders text and inline-image parts for a user turn.
func contentParts(content openai.Content) []string {
	var parts []string
	for _, part := range content.PartList() {
		switch part.Type {
		case "image_url":
			if part.ImageURL == nil {
				continue
			}
			mime, data, ok := parseDataURL(part.ImageURL.URL)
			if !ok {
				continue
			}
			inline := `{"inlineData":{"mimeType":"","data":""}}`
			inline, _ = sjson.Set(inline, "inlineData.mimeType", mime)
			inline, _ = sjson.Set(inline, "inlineData.data", data)
			parts = append(parts, inline)
		default:
			if part.Text == "" {
				continue
			}
			text, _ := sjson.Set(`{"text":""}`, "text", part.Text)
			parts = append(parts, text)
		}
	}
	return parts
}

// parseDataURL splits a data: URL into mime type and base64 payload.
func parseDataURL(url string) (mime, data string, ok bool) {
	if !strings.HasPrefix(url, "data:") {
		return "", "", false
	}
	meta, payload, found := strings.Cut(url[len("data:"):], ",")
	if !found {
		return "", "", false
	}
	mime = strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, payload, true
}

func functionCallPart(call *openai.ToolCall) string {
	part := `{"functionCall":{"name":"","args":{}}}`
	part, _ = sjson.Set(part, "functionCall.name", call.Function.Name)
	if gjson.Valid(call.Function.Arguments) && strings.HasPrefix(strings.TrimSpace(call.Function.Arguments), "{") {
		part, _ = sjson.SetRaw(part, "functionCall.args", call.Function.Arguments)
	}
	return part
}

func functionResponsePart(msg *openai.Message) string {
	part := `{"functionResponse":{"name":"","response":{}}}`
	name := msg.Name
	if name == "" {
		name = msg.ToolCallID
	}
	part, _ = sjson.Set(part, "functionResponse.name", name)
	if msg.ToolCallID != "" {
		part, _ = sjson.Set(part, "functionResponse.id", msg.ToolCallID)
	}
	text := msg.Content.PlainText()
	if gjson.Valid(text) && strings.HasPrefix(strings.TrimSpace(text), "{") {
		part, _ = sjson.SetRaw(part, "functionResponse.response", text)
	} else {
		part, _ = sjson.Set(part, "functionResponse.response.result", text)
	}
	return part
}

// applyGenerationConfig writes generationConfig, including thinkingConfig per
// the model entry. Thinking is suppressed for Claude-family models once the
// history contains tool traffic; a fixed budget that meets or exceeds the
// output limit raises the limit to the ceiling instead.
func applyGenerationConfig(out string, req *openai.ChatRequest, entry registry.ModelEntry) string {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = entry.OutputLimit
	}
	if req.Temperature != nil {
		out, _ = sjson.Set(out, "request.generationConfig.temperature", *req.Temperature)
	}
	if req.TopP != nil {
		out, _ = sjson.Set(out, "request.generationConfig.topP", *req.TopP)
	}

	suppress := ClaudeFamily(entry.UpstreamModel) && openai.HasToolHistory(req.Messages)
	switch {
	case suppress || entry.Thinking.Mode == registry.ThinkingNone:
		// no thinkingConfig
	case entry.Thinking.Mode == registry.ThinkingBudget:
		if maxTokens <= entry.Thinking.Budget {
			maxTokens = maxTokensCeiling
		}
		out, _ = sjson.Set(out, "request.generationConfig.thinkingConfig.thinkingBudget", entry.Thinking.Budget)
		out, _ = sjson.Set(out, "request.generationConfig.thinkingConfig.includeThoughts", true)
	case entry.Thinking.Mode == registry.ThinkingLevel:
		out, _ = sjson.Set(out, "request.generationConfig.thinkingConfig.thinkingLevel", entry.Thinking.Level)
	}

	out, _ = sjson.Set(out, "request.generationConfig.maxOutputTokens", maxTokens)
	return out
}

// ToolArgsJSON normalizes a functionCall args value to a compact JSON string.
func ToolArgsJSON(args gjson.Result) string {
	raw := args.Raw
	if raw == "" || !gjson.Valid(raw) {
		return "{}"
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(raw)); err != nil {
		return raw
	}
	return compact.String()
}
