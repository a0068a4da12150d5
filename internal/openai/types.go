// Package openai defines the OpenAI-compatible request/response shapes used
// as the pivot format between the public API and the provider adapters.
package openai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles used by the canonical message model.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatRequest is the body of POST /v1/chat/completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  any       `json:"tool_choice,omitempty"`
}

// Message is one canonical chat turn. Content accepts either a plain string
// or an ordered list of typed parts; both client forms are preserved.
type Message struct {
	Role       string     `json:"role"`
	Content    Content    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// Content is a string-or-parts union.
type Content struct {
	parts    []ContentPart
	text     string
	hasParts bool
}

// ContentPart is one element of a multi-part content payload.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries a data: URL for inline images.
type ImageURL struct {
	URL string `json:"url"`
}

// Text returns a Content holding a plain string.
func Text(s string) Content {
	return Content{text: s}
}

// Parts returns a Content holding typed parts.
func Parts(parts ...ContentPart) Content {
	return Content{parts: parts, hasParts: true}
}

// IsParts reports whether the content was supplied as a part list.
func (c Content) IsParts() bool { return c.hasParts }

// Parts returns the typed parts, or a single synthesized text part for plain
// string content.
func (c Content) PartList() []ContentPart {
	if c.hasParts {
		return c.parts
	}
	if c.text == "" {
		return nil
	}
	return []ContentPart{{Type: "text", Text: c.text}}
}

// PlainText flattens the content to text, joining parts with newlines.
func (c Content) PlainText() string {
	if !c.hasParts {
		return c.text
	}
	var segments []string
	for _, part := range c.parts {
		if part.Text != "" {
			segments = append(segments, part.Text)
		}
	}
	return strings.Join(segments, "\n")
}

// UnmarshalJSON accepts either a JSON string or an array of parts.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = Content{}
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = Content{parts: parts, hasParts: true}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*c = Content{text: text}
	return nil
}

// MarshalJSON writes the original client form back out.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.hasParts {
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

// ToolCall is a model-issued function invocation request.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the function and carries its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewToolCallID generates a synthetic tool call id for upstreams that omit one.
func NewToolCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// Tool is a caller-supplied tool definition.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef carries a tool's name, description and JSON-Schema parameters.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Usage mirrors the OpenAI usage accounting object.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletion is the non-streaming response object.
type ChatCompletion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one completion alternative (this gateway always produces one).
type Choice struct {
	Index        int              `json:"index"`
	Message      *ResponseMessage `json:"message,omitempty"`
	Delta        *Delta           `json:"delta,omitempty"`
	FinishReason *string          `json:"finish_reason"`
}

// ResponseMessage is the assistant message of a full completion.
type ResponseMessage struct {
	Role      string     `json:"role"`
	Content   *string    `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Delta is one streamed increment of the assistant message.
type Delta struct {
	Role      string      `json:"role,omitempty"`
	Content   *string     `json:"content,omitempty"`
	ToolCalls []ToolDelta `json:"tool_calls,omitempty"`
}

// ToolDelta is one streamed tool-call increment.
type ToolDelta struct {
	Index    int           `json:"index"`
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type,omitempty"`
	Function *FunctionCall `json:"function,omitempty"`
}

// NewCompletionID returns a fresh chat completion id.
func NewCompletionID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewCompletion builds an empty full completion envelope for model.
func NewCompletion(model string) *ChatCompletion {
	return &ChatCompletion{
		ID:      NewCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
	}
}

// NewChunk builds an empty streaming chunk envelope sharing id and model.
func NewChunk(id, model string) *ChatCompletion {
	return &ChatCompletion{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
	}
}

// HasToolHistory reports whether the conversation already contains any tool
// result message or assistant tool call.
func HasToolHistory(messages []Message) bool {
	for i := range messages {
		if messages[i].Role == RoleTool {
			return true
		}
		if messages[i].Role == RoleAssistant && len(messages[i].ToolCalls) > 0 {
			return true
		}
	}
	return false
}

// ValidateRequest performs the minimal structural checks the gateway relies on.
func ValidateRequest(req *ChatRequest) error {
	if req == nil {
		return fmt.Errorf("missing request")
	}
	if strings.TrimSpace(req.Model) == "" {
		return fmt.Errorf("missing model")
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("messages must not be empty")
	}
	return nil
}
