// Package codex converts canonical chat requests and responses to and from
// the ChatGPT responses wire format: an instructions string plus a flat list
// of input items, with prefix-diffed streaming text.
package codex

import (
	"encoding/json"
	"strings"

	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/registry"
	log "github.com/sirupsen/logrus"
)

type requestBody struct {
	Model        string          `json:"model"`
	Instructions string          `json:"instructions,omitempty"`
	Input        []inputItem     `json:"input"`
	Tools        []toolDef       `json:"tools,omitempty"`
	Reasoning    *reasoningKnob  `json:"reasoning,omitempty"`
	MaxTokens    int             `json:"max_output_tokens,omitempty"`
	Temperature  *float64        `json:"temperature,omitempty"`
	TopP         *float64        `json:"top_p,omitempty"`
	Store        bool            `json:"store"`
	Stream       bool            `json:"stream"`
	ToolChoice   json.RawMessage `json:"tool_choice,omitempty"`
}

type inputItem struct {
	Type      string        `json:"type"`
	Role      string        `json:"role,omitempty"`
	Content   []contentItem `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Output    string        `json:"output,omitempty"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolDef struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type reasoningKnob struct {
	Effort string `json:"effort"`
}

// BuildRequest renders the responses-API body for one chat request. System
// messages become the instructions string; everything else maps 1:1 to input
// items in order. The upstream only serves streams, so stream is always true
// and non-streaming callers collect.
func BuildRequest(req *openai.ChatRequest, entry registry.ModelEntry) ([]byte, error) {
	body := requestBody{
		Model:       entry.UpstreamModel,
		Input:       buildInput(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Store:       false,
		Stream:      true,
	}

	var system []string
	for i := range req.Messages {
		if req.Messages[i].Role != openai.RoleSystem {
			continue
		}
		if text := req.Messages[i].Content.PlainText(); text != "" {
			system = append(system, text)
		}
	}
	body.Instructions = strings.Join(system, "\n\n")

	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, toolDef{
			Type:        "function",
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			Parameters:  tool.Function.Parameters,
		})
	}

	if entry.Thinking.Mode == registry.ThinkingLevel && entry.Thinking.Level != "" {
		body.Reasoning = &reasoningKnob{Effort: entry.Thinking.Level}
	}
	body.ToolChoice = mapToolChoice(req.ToolChoice)
	return json.Marshal(body)
}

// mapToolChoice forwards the OpenAI tool_choice value. The responses API
// names a forced function as {"type":"function","name":...} rather than
// nesting it under "function".
func mapToolChoice(choice any) json.RawMessage {
	switch value := choice.(type) {
	case nil:
		return nil
	case string:
		raw, err := json.Marshal(value)
		if err != nil {
			return nil
		}
		return raw
	case map[string]any:
		fn, _ := value["function"].(map[string]any)
		name, _ := fn["name"].(string)
		if name == "" {
			return nil
		}
		raw, err := json.Marshal(map[string]string{"type": "function", "name": name})
		if err != nil {
			return nil
		}
		return raw
	default:
		return nil
	}
}

func buildInput(messages []openai.Message) []inputItem {
	var items []inputItem
	for i := range messages {
		msg := &messages[i]
		switch msg.Role {
		case openai.RoleSystem:
			continue
		case openai.RoleTool:
			items = append(items, inputItem{
				Type:   "function_call_output",
				CallID: msg.ToolCallID,
				Output: msg.Content.PlainText(),
			})
		case openai.RoleAssistant:
			if text := msg.Content.PlainText(); text != "" {
				items = append(items, inputItem{
					Type:    "message",
					Role:    openai.RoleAssistant,
					Content: []contentItem{{Type: "output_text", Text: text}},
				})
			}
			for _, call := range msg.ToolCalls {
				args := call.Function.Arguments
				if args == "" {
					args = "{}"
				}
				items = append(items, inputItem{
					Type:      "function_call",
					CallID:    call.ID,
					Name:      call.Function.Name,
					Arguments: args,
				})
			}
		default:
			if dropped := nonTextParts(msg.Content); dropped > 0 {
				log.Debugf("codex: dropping %d non-text content part(s), upstream input is text only", dropped)
			}
			if text := msg.Content.PlainText(); text != "" {
				items = append(items, inputItem{
					Type:    "message",
					Role:    openai.RoleUser,
					Content: []contentItem{{Type: "input_text", Text: text}},
				})
			}
		}
	}
	return items
}

// nonTextParts counts the content parts that cannot be carried on this wire.
func nonTextParts(content openai.Content) int {
	count := 0
	for _, part := range content.PartList() {
		if part.Type != "text" {
			count++
		}
	}
	return count
}
