package antigravity

import (
	"fmt"

	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/translator"
	"github.com/tidwall/gjson"
)

// MapFinishReason translates an upstream finish reason into the OpenAI
// vocabulary. Anything that is neither STOP nor MAX_TOKENS resolves by
// whether the reply produced tool calls.
func MapFinishReason(reason string, hasToolCalls bool) string {
	switch reason {
	case "STOP":
		return translator.FinishStop
	case "MAX_TOKENS":
		return translator.FinishLength
	default:
		if hasToolCalls {
			return translator.FinishToolCalls
		}
		return translator.FinishStop
	}
}

// responseRoot unwraps the v1internal envelope, which nests the generation
// payload under "response".
func responseRoot(body []byte) gjson.Result {
	root := gjson.ParseBytes(body)
	if wrapped := root.Get("response"); wrapped.Exists() {
		return wrapped
	}
	return root
}

// ParseResponse converts a full generateContent body into a chat completion.
// The first candidate wins; thought-flagged parts are excluded from the reply
// text.
func ParseResponse(body []byte, model string) (*openai.ChatCompletion, error) {
	root := responseRoot(body)
	candidate := root.Get("candidates.0")
	if !candidate.Exists() {
		return nil, fmt.Errorf("no candidates in upstream response")
	}

	var text string
	var toolCalls []openai.ToolCall
	candidate.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
		if part.Get("thought").Bool() {
			return true
		}
		if t := part.Get("text"); t.Exists() {
			text += t.String()
			return true
		}
		if call := part.Get("functionCall"); call.Exists() {
			toolCalls = append(toolCalls, toolCallFromPart(call))
		}
		return true
	})

	finish := MapFinishReason(candidate.Get("finishReason").String(), len(toolCalls) > 0)
	completion := openai.NewCompletion(model)
	message := &openai.ResponseMessage{Role: openai.RoleAssistant, Content: &text, ToolCalls: toolCalls}
	completion.Choices = []openai.Choice{{Index: 0, Message: message, FinishReason: &finish}}
	if usage := usageFrom(root); usage != nil {
		completion.Usage = usage
	}
	return completion, nil
}

func toolCallFromPart(call gjson.Result) openai.ToolCall {
	id := call.Get("id").String()
	if id == "" {
		id = openai.NewToolCallID()
	}
	return openai.ToolCall{
		ID:   id,
		Type: "function",
		Function: openai.FunctionCall{
			Name:      call.Get("name").String(),
			Arguments: ToolArgsJSON(call.Get("args")),
		},
	}
}

func usageFrom(root gjson.Result) *openai.Usage {
	meta := root.Get("usageMetadata")
	if !meta.Exists() {
		return nil
	}
	prompt := int(meta.Get("promptTokenCount").Int())
	completion := int(meta.Get("candidatesTokenCount").Int())
	total := int(meta.Get("totalTokenCount").Int())
	if total == 0 {
		total = prompt + completion
	}
	return &openai.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}
