package codex

import (
	"fmt"

	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/translator"
	"github.com/tidwall/gjson"
)

// ParseResponse converts a full responses-API body into a chat completion.
// Two shapes exist in the wild: the newer output-items list and an older
// conversation-message shape. The newer shape wins when both could match.
func ParseResponse(body []byte, model string) (*openai.ChatCompletion, error) {
	root := gjson.ParseBytes(body)
	if inner := root.Get("response"); inner.Exists() {
		root = inner
	}

	var text string
	var toolCalls []openai.ToolCall
	matched := false

	if output := root.Get("output"); output.IsArray() {
		matched = true
		output.ForEach(func(_, item gjson.Result) bool {
			switch item.Get("type").String() {
			case "message":
				item.Get("content").ForEach(func(_, content gjson.Result) bool {
					if content.Get("type").String() == "output_text" {
						text += content.Get("text").String()
					}
					return true
				})
			case "function_call":
				toolCalls = append(toolCalls, toolCallFromItem(item))
			}
			return true
		})
	} else if parts := root.Get("message.content.parts"); parts.IsArray() {
		matched = true
		text = parts.Get("0").String()
	}
	if !matched {
		return nil, fmt.Errorf("unrecognized upstream response shape")
	}

	finish := translator.FinishStop
	if len(toolCalls) > 0 {
		finish = translator.FinishToolCalls
	}
	completion := openai.NewCompletion(model)
	message := &openai.ResponseMessage{Role: openai.RoleAssistant, Content: &text, ToolCalls: toolCalls}
	completion.Choices = []openai.Choice{{Index: 0, Message: message, FinishReason: &finish}}
	completion.Usage = usageFrom(root)
	return completion, nil
}

func toolCallFromItem(item gjson.Result) openai.ToolCall {
	id := item.Get("call_id").String()
	if id == "" {
		id = openai.NewToolCallID()
	}
	args := item.Get("arguments").String()
	if args == "" {
		args = "{}"
	}
	return openai.ToolCall{
		ID:   id,
		Type: "function",
		Function: openai.FunctionCall{
			Name:      item.Get("name").String(),
			Arguments: args,
		},
	}
}

func usageFrom(root gjson.Result) *openai.Usage {
	usage := root.Get("usage")
	if !usage.Exists() {
		return nil
	}
	prompt := int(usage.Get("input_tokens").Int())
	completion := int(usage.Get("output_tokens").Int())
	total := int(usage.Get("total_tokens").Int())
	if total == 0 {
		total = prompt + completion
	}
	return &openai.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}
