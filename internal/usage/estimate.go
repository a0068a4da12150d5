// Package usage estimates token accounting when an upstream omits it.
package usage

import (
	"sync"

	"github.com/rotorgate/rotorgate/internal/openai"
	log "github.com/sirupsen/logrus"
	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

func getCodec() tokenizer.Codec {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			log.Warnf("usage: tokenizer unavailable, falling back to length heuristic: %v", err)
			return
		}
		codec = c
	})
	return codec
}

// CountText returns the token count of s. Falls back to a bytes/4 heuristic
// when the tokenizer cannot load.
func CountText(s string) int {
	if s == "" {
		return 0
	}
	if c := getCodec(); c != nil {
		if n, err := c.Count(s); err == nil {
			return n
		}
	}
	return (len(s) + 3) / 4
}

// Estimate fills in usage for a completed request when the upstream reported
// none. Prompt tokens count message text and tool definitions; completion
// tokens count reply text and tool-call arguments.
func Estimate(req *openai.ChatRequest, completion *openai.ChatCompletion) *openai.Usage {
	prompt := 0
	for i := range req.Messages {
		prompt += CountText(req.Messages[i].Content.PlainText())
		for _, call := range req.Messages[i].ToolCalls {
			prompt += CountText(call.Function.Name) + CountText(call.Function.Arguments)
		}
	}
	for _, tool := range req.Tools {
		prompt += CountText(tool.Function.Name) + CountText(tool.Function.Description) + CountText(string(tool.Function.Parameters))
	}

	out := 0
	if completion != nil {
		for _, choice := range completion.Choices {
			if choice.Message == nil {
				continue
			}
			if choice.Message.Content != nil {
				out += CountText(*choice.Message.Content)
			}
			for _, call := range choice.Message.ToolCalls {
				out += CountText(call.Function.Name) + CountText(call.Function.Arguments)
			}
		}
	}
	return &openai.Usage{PromptTokens: prompt, CompletionTokens: out, TotalTokens: prompt + out}
}
