package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rotorgate/rotorgate/internal/auth"
	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/registry"
	"github.com/rotorgate/rotorgate/internal/translator"
	"github.com/rotorgate/rotorgate/internal/translator/codex"
	log "github.com/sirupsen/logrus"
)

const (
	codexResponsesPath = "/responses"
	codexOriginator    = "codex_cli_rs"
	codexBetaHeader    = "responses=experimental"
)

// CodexExecutor drives the ChatGPT responses upstream. The upstream only
// serves SSE, so the non-streaming path collects the stream into one
// completion.
type CodexExecutor struct {
	client *http.Client
}

// NewCodexExecutor creates the executor. A nil client falls back to
// http.DefaultClient.
func NewCodexExecutor(client *http.Client) *CodexExecutor {
	if client == nil {
		client = http.DefaultClient
	}
	return &CodexExecutor{client: client}
}

// Identifier implements Executor.
func (e *CodexExecutor) Identifier() string { return string(registry.ProviderCodex) }

func (e *CodexExecutor) buildRequest(ctx context.Context, account *auth.Account, entry registry.ModelEntry, body []byte) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, entry.EndpointBase+codexResponsesPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+account.AccessToken)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("OpenAI-Beta", codexBetaHeader)
	httpReq.Header.Set("originator", codexOriginator)
	httpReq.Header.Set("session_id", uuid.NewString())
	return httpReq, nil
}

// ExecuteStream performs the streaming call. Errors before the first
// response byte, including upstream 429, are returned directly.
func (e *CodexExecutor) ExecuteStream(ctx context.Context, account *auth.Account, req *openai.ChatRequest, entry registry.ModelEntry) (<-chan translator.Event, error) {
	body, err := codex.BuildRequest(req, entry)
	if err != nil {
		return nil, err
	}
	httpReq, errReq := e.buildRequest(ctx, account, entry, body)
	if errReq != nil {
		return nil, errReq
	}
	resp, errDo := e.client.Do(httpReq)
	if errDo != nil {
		return nil, errDo
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("codex executor: close error body error: %v", errClose)
		}
		log.Debugf("codex executor: upstream status %d: %s", resp.StatusCode, summarize(payload))
		return nil, statusErr{code: resp.StatusCode, msg: string(payload)}
	}

	out := make(chan translator.Event)
	go func() {
		defer close(out)
		defer func() {
			if errClose := resp.Body.Close(); errClose != nil {
				log.Errorf("codex executor: close stream body error: %v", errClose)
			}
		}()

		state := codex.NewStreamState()
		sawDone := false
		scanner := newScanner(resp.Body)
		for scanner.Scan() {
			payload := ssePayload(scanner.Bytes())
			if payload == nil {
				continue
			}
			for _, event := range state.ParseLine(payload) {
				if event.Kind == translator.EventUnrecognized {
					log.Warnf("codex executor: skipping malformed stream frame")
				}
				if event.Kind == translator.EventDone {
					sawDone = true
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
		if errScan := scanner.Err(); errScan != nil && ctx.Err() == nil {
			send(ctx, out, translator.Event{
				Kind: translator.EventDone,
				Err:  fmt.Errorf("upstream stream read: %w", errScan),
			})
			return
		}
		if !sawDone {
			send(ctx, out, translator.Event{Kind: translator.EventDone, FinishReason: translator.FinishStop})
		}
	}()
	return out, nil
}

// Execute produces one full completion. The upstream usually answers with
// SSE even for logically non-streaming calls, in which case the stream is
// collected; a plain JSON answer is parsed directly.
func (e *CodexExecutor) Execute(ctx context.Context, account *auth.Account, req *openai.ChatRequest, entry registry.ModelEntry) (*openai.ChatCompletion, error) {
	body, err := codex.BuildRequest(req, entry)
	if err != nil {
		return nil, err
	}
	httpReq, errReq := e.buildRequest(ctx, account, entry, body)
	if errReq != nil {
		return nil, errReq
	}
	resp, errDo := e.client.Do(httpReq)
	if errDo != nil {
		return nil, errDo
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("codex executor: close response body error: %v", errClose)
		}
	}()
	payload, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, errRead
	}
	if resp.StatusCode != http.StatusOK {
		log.Debugf("codex executor: upstream status %d: %s", resp.StatusCode, summarize(payload))
		return nil, statusErr{code: resp.StatusCode, msg: string(payload)}
	}
	if !bytes.Contains([]byte(resp.Header.Get("Content-Type")), []byte("text/event-stream")) {
		return codex.ParseResponse(payload, req.Model)
	}
	return collectCodexStream(payload, req.Model)
}

// collectCodexStream folds a buffered SSE body into one completion.
func collectCodexStream(payload []byte, model string) (*openai.ChatCompletion, error) {
	state := codex.NewStreamState()

	var text string
	var toolCalls []openai.ToolCall
	finish := translator.FinishStop
	var usage *openai.Usage

	scanner := newScanner(bytes.NewReader(payload))
	for scanner.Scan() {
		data := ssePayload(scanner.Bytes())
		if data == nil {
			continue
		}
		for _, event := range state.ParseLine(data) {
			switch event.Kind {
			case translator.EventTextDelta:
				text += event.Text
			case translator.EventToolCall:
				toolCalls = append(toolCalls, *event.ToolCall)
			case translator.EventDone:
				if event.Err != nil {
					return nil, event.Err
				}
				if event.FinishReason != "" {
					finish = event.FinishReason
				}
				usage = event.Usage
			case translator.EventUnrecognized:
				log.Warnf("codex executor: skipping malformed stream frame")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	completion := openai.NewCompletion(model)
	message := &openai.ResponseMessage{Role: openai.RoleAssistant, Content: &text, ToolCalls: toolCalls}
	completion.Choices = []openai.Choice{{Index: 0, Message: message, FinishReason: &finish}}
	completion.Usage = usage
	return completion, nil
}
