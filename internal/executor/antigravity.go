package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rotorgate/rotorgate/internal/auth"
	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/registry"
	"github.com/rotorgate/rotorgate/internal/translator"
	"github.com/rotorgate/rotorgate/internal/translator/antigravity"
	log "github.com/sirupsen/logrus"
)

const (
	antigravityUserAgent      = "antigravity/1.11.5 windows/amd64"
	antigravityAPIClient      = "gl-node/22.17.0"
	antigravityClientMetadata = "ideType=IDE_UNSPECIFIED,platform=PLATFORM_UNSPECIFIED,pluginType=GEMINI"

	antigravityGeneratePath = "/v1internal:generateContent"
	antigravityStreamPath   = "/v1internal:streamGenerateContent?alt=sse"
)

// AntigravityExecutor drives the generative-content upstream.
type AntigravityExecutor struct {
	client *http.Client
}

// NewAntigravityExecutor creates the executor. A nil client falls back to
// http.DefaultClient.
func NewAntigravityExecutor(client *http.Client) *AntigravityExecutor {
	if client == nil {
		client = http.DefaultClient
	}
	return &AntigravityExecutor{client: client}
}

// Identifier implements Executor.
func (e *AntigravityExecutor) Identifier() string { return string(registry.ProviderAntigravity) }

func (e *AntigravityExecutor) buildRequest(ctx context.Context, account *auth.Account, entry registry.ModelEntry, body []byte, stream bool) (*http.Request, error) {
	path := antigravityGeneratePath
	if stream {
		path = antigravityStreamPath
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, entry.EndpointBase+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+account.AccessToken)
	httpReq.Header.Set("User-Agent", antigravityUserAgent)
	httpReq.Header.Set("X-Goog-Api-Client", antigravityAPIClient)
	httpReq.Header.Set("Client-Metadata", antigravityClientMetadata)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	return httpReq, nil
}

// Execute performs a non-streaming completion call.
func (e *AntigravityExecutor) Execute(ctx context.Context, account *auth.Account, req *openai.ChatRequest, entry registry.ModelEntry) (*openai.ChatCompletion, error) {
	body, err := antigravity.BuildRequest(req, entry, account.ProjectID)
	if err != nil {
		return nil, err
	}
	httpReq, errReq := e.buildRequest(ctx, account, entry, body, false)
	if errReq != nil {
		return nil, errReq
	}
	resp, errDo := e.client.Do(httpReq)
	if errDo != nil {
		return nil, errDo
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("antigravity executor: close response body error: %v", errClose)
		}
	}()
	payload, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, errRead
	}
	if resp.StatusCode != http.StatusOK {
		log.Debugf("antigravity executor: upstream status %d: %s", resp.StatusCode, summarize(payload))
		return nil, statusErr{code: resp.StatusCode, msg: string(payload)}
	}
	return antigravity.ParseResponse(payload, req.Model)
}

// ExecuteStream performs a streaming call and adapts the SSE body into
// parsed events. Errors before the first response byte, including upstream
// 429, are returned directly so the caller can rotate.
func (e *AntigravityExecutor) ExecuteStream(ctx context.Context, account *auth.Account, req *openai.ChatRequest, entry registry.ModelEntry) (<-chan translator.Event, error) {
	body, err := antigravity.BuildRequest(req, entry, account.ProjectID)
	if err != nil {
		return nil, err
	}
	httpReq, errReq := e.buildRequest(ctx, account, entry, body, true)
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
			log.Errorf("antigravity executor: close error body error: %v", errClose)
		}
		log.Debugf("antigravity executor: upstream status %d: %s", resp.StatusCode, summarize(payload))
		return nil, statusErr{code: resp.StatusCode, msg: string(payload)}
	}

	out := make(chan translator.Event)
	go func() {
		defer close(out)
		defer func() {
			if errClose := resp.Body.Close(); errClose != nil {
				log.Errorf("antigravity executor: close stream body error: %v", errClose)
			}
		}()

		state := &antigravity.StreamState{}
		sawDone := false
		scanner := newScanner(resp.Body)
		for scanner.Scan() {
			payload := ssePayload(scanner.Bytes())
			if payload == nil {
				continue
			}
			for _, event := range state.ParseLine(payload) {
				if event.Kind == translator.EventUnrecognized {
					log.Warnf("antigravity executor: skipping malformed stream frame")
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

func send(ctx context.Context, out chan<- translator.Event, event translator.Event) {
	select {
	case out <- event:
	case <-ctx.Done():
	}
}

// summarize trims a payload for log output.
func summarize(payload []byte) string {
	const limit = 512
	if len(payload) > limit {
		return string(payload[:limit]) + "..."
	}
	return string(payload)
}
