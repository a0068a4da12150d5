// Package handlers implements the gateway's HTTP endpoints.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rotorgate/rotorgate/internal/api/middleware"
	"github.com/rotorgate/rotorgate/internal/apperr"
	"github.com/rotorgate/rotorgate/internal/auth"
	"github.com/rotorgate/rotorgate/internal/executor"
	"github.com/rotorgate/rotorgate/internal/normalizer"
	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/registry"
	"github.com/rotorgate/rotorgate/internal/translator"
	"github.com/rotorgate/rotorgate/internal/usage"
	log "github.com/sirupsen/logrus"
)

// ChatHandler orchestrates one chat completion: model resolution, account
// acquisition, credential refresh, upstream execution and response
// normalization, with at most one transparent rotation retry on 429.
type ChatHandler struct {
	registry  *registry.Registry
	pool      *auth.Pool
	store     auth.Store
	lifecycle *auth.Lifecycle
	executors map[registry.Provider]executor.Executor
}

// NewChatHandler wires the handler's collaborators.
func NewChatHandler(reg *registry.Registry, pool *auth.Pool, store auth.Store, lifecycle *auth.Lifecycle, executors map[registry.Provider]executor.Executor) *ChatHandler {
	return &ChatHandler{
		registry:  reg,
		pool:      pool,
		store:     store,
		lifecycle: lifecycle,
		executors: executors,
	}
}

// writeError renders err as an OpenAI-style error body with its HTTP status.
func writeError(c *gin.Context, err error) {
	c.Data(apperr.StatusOf(err), "application/json", apperr.ToOpenAIJSON(err))
}

// ChatCompletions handles POST /v1/chat/completions.
func (h *ChatHandler) ChatCompletions(c *gin.Context) {
	body, errRead := io.ReadAll(c.Request.Body)
	if errRead != nil {
		writeError(c, apperr.InvalidRequest(errRead))
		return
	}
	var req openai.ChatRequest
	if errUnmarshal := json.Unmarshal(body, &req); errUnmarshal != nil {
		writeError(c, apperr.InvalidRequest(errUnmarshal))
		return
	}
	if errValidate := openai.ValidateRequest(&req); errValidate != nil {
		writeError(c, apperr.InvalidRequest(errValidate))
		return
	}

	entry, ok := h.registry.Lookup(req.Model)
	if !ok {
		writeError(c, apperr.UnknownModel(req.Model))
		return
	}
	exec, ok := h.executors[entry.Provider]
	if !ok {
		writeError(c, apperr.New(http.StatusBadGateway, apperr.CodeUpstreamError, "no executor for provider "+string(entry.Provider), nil))
		return
	}

	account := h.pool.Current(entry.Provider)
	if account == nil {
		writeError(c, apperr.NoAccountAvailable(string(entry.Provider)))
		return
	}
	if errFresh := h.lifecycle.EnsureFresh(c.Request.Context(), account); errFresh != nil {
		writeError(c, errFresh)
		return
	}

	if req.Stream {
		h.streamCompletion(c, exec, account, &req, entry)
		return
	}
	h.fullCompletion(c, exec, account, &req, entry)
}

// rotateForRetry performs the single 429 rotation. The retry is valid only
// when the rotated account is a different one and its credential is usable.
func (h *ChatHandler) rotateForRetry(c *gin.Context, current *auth.Account, entry registry.ModelEntry) *auth.Account {
	rotated := h.pool.Advance(entry.Provider)
	if rotated == nil || rotated.ID == current.ID {
		return nil
	}
	if errFresh := h.lifecycle.EnsureFresh(c.Request.Context(), rotated); errFresh != nil {
		log.Warnf("gateway: rotated account %s is not usable: %v", rotated.ID, errFresh)
		return nil
	}
	middleware.CountRotationRetry(string(entry.Provider))
	log.Infof("gateway: rate limited on %s, retrying once with account %s", current.ID, rotated.ID)
	return rotated
}

func (h *ChatHandler) fullCompletion(c *gin.Context, exec executor.Executor, account *auth.Account, req *openai.ChatRequest, entry registry.ModelEntry) {
	// executors get a private snapshot; the shared account stays behind
	// its own lock
	completion, err := exec.Execute(c.Request.Context(), account.Snapshot(), req, entry)
	if executor.IsRateLimited(err) {
		if rotated := h.rotateForRetry(c, account, entry); rotated != nil {
			account = rotated
			completion, err = exec.Execute(c.Request.Context(), account.Snapshot(), req, entry)
		}
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if completion.Usage == nil {
		completion.Usage = usage.Estimate(req, completion)
	}
	h.pool.Touch(account, h.store)

	data, errMarshal := json.Marshal(completion)
	if errMarshal != nil {
		writeError(c, errMarshal)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (h *ChatHandler) streamCompletion(c *gin.Context, exec executor.Executor, account *auth.Account, req *openai.ChatRequest, entry registry.ModelEntry) {
	events, err := exec.ExecuteStream(c.Request.Context(), account.Snapshot(), req, entry)
	if executor.IsRateLimited(err) {
		if rotated := h.rotateForRetry(c, account, entry); rotated != nil {
			account = rotated
			events, err = exec.ExecuteStream(c.Request.Context(), account.Snapshot(), req, entry)
		}
	}
	if err != nil {
		writeError(c, err)
		return
	}

	// first byte of the response body; the retry window is closed
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher, _ := c.Writer.(http.Flusher)

	norm := normalizer.New(req.Model)
	for event := range events {
		if event.Kind == translator.EventDone && event.Err != nil {
			WriteSSEError(c.Writer, apperr.ToOpenAIJSON(event.Err))
			break
		}
		if chunk := norm.Chunk(event); chunk != nil {
			WriteSSEData(c.Writer, chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
	WriteSSEDone(c.Writer)
	if flusher != nil {
		flusher.Flush()
	}
	h.pool.Touch(account, h.store)
}
