// Package executor dispatches translated requests to the upstream providers
// and adapts their HTTP responses and SSE streams into the shared event
// model.
package executor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rotorgate/rotorgate/internal/auth"
	"github.com/rotorgate/rotorgate/internal/openai"
	"github.com/rotorgate/rotorgate/internal/registry"
	"github.com/rotorgate/rotorgate/internal/translator"
)

// Executor executes one chat request against an upstream provider.
//
// ExecuteStream returns an error for any failure that happens before the
// first response byte (including upstream 429), so the gateway can still
// rotate and retry. Once a channel is returned the request is committed; the
// channel is closed after the terminal event.
type Executor interface {
	Identifier() string
	Execute(ctx context.Context, account *auth.Account, req *openai.ChatRequest, entry registry.ModelEntry) (*openai.ChatCompletion, error)
	ExecuteStream(ctx context.Context, account *auth.Account, req *openai.ChatRequest, entry registry.ModelEntry) (<-chan translator.Event, error)
}

// statusErr is an upstream HTTP failure carrying the upstream status code
// and response body.
type statusErr struct {
	code int
	msg  string
}

func (e statusErr) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("upstream returned status %d", e.code)
}

// StatusCode reports the upstream HTTP status.
func (e statusErr) StatusCode() int { return e.code }

// NewStatusError builds an upstream status error. Exported for tests.
func NewStatusError(code int, msg string) error {
	return statusErr{code: code, msg: msg}
}

// IsRateLimited reports whether err is an upstream 429.
func IsRateLimited(err error) bool {
	se, ok := err.(statusErr)
	return ok && se.code == http.StatusTooManyRequests
}

// ssePayload extracts the JSON payload from one SSE line, returning nil for
// non-data lines and the [DONE] sentinel.
func ssePayload(line []byte) []byte {
	if !bytes.HasPrefix(line, []byte("data:")) {
		return nil
	}
	payload := bytes.TrimSpace(line[len("data:"):])
	if len(payload) == 0 || bytes.Equal(payload, []byte("[DONE]")) {
		return nil
	}
	return payload
}

// newScanner builds an SSE line scanner with a buffer large enough for big
// single-line payloads.
func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return scanner
}
