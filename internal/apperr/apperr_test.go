package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(UnknownModel("x")))
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(NoAccountAvailable("codex")))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(AuthExpired(errors.New("nope"))))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}

func TestToOpenAIJSON(t *testing.T) {
	body := ToOpenAIJSON(NoAccountAvailable("antigravity"))
	root := gjson.ParseBytes(body)
	assert.Equal(t, "api_error", root.Get("error.type").String())
	assert.Equal(t, int64(503), root.Get("error.code").Int())
	assert.Contains(t, root.Get("error.message").String(), "antigravity")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := AuthExpired(cause)
	assert.ErrorIs(t, err, cause)
}
