package antigravity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestSanitizeStripsDenylistedKeys(t *testing.T) {
	in := json.RawMessage(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"name": {"type": "string", "minLength": 1, "pattern": "^[a-z]+$"},
			"mode": {"oneOf": [{"const": "fast"}, {"const": "slow"}]}
		}
	}`)
	out := SanitizeSchema(in)
	parsed := gjson.ParseBytes(out)

	assert.False(t, parsed.Get("$schema").Exists())
	assert.False(t, parsed.Get("additionalProperties").Exists())
	assert.False(t, parsed.Get("properties.name.minLength").Exists())
	assert.False(t, parsed.Get("properties.name.pattern").Exists())
	assert.False(t, parsed.Get("properties.mode.oneOf").Exists())
	assert.Equal(t, "string", parsed.Get("properties.name.type").String())
}

func TestSanitizeInfersObjectType(t *testing.T) {
	in := json.RawMessage(`{"properties": {"x": {"type": "number"}}}`)
	out := SanitizeSchema(in)
	assert.Equal(t, "object", gjson.GetBytes(out, "type").String())
}

func TestSanitizeRecursesIntoArraysAndNesting(t *testing.T) {
	in := json.RawMessage(`{
		"type": "object",
		"properties": {
			"items": {
				"type": "array",
				"items": {"properties": {"id": {"type": "string", "format": "uuid"}}}
			}
		}
	}`)
	out := SanitizeSchema(in)
	parsed := gjson.ParseBytes(out)
	assert.False(t, parsed.Get("properties.items.items.properties.id.format").Exists())
	assert.Equal(t, "object", parsed.Get("properties.items.items.type").String())
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`{"$ref": "#/x", "properties": {"a": {"default": 1}}}`,
		`{"type": "object"}`,
		`{"anyOf": [{"type": "string"}]}`,
	}
	for _, input := range inputs {
		once := SanitizeSchema(json.RawMessage(input))
		twice := SanitizeSchema(once)
		require.JSONEq(t, string(once), string(twice), input)
	}
}

func TestSanitizePassesThroughInvalidJSON(t *testing.T) {
	in := json.RawMessage(`not json`)
	assert.Equal(t, in, SanitizeSchema(in))
	assert.Empty(t, SanitizeSchema(nil))
}
