package antigravity

import (
	"encoding/json"
)

// schemaDenylist lists the JSON-Schema keywords the generative-content API
// rejects. Stripping is recursive over objects and arrays.
var schemaDenylist = map[string]struct{}{
	"$schema":              {},
	"$id":                  {},
	"$ref":                 {},
	"$defs":                {},
	"definitions":          {},
	"additionalProperties": {},
	"oneOf":                {},
	"anyOf":                {},
	"allOf":                {},
	"not":                  {},
	"patternProperties":    {},
	"minLength":            {},
	"maxLength":            {},
	"pattern":              {},
	"format":               {},
	"minItems":             {},
	"maxItems":             {},
	"uniqueItems":          {},
	"minProperties":        {},
	"maxProperties":        {},
	"multipleOf":           {},
	"exclusiveMinimum":     {},
	"exclusiveMaximum":     {},
	"const":                {},
	"default":              {},
	"examples":             {},
	"title":                {},
}

// SanitizeSchema strips unsupported JSON-Schema keywords from a tool
// parameter schema and infers type "object" for objects that declare
// properties without a type. The transform is a pure function of the input
// tree, so applying it twice yields the same result. Invalid JSON is
// returned unchanged; the upstream will produce the real error.
func SanitizeSchema(schema json.RawMessage) json.RawMessage {
	if len(schema) == 0 {
		return schema
	}
	var tree any
	if err := json.Unmarshal(schema, &tree); err != nil {
		return schema
	}
	cleaned := sanitizeNode(tree)
	out, err := json.Marshal(cleaned)
	if err != nil {
		return schema
	}
	return out
}

func sanitizeNode(node any) any {
	switch value := node.(type) {
	case map[string]any:
		cleaned := make(map[string]any, len(value))
		for key, child := range value {
			if _, banned := schemaDenylist[key]; banned {
				continue
			}
			cleaned[key] = sanitizeNode(child)
		}
		if _, hasProps := cleaned["properties"]; hasProps {
			if _, hasType := cleaned["type"]; !hasType {
				cleaned["type"] = "object"
			}
		}
		return cleaned
	case []any:
		cleaned := make([]any, len(value))
		for i, child := range value {
			cleaned[i] = sanitizeNode(child)
		}
		return cleaned
	default:
		return node
	}
}
