package openai

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/stake-plus/veritrust/src/ai/core"
)

// toDefinition converts s to a JSON schema definition. Numeric bounds are dropped;
// the reply is range-checked after decoding.
func toDefinition(s *core.Schema) *jsonschema.Definition {
	def := &jsonschema.Definition{
		Type:        jsonschema.DataType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	if s.Items != nil {
		def.Items = toDefinition(s.Items)
	}
	if len(s.Properties) > 0 {
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, p := range s.Properties {
			def.Properties[name] = *toDefinition(p)
		}
	}
	return def
}
