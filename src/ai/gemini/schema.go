package gemini

import (
	"strings"

	"github.com/stake-plus/veritrust/src/ai/core"
)

// toSchema renders s in the OpenAPI subset generateContent accepts: upper-case type
// names and an explicit propertyOrdering.
func toSchema(s *core.Schema) map[string]interface{} {
	out := map[string]interface{}{"type": strings.ToUpper(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	if s.Items != nil {
		out["items"] = toSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = toSchema(p)
		}
		out["properties"] = props
	}
	if len(s.Order) > 0 {
		out["propertyOrdering"] = s.Order
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}
