package summary

import "github.com/invopop/jsonschema"

// JSONSchema describes the Summary shape for clients
func JSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}

	schema := r.Reflect(&Summary{})
	schema.Title = "Meeting summary"
	schema.Description = "Structured summary extracted from a meeting transcript."
	return schema
}
