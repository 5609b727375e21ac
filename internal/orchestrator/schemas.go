package orchestrator

// These are the guided_json hints sent as InferenceClient's
// schema-constrained-decoding request field (spec.md §4.6). Field
// names match validator.RawEntity/RawRelationship; ValidateEntity and
// ValidateRelationship re-check independently of what the backend
// enforced.

var entitySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"entities": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text":        map[string]any{"type": "string"},
					"entity_type": map[string]any{"type": "string"},
					"start_pos":   map[string]any{"type": "integer"},
					"end_pos":     map[string]any{"type": "integer"},
					"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					"subtype":     map[string]any{"type": "string"},
					"category":    map[string]any{"type": "string"},
				},
				"required": []string{"text", "entity_type", "confidence"},
			},
		},
	},
	"required": []string{"entities"},
}

var relationshipSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"relationships": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"source_entity_id":  map[string]any{"type": "string"},
					"target_entity_id":  map[string]any{"type": "string"},
					"relationship_type": map[string]any{"type": "string"},
					"confidence":        map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					"evidence_text":     map[string]any{"type": "string"},
				},
				"required": []string{"source_entity_id", "target_entity_id", "relationship_type", "confidence", "evidence_text"},
			},
		},
	},
	"required": []string{"relationships"},
}

var combinedSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"entities":      entitySchema["properties"].(map[string]any)["entities"],
		"relationships": relationshipSchema["properties"].(map[string]any)["relationships"],
	},
	"required": []string{"entities", "relationships"},
}
