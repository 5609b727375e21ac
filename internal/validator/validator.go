// Package validator implements the ResponseValidator (spec.md §4.7):
// parses the backend's content string as JSON into entity and
// relationship candidates and enforces per-entity/relationship rules.
// The decoded shape is the same for every wave; no wave-specific schema
// check is made.
//
// Grounded on original_source/src/schemas/guided_json_schemas.py's
// validation rules (forbidden aliases, required fields, confidence
// clamping-is-rejection) and on the teacher's general "drop and count"
// error handling idiom observed across go-inference-service/main.go's
// handlers.
package validator

import (
	"encoding/json"
	"unicode"

	"legal-extraction-engine/internal/domain"
	"legal-extraction-engine/internal/xerrors"
)

// RawEntity is the shape decoded directly off the wire, before
// validation promotes it to a domain.Entity. Forbidden aliases
// (type/start/end) are captured so their presence can be rejected.
type RawEntity struct {
	Text       string         `json:"text"`
	EntityType string         `json:"entity_type"`
	StartPos   *int           `json:"start_pos"`
	EndPos     *int           `json:"end_pos"`
	Confidence float64        `json:"confidence"`
	Subtype    string         `json:"subtype,omitempty"`
	Category   string         `json:"category,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	ForbiddenType  json.RawMessage `json:"type,omitempty"`
	ForbiddenStart json.RawMessage `json:"start,omitempty"`
	ForbiddenEnd   json.RawMessage `json:"end,omitempty"`
}

// RawRelationship is the wire shape for a relationship candidate.
type RawRelationship struct {
	SourceEntityID   string         `json:"source_entity_id"`
	TargetEntityID   string         `json:"target_entity_id"`
	RelationshipType string         `json:"relationship_type"`
	Confidence       float64        `json:"confidence"`
	EvidenceText     string         `json:"evidence_text"`
	ContextBefore    string         `json:"context_before,omitempty"`
	ContextAfter     string         `json:"context_after,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// WaveResponse is the decoded content of one LLM call: entities and/or
// relationships, depending on wave.
type WaveResponse struct {
	Entities      []RawEntity       `json:"entities"`
	Relationships []RawRelationship `json:"relationships"`
}

// Rejection records why a candidate was dropped, for result metadata.
type Rejection struct {
	Reason string
}

// ParseResponse decodes the backend content string as JSON. Because the
// backend decodes under grammar constraint, parse failure is
// exceptional: the entire response is dropped for that wave/chunk.
func ParseResponse(content string) (*WaveResponse, error) {
	var wr WaveResponse
	if err := json.Unmarshal([]byte(content), &wr); err != nil {
		return nil, xerrors.NewSchemaViolationError("failed to parse backend content as JSON: "+err.Error(), "content")
	}
	return &wr, nil
}

// ValidateEntity enforces spec.md §4.7's per-entity rules. Returns the
// promoted domain.Entity, or a Rejection explaining the drop.
func ValidateEntity(raw RawEntity, docCharLength int) (*domain.Entity, *Rejection) {
	if raw.ForbiddenType != nil || raw.ForbiddenStart != nil || raw.ForbiddenEnd != nil {
		return nil, &Rejection{Reason: "forbidden alias key present (type/start/end)"}
	}
	if !domain.IsKnownEntityType(raw.EntityType) {
		return nil, &Rejection{Reason: "entity_type not in enumeration: " + raw.EntityType}
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return nil, &Rejection{Reason: "confidence out of [0,1]"}
	}
	if raw.StartPos != nil && raw.EndPos != nil && *raw.EndPos < *raw.StartPos {
		return nil, &Rejection{Reason: "end_pos < start_pos"}
	}
	if hasControlAbuse(raw.Text) {
		return nil, &Rejection{Reason: "text contains NUL or control-character abuse"}
	}

	e := &domain.Entity{
		Text:       raw.Text,
		EntityType: raw.EntityType,
		Confidence: raw.Confidence,
		Subtype:    raw.Subtype,
		Category:   raw.Category,
		Metadata:   raw.Metadata,
	}
	if raw.StartPos != nil {
		e.StartPos = clampInt(*raw.StartPos, 0, docCharLength)
	}
	if raw.EndPos != nil {
		e.EndPos = clampInt(*raw.EndPos, 0, docCharLength)
	}
	return e, nil
}

// ValidateRelationship enforces spec.md §4.7's per-relationship rules
// plus the Orchestrator-level filters from §4.5 that ResponseValidator
// also checks at ingest: both endpoints present, non-empty fields,
// source != target, confidence >= floor.
func ValidateRelationship(raw RawRelationship, knownEntityIDs map[string]struct{}, confidenceFloor float64) (*domain.Relationship, *Rejection) {
	if raw.SourceEntityID == "" || raw.TargetEntityID == "" || raw.RelationshipType == "" || raw.EvidenceText == "" {
		return nil, &Rejection{Reason: "missing required field"}
	}
	if !domain.IsKnownRelationshipType(raw.RelationshipType) {
		return nil, &Rejection{Reason: "relationship_type not in enumeration: " + raw.RelationshipType}
	}
	if raw.SourceEntityID == raw.TargetEntityID {
		return nil, &Rejection{Reason: "source_entity_id == target_entity_id"}
	}
	if _, ok := knownEntityIDs[raw.SourceEntityID]; !ok {
		return nil, &Rejection{Reason: "source_entity_id not in current extraction"}
	}
	if _, ok := knownEntityIDs[raw.TargetEntityID]; !ok {
		return nil, &Rejection{Reason: "target_entity_id not in current extraction"}
	}
	if raw.Confidence < confidenceFloor {
		return nil, &Rejection{Reason: "confidence below relationship_confidence_floor"}
	}
	if hasControlAbuse(raw.EvidenceText) {
		return nil, &Rejection{Reason: "evidence_text contains NUL or control-character abuse"}
	}

	return &domain.Relationship{
		SourceEntityID:   raw.SourceEntityID,
		TargetEntityID:   raw.TargetEntityID,
		RelationshipType: raw.RelationshipType,
		Confidence:       raw.Confidence,
		EvidenceText:     raw.EvidenceText,
		ContextBefore:    raw.ContextBefore,
		ContextAfter:     raw.ContextAfter,
		Metadata:         raw.Metadata,
	}, nil
}

func hasControlAbuse(s string) bool {
	for _, r := range s {
		if r == 0 {
			return true
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
