package validator

import "testing"

func TestValidateEntityRejectsForbiddenAlias(t *testing.T) {
	raw := RawEntity{Text: "Smith v. Jones", EntityType: "CASE_CITATION", Confidence: 0.9, ForbiddenType: []byte(`"CASE_CITATION"`)}
	_, rej := ValidateEntity(raw, 1000)
	if rej == nil {
		t.Fatal("expected rejection for forbidden alias key")
	}
}

func TestValidateEntityRejectsUnknownType(t *testing.T) {
	raw := RawEntity{Text: "foo.txt", EntityType: "NOT_A_REAL_TYPE", Confidence: 0.5}
	_, rej := ValidateEntity(raw, 1000)
	if rej == nil {
		t.Fatal("expected rejection for unknown entity_type")
	}
}

func TestValidateEntityAccepts(t *testing.T) {
	start, end := 3, 10
	raw := RawEntity{Text: "example", EntityType: "CASE_CITATION", Confidence: 0.95, StartPos: &start, EndPos: &end}
	e, rej := ValidateEntity(raw, 1000)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej.Reason)
	}
	if e.StartPos != 3 || e.EndPos != 10 {
		t.Fatalf("unexpected positions: %+v", e)
	}
}

func TestValidateRelationshipRequiresKnownEndpoints(t *testing.T) {
	known := map[string]struct{}{"doc-1-e1": {}}
	raw := RawRelationship{SourceEntityID: "doc-1-e1", TargetEntityID: "doc-1-e2", RelationshipType: "CITES_CASE", Confidence: 0.9, EvidenceText: "as cited in"}
	_, rej := ValidateRelationship(raw, known, 0.85)
	if rej == nil {
		t.Fatal("expected rejection: target not in known entity set")
	}
}

func TestValidateRelationshipRejectsSelfLoop(t *testing.T) {
	known := map[string]struct{}{"doc-1-e1": {}}
	raw := RawRelationship{SourceEntityID: "doc-1-e1", TargetEntityID: "doc-1-e1", RelationshipType: "CITES_CASE", Confidence: 0.9, EvidenceText: "x"}
	_, rej := ValidateRelationship(raw, known, 0.85)
	if rej == nil {
		t.Fatal("expected rejection for self-loop relationship")
	}
}
