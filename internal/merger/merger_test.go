package merger

import (
	"testing"

	"legal-extraction-engine/internal/domain"
)

func TestDedupEntitiesFirstOccurrenceWins(t *testing.T) {
	entities := []domain.Entity{
		{ID: "d-e1", EntityType: "JUDGE", Text: "Hon. Jane Roe", Confidence: 0.7, StartPos: 0, EndPos: 13},
		{ID: "d-e2", EntityType: "JUDGE", Text: "  hon. jane roe  ", Confidence: 0.9, StartPos: 100, EndPos: 113},
	}
	out := DedupEntities(entities, 0)
	if len(out) != 1 {
		t.Fatalf("expected 1 deduped entity, got %d", len(out))
	}
	if out[0].ID != "d-e1" {
		t.Fatalf("expected surviving ID to be first occurrence's ID d-e1, got %s", out[0].ID)
	}
	if out[0].Confidence != 0.7 {
		t.Fatalf("expected first occurrence's fields to survive an exact duplicate, got %v", out[0].Confidence)
	}
}

func TestDedupEntitiesIdempotent(t *testing.T) {
	entities := []domain.Entity{
		{ID: "d-e1", EntityType: "PARTY", Text: "Acme Corp", Confidence: 0.8},
		{ID: "d-e2", EntityType: "PARTY", Text: "Beta LLC", Confidence: 0.8},
	}
	once := DedupEntities(entities, 0)
	twice := DedupEntities(once, 0)
	if len(once) != len(twice) {
		t.Fatalf("dedup is not idempotent: %d vs %d", len(once), len(twice))
	}
}

func TestDedupRelationshipsByIdentityKey(t *testing.T) {
	rels := []domain.Relationship{
		{SourceEntityID: "d-e1", TargetEntityID: "d-e2", RelationshipType: "CITES_CASE", Confidence: 0.6},
		{SourceEntityID: "d-e1", TargetEntityID: "d-e2", RelationshipType: "CITES_CASE", Confidence: 0.95},
		{SourceEntityID: "d-e1", TargetEntityID: "d-e3", RelationshipType: "CITES_CASE", Confidence: 0.6},
	}
	out := DedupRelationships(rels)
	if len(out) != 2 {
		t.Fatalf("expected 2 deduped relationships, got %d", len(out))
	}
	if out[0].Confidence != 0.6 {
		t.Fatalf("expected first occurrence to survive with its own confidence, got %v", out[0].Confidence)
	}
}

func TestEnrichContextBounds(t *testing.T) {
	text := "0123456789" // 10 chars
	entities := []domain.Entity{{StartPos: 2, EndPos: 4}}
	out := EnrichContext(entities, text)
	if out[0].ContextBefore != "01" {
		t.Fatalf("unexpected context before: %q", out[0].ContextBefore)
	}
	if out[0].ContextAfter != "456789" {
		t.Fatalf("unexpected context after: %q", out[0].ContextAfter)
	}
}
