package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"legal-extraction-engine/internal/chunking"
	"legal-extraction-engine/internal/domain"
	"legal-extraction-engine/internal/inference"
	"legal-extraction-engine/internal/prompt"
	"legal-extraction-engine/internal/routing"
)

func entitiesJSON(items ...string) string {
	out := `{"entities":[`
	for i, it := range items {
		if i > 0 {
			out += ","
		}
		out += it
	}
	out += `],"relationships":[]}`
	return out
}

func fakeEntity(text, etype string, start, end int) string {
	return fmt.Sprintf(`{"text":%q,"entity_type":%q,"start_pos":%d,"end_pos":%d,"confidence":0.9}`, text, etype, start, end)
}

func newTestOrchestrator(responder func(req inference.Request) (*inference.Response, error)) *Orchestrator {
	assembler := prompt.New(nil, time.Hour)
	chunker := chunking.New(chunking.Config{MaxChars: 200, MinChars: 50, OverlapChars: 0, MaxChunksPerDocument: 10})
	factory := func(service inference.ServiceType) inference.Client {
		return inference.NewFakeInferenceClient(responder)
	}
	cfg := Config{
		RelationshipConfidenceFloor: 0.85,
		MaxConcurrentChunks:         2,
	}
	return New(cfg, assembler, chunker, factory, nil)
}

func TestSinglePassExtraction(t *testing.T) {
	doc := domain.NewDocument("doc-1", "Short document mentioning Acme Corp.", nil)
	o := newTestOrchestrator(func(req inference.Request) (*inference.Response, error) {
		content := entitiesJSON(fakeEntity("Acme Corp", "PARTY", 26, 35))
		return &inference.Response{Choices: []inference.Choice{{Message: inference.Message{Content: content}}}}, nil
	})

	decision := routing.Decision{Strategy: domain.StrategySinglePass, Rationale: "test"}
	result, err := o.Extract(context.Background(), doc, decision, domain.SizeInfo{Category: domain.SizeVerySmall}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(result.Entities))
	}
	if result.Entities[0].ID != "doc-1-e1" {
		t.Fatalf("expected content-addressed id doc-1-e1, got %s", result.Entities[0].ID)
	}
	if result.Entities[0].PromptTemplate != "single_pass" {
		t.Fatalf("expected prompt_template=single_pass, got %s", result.Entities[0].PromptTemplate)
	}
}

func TestThreeWaveDedupsAcrossWaves(t *testing.T) {
	doc := domain.NewDocument("doc-2", "Judge Jane Roe presided over the matter.", nil)
	call := 0
	o := newTestOrchestrator(func(req inference.Request) (*inference.Response, error) {
		call++
		content := entitiesJSON(fakeEntity("Judge Jane Roe", "JUDGE", 0, 14))
		return &inference.Response{Choices: []inference.Choice{{Message: inference.Message{Content: content}}}}, nil
	})

	decision := routing.Decision{Strategy: domain.StrategyThreeWave, Rationale: "test"}
	result, err := o.Extract(context.Background(), doc, decision, domain.SizeInfo{Category: domain.SizeSmall}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call != 3 {
		t.Fatalf("expected exactly 3 wave calls, got %d", call)
	}
	if len(result.Entities) != 1 {
		t.Fatalf("expected dedup to collapse identical entities across waves to 1, got %d", len(result.Entities))
	}
}

func TestChunkedTreatsFailedChunkAsZeroEntities(t *testing.T) {
	text := ""
	for i := 0; i < 20; i++ {
		text += "This is sentence number filler to build a long document body. "
	}
	doc := domain.NewDocument("doc-3", text, nil)

	call := 0
	o := newTestOrchestrator(func(req inference.Request) (*inference.Response, error) {
		call++
		if call%5 == 0 {
			return nil, fmt.Errorf("simulated transient failure")
		}
		content := entitiesJSON(fakeEntity("filler", "DEFINED_TERM", 5, 11))
		return &inference.Response{Choices: []inference.Choice{{Message: inference.Message{Content: content}}}}, nil
	})

	decision := routing.Decision{Strategy: domain.StrategyThreeWaveChunked, Rationale: "test"}
	result, err := o.Extract(context.Background(), doc, decision, domain.SizeInfo{Category: domain.SizeLarge}, nil)
	if err != nil {
		t.Fatalf("expected overall success when at least one chunk succeeds, got error: %v", err)
	}
	if result.WavesExecuted != 3 {
		t.Fatalf("expected WavesExecuted=3, got %d", result.WavesExecuted)
	}
}
