// Package orchestrator implements the Orchestrator (spec.md §4.5): the
// central scheduler driving SINGLE_PASS / THREE_WAVE / FOUR_WAVE /
// THREE_WAVE_CHUNKED strategies, context enrichment, dedup and failure
// semantics.
//
// Grounded on go-enhanced-rag-service/main.go's handler-orchestration
// style (sequential stage calls against shared clients) and on
// cuda-service-worker.go's bounded worker-pool pattern for chunked
// fan-out, generalized to the wave/chunk pipeline described in
// spec.md §4.5 and §5.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"legal-extraction-engine/internal/chunking"
	"legal-extraction-engine/internal/domain"
	"legal-extraction-engine/internal/entityid"
	"legal-extraction-engine/internal/inference"
	"legal-extraction-engine/internal/merger"
	"legal-extraction-engine/internal/prompt"
	"legal-extraction-engine/internal/routing"
	"legal-extraction-engine/internal/validator"
)

// Config carries the Orchestrator's own knobs (spec.md §6), distinct
// from InferenceClient's per-endpoint Config.
type Config struct {
	EntityTemperature           float64
	RelationshipTemperature     float64
	Seed                        int
	DedupSimilarityThreshold    float64
	RelationshipConfidenceFloor float64
	MaxConcurrentChunks         int
	PerWaveTimeout              time.Duration
	PerChunkTimeout             time.Duration
	ExtractionDeadline          time.Duration
	MaxTokensPerCall            int
}

// ClientFactory builds a fresh, not-yet-connected InferenceClient for a
// service type, deferring to internal/inference's own factory/config
// wiring. Kept as a function value so the Orchestrator never imports
// transport-layer concerns directly beyond the Client interface.
type ClientFactory func(service inference.ServiceType) inference.Client

// Orchestrator is the central scheduler, public contract Extract.
type Orchestrator struct {
	cfg       Config
	assembler *prompt.Assembler
	chunker   *chunking.Chunker
	logger    *zap.Logger
	newClient ClientFactory

	mu             sync.Mutex
	instructClient inference.Client
	thinkingClient inference.Client
	initGroup      singleflight.Group
}

// New builds an Orchestrator. logger may be nil (a no-op logger is
// substituted).
func New(cfg Config, assembler *prompt.Assembler, chunker *chunking.Chunker, newClient ClientFactory, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, assembler: assembler, chunker: chunker, newClient: newClient, logger: logger}
}

// Extract is the Orchestrator's public contract: extract(document,
// routing_decision, size_info, metadata?) → ExtractionResult.
func (o *Orchestrator) Extract(ctx context.Context, doc domain.Document, decision routing.Decision, size domain.SizeInfo, metadata map[string]any) (*domain.ExtractionResult, error) {
	if o.cfg.ExtractionDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.ExtractionDeadline)
		defer cancel()
	}

	start := time.Now()
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["routing_rationale"] = decision.Rationale
	metadata["size_category"] = string(size.Category)

	result := &domain.ExtractionResult{Strategy: decision.Strategy, Metadata: metadata}

	switch decision.Strategy {
	case domain.StrategyEmptyDocument, domain.StrategyInvalidDocument:
		result.ProcessingTime = time.Since(start)
		return result, nil

	case domain.StrategySinglePass:
		idGen := entityid.New(doc.ID)
		entities, rels, tokens, err := o.runSinglePass(ctx, doc, idGen)
		if err != nil {
			return nil, err
		}
		result.Entities = entities
		result.Relationships = rels
		result.WavesExecuted = 1
		result.TokensUsed = tokens

	case domain.StrategyThreeWave:
		idGen := entityid.New(doc.ID)
		entities, tokens, err := o.runThreeWave(ctx, doc.Text, doc.Text, idGen, nil)
		if err != nil {
			return nil, err
		}
		result.Entities = entities
		result.WavesExecuted = 3
		result.TokensUsed = tokens

	case domain.StrategyFourWave:
		idGen := entityid.New(doc.ID)
		entities, tokens3, err := o.runThreeWave(ctx, doc.Text, doc.Text, idGen, nil)
		if err != nil {
			return nil, err
		}
		rels, tokens4, err := o.runWave4(ctx, doc.Text, entities)
		if err != nil {
			o.logger.Warn("wave4 failed, degrading to waves 1-3 only", zap.Error(err))
			result.Entities = entities
			result.WavesExecuted = 3
			result.TokensUsed = tokens3
			result.ProcessingTime = time.Since(start)
			return result, nil
		}
		result.Entities = entities
		result.Relationships = rels
		result.WavesExecuted = 4
		result.TokensUsed = tokens3 + tokens4

	case domain.StrategyThreeWaveChunked:
		entities, tokens, chunkMeta, err := o.runChunked(ctx, doc)
		if err != nil {
			return nil, err
		}
		result.Entities = entities
		result.WavesExecuted = 3
		result.TokensUsed = tokens
		metadata["chunks"] = chunkMeta

	default:
		return nil, fmt.Errorf("unhandled strategy: %s", decision.Strategy)
	}

	result.ProcessingTime = time.Since(start)
	return result, nil
}

// runSinglePass implements the SINGLE_PASS strategy (spec.md §4.5).
func (o *Orchestrator) runSinglePass(ctx context.Context, doc domain.Document, idGen *entityid.Generator) ([]domain.Entity, []domain.Relationship, int, error) {
	client, err := o.instructClientReady(ctx)
	if err != nil {
		return nil, nil, 0, err
	}

	wctx, cancel := o.waveContext(ctx)
	defer cancel()

	promptText, err := o.assembler.Assemble(wctx, "single_pass", doc.Text, nil)
	if err != nil {
		return nil, nil, 0, err
	}

	resp, err := client.GenerateChatCompletion(wctx, o.buildRequest(promptText, o.cfg.EntityTemperature, combinedSchema))
	if err != nil {
		return nil, nil, 0, err
	}

	wr, err := validator.ParseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, nil, resp.Usage.TotalTokens, err
	}

	entities := o.promoteEntities(wr.Entities, doc.CharLength, idGen, nil, "single_pass")
	knownIDs := entityIDSet(entities)
	rels := o.promoteRelationships(wr.Relationships, knownIDs)

	entities = merger.EnrichContext(entities, doc.Text)
	return entities, rels, resp.Usage.TotalTokens, nil
}

// runThreeWave implements the THREE_WAVE core (spec.md §4.5): also used
// as the first stage of FOUR_WAVE and, per chunk, of
// THREE_WAVE_CHUNKED. documentText is the text to run extraction over
// (the whole document, or one chunk); enrichText is the text used for
// context_before/context_after, which must be the text the returned
// positions are relative to — callers pass the same value for both.
// In chunked mode runChunked re-enriches each chunk's entities against
// the whole document after shifting their positions, so ±50 chars can
// cross chunk boundaries.
func (o *Orchestrator) runThreeWave(ctx context.Context, documentText, enrichText string, idGen *entityid.Generator, chunkIndex *int) ([]domain.Entity, int, error) {
	client, err := o.instructClientReady(ctx)
	if err != nil {
		return nil, 0, err
	}

	var accumulated []domain.Entity
	totalTokens := 0

	for i, wave := range []string{"wave1", "wave2", "wave3"} {
		waveNum := i + 1
		wctx, cancel := o.waveContext(ctx)
		entities, tokens, err := o.runOneWave(wctx, client, wave, documentText, accumulated, &waveNum, chunkIndex, idGen)
		cancel()
		if err != nil {
			return nil, totalTokens, fmt.Errorf("wave %d failed: %w", waveNum, err)
		}
		totalTokens += tokens
		accumulated = append(accumulated, entities...)
	}

	accumulated = merger.EnrichContext(accumulated, enrichText)
	return merger.DedupEntities(accumulated, o.cfg.DedupSimilarityThreshold), totalTokens, nil
}

// runOneWave performs one wave-N entity-extraction call and promotes
// its response into domain.Entity values.
func (o *Orchestrator) runOneWave(ctx context.Context, client inference.Client, wave, documentText string, previous []domain.Entity, waveNum *int, chunkIndex *int, idGen *entityid.Generator) ([]domain.Entity, int, error) {
	promptText, err := o.assembler.Assemble(ctx, wave, documentText, previous)
	if err != nil {
		return nil, 0, err
	}
	resp, err := client.GenerateChatCompletion(ctx, o.buildRequest(promptText, o.cfg.EntityTemperature, entitySchema))
	if err != nil {
		return nil, 0, err
	}
	wr, err := validator.ParseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, resp.Usage.TotalTokens, err
	}
	entities := o.promoteEntities(wr.Entities, len([]rune(documentText)), idGen, waveNum, wave)
	for i := range entities {
		entities[i].ChunkIndex = chunkIndex
	}
	return entities, resp.Usage.TotalTokens, nil
}

// runWave4 implements the FOUR_WAVE relationship stage (spec.md §4.5),
// including the thinking-client degrade-to-instruct-client fallback.
func (o *Orchestrator) runWave4(ctx context.Context, documentText string, entities []domain.Entity) ([]domain.Relationship, int, error) {
	client, err := o.thinkingClientOrDegrade(ctx)
	if err != nil {
		return nil, 0, err
	}

	wctx, cancel := o.waveContext(ctx)
	defer cancel()

	promptText, err := o.assembler.Assemble(wctx, "wave4", documentText, entities)
	if err != nil {
		return nil, 0, err
	}
	resp, err := client.GenerateChatCompletion(wctx, o.buildRequest(promptText, o.cfg.RelationshipTemperature, relationshipSchema))
	if err != nil {
		return nil, 0, err
	}
	wr, err := validator.ParseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, resp.Usage.TotalTokens, err
	}

	knownIDs := entityIDSet(entities)
	rels := o.promoteRelationships(wr.Relationships, knownIDs)
	return merger.DedupRelationships(rels), resp.Usage.TotalTokens, nil
}

// runChunked implements THREE_WAVE_CHUNKED (spec.md §4.5, §5): bounded
// fan-out over chunks, each running the THREE_WAVE pipeline, tolerating
// per-chunk failure.
func (o *Orchestrator) runChunked(ctx context.Context, doc domain.Document) ([]domain.Entity, int, []map[string]any, error) {
	chunks := o.chunker.Chunk(doc.Text, "")
	if len(chunks) == 0 {
		return nil, 0, nil, fmt.Errorf("chunked strategy selected but chunker produced zero chunks")
	}

	idGen := entityid.New(doc.ID)
	maxConcurrent := o.cfg.MaxConcurrentChunks
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	sem := make(chan struct{}, maxConcurrent)

	type chunkOutcome struct {
		entities []domain.Entity
		tokens   int
		err      error
	}
	outcomes := make([]chunkOutcome, len(chunks))

	var wg sync.WaitGroup
	for i, ch := range chunks {
		wg.Add(1)
		go func(i int, ch domain.Chunk) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i] = chunkOutcome{err: ctx.Err()}
				return
			}

			cctx := ctx
			var cancel context.CancelFunc
			if o.cfg.PerChunkTimeout > 0 {
				cctx, cancel = context.WithTimeout(ctx, o.cfg.PerChunkTimeout)
				defer cancel()
			}

			chunkIndex := ch.Index
			entities, tokens, err := o.runThreeWave(cctx, ch.Text, ch.Text, idGen, &chunkIndex)
			if err != nil {
				outcomes[i] = chunkOutcome{err: err}
				return
			}
			for j := range entities {
				entities[j].StartPos += ch.StartPos
				entities[j].EndPos += ch.StartPos
			}
			entities = merger.EnrichContext(entities, doc.Text)
			outcomes[i] = chunkOutcome{entities: entities, tokens: tokens}
		}(i, ch)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, 0, nil, ctx.Err()
	}

	var allEntities []domain.Entity
	totalTokens := 0
	succeeded := 0
	chunkMeta := make([]map[string]any, len(chunks))
	for i, out := range outcomes {
		meta := map[string]any{"index": chunks[i].Index, "start_pos": chunks[i].StartPos, "end_pos": chunks[i].EndPos}
		if out.err != nil {
			meta["failed"] = true
			meta["error"] = out.err.Error()
			o.logger.Warn("chunk extraction failed", zap.Int("chunk_index", chunks[i].Index), zap.Error(out.err))
		} else {
			succeeded++
			allEntities = append(allEntities, out.entities...)
			totalTokens += out.tokens
		}
		chunkMeta[i] = meta
	}

	if succeeded == 0 {
		return nil, 0, chunkMeta, fmt.Errorf("all %d chunks failed", len(chunks))
	}

	deduped := merger.DedupEntities(allEntities, o.cfg.DedupSimilarityThreshold)
	return deduped, totalTokens, chunkMeta, nil
}

func (o *Orchestrator) waveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.PerWaveTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.cfg.PerWaveTimeout)
}

func (o *Orchestrator) buildRequest(promptText string, temperature float64, schema map[string]any) inference.Request {
	maxTokens := o.cfg.MaxTokensPerCall
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return inference.Request{
		Messages:    []inference.Message{{Role: "user", Content: promptText}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Seed:        o.cfg.Seed,
		GuidedJSON:  schema,
	}
}

func (o *Orchestrator) promoteEntities(raw []validator.RawEntity, docCharLength int, idGen *entityid.Generator, waveNum *int, promptTemplate string) []domain.Entity {
	var out []domain.Entity
	for _, r := range raw {
		e, rej := validator.ValidateEntity(r, docCharLength)
		if rej != nil {
			o.logger.Debug("entity rejected", zap.String("reason", rej.Reason))
			continue
		}
		e.ID = idGen.NextEntityID()
		e.WaveNumber = waveNum
		e.PromptTemplate = promptTemplate
		e.ExtractionMethod = "llm"
		out = append(out, *e)
	}
	return out
}

func (o *Orchestrator) promoteRelationships(raw []validator.RawRelationship, knownIDs map[string]struct{}) []domain.Relationship {
	var out []domain.Relationship
	for _, r := range raw {
		rel, rej := validator.ValidateRelationship(r, knownIDs, o.cfg.RelationshipConfidenceFloor)
		if rej != nil {
			o.logger.Debug("relationship rejected", zap.String("reason", rej.Reason))
			continue
		}
		out = append(out, *rel)
	}
	return out
}

func entityIDSet(entities []domain.Entity) map[string]struct{} {
	set := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		set[e.ID] = struct{}{}
	}
	return set
}

// instructClientReady lazily connects the entity-extraction client
// under single-flight + double-checked locking (spec.md §4.5).
func (o *Orchestrator) instructClientReady(ctx context.Context) (inference.Client, error) {
	o.mu.Lock()
	if o.instructClient != nil && o.instructClient.IsReady() {
		c := o.instructClient
		o.mu.Unlock()
		return c, nil
	}
	o.mu.Unlock()

	v, err, _ := o.initGroup.Do("instruct", func() (any, error) {
		o.mu.Lock()
		if o.instructClient != nil && o.instructClient.IsReady() {
			c := o.instructClient
			o.mu.Unlock()
			return c, nil
		}
		client := o.newClient(inference.ServiceInstruct)
		o.mu.Unlock()

		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		o.mu.Lock()
		o.instructClient = client
		o.mu.Unlock()
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(inference.Client), nil
}

// thinkingClientOrDegrade lazily connects the Wave 4 ("thinking")
// client; on health-check failure it logs a WARN and reuses the
// instruct client instead of failing the extraction (spec.md §4.5).
func (o *Orchestrator) thinkingClientOrDegrade(ctx context.Context) (inference.Client, error) {
	o.mu.Lock()
	if o.thinkingClient != nil && o.thinkingClient.IsReady() {
		c := o.thinkingClient
		o.mu.Unlock()
		return c, nil
	}
	o.mu.Unlock()

	v, _, _ := o.initGroup.Do("thinking", func() (any, error) {
		o.mu.Lock()
		if o.thinkingClient != nil && o.thinkingClient.IsReady() {
			c := o.thinkingClient
			o.mu.Unlock()
			return c, nil
		}
		client := o.newClient(inference.ServiceThinking)
		o.mu.Unlock()

		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		o.mu.Lock()
		o.thinkingClient = client
		o.mu.Unlock()
		return client, nil
	})
	if v != nil {
		return v.(inference.Client), nil
	}

	o.logger.Warn("wave4 thinking client unavailable, degrading to instruct client")
	return o.instructClientReady(ctx)
}
