// Package resultsink provides a reference PostgreSQL-backed ResultSink
// (spec.md's external collaborator that receives one ExtractionResult
// per document). ResultSink is out-of-core (spec.md Non-goals exclude
// persistence semantics), but a concrete implementation is useful to
// exercise the rest of the domain stack's storage dependencies.
//
// Grounded on go-inference-service/main.go's pgxpool.Pool + schema-init
// + parameterized INSERT/SELECT pattern (initSchema, storeInferenceResult,
// findSimilarQueries), generalized from inference-cache rows to
// entity/relationship rows, with pgvector-go reused for an optional
// document-embedding column.
package resultsink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"legal-extraction-engine/internal/domain"
)

// Sink is the minimal ResultSink contract: accept exactly one
// ExtractionResult per document (spec.md §3 "Lifecycle").
type Sink interface {
	Store(ctx context.Context, documentID string, result *domain.ExtractionResult, embedding []float32) error
	Close()
}

// PostgresSink persists entities and relationships to PostgreSQL,
// optionally storing a document-level embedding via pgvector for
// downstream semantic search (out of this module's scope to compute).
type PostgresSink struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and ensures the schema exists.
func New(ctx context.Context, connString string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("resultsink: connect: %w", err)
	}
	s := &PostgresSink{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) initSchema(ctx context.Context) error {
	const schema = `
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS extraction_documents (
			document_id TEXT PRIMARY KEY,
			strategy TEXT NOT NULL,
			waves_executed INTEGER NOT NULL,
			tokens_used INTEGER NOT NULL,
			processing_time_ms BIGINT NOT NULL,
			embedding vector(768),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS extraction_entities (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES extraction_documents(document_id),
			text TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			start_pos INTEGER NOT NULL,
			end_pos INTEGER NOT NULL,
			confidence REAL NOT NULL,
			wave_number INTEGER,
			chunk_index INTEGER
		);

		CREATE TABLE IF NOT EXISTS extraction_relationships (
			document_id TEXT NOT NULL REFERENCES extraction_documents(document_id),
			source_entity_id TEXT NOT NULL,
			target_entity_id TEXT NOT NULL,
			relationship_type TEXT NOT NULL,
			confidence REAL NOT NULL,
			evidence_text TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_extraction_entities_document ON extraction_entities(document_id);
		CREATE INDEX IF NOT EXISTS idx_extraction_relationships_document ON extraction_relationships(document_id);
		CREATE INDEX IF NOT EXISTS idx_extraction_documents_embedding_hnsw ON extraction_documents
			USING hnsw (embedding vector_cosine_ops);
	`
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("resultsink: init schema: %w", err)
	}
	return nil
}

// Store writes one ExtractionResult transactionally. embedding may be
// nil when no document-level embedding was computed.
func (s *PostgresSink) Store(ctx context.Context, documentID string, result *domain.ExtractionResult, embedding []float32) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("resultsink: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var vec pgvector.Vector
	if embedding != nil {
		vec = pgvector.NewVector(embedding)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO extraction_documents (document_id, strategy, waves_executed, tokens_used, processing_time_ms, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id) DO UPDATE SET
			strategy = EXCLUDED.strategy, waves_executed = EXCLUDED.waves_executed,
			tokens_used = EXCLUDED.tokens_used, processing_time_ms = EXCLUDED.processing_time_ms,
			embedding = EXCLUDED.embedding
	`, documentID, string(result.Strategy), result.WavesExecuted, result.TokensUsed, result.ProcessingTime.Milliseconds(), vec)
	if err != nil {
		return fmt.Errorf("resultsink: insert document: %w", err)
	}

	for _, e := range result.Entities {
		_, err = tx.Exec(ctx, `
			INSERT INTO extraction_entities (id, document_id, text, entity_type, start_pos, end_pos, confidence, wave_number, chunk_index)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, documentID, e.Text, e.EntityType, e.StartPos, e.EndPos, e.Confidence, e.WaveNumber, e.ChunkIndex)
		if err != nil {
			return fmt.Errorf("resultsink: insert entity %s: %w", e.ID, err)
		}
	}

	for _, r := range result.Relationships {
		_, err = tx.Exec(ctx, `
			INSERT INTO extraction_relationships (document_id, source_entity_id, target_entity_id, relationship_type, confidence, evidence_text)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, documentID, r.SourceEntityID, r.TargetEntityID, r.RelationshipType, r.Confidence, r.EvidenceText)
		if err != nil {
			return fmt.Errorf("resultsink: insert relationship: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}
