// Package entityid generates content-addressed, document-scoped
// entity and relationship IDs, resolving the open question in
// spec.md §9: the original source's hash(entity_type+text) IDs are not
// collision-free across waves; SPEC_FULL item 9 adopts IDs prefixed
// with the document id and a monotonic per-document counter instead.
package entityid

import (
	"fmt"
	"sync"
)

// Generator issues monotonically increasing, document-scoped IDs.
type Generator struct {
	documentID string
	mu         sync.Mutex
	nextEntity int
	nextRel    int
}

// New builds a Generator scoped to one document extraction.
func New(documentID string) *Generator {
	return &Generator{documentID: documentID}
}

// NextEntityID returns the next entity ID for this document, e.g.
// "doc-42-e3".
func (g *Generator) NextEntityID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextEntity++
	return fmt.Sprintf("%s-e%d", g.documentID, g.nextEntity)
}

// NextRelationshipID returns the next relationship ID for this
// document, e.g. "doc-42-r3".
func (g *Generator) NextRelationshipID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextRel++
	return fmt.Sprintf("%s-r%d", g.documentID, g.nextRel)
}
