// Package merger implements the Merger (spec.md §2.6, §4.5): dedup of
// entities and relationships across waves and chunks, order-preserving
// with respect to first occurrence (spec.md §5 "Ordering guarantees"),
// plus context enrichment.
package merger

import (
	"legal-extraction-engine/internal/domain"
)

// DedupEntities applies the identity key (entity_type,
// lowercased_stripped(text)); first occurrence wins and a later exact
// duplicate is dropped. When fuzzyThreshold > 0, a simple fuzzy
// (Levenshtein-ratio) pass also merges a near-duplicate of the same
// type into the earlier record, keeping that record's ID and output
// position and the higher-confidence instance's fields. The "semantic"
// variant is not implemented.
func DedupEntities(entities []domain.Entity, fuzzyThreshold float64) []domain.Entity {
	seen := make(map[string]int, len(entities))
	var out []domain.Entity

	for _, e := range entities {
		key := e.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		if fuzzyThreshold > 0 {
			if idx, ok := fuzzyMatch(out, e, fuzzyThreshold); ok {
				if e.Confidence > out[idx].Confidence {
					out[idx] = mergeKeepingIdentity(out[idx], e)
				}
				continue
			}
		}
		seen[key] = len(out)
		out = append(out, e)
	}
	return out
}

// mergeKeepingIdentity keeps the winning (higher-confidence) entity's
// fields but preserves the identity-defining EntityType/Text of the
// surviving first-occurrence record's position in output ordering.
func mergeKeepingIdentity(existing, incoming domain.Entity) domain.Entity {
	incoming.ID = existing.ID
	return incoming
}

// fuzzyMatch does a simple case-insensitive substring/Levenshtein-ratio
// comparison against already-kept entities of the same type.
func fuzzyMatch(kept []domain.Entity, candidate domain.Entity, threshold float64) (int, bool) {
	for i, k := range kept {
		if k.EntityType != candidate.EntityType {
			continue
		}
		if similarity(k.Text, candidate.Text) >= threshold {
			return i, true
		}
	}
	return -1, false
}

// similarity is a normalized Levenshtein similarity in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	dist := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// DedupRelationships applies the identity key (source, type, target);
// first occurrence wins. Filtering (endpoint existence, source!=target,
// confidence floor) is applied by the caller (validator/orchestrator)
// before dedup runs, per spec.md §4.5.
func DedupRelationships(rels []domain.Relationship) []domain.Relationship {
	seen := make(map[string]struct{}, len(rels))
	var out []domain.Relationship
	for _, r := range rels {
		key := r.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// EnrichContext fills ContextBefore/ContextAfter with ±50 characters of
// surrounding document text, per spec.md §4.5.
func EnrichContext(entities []domain.Entity, documentText string) []domain.Entity {
	runes := []rune(documentText)
	for i, e := range entities {
		before := e.StartPos - 50
		if before < 0 {
			before = 0
		}
		after := e.EndPos + 50
		if after > len(runes) {
			after = len(runes)
		}
		if e.StartPos >= 0 && e.StartPos <= len(runes) {
			entities[i].ContextBefore = string(runes[before:min(e.StartPos, len(runes))])
		}
		if e.EndPos >= 0 && e.EndPos <= len(runes) {
			entities[i].ContextAfter = string(runes[max(e.EndPos, 0):after])
		}
	}
	return entities
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
