package chunking

import "legal-extraction-engine/internal/domain"

// validateAndAdjust enforces spec.md §4.3's output invariants: no chunk
// below MinChars except possibly the last, and no more than
// MaxChunksPerDocument chunks (merging smallest neighbors if exceeded).
func (c *Chunker) validateAndAdjust(text string, chunks []domain.Chunk) []domain.Chunk {
	if len(chunks) == 0 {
		return chunks
	}

	// merge any undersized non-last chunk forward into its successor
	var adjusted []domain.Chunk
	for i := 0; i < len(chunks); i++ {
		ch := chunks[i]
		if len(ch.Text) < c.cfg.MinChars && i < len(chunks)-1 {
			next := chunks[i+1]
			merged := domain.Chunk{
				Text: ch.Text + next.Text, StartPos: ch.StartPos, EndPos: next.EndPos,
				ChunkType: ch.ChunkType, BoundaryKind: ch.BoundaryKind,
			}
			chunks[i+1] = merged
			continue
		}
		adjusted = append(adjusted, ch)
	}

	if c.cfg.MaxChunksPerDocument > 0 && len(adjusted) > c.cfg.MaxChunksPerDocument {
		adjusted = mergeSmallestNeighbors(adjusted, c.cfg.MaxChunksPerDocument)
	}

	for i := range adjusted {
		adjusted[i].Index = i
	}
	return adjusted
}
